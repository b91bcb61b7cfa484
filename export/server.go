package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang/glog"

	"github.com/w6rfk/arinst/sweep"
)

const (
	contentType            = "application/json"
	collectEndpoint        = "arinst/v1/collect"
	defaultSendFrameAmount = 20
)

// CollectServer batches frames and POSTs them to a collect server as JSON.
type CollectServer struct {
	Server           string
	SendFramesAmount int
}

func (s *CollectServer) Write(ctx context.Context, frames <-chan sweep.Frame) error {
	sendFramesAmount := defaultSendFrameAmount
	if s.SendFramesAmount > 0 {
		sendFramesAmount = s.SendFramesAmount
	}

	var framesToSend []sweep.Frame
	for frame := range frames {
		framesToSend = append(framesToSend, frame)
		if len(framesToSend) < sendFramesAmount {
			continue // we haven't collected enough frames to send yet
		}

		body, err := json.Marshal(framesToSend)
		if err != nil {
			glog.Warningf("error marshalling frames to JSON: %s\n", err)
			continue
		}
		framesToSend = nil

		resp, err := http.Post(fmt.Sprintf("%s/%s", strings.TrimRight(s.Server, "/"), collectEndpoint), contentType, bytes.NewBuffer(body))
		if err != nil {
			glog.Warningf("error POSTing frames: %s\n", err)
			continue
		}
		resp.Body.Close()
	}

	return nil
}
