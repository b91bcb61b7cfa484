package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/golang/glog"

	"github.com/w6rfk/arinst/sweep"
)

// CSV writes one row per scan point. Output goes to W, or stdout when unset.
type CSV struct {
	W io.Writer
}

func (c *CSV) Write(ctx context.Context, frames <-chan sweep.Frame) error {
	out := c.W
	if out == nil {
		out = os.Stdout
	}
	w := csv.NewWriter(out)
	w.Write([]string{
		"Source",
		"Identifier",
		"FreqHz",
		"AmplitudeDbm",
		"TimeUnixMilli",
	})

	for f := range frames {
		for i, freq := range f.FrequenciesHz {
			if err := w.Write([]string{
				f.Source,
				f.Identifier,
				fmt.Sprintf("%d", freq),
				fmt.Sprintf("%f", f.AmplitudesDbm[i]),
				fmt.Sprintf("%d", f.Timestamp.UnixMilli()),
			}); err != nil {
				glog.Warningf("error while writing CSV line: %s\n", err)
			}
		}

		w.Flush()
		if err := w.Error(); err != nil {
			glog.Warningf("error flushing CSV: %s\n", err)
		}
	}
	return nil
}
