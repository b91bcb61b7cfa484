package export

import (
	"context"

	"github.com/w6rfk/arinst/sweep"
)

// Exporter consumes the frame stream until the channel closes.
type Exporter interface {
	Write(context.Context, <-chan sweep.Frame) error
}
