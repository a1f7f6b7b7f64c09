package broker

import (
	"context"
	"errors"

	"github.com/predatorx7/logshipper/pkg/model"
)

// ErrClosed is returned by Publish once the broker is closed and by Receive
// once it is closed and drained.
var ErrClosed = errors.New("broker: channel closed")

// Publisher defines the interface for publishing log lines.
type Publisher interface {
	Publish(ctx context.Context, line model.Line) error
}

// Subscriber defines the interface for the single consumer of log lines.
type Subscriber interface {
	Receive(ctx context.Context) (model.Line, error)
}

// Broker combines Publisher and Subscriber interfaces.
type Broker interface {
	Publisher
	Subscriber
	Close()
	Stats() (uint64, uint64)
}
