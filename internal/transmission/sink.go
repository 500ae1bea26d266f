package transmission

import (
	"context"
	"errors"
)

// ErrUnexpectedStatus reports a collector answer other than 200 OK.
var ErrUnexpectedStatus = errors.New("unexpected collector status")

// Sink delivers one payload per call. A Send is a single attempt; the caller
// bounds it through ctx.
type Sink interface {
	Name() string
	Send(ctx context.Context, p Payload) error
	Close() error
}
