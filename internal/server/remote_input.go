package server

import (
	"fmt"
	"sync"

	"github.com/zeusync/orbiter/internal/core/input"
)

var _ input.Source = (*RemoteInput)(nil)

// RemoteInput is a KeyState shared between websocket readers and the
// simulation loop.
type RemoteInput struct {
	mu   sync.Mutex
	keys *input.KeyState
}

func NewRemoteInput() *RemoteInput {
	return &RemoteInput{keys: input.NewKeyState()}
}

// Apply records a key message.
func (r *RemoteInput) Apply(msg KeyMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch msg.Action {
	case "down":
		r.keys.Press(msg.Code)
	case "up":
		r.keys.Release(msg.Code)
	case "reset":
		r.keys.Reset()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKeyAction, msg.Action)
	}
	return nil
}

func (r *RemoteInput) Sample(frame int64) input.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.keys.Sample(frame)
}
