package watch

import "context"

// Snapshot is one observation of a watched collection.
type Snapshot[T any] struct {
	Value T
	Err   error
}

// Snapshots loads the current value of topic on subscription and after each
// change signal. The returned channel holds at most one snapshot; a newer
// one replaces an unread older one. It is closed when ctx ends.
func Snapshots[T any](ctx context.Context, hub *Hub, topic string, load func(context.Context) (T, error)) <-chan Snapshot[T] {
	out := make(chan Snapshot[T], 1)
	signals := hub.Subscribe(ctx, topic)

	go func() {
		defer close(out)
		for range signals {
			value, err := load(ctx)
			if ctx.Err() != nil {
				return
			}
			snap := Snapshot[T]{Value: value, Err: err}

			// Drop the unread snapshot, if any, so the reader gets the latest
			select {
			case <-out:
			default:
			}
			out <- snap
		}
	}()
	return out
}
