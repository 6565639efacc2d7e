package pubsub

import "context"

// Listen calls handle for every event received on ch until ctx is cancelled
// or ch is closed. It returns ctx.Err() on cancellation and nil on close.
func Listen[T any](ctx context.Context, ch <-chan Event[T], handle func(Event[T])) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			handle(event)
		}
	}
}
