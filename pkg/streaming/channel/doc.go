/*
Package channel provides a bounded, closable FIFO buffer for handing chunks
from one producer goroutine to one consumer goroutine.

Unlike a built-in Go channel, closing is safe from either side and never
panics: Close wakes every blocked Push and Pop, later pushes fail with
ErrChannelClosed, and pops drain whatever was buffered before reporting end
of stream.

Push blocks while the buffer holds Cap() values, which bounds memory no
matter how fast the producer runs:

	ch := channel.New[[]byte](10)

	go func() {
		defer ch.Close()
		for _, chunk := range chunks {
			if err := ch.Push(ctx, chunk); err != nil {
				return // consumer went away
			}
		}
	}()

	for {
		chunk, ok, err := ch.Pop(ctx)
		if err != nil || !ok {
			break
		}
		use(chunk)
	}

End of stream is reported as ok == false with a nil error. Errors from Pop
only come from the context. Both operations honor context cancellation while
they wait.

Configuration:

	ch := channel.NewWithConfig[[]byte](channel.Config{
		Capacity: 32,
		Name:     "events",
		OnBlock:  func() { blocked.Add(1) },
		Metrics:  metrics.DefaultRegistry,
	})

Stats reports push and pop counts, blocked pushes and buffer utilization.
*/
package channel
