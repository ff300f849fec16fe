/*
Package body provides incremental response bodies: a producer writes byte
chunks to a Sink over time and a single consumer reads them in write order.

Two variants exist. A SyncStream runs the producer on the consumer's
goroutine, so every write reaches the consumer before it returns. An
AsyncStream runs the producer on one background goroutine that feeds a
bounded channel; the producer blocks once QueueCapacity chunks are unread.

	b, err := body.New(func(out body.Sink) error {
		for _, row := range rows {
			if _, err := out.Print(row, "\n"); err != nil {
				return err // consumer went away
			}
		}
		return nil
	}, body.WithAsync(16), body.WithCallback(release))
	if err != nil {
		return err
	}
	defer b.Close()

	for chunk, err := range b.All(ctx) {
		if err != nil {
			return err
		}
		w.Write(chunk)
	}

# Closing

Every body must be closed exactly once by its consumer. Close is idempotent
and the close callback runs only on the first call. A failing consumer closes
the sink: the producer's next write returns the consumer's error and Each
returns it too. Closing an async body releases a producer blocked on a full
queue and waits for its goroutine to exit.

# Loops

WithLoop re-runs the producer until the sink is closed. A failing iteration
is passed to the ErrorHandler: Reraise (the default) ends the body,
WriteAndContinue writes a message and keeps going. Panics in an iteration
are recovered into a *PanicError. Iterations can be paced with
WithLoopInterval or a cron spec via WithLoopSchedule.

Bodies are not restartable; a second Each returns ErrConsumed.
*/
package body
