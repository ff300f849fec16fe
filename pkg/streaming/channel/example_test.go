package channel

import (
	"context"
	"errors"
	"fmt"
)

// Example demonstrates basic push and pop.
func Example() {
	ch := New[string](3)
	ctx := context.Background()

	_ = ch.Push(ctx, "hello")
	_ = ch.Push(ctx, "world")
	_ = ch.Close()

	for {
		v, ok, _ := ch.Pop(ctx)
		if !ok {
			break
		}
		fmt.Println(v)
	}

	// Output:
	// hello
	// world
}

// Example_closedPush shows that pushing after close reports ErrChannelClosed.
func Example_closedPush() {
	ch := New[int](1)
	_ = ch.Close()

	err := ch.Push(context.Background(), 1)
	fmt.Println(errors.Is(err, ErrChannelClosed))

	// Output:
	// true
}

// Example_producerConsumer demonstrates a producer goroutine closing the
// channel when it is done.
func Example_producerConsumer() {
	ch := New[int](2)
	ctx := context.Background()

	go func() {
		defer ch.Close()
		for i := 1; i <= 4; i++ {
			if err := ch.Push(ctx, i*i); err != nil {
				return
			}
		}
	}()

	sum := 0
	for {
		v, ok, err := ch.Pop(ctx)
		if err != nil || !ok {
			break
		}
		sum += v
	}
	fmt.Println("sum:", sum)

	// Output:
	// sum: 30
}

// Example_statistics shows channel statistics.
func Example_statistics() {
	ch := New[int](4)
	defer ch.Close()
	ctx := context.Background()

	_ = ch.Push(ctx, 1)
	_ = ch.Push(ctx, 2)
	_, _, _ = ch.Pop(ctx)

	stats := ch.Stats()
	fmt.Printf("pushed=%d popped=%d utilization=%.2f\n", stats.PushCount, stats.PopCount, stats.BufferUtilization)

	// Output:
	// pushed=2 popped=1 utilization=0.25
}
