package util

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Parallel runs fn for every input on at most workerLimit goroutines.
// Every input is attempted; failures (and recovered panics) are joined into the returned error.
// A cancelled ctx stops feeding new inputs.
func Parallel[T any](ctx context.Context, inputs []T, workerLimit int, fn func(context.Context, T) error) error {
	if len(inputs) == 0 {
		return nil
	}

	if workerLimit <= 0 {
		workerLimit = 1
	}
	if workerLimit > len(inputs) {
		workerLimit = len(inputs)
	}

	tasks := make(chan T)

	var (
		mu   sync.Mutex
		errs []error
	)

	// workers
	wg := sync.WaitGroup{}
	for i := 0; i < workerLimit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range tasks {
				if err := safeCall(ctx, item, fn); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}
		}()
	}

	// feed tasks
	func() {
		defer close(tasks)
		for _, item := range inputs {
			select {
			case <-ctx.Done():
				return
			case tasks <- item:
			}
		}
	}()

	wg.Wait()
	return errors.Join(errs...)
}

func safeCall[T any](ctx context.Context, item T, fn func(context.Context, T) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic on %v: %v", item, r)
		}
	}()
	return fn(ctx, item)
}
