package content

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// window deduplicates fetches of the same key. Concurrent callers share one
// in-flight fetch, and successful results are reused until ttl passes. A ttl
// of zero disables reuse but still shares in-flight fetches.
//
// A fetch records the key's generation when it is issued. Invalidate bumps the
// generation, so a fetch that was already in flight returns its result to its
// own callers but never replaces a newer cached value.
type window[T any] struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.Mutex
	gens    map[string]uint64
	entries map[string]windowEntry[T]
}

type windowEntry[T any] struct {
	value   T
	expires time.Time
}

func newWindow[T any](ttl time.Duration) *window[T] {
	return &window[T]{
		ttl:     ttl,
		now:     time.Now,
		gens:    map[string]uint64{},
		entries: map[string]windowEntry[T]{},
	}
}

func (w *window[T]) Get(ctx context.Context, key string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := w.cached(key); ok {
		return v, nil
	}

	// the shared fetch outlives any single caller giving up
	fetchCtx := context.WithoutCancel(ctx)

	// the generation read and the flight registration happen together so
	// Invalidate cannot slip between them
	w.mu.Lock()
	gen := w.gens[key]
	ch := w.group.DoChan(key, func() (any, error) {
		v, err := fetch(fetchCtx)
		if err != nil {
			return v, err
		}
		w.store(key, gen, v)
		return v, nil
	})
	w.mu.Unlock()

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Invalidate drops the cached value for key and supersedes any fetch in flight.
func (w *window[T]) Invalidate(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gens[key]++
	delete(w.entries, key)
	w.group.Forget(key)
}

func (w *window[T]) cached(key string) (T, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.entries[key]
	if !ok || w.ttl <= 0 || !w.now().Before(e.expires) {
		var zero T
		return zero, false
	}
	return e.value, true
}

func (w *window[T]) store(key string, gen uint64, v T) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ttl <= 0 || w.gens[key] != gen {
		return
	}
	w.entries[key] = windowEntry[T]{value: v, expires: w.now().Add(w.ttl)}
}
