package lock

import (
	"context"
	"sync"
	"time"
)

var mu sync.Mutex

// held maps a key to a channel closed on release.
var held = map[string]chan struct{}{}

// WithDelay runs safeCode while holding key. It waits up to wait for the key and
// returns success=false on timeout or when ctx is done.
func WithDelay(ctx context.Context, key string, wait time.Duration, safeCode func() error) (success bool, err error) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		released, acquired := tryAcquire(key)
		if acquired {
			break
		}
		select {
		case <-released:
		case <-timer.C:
			return false, nil
		case <-ctx.Done():
			return false, nil
		}
	}
	defer release(key)
	return true, safeCode()
}

func tryAcquire(key string) (released <-chan struct{}, acquired bool) {
	mu.Lock()
	defer mu.Unlock()
	if ch, ok := held[key]; ok {
		return ch, false
	}
	held[key] = make(chan struct{})
	return nil, true
}

func release(key string) {
	mu.Lock()
	defer mu.Unlock()
	if ch, ok := held[key]; ok {
		close(ch)
		delete(held, key)
	}
}
