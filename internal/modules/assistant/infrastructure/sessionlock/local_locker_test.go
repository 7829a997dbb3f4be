package sessionlock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"CampusAssist/pkg/xerr"
)

func TestLocalLockerMutualExclusion(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	token, err := l.Acquire(ctx, "s1", time.Minute, 0)
	if err != nil {
		t.Fatal(err)
	}

	_, err = l.Acquire(ctx, "s1", time.Minute, 0)
	if !errors.Is(err, xerr.ErrSessionLocked) {
		t.Fatalf("second acquire should fail with session locked, got %v", err)
	}

	// 其它会话不受影响
	if _, err = l.Acquire(ctx, "s2", time.Minute, 0); err != nil {
		t.Fatalf("different key should acquire: %v", err)
	}

	if err = l.Release(ctx, "s1", token); err != nil {
		t.Fatal(err)
	}
	if _, err = l.Acquire(ctx, "s1", time.Minute, 0); err != nil {
		t.Fatalf("acquire after release should succeed: %v", err)
	}
}

func TestLocalLockerWrongTokenDoesNotRelease(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	if _, err := l.Acquire(ctx, "s1", time.Minute, 0); err != nil {
		t.Fatal(err)
	}
	if err := l.Release(ctx, "s1", "not-the-token"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Acquire(ctx, "s1", time.Minute, 0); !errors.Is(err, xerr.ErrSessionLocked) {
		t.Fatalf("lock should survive release with wrong token, got %v", err)
	}
}

func TestLocalLockerExpiredLockIsReclaimable(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	if _, err := l.Acquire(ctx, "s1", 10*time.Millisecond, 0); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := l.Acquire(ctx, "s1", time.Minute, 0); err != nil {
		t.Fatalf("expired lock should be reclaimable: %v", err)
	}
}

func TestLocalLockerWaitThenAcquire(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	token, err := l.Acquire(ctx, "s1", time.Minute, 0)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(60 * time.Millisecond)
		_ = l.Release(context.Background(), "s1", token)
	}()

	if _, err = l.Acquire(ctx, "s1", time.Minute, time.Second); err != nil {
		t.Fatalf("waiting acquire should succeed once released: %v", err)
	}
	wg.Wait()
}

func TestLocalLockerConcurrentSingleWinnerPerRound(t *testing.T) {
	l := NewLocalLocker()
	ctx := context.Background()

	const goroutines = 16
	var acquired int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Acquire(ctx, "s1", time.Minute, 0); err == nil {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if acquired != 1 {
		t.Fatalf("exactly one goroutine should win, got %d", acquired)
	}
}
