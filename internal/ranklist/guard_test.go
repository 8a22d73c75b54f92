package ranklist

import (
	"errors"
	"sync"
	"testing"
)

func TestGuard_RejectsConcurrentMutation(t *testing.T) {
	g := NewGuard()

	release, err := g.Acquire("user1")
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	if _, err := g.Acquire("user1"); !errors.Is(err, ErrRecalcInProgress) {
		t.Fatalf("second acquire err = %v, want ErrRecalcInProgress", err)
	}

	// A different user is unaffected.
	otherRelease, err := g.Acquire("user2")
	if err != nil {
		t.Fatalf("acquire for other user: %v", err)
	}
	otherRelease()

	release()
	release2, err := g.Acquire("user1")
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	release2()
}

func TestGuard_OneWinnerUnderContention(t *testing.T) {
	g := NewGuard()

	const attempts = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	var wins int

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := g.Acquire("user1")
			if err != nil {
				return
			}
			mu.Lock()
			wins++
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	if wins == 0 {
		t.Fatalf("no goroutine acquired the guard")
	}
}
