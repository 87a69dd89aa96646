package scraper

import (
	"context"
	"errors"
	"testing"
	"time"
)

const testQuiet = 30 * time.Millisecond

func TestNetTracker_IdleAfterQuietWindow(t *testing.T) {
	tr := newNetTracker()
	tr.start("1")
	tr.finish("1")
	if tr.idle(testQuiet) {
		t.Fatal("idle right after a request finished")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	begin := time.Now()
	if err := tr.wait(ctx, testQuiet); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if elapsed := time.Since(begin); elapsed < testQuiet/2 {
		t.Errorf("returned after %s, before the quiet window", elapsed)
	}
}

func TestNetTracker_PendingBlocksUntilFinished(t *testing.T) {
	tr := newNetTracker()
	tr.start("a")
	tr.start("b")
	tr.finish("a")

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		done <- tr.wait(ctx, testQuiet)
	}()

	select {
	case err := <-done:
		t.Fatalf("wait returned with a request in flight: %v", err)
	case <-time.After(4 * testQuiet):
	}

	tr.finish("b")
	if err := <-done; err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestNetTracker_TimeoutWhileBusy(t *testing.T) {
	tr := newNetTracker()
	tr.start("stream")

	ctx, cancel := context.WithTimeout(context.Background(), 3*testQuiet)
	defer cancel()
	if err := tr.wait(ctx, testQuiet); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestNetTracker_UnknownFinishIgnored(t *testing.T) {
	tr := newNetTracker()
	time.Sleep(testQuiet)
	tr.finish("never-started")
	if !tr.idle(testQuiet) {
		t.Error("finishing an unknown request reset the quiet window")
	}
}
