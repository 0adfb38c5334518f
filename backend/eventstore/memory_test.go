package eventstore

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreReconcilesAbandonedGeneratingStream(t *testing.T) {
	mem, err := NewMemoryStore(100, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	t.Cleanup(mem.Close)

	ctx := context.Background()
	if _, err := mem.Append(ctx, "stream-1", KindToken, []byte(`"x"`)); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	// No further Append/MarkCompleted/MarkFailed follows: the stream is
	// abandoned mid-generation. Give the sweep time to run.
	deadline := time.Now().Add(2 * time.Second)
	for {
		status, err := mem.Status(ctx, "stream-1")
		if err != nil {
			t.Fatalf("Status() error = %v", err)
		}
		if status == StatusFailed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Status() = %v, want eventual StatusFailed for an abandoned stream", status)
		}
		time.Sleep(5 * time.Millisecond)
	}

	// A second full ttl window later the entry is evicted outright.
	deadline = time.Now().Add(2 * time.Second)
	for {
		status, err := mem.Status(ctx, "stream-1")
		if err != nil {
			t.Fatalf("Status() error = %v", err)
		}
		if status == StatusAbsent {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Status() = %v, want eventual StatusAbsent after the failed entry's grace window", status)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestMemoryStoreReconcileReschedulesOnRecentTouch(t *testing.T) {
	mem, err := NewMemoryStore(100, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	t.Cleanup(mem.Close)

	ctx := context.Background()
	stop := time.Now().Add(120 * time.Millisecond)
	for time.Now().Before(stop) {
		if _, err := mem.Append(ctx, "stream-1", KindToken, []byte(`"x"`)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	status, err := mem.Status(ctx, "stream-1")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status != StatusGenerating {
		t.Fatalf("Status() = %v, want StatusGenerating: a stream touched within its ttl must not be reconciled away", status)
	}
}
