package eventstore

import (
	"context"
	"testing"
	"time"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	mem, err := NewMemoryStore(100, time.Hour)
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	t.Cleanup(mem.Close)

	sqliteStore, err := OpenSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Store{"memory": mem, "sqlite": sqliteStore}
}

func TestStoreAppendIDsAreStrictlyIncreasingAndContiguous(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 5; i++ {
				id, err := s.Append(ctx, "stream-1", KindToken, []byte(`"x"`))
				if err != nil {
					t.Fatalf("Append() error = %v", err)
				}
				if id != int64(i+1) {
					t.Fatalf("Append() id = %d, want %d", id, i+1)
				}
			}
		})
	}
}

func TestStoreReadAfterIDReturnsStrictSuffix(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 6; i++ {
				if _, err := s.Append(ctx, "stream-1", KindToken, []byte(`"x"`)); err != nil {
					t.Fatalf("Append() error = %v", err)
				}
			}

			full, err := s.Read(ctx, "stream-1", 0)
			if err != nil || len(full) != 6 {
				t.Fatalf("Read(after_id=0) = %v, %v, want 6 events", full, err)
			}

			suffix, err := s.Read(ctx, "stream-1", 3)
			if err != nil {
				t.Fatalf("Read(after_id=3) error = %v", err)
			}
			if len(suffix) != 3 || suffix[0].ID != 4 {
				t.Fatalf("Read(after_id=3) = %+v, want ids 4..6", suffix)
			}
		})
	}
}

func TestStoreAbsentStreamReadsEmptyWithAbsentStatus(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			status, err := s.Status(ctx, "never-seen")
			if err != nil || status != StatusAbsent {
				t.Fatalf("Status() = %v, %v, want absent", status, err)
			}
			events, err := s.Read(ctx, "never-seen", 0)
			if err != nil || len(events) != 0 {
				t.Fatalf("Read() on absent stream = %v, %v, want empty", events, err)
			}
		})
	}
}

func TestStoreMarkCompletedSetsCompletedStatus(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := s.Append(ctx, "stream-1", KindToken, []byte(`"x"`)); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
			if err := s.MarkCompleted(ctx, "stream-1"); err != nil {
				t.Fatalf("MarkCompleted() error = %v", err)
			}
			status, err := s.Status(ctx, "stream-1")
			if err != nil || status != StatusCompleted {
				t.Fatalf("Status() = %v, %v, want completed", status, err)
			}
		})
	}
}

func TestStoreDistinctStreamsHaveIndependentIDSequences(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := s.Append(ctx, "a", KindToken, []byte(`"x"`)); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
			id, err := s.Append(ctx, "b", KindToken, []byte(`"y"`))
			if err != nil {
				t.Fatalf("Append() error = %v", err)
			}
			if id != 1 {
				t.Fatalf("Append() to stream b id = %d, want 1 (independent sequence)", id)
			}
		})
	}
}
