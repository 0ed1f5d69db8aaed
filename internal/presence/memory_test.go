package presence

import (
	"context"
	"testing"
	"time"
)

func TestActiveTypersReportsFreshSignals(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := store.SetTyping(context.Background(), "conv1", "alice", base); err != nil {
		t.Fatalf("SetTyping: %v", err)
	}

	typers, err := store.ActiveTypers(context.Background(), "conv1", base.Add(2*time.Second))
	if err != nil {
		t.Fatalf("ActiveTypers: %v", err)
	}
	if len(typers) != 1 || typers[0] != "alice" {
		t.Fatalf("expected alice typing at +2s, got %v", typers)
	}
}

func TestActiveTypersExpiresStaleSignalsWithoutClear(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := store.SetTyping(context.Background(), "conv1", "alice", base); err != nil {
		t.Fatalf("SetTyping: %v", err)
	}

	typers, err := store.ActiveTypers(context.Background(), "conv1", base.Add(6*time.Second))
	if err != nil {
		t.Fatalf("ActiveTypers: %v", err)
	}
	if len(typers) != 0 {
		t.Fatalf("expected no typers at +6s, got %v", typers)
	}
}

func TestClearTypingRemovesSignal(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := store.SetTyping(context.Background(), "conv1", "alice", base); err != nil {
		t.Fatalf("SetTyping: %v", err)
	}
	if err := store.ClearTyping(context.Background(), "conv1", "alice"); err != nil {
		t.Fatalf("ClearTyping: %v", err)
	}

	typers, err := store.ActiveTypers(context.Background(), "conv1", base.Add(time.Second))
	if err != nil {
		t.Fatalf("ActiveTypers: %v", err)
	}
	if len(typers) != 0 {
		t.Fatalf("expected no typers after clear, got %v", typers)
	}
}

func TestActiveTypersKeepsConversationsIndependent(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	_ = store.SetTyping(context.Background(), "conv1", "alice", base)
	_ = store.SetTyping(context.Background(), "conv2", "bob", base)

	typers, err := store.ActiveTypers(context.Background(), "conv1", base.Add(time.Second))
	if err != nil {
		t.Fatalf("ActiveTypers: %v", err)
	}
	if len(typers) != 1 || typers[0] != "alice" {
		t.Fatalf("expected only alice in conv1, got %v", typers)
	}
}
