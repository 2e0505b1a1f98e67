package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeProducer struct {
	mu     sync.Mutex
	events []*Event
	err    error
}

func (f *fakeProducer) Emit(_ context.Context, event *Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return f.err
}

func (f *fakeProducer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func TestEmitAsync(t *testing.T) {
	p := &fakeProducer{}
	EmitAsync(p, &Event{Type: TypeSignIn, UserID: "u1"})

	deadline := time.Now().Add(2 * time.Second)
	for p.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("event was not emitted")
		}
		time.Sleep(5 * time.Millisecond)
	}

	p.mu.Lock()
	got := p.events[0]
	p.mu.Unlock()
	if got.Type != TypeSignIn || got.UserID != "u1" {
		t.Fatalf("unexpected event: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be filled")
	}
}

func TestEmitAsync_NilSafe(t *testing.T) {
	// must not panic or spawn goroutines
	EmitAsync(nil, &Event{Type: TypeSignIn})
	EmitAsync(&fakeProducer{}, nil)
}

func TestEmitAsync_KeepsExplicitTimestamp(t *testing.T) {
	p := &fakeProducer{}
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	EmitAsync(p, &Event{Type: TypeSignOut, CreatedAt: at})

	deadline := time.Now().Add(2 * time.Second)
	for p.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("event was not emitted")
		}
		time.Sleep(5 * time.Millisecond)
	}
	p.mu.Lock()
	got := p.events[0]
	p.mu.Unlock()
	if !got.CreatedAt.Equal(at) {
		t.Fatalf("expected timestamp %v, got %v", at, got.CreatedAt)
	}
}

func TestFanout(t *testing.T) {
	a := &fakeProducer{}
	b := &fakeProducer{}
	f := Fanout{a, nil, b}

	if err := f.Emit(context.Background(), &Event{Type: TypeSignUp}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if a.count() != 1 || b.count() != 1 {
		t.Fatalf("expected both producers to receive the event, got %d/%d", a.count(), b.count())
	}
}

func TestFanout_StopsOnError(t *testing.T) {
	wantErr := errors.New("broker down")
	a := &fakeProducer{err: wantErr}
	b := &fakeProducer{}
	f := Fanout{a, b}

	if err := f.Emit(context.Background(), &Event{Type: TypeSignIn}); !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
	if b.count() != 0 {
		t.Fatal("expected second producer to be skipped after error")
	}
}

func TestNewKafkaProducer_UnconfiguredIsNil(t *testing.T) {
	p, err := NewKafkaProducer(nil, "auth.events")
	if err != nil || p != nil {
		t.Fatalf("expected nil producer without brokers, got %v, %v", p, err)
	}
	p, err = NewKafkaProducer([]string{"localhost:9092"}, "")
	if err != nil || p != nil {
		t.Fatalf("expected nil producer without topic, got %v, %v", p, err)
	}
}
