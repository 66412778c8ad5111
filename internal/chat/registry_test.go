package chat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MegaGrindStone/portfolio-web/internal/chat"
)

func TestRegistryCreateGet(t *testing.T) {
	r := chat.NewRegistry(&mockCompleter{reply: "ok"}, testInstruction, chat.Options{Greeting: testGreeting}, time.Hour, discardLogger())

	a := r.Create()
	b := r.Create()
	if a.ID() == b.ID() {
		t.Fatalf("Create() returned duplicate IDs %q", a.ID())
	}

	got, err := r.Get(a.ID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != a {
		t.Error("Get() returned a different session")
	}

	if _, err := r.Get("missing"); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Errorf("Get(missing) error = %v, want %v", err, chat.ErrSessionNotFound)
	}

	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	if got := a.State().Transcript[0].Content; got != testGreeting {
		t.Errorf("seeded greeting = %q, want %q", got, testGreeting)
	}
}

func TestRegistrySweep(t *testing.T) {
	ttl := 10 * time.Minute
	r := chat.NewRegistry(&mockCompleter{reply: "ok"}, testInstruction, chat.Options{Greeting: testGreeting}, ttl, discardLogger())

	idle := r.Create()
	pending := r.Create()
	if _, err := pending.Accept("still waiting"); err != nil {
		t.Fatal(err)
	}

	if n := r.Sweep(time.Now()); n != 0 {
		t.Errorf("Sweep(now) evicted %d, want 0", n)
	}

	if n := r.Sweep(time.Now().Add(ttl + time.Minute)); n != 1 {
		t.Errorf("Sweep(after ttl) evicted %d, want 1", n)
	}
	if _, err := r.Get(idle.ID()); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Errorf("idle session still present, err = %v", err)
	}
	if _, err := r.Get(pending.ID()); err != nil {
		t.Errorf("pending session evicted, err = %v", err)
	}
}

func TestRegistryRunStops(t *testing.T) {
	r := chat.NewRegistry(&mockCompleter{}, testInstruction, chat.Options{}, time.Minute, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
