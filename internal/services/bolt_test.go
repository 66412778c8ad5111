package services_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/MegaGrindStone/portfolio-web/internal/models"
	"github.com/MegaGrindStone/portfolio-web/internal/services"
	"github.com/google/go-cmp/cmp"
)

func TestBoltInbox(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inbox.db")
	ctx := context.Background()

	inbox, err := services.NewBoltInbox(path)
	if err != nil {
		t.Fatalf("NewBoltInbox() error = %v", err)
	}

	subs, err := inbox.Submissions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 0 {
		t.Errorf("new inbox has %d submissions", len(subs))
	}

	received := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	var ids []string
	for _, name := range []string{"Ada", "Grace", "Linus"} {
		id, err := inbox.AddSubmission(ctx, models.ContactSubmission{
			ID:         name,
			Name:       name,
			Email:      name + "@example.com",
			Message:    "Hello",
			ReceivedAt: received,
		})
		if err != nil {
			t.Fatalf("AddSubmission() error = %v", err)
		}
		ids = append(ids, id)
	}

	if diff := cmp.Diff([]string{"00000001-Ada", "00000002-Grace", "00000003-Linus"}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}

	if err := inbox.Close(); err != nil {
		t.Fatal(err)
	}

	// Submissions survive reopening the file.
	inbox, err = services.NewBoltInbox(path)
	if err != nil {
		t.Fatal(err)
	}
	defer inbox.Close()

	subs, err = inbox.Submissions(ctx)
	if err != nil {
		t.Fatalf("Submissions() error = %v", err)
	}

	var names []string
	for _, s := range subs {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"Linus", "Grace", "Ada"}, names); diff != "" {
		t.Errorf("submissions order mismatch (-want +got):\n%s", diff)
	}
	if !subs[0].ReceivedAt.Equal(received) {
		t.Errorf("ReceivedAt = %v, want %v", subs[0].ReceivedAt, received)
	}
	if subs[0].ID != "00000003-Linus" {
		t.Errorf("ID = %q, want the stored ID", subs[0].ID)
	}
}
