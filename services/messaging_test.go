package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestDirectMessaging(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.user(t, "+1", "alice")
	bob := env.user(t, "+2", "bob")
	carol := env.user(t, "+3", "carol")

	if _, err := env.messages.SendDirect(ctx, alice.ID, bob.ID, "hi"); err != nil {
		t.Fatalf("SendDirect: %v", err)
	}
	if _, err := env.messages.SendDirect(ctx, bob.ID, alice.ID, "hey"); err != nil {
		t.Fatalf("SendDirect: %v", err)
	}
	if _, err := env.messages.SendDirect(ctx, carol.ID, alice.ID, "psst"); err != nil {
		t.Fatalf("SendDirect: %v", err)
	}

	history, err := env.messages.DirectHistory(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("DirectHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %+v, want 2 entries", history)
	}
	if history[0].SenderID != alice.ID || history[0].Sender != "alice" || history[0].Text != "hi" {
		t.Errorf("first entry = %+v", history[0])
	}
	if history[1].SenderID != bob.ID || history[1].Text != "hey" {
		t.Errorf("second entry = %+v", history[1])
	}
	if !history[0].Time.Before(history[1].Time) {
		t.Error("history not in timestamp order")
	}
	if history[0].IsAdmin != nil {
		t.Error("direct history carries an admin flag")
	}

	// Both sides see the same conversation.
	reverse, _ := env.messages.DirectHistory(ctx, alice.ID, bob.ID)
	if len(reverse) != 2 || reverse[0].Text != "hi" {
		t.Errorf("reverse history = %+v", reverse)
	}
}

func TestSendDirectErrors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.user(t, "+1", "alice")
	bob := env.user(t, "+2", "bob")

	if _, err := env.messages.SendDirect(ctx, alice.ID, uuid.New(), "hi"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown receiver err = %v, want ErrNotFound", err)
	}
	if _, err := env.messages.SendDirect(ctx, alice.ID, bob.ID, "  "); !errors.Is(err, ErrValidation) {
		t.Errorf("blank text err = %v, want ErrValidation", err)
	}
}

func TestRecentChats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.user(t, "+1", "alice")
	bob := env.user(t, "+2", "bob")
	carol := env.user(t, "+3", "carol")
	env.user(t, "+4", "dave")

	for _, m := range []struct {
		from, to uuid.UUID
	}{
		{alice.ID, bob.ID},
		{bob.ID, alice.ID},
		{carol.ID, alice.ID},
		{alice.ID, alice.ID},
	} {
		if _, err := env.messages.SendDirect(ctx, m.from, m.to, "x"); err != nil {
			t.Fatal(err)
		}
	}

	users, err := env.messages.RecentChats(ctx, alice.ID)
	if err != nil {
		t.Fatalf("RecentChats: %v", err)
	}
	got := make(map[uuid.UUID]bool)
	for _, u := range users {
		got[u.ID] = true
	}
	if len(users) != 2 || !got[bob.ID] || !got[carol.ID] {
		t.Fatalf("RecentChats = %+v, want bob and carol", users)
	}

	empty, err := env.messages.RecentChats(ctx, uuid.New())
	if err != nil || len(empty) != 0 {
		t.Fatalf("RecentChats(stranger) = %+v, %v", empty, err)
	}
}

func TestGroupMessaging(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.user(t, "+1", "alice")
	bob := env.user(t, "+2", "bob")
	carol := env.user(t, "+3", "carol")
	group := env.group(t, alice, "Team")
	if _, err := env.memberships.AddMember(ctx, alice.ID, group.ID, bob.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := env.messages.SendGroup(ctx, alice.ID, group.ID, "welcome"); err != nil {
		t.Fatalf("SendGroup: %v", err)
	}
	if _, err := env.messages.SendGroup(ctx, bob.ID, group.ID, "thanks"); err != nil {
		t.Fatalf("SendGroup: %v", err)
	}

	history, err := env.messages.GroupHistory(ctx, bob.ID, group.ID)
	if err != nil {
		t.Fatalf("GroupHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %+v", history)
	}
	if history[0].Text != "welcome" || history[0].IsAdmin == nil || !*history[0].IsAdmin {
		t.Errorf("first entry = %+v, want admin message", history[0])
	}
	if history[1].Text != "thanks" || history[1].IsAdmin == nil || *history[1].IsAdmin {
		t.Errorf("second entry = %+v, want member message", history[1])
	}

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"outsider send", func() error { _, err := env.messages.SendGroup(ctx, carol.ID, group.ID, "hi"); return err }, ErrForbidden},
		{"outsider history", func() error { _, err := env.messages.GroupHistory(ctx, carol.ID, group.ID); return err }, ErrForbidden},
		{"unknown group send", func() error { _, err := env.messages.SendGroup(ctx, alice.ID, uuid.New(), "hi"); return err }, ErrNotFound},
		{"unknown group history", func() error { _, err := env.messages.GroupHistory(ctx, alice.ID, uuid.New()); return err }, ErrNotFound},
		{"blank text", func() error { _, err := env.messages.SendGroup(ctx, bob.ID, group.ID, ""); return err }, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	// A removed member can no longer read the group.
	if _, err := env.memberships.RemoveMember(ctx, alice.ID, group.ID, bob.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.messages.GroupHistory(ctx, bob.ID, group.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("removed member history err = %v, want ErrForbidden", err)
	}
}

func TestUserStoreList(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.user(t, "+1", "alice")
	env.user(t, "+2", "Bob")
	env.user(t, "+3", "bobby")
	env.user(t, "+4", "carol")

	all, err := env.users.List(ctx, alice.ID, "")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List = %d users, want 3", len(all))
	}
	for _, u := range all {
		if u.ID == alice.ID {
			t.Error("List included the requester")
		}
	}

	bobs, err := env.users.List(ctx, alice.ID, "BOB")
	if err != nil {
		t.Fatalf("List search: %v", err)
	}
	if len(bobs) != 2 {
		t.Fatalf("search = %+v, want Bob and bobby", bobs)
	}
}
