package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"messenger/database"
	"messenger/models"
)

// testClock advances one second on every read so rows written in sequence
// get strictly increasing timestamps.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type testEnv struct {
	db          *gorm.DB
	clock       *testClock
	users       *UserStore
	memberships *MembershipService
	messages    *MessagingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(database.MemoryPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })

	clock := newTestClock()
	users := NewUserStore(db)
	users.now = clock.Now
	memberships := NewMembershipService(db, zap.NewNop())
	memberships.now = clock.Now
	messages := NewMessagingService(db, memberships)
	messages.now = clock.Now

	return &testEnv{db: db, clock: clock, users: users, memberships: memberships, messages: messages}
}

func (e *testEnv) user(t *testing.T, phone, name string) *models.User {
	t.Helper()
	u, _, err := e.users.UpsertByPhone(context.Background(), phone, name)
	if err != nil {
		t.Fatalf("create user %s: %v", phone, err)
	}
	return u
}

func (e *testEnv) group(t *testing.T, owner *models.User, name string) *models.Group {
	t.Helper()
	created, err := e.memberships.CreateGroup(context.Background(), owner.ID, name)
	if err != nil {
		t.Fatalf("create group %s: %v", name, err)
	}
	return &created.Group
}
