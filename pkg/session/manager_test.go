package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/tagbot"
	"github.com/aretw0/tagbot/pkg/adapters/memory"
	"github.com/aretw0/tagbot/pkg/bots/officehours"
	"github.com/aretw0/tagbot/pkg/domain"
	"github.com/aretw0/tagbot/pkg/ports"
	"github.com/aretw0/tagbot/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]domain.Snapshot
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]domain.Snapshot)
	}
	s.data[sessionID] = *snap
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap, ok := s.data[sessionID]; ok {
		return &snap, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func newBot(t *testing.T) *tagbot.Bot {
	t.Helper()
	bot, err := tagbot.New(officehours.Definition(), tagbot.WithStrictValidation())
	require.NoError(t, err)
	return bot
}

func TestManager_Locking(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(newBot(t), store)
	ctx := context.Background()
	id := "race-test"

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Respond(ctx, id, "thanks")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// Every turn is counted only if load/respond/save never interleave.
	snap, err := manager.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, workers, snap.Turns)
}

func TestManager_Flow(t *testing.T) {
	store := memory.NewStore()
	manager := session.NewManager(newBot(t), store)
	ctx := context.Background()

	reply, err := manager.Respond(ctx, "alice", "office hours for jeff")
	require.NoError(t, err)
	assert.Equal(t, "Are you asking about office hours for Jeff?", reply.Text)
	assert.Equal(t, "confirm_jeff", reply.State)
	assert.Equal(t, 1, reply.Turns)

	// Another conversation does not see alice's state.
	other, err := manager.Respond(ctx, "bob", "yes")
	require.NoError(t, err)
	assert.Equal(t, officehours.ConfusedMessage, other.Text)
	assert.Equal(t, string(officehours.StateWaiting), other.State)

	reply, err = manager.Respond(ctx, "alice", "yes")
	require.NoError(t, err)
	assert.Equal(t, "Jeff's office hours are Wednesdays 10am-noon in Fowler 309.", reply.Text)
	assert.Equal(t, string(officehours.StateWaiting), reply.State)
	assert.Equal(t, 2, reply.Turns)

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, ids)

	require.NoError(t, manager.Reset(ctx, "alice"))
	_, err = manager.Get(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_StaleStateIsDiscarded(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "old", &domain.Snapshot{State: "confirm_nobody", Turns: 4}))

	manager := session.NewManager(newBot(t), store)
	reply, err := manager.Respond(ctx, "old", "office hours for celia")
	require.NoError(t, err)
	assert.Equal(t, "confirm_celia", reply.State)
	assert.Equal(t, 5, reply.Turns)
}

type failingStore struct {
	ports.StateStore
}

func (failingStore) Load(context.Context, string) (*domain.Snapshot, error) {
	return nil, errors.New("disk on fire")
}

func TestManager_LoadFailure(t *testing.T) {
	manager := session.NewManager(newBot(t), failingStore{})
	_, err := manager.Respond(context.Background(), "x", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load session")
}

type recordingLocker struct {
	mu     sync.Mutex
	locked []string
	freed  int
}

func (l *recordingLocker) Lock(_ context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked = append(l.locked, key)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.freed++
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	manager := session.NewManager(newBot(t), memory.NewStore(), session.WithLocker(locker))

	_, err := manager.Respond(context.Background(), "s1", "thanks")
	require.NoError(t, err)

	assert.Equal(t, []string{"s1"}, locker.locked)
	assert.Equal(t, 1, locker.freed)
}
