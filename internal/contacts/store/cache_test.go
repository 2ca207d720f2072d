package store

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contacts/internal/contacts/models"
	platformredis "contacts/internal/platform/redis"
	"contacts/internal/sentinel"
)

// countingStore records how often the underlying store is hit.
type countingStore struct {
	*MemoryStore
	gets int
}

func (c *countingStore) GetContacts(ctx context.Context, username string) ([]models.Contact, error) {
	c.gets++
	return c.MemoryStore.GetContacts(ctx, username)
}

func newCacheFixture(t *testing.T) (*CachedStore, *countingStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := &platformredis.Client{
		Client: goredis.NewClient(&goredis.Options{Addr: mr.Addr()}),
	}
	t.Cleanup(func() { _ = client.Close() })

	inner := &countingStore{MemoryStore: NewMemory()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCached(inner, client, logger, nil), inner
}

func Test_CachedStore_ReadThrough(t *testing.T) {
	cached, inner := newCacheFixture(t)
	ctx := context.Background()

	c := contact("alice", "Bob S", "0000000001", "111111111")
	require.NoError(t, cached.AddContact(ctx, c))

	first, err := cached.GetContacts(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []models.Contact{c}, first)
	assert.Equal(t, 1, inner.gets)

	// Second read is served from cache.
	second, err := cached.GetContacts(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.gets)
}

func Test_CachedStore_InvalidatesOnAppend(t *testing.T) {
	cached, inner := newCacheFixture(t)
	ctx := context.Background()

	first := contact("alice", "Bob S", "0000000001", "111111111")
	require.NoError(t, cached.AddContact(ctx, first))

	_, err := cached.GetContacts(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, 1, inner.gets)

	second := contact("alice", "Carol", "0000000002", "111111111")
	require.NoError(t, cached.AddContact(ctx, second))

	// The append dropped the cached list; the next read sees both contacts.
	contacts, err := cached.GetContacts(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []models.Contact{first, second}, contacts)
	assert.Equal(t, 2, inner.gets)
}

// gatedStore lets a test hold a read open after the snapshot has been taken,
// so an append can land between the snapshot and the cache write-back.
type gatedStore struct {
	*MemoryStore
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) GetContacts(ctx context.Context, username string) ([]models.Contact, error) {
	contacts, err := g.MemoryStore.GetContacts(ctx, username)
	if g.armed.CompareAndSwap(true, false) {
		close(g.entered)
		<-g.release
	}
	return contacts, err
}

func Test_CachedStore_ConcurrentAppendSurvivesWriteBack(t *testing.T) {
	mr := miniredis.RunT(t)
	client := &platformredis.Client{
		Client: goredis.NewClient(&goredis.Options{Addr: mr.Addr()}),
	}
	t.Cleanup(func() { _ = client.Close() })

	inner := &gatedStore{
		MemoryStore: NewMemory(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cached := NewCached(inner, client, logger, nil)
	ctx := context.Background()

	// Hold the next miss open once it has snapshotted the (still empty) list.
	inner.armed.Store(true)
	readDone := make(chan error, 1)
	go func() {
		_, err := cached.GetContacts(ctx, "alice")
		readDone <- err
	}()
	<-inner.entered

	// The append commits and invalidates while the reader still holds its
	// pre-append snapshot.
	c := contact("alice", "Bob S", "0000000001", "111111111")
	require.NoError(t, cached.AddContact(ctx, c))

	close(inner.release)
	require.NoError(t, <-readDone)

	// The stale snapshot must not have been written back over the
	// invalidation: the very next read sees the appended contact.
	contacts, err := cached.GetContacts(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []models.Contact{c}, contacts)
}

func Test_CachedStore_DuplicateErrorsPassThrough(t *testing.T) {
	cached, _ := newCacheFixture(t)
	ctx := context.Background()

	require.NoError(t, cached.AddContact(ctx, contact("alice", "Bob S", "0000000001", "111111111")))

	err := cached.AddContact(ctx, contact("alice", "Bob S", "0000000002", "111111111"))
	require.ErrorIs(t, err, sentinel.ErrDuplicateLabel)
}
