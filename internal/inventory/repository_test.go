package inventory

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/PTCG-Inventory/internal/catalog"
	"github.com/ramonehamilton/PTCG-Inventory/internal/events"
)

func strPtr(s string) *string { return &s }

func nextSnapshot[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	var zero T
	return zero
}

func assertQuiet[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected snapshot: %+v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRepository_WatchSets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := NewRepository(NewMemoryStore(), events.NewEventDispatcher())

	ch, err := repo.WatchSets(ctx)
	require.NoError(t, err)
	assert.Empty(t, nextSnapshot(t, ch))

	require.NoError(t, repo.UpsertSets(ctx, []catalog.Set{{ID: "sv1", Name: "Scarlet & Violet"}}))
	snap := nextSnapshot(t, ch)
	require.Len(t, snap, 1)

	require.NoError(t, repo.UpdateSetAbbreviation(ctx, "sv1", strPtr("SVI")))
	snap = nextSnapshot(t, ch)
	require.NotNil(t, snap[0].Abbreviation)
	assert.Equal(t, "SVI", *snap[0].Abbreviation)

	// Card mutations do not touch the set stream.
	_, err = repo.InsertCard(ctx, &catalog.Card{SetID: "sv1", LocalID: "1", Language: "en"})
	require.NoError(t, err)
	assertQuiet(t, ch)
}

func TestRepository_WatchCards_OneSnapshotPerMutation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := NewRepository(NewMemoryStore(), nil)

	ch, err := repo.WatchCards(ctx)
	require.NoError(t, err)
	assert.Empty(t, nextSnapshot(t, ch))

	id, err := repo.InsertCard(ctx, &catalog.Card{SetID: "sv1", LocalID: "25", Language: "en", Name: "Pikachu", Quantity: 1})
	require.NoError(t, err)
	snap := nextSnapshot(t, ch)
	require.Len(t, snap, 1)
	assert.Equal(t, 3, snap[0].Page)

	qty := 4
	_, err = repo.PatchCard(ctx, id, catalog.CardPatch{Quantity: &qty})
	require.NoError(t, err)
	snap = nextSnapshot(t, ch)
	assert.Equal(t, 4, snap[0].Quantity)

	require.NoError(t, repo.DeleteCard(ctx, id))
	assert.Empty(t, nextSnapshot(t, ch))

	assertQuiet(t, ch)
}

func TestRepository_StalledWatcherDoesNotBlockMutations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := NewRepository(NewMemoryStore(), nil)

	ch, err := repo.WatchCards(ctx)
	require.NoError(t, err)

	const inserts = 3 * watchBuffer
	done := make(chan error, 1)
	go func() {
		for i := 1; i <= inserts; i++ {
			if _, err := repo.InsertCard(ctx, &catalog.Card{SetID: "sv1", LocalID: strconv.Itoa(i), Language: "en"}); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("mutations blocked on a watcher that never reads")
	}

	var latest []catalog.CardSummary
drain:
	for {
		select {
		case latest = <-ch:
		case <-time.After(100 * time.Millisecond):
			break drain
		}
	}
	assert.Len(t, latest, inserts)
}

func TestRepository_FailedMutationPublishesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := NewRepository(NewMemoryStore(), nil)

	ch, err := repo.WatchCards(ctx)
	require.NoError(t, err)
	nextSnapshot(t, ch)

	err = repo.DeleteCard(ctx, 99)
	assert.True(t, errors.Is(err, ErrNotFound))
	assertQuiet(t, ch)
}

func TestRepository_MultipleSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := NewRepository(NewMemoryStore(), nil)

	a, err := repo.WatchSets(ctx)
	require.NoError(t, err)
	b, err := repo.WatchSets(ctx)
	require.NoError(t, err)
	nextSnapshot(t, a)
	nextSnapshot(t, b)

	require.NoError(t, repo.UpsertSets(ctx, []catalog.Set{{ID: "sv2"}}))
	assert.Len(t, nextSnapshot(t, a), 1)
	assert.Len(t, nextSnapshot(t, b), 1)
}

func TestRepository_WatchClosesWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	repo := NewRepository(NewMemoryStore(), nil)

	ch, err := repo.WatchCards(ctx)
	require.NoError(t, err)
	nextSnapshot(t, ch)

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("watch channel not closed")
	}
}
