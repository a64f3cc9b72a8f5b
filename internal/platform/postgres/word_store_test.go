package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/wordclaim/internal/domain"
	"github.com/phrazzld/wordclaim/internal/platform/postgres"
	"github.com/phrazzld/wordclaim/internal/store"
	"github.com/phrazzld/wordclaim/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadWords(t *testing.T, db *sql.DB, texts ...string) *postgres.PostgresWordStore {
	t.Helper()

	wordStore := postgres.NewPostgresWordStore(db, nil)
	err := store.RunInTransaction(context.Background(), db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := wordStore.WithTxWordStore(tx).BulkLoad(ctx, texts)
		return err
	})
	require.NoError(t, err)
	return wordStore
}

func TestWordStore_LoadAndPeek(t *testing.T) {
	db := testdb.Open(t)
	wordStore := loadWords(t, db, "AMOR", "PAZ", "LUZ")
	ctx := context.Background()

	count, err := wordStore.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	words, err := wordStore.Peek(ctx, 10)
	require.NoError(t, err)
	require.Len(t, words, 3)
	for i, text := range []string{"AMOR", "PAZ", "LUZ"} {
		assert.Equal(t, text, words[i].Text)
		assert.Equal(t, i, words[i].Sequence)
		assert.Equal(t, domain.WordStateUnassigned, words[i].State)
		assert.Equal(t, domain.SystemHolder, words[i].Holder)
		assert.NoError(t, words[i].Validate())
	}
}

func TestWordStore_ClaimLifecycle(t *testing.T) {
	db := testdb.Open(t)
	wordStore := loadWords(t, db, "AMOR", "PAZ")
	ctx := context.Background()
	now := time.Now().UTC()

	next, err := wordStore.NextUnassigned(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AMOR", next.Text)

	ok, err := wordStore.TryClaim(ctx, next.ID, "U1", now)
	require.NoError(t, err)
	require.True(t, ok)

	// A second claim of the same word matches nothing.
	ok, err = wordStore.TryClaim(ctx, next.ID, "U2", now)
	require.NoError(t, err)
	assert.False(t, ok)

	has, err := wordStore.HasActiveClaim(ctx, "U1")
	require.NoError(t, err)
	assert.True(t, has)

	active, err := wordStore.FindActive(ctx, "U1")
	require.NoError(t, err)
	assert.Equal(t, "AMOR", active.Text)
	require.NotNil(t, active.ClaimedAt)

	// U1 cannot take a second word.
	other, err := wordStore.NextUnassigned(ctx)
	require.NoError(t, err)
	assert.Equal(t, "PAZ", other.Text)
	ok, err = wordStore.TryClaim(ctx, other.ID, "U1", now)
	if err != nil {
		assert.ErrorIs(t, err, store.ErrHolderBusy)
	}
	assert.False(t, ok)
}

func TestWordStore_ReclaimStale(t *testing.T) {
	db := testdb.Open(t)
	wordStore := loadWords(t, db, "AMOR", "PAZ")
	ctx := context.Background()
	now := time.Now().UTC()

	words, err := wordStore.Peek(ctx, 2)
	require.NoError(t, err)

	ok, err := wordStore.TryClaim(ctx, words[0].ID, "U1", now.Add(-3*time.Minute))
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = wordStore.TryClaim(ctx, words[1].ID, "U2", now)
	require.NoError(t, err)
	require.True(t, ok)

	n, err := wordStore.ReclaimStaleFor(ctx, "U2", now.Add(-2*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = wordStore.ReclaimStale(ctx, now.Add(-2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// Re-running the sweep changes nothing.
	n, err = wordStore.ReclaimStale(ctx, now.Add(-2*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n)

	next, err := wordStore.NextUnassigned(ctx)
	require.NoError(t, err)
	assert.Equal(t, "AMOR", next.Text)
	assert.Nil(t, next.ClaimedAt)
	assert.Equal(t, domain.SystemHolder, next.Holder)

	has, err := wordStore.HasActiveClaim(ctx, "U2")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestWordStore_ResetAllIsIdempotent(t *testing.T) {
	db := testdb.Open(t)
	wordStore := loadWords(t, db, "AMOR", "PAZ")
	ctx := context.Background()

	next, err := wordStore.NextUnassigned(ctx)
	require.NoError(t, err)
	_, err = wordStore.TryClaim(ctx, next.ID, "U1", time.Now())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		n, err := wordStore.ResetAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		words, err := wordStore.Peek(ctx, 10)
		require.NoError(t, err)
		for _, w := range words {
			assert.Equal(t, domain.WordStateUnassigned, w.State)
			assert.Equal(t, domain.SystemHolder, w.Holder)
			assert.Nil(t, w.ClaimedAt)
		}
	}
}

func TestWordStore_ConcurrentClaimsOnSingleWord(t *testing.T) {
	db := testdb.Open(t)
	wordStore := loadWords(t, db, "AMOR")
	ctx := context.Background()

	word, err := wordStore.NextUnassigned(ctx)
	require.NoError(t, err)

	const claimants = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, err := wordStore.TryClaim(ctx, word.ID, fmt.Sprintf("U%d", i), time.Now())
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestWordStore_ConcurrentClaimsBySameParticipant(t *testing.T) {
	db := testdb.Open(t)
	texts := make([]string, 8)
	for i := range texts {
		texts[i] = fmt.Sprintf("W%d", i)
	}
	wordStore := loadWords(t, db, texts...)
	ctx := context.Background()

	words, err := wordStore.Peek(ctx, len(texts))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, w := range words {
		wg.Add(1)
		go func(w *domain.Word) {
			defer wg.Done()
			_, err := wordStore.TryClaim(ctx, w.ID, "U1", time.Now())
			if err != nil {
				assert.ErrorIs(t, err, store.ErrHolderBusy)
			}
		}(w)
	}
	wg.Wait()

	var held int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM words WHERE holder = 'U1' AND state = 'assigned'`).Scan(&held))
	assert.Equal(t, 1, held)
}

func TestWordStore_SchemaRejectsInconsistentRows(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()

	testdb.WithTx(t, db, func(tx *sql.Tx) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO words (id, text, seq, state, holder) VALUES (gen_random_uuid(), 'X', 0, 'assigned', 'U1')`)
		require.Error(t, err)
		assert.ErrorIs(t, postgres.MapError(err), store.ErrInvalidEntity)
	})
}
