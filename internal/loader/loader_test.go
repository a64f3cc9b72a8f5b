package loader_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/wordclaim/internal/loader"
	"github.com/phrazzld/wordclaim/internal/mocks"
	"github.com/phrazzld/wordclaim/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(t *testing.T, words *mocks.MemoryWordStore) []string {
	t.Helper()
	var out []string
	for _, w := range words.Snapshot() {
		out = append(out, w.Text)
	}
	return out
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "uppercases", input: "amor paz", want: []string{"AMOR", "PAZ"}},
		{name: "mixed whitespace", input: "  no\tprincípio\n\nera \r\no verbo ", want: []string{"NO", "PRINCÍPIO", "ERA", "O", "VERBO"}},
		{name: "punctuation kept", input: "Deus, disse:", want: []string{"DEUS,", "DISSE:"}},
		{name: "empty", input: "", want: nil},
		{name: "only whitespace", input: " \n\t ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loader.Tokenize(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPopulateIfEmpty_LoadsInSourceOrder(t *testing.T) {
	words := mocks.NewMemoryWordStore()
	l := loader.New(nil, words, nil)

	res, err := l.PopulateIfEmpty(context.Background(), writeSource(t, "amor paz\nfé"))
	require.NoError(t, err)
	assert.Equal(t, loader.Result{Loaded: 3}, res)

	snapshot := words.Snapshot()
	require.Len(t, snapshot, 3)
	for i, w := range snapshot {
		assert.Equal(t, i, w.Sequence)
		assert.False(t, w.IsAssigned())
	}
	assert.Equal(t, []string{"AMOR", "PAZ", "FÉ"}, texts(t, words))
}

func TestPopulateIfEmpty_LeavesPopulatedPoolAlone(t *testing.T) {
	words := mocks.NewMemoryWordStore("AMOR", "PAZ")
	log, buf := logger.NewTestLogger(t)
	l := loader.New(nil, words, log)

	res, err := l.PopulateIfEmpty(context.Background(), filepath.Join(t.TempDir(), "never-read.txt"))
	require.NoError(t, err)
	assert.Equal(t, loader.Result{Existing: 2}, res)
	assert.Zero(t, words.Calls(mocks.OpBulkLoad))
	logger.AssertLogContains(t, buf, "word pool already populated")
	logger.AssertLogContains(t, buf, "AMOR")
}

func TestPopulateIfEmpty_Errors(t *testing.T) {
	t.Run("missing source", func(t *testing.T) {
		l := loader.New(nil, mocks.NewMemoryWordStore(), nil)
		_, err := l.PopulateIfEmpty(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("empty source", func(t *testing.T) {
		words := mocks.NewMemoryWordStore()
		l := loader.New(nil, words, nil)
		_, err := l.PopulateIfEmpty(context.Background(), writeSource(t, "\n\n"))
		assert.ErrorIs(t, err, loader.ErrEmptySource)
		assert.Zero(t, words.Calls(mocks.OpBulkLoad))
	})

	t.Run("count failure", func(t *testing.T) {
		words := mocks.NewMemoryWordStore()
		dbErr := errors.New("connection refused")
		words.SetError(mocks.OpCount, dbErr)
		l := loader.New(nil, words, nil)
		_, err := l.PopulateIfEmpty(context.Background(), writeSource(t, "amor"))
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestLoad_RefusesPopulatedPool(t *testing.T) {
	words := mocks.NewMemoryWordStore("AMOR")
	l := loader.New(nil, words, nil)

	res, err := l.Load(context.Background(), strings.NewReader("paz"))
	assert.ErrorIs(t, err, loader.ErrPoolNotEmpty)
	assert.Equal(t, 1, res.Existing)
	assert.Equal(t, []string{"AMOR"}, texts(t, words))
}

func TestLoad_RunsInTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectCommit()

	words := mocks.NewMemoryWordStore()
	l := loader.New(db, words, nil)

	res, err := l.Load(context.Background(), strings.NewReader("amor paz"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Loaded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_RollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectRollback()

	words := mocks.NewMemoryWordStore()
	insertErr := errors.New("disk full")
	words.SetError(mocks.OpBulkLoad, insertErr)
	l := loader.New(db, words, nil)

	_, err = l.Load(context.Background(), strings.NewReader("amor paz"))
	assert.ErrorIs(t, err, insertErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNew_RequiresStore(t *testing.T) {
	assert.Panics(t, func() { loader.New(nil, nil, nil) })
}
