// Package loader populates the word pool from a source text.
//
// The source is split on whitespace and every token is uppercased; the
// token's position becomes the word's sequence. Population is all or
// nothing: the words are inserted inside one transaction, so a failed load
// leaves the pool empty and the next start retries it.
package loader

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/phrazzld/wordclaim/internal/platform/logger"
	"github.com/phrazzld/wordclaim/internal/store"
)

// SampleSize is how many words are logged when the pool is already populated.
const SampleSize = 5

// loadTxOptions serializes population so two replicas starting together
// cannot interleave their inserts; the later one fails and rolls back.
var loadTxOptions = &sql.TxOptions{Isolation: sql.LevelSerializable}

var (
	// ErrPoolNotEmpty is returned by Load when the pool already has words.
	ErrPoolNotEmpty = errors.New("word pool is already populated")

	// ErrEmptySource is returned when the source contains no tokens.
	ErrEmptySource = errors.New("source text contains no words")
)

// Result describes what a population run did.
type Result struct {
	// Loaded is the number of words inserted by this run.
	Loaded int
	// Existing is the pool size found before the run.
	Existing int
}

// Loader fills an empty pool.
type Loader struct {
	db     *sql.DB
	words  store.WordStore
	logger *slog.Logger
}

// New creates a Loader. db may be nil, in which case words are inserted
// without a surrounding transaction.
func New(db *sql.DB, words store.WordStore, logger *slog.Logger) *Loader {
	if words == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("words cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		db:     db,
		words:  words,
		logger: logger.With(slog.String("component", "loader")),
	}
}

// Tokenize reads r and returns its whitespace-separated tokens, uppercased,
// in source order.
func Tokenize(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(bufio.ScanWords)

	var tokens []string
	for scanner.Scan() {
		tokens = append(tokens, strings.ToUpper(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	return tokens, nil
}

// PopulateIfEmpty loads the file at path when the pool is empty. A
// populated pool is left alone and a small sample is logged instead.
func (l *Loader) PopulateIfEmpty(ctx context.Context, path string) (Result, error) {
	log := logger.FromContextOrDefault(ctx, l.logger)

	existing, err := l.words.Count(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to count words: %w", err)
	}
	if existing > 0 {
		l.logSample(ctx, log, existing)
		return Result{Existing: existing}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open source: %w", err)
	}
	defer func() { _ = f.Close() }()

	loaded, err := l.insert(ctx, log, f)
	if err != nil {
		return Result{}, err
	}
	return Result{Loaded: loaded}, nil
}

// Load inserts the tokens of r into an empty pool. It returns
// ErrPoolNotEmpty if words already exist.
func (l *Loader) Load(ctx context.Context, r io.Reader) (Result, error) {
	log := logger.FromContextOrDefault(ctx, l.logger)

	existing, err := l.words.Count(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to count words: %w", err)
	}
	if existing > 0 {
		return Result{Existing: existing}, fmt.Errorf("%w: %d words", ErrPoolNotEmpty, existing)
	}

	loaded, err := l.insert(ctx, log, r)
	if err != nil {
		return Result{}, err
	}
	return Result{Loaded: loaded}, nil
}

func (l *Loader) insert(ctx context.Context, log *slog.Logger, r io.Reader) (int, error) {
	tokens, err := Tokenize(r)
	if err != nil {
		return 0, err
	}
	if len(tokens) == 0 {
		return 0, ErrEmptySource
	}

	log.Info("populating word pool", slog.Int("words", len(tokens)))

	var loaded int
	load := func(ctx context.Context, words store.WordStore) error {
		n, err := words.BulkLoad(ctx, tokens)
		if err != nil {
			return err
		}
		loaded = n
		return nil
	}

	if l.db == nil {
		err = load(ctx, l.words)
	} else {
		err = store.RunInTransactionWithOptions(ctx, l.db, loadTxOptions, func(ctx context.Context, tx *sql.Tx) error {
			return load(ctx, l.words.WithTxWordStore(tx))
		})
	}
	if err != nil {
		log.Error("failed to populate word pool", slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to populate word pool: %w", err)
	}

	log.Info("word pool populated", slog.Int("words", loaded))
	return loaded, nil
}

func (l *Loader) logSample(ctx context.Context, log *slog.Logger, existing int) {
	sample, err := l.words.Peek(ctx, SampleSize)
	if err != nil {
		log.Warn("failed to sample word pool", slog.String("error", err.Error()))
		return
	}
	texts := make([]string, 0, len(sample))
	for _, w := range sample {
		texts = append(texts, w.Text)
	}
	log.Info("word pool already populated",
		slog.Int("words", existing),
		slog.Any("sample", texts))
}
