// Package back is the rating ledger: it stores players and games and keeps
// every player's rating equal to their initial rating plus the deltas of
// the games they played.
package back

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"rallyrank/internal/elo"
	"rallyrank/internal/events"
	"rallyrank/internal/logging"
	"rallyrank/internal/metrics"
	"rallyrank/internal/util"
)

var (
	// ErrNotFound is returned when a player or a game does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStorage wraps any failure of the underlying database, the
	// operation had no effect and can be retried.
	ErrStorage = errors.New("storage failure")
)

// Publisher receives rating events once their transaction is committed.
type Publisher interface {
	Publish(...events.GameEvent) error
}

type Options struct {
	// K is the Elo update factor, elo.DefaultK if zero.
	K float64

	// DefaultRating is given to new players, elo.DefaultRating if zero.
	DefaultRating int

	// CheckInterval is the delay between two runs of the periodic tasks.
	CheckInterval time.Duration

	Publisher Publisher
}

type Back struct {
	db            *sqlx.DB
	engine        elo.Engine
	defaultRating int
	checkInterval time.Duration
	publisher     Publisher
}

// New opens the SQLite database at path. The schema must already be
// migrated, see Migrate.
func New(path string, opts Options) (*Back, error) {
	// Why even bother converting names? A single greppable string across all
	// your source code is better than any odd conversion scheme you could ever
	// come up with.
	// HACK: This is global but putting this in init() makes test ugly.
	// As only the Back relies on the DB, this seems like an okay-ish place.
	sqlx.NameMapper = func(v string) string { return v }

	db, err := sqlx.Connect("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	// A single connection plus immediate transactions serialize every
	// read-modify-write of the ratings.
	db.SetMaxOpenConns(1)

	if opts.DefaultRating <= 0 {
		opts.DefaultRating = elo.DefaultRating
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = 10 * time.Minute
	}

	return &Back{
		db:            db,
		engine:        elo.New(opts.K),
		defaultRating: opts.DefaultRating,
		checkInterval: opts.CheckInterval,
		publisher:     opts.Publisher,
	}, nil
}

func dsn(path string) string {
	return "file:" + path + "?_txlock=immediate&_foreign_keys=1&_busy_timeout=5000"
}

func (b *Back) Close() error {
	return b.db.Close()
}

// transaction runs cb in a transaction. Errors that are not about the
// request itself are wrapped in ErrStorage.
func (b *Back) transaction(ctx context.Context, cb util.TransactionCallback) error {
	err := util.Transaction(ctx, b.db, cb)
	if err == nil || isRequestError(err) {
		return err
	}

	metrics.TransactionErrors.Inc()

	return fmt.Errorf("%w: %w", ErrStorage, err)
}

func isRequestError(err error) bool {
	return errors.Is(err, util.ErrPublic("")) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, elo.ErrNegativeScore) ||
		errors.Is(err, elo.ErrScoreTooLarge) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// publish sends committed events, failures are logged and not returned as
// the ratings are already stored.
func (b *Back) publish(evs ...events.GameEvent) {
	if b.publisher == nil || len(evs) == 0 {
		return
	}

	if err := b.publisher.Publish(evs...); err != nil {
		logging.Error().Err(err).Int("count", len(evs)).Msg("unable to publish rating events")
	}
}
