// Package importer fills the jokes table from the Chuck Norris API.
//
// A run asks for N slots. Each slot fetches jokes until it gets one that is
// neither explicit nor already known. Duplicates are bounded twice: per slot
// (the slot fails and the run moves on) and per run (the run is exhausted and
// stops asking for slots). Validated rows are buffered in memory and written in
// one transaction at the end, so no transaction is held across API calls.
package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chuck-jokes/internal/chucknorris"
	"chuck-jokes/internal/config"
	"chuck-jokes/internal/database"
	"chuck-jokes/internal/models"
	"chuck-jokes/internal/queue"
	"chuck-jokes/pkg/logger"

	"github.com/google/uuid"
)

const (
	DefaultCount = 5
	MaxCount     = 10
)

var (
	ErrStore           = errors.New("store failure")
	ErrCountOutOfRange = fmt.Errorf("maximum number of jokes is %d", MaxCount)
)

type Fetcher interface {
	Random(ctx context.Context) (*models.Joke, error)
}

type Store interface {
	Exists(ctx context.Context, externalID string) (bool, error)
	SaveBatch(ctx context.Context, jokes []models.StoredJoke) ([]models.StoredJoke, error)
}

type Publisher interface {
	PublishImported(ctx context.Context, joke *queue.JokeMessage) error
}

type Importer struct {
	cfg   config.ImportConfig
	api   Fetcher
	store Store
	pub   Publisher
}

type Option func(*Importer)

// WithPublisher announces every committed joke through p.
func WithPublisher(p Publisher) Option {
	return func(i *Importer) {
		i.pub = p
	}
}

func New(cfg config.ImportConfig, api Fetcher, store Store, opts ...Option) *Importer {
	i := &Importer{
		cfg:   cfg,
		api:   api,
		store: store,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// run is the mutable state of one Run call.
type run struct {
	res  *Result
	seen map[string]struct{}
}

// Run imports up to n jokes and commits them once, at the end. A transport
// error from the API aborts the run with nothing written; store errors wrap
// ErrStore.
// The returned Result is non-nil whenever n is valid, also alongside an error.
func (i *Importer) Run(ctx context.Context, n int) (*Result, error) {
	if n < 1 || n > MaxCount {
		return nil, ErrCountOutOfRange
	}

	started := time.Now()
	r := &run{
		res:  &Result{RunID: uuid.NewString(), Requested: n},
		seen: make(map[string]struct{}),
	}

	logger.Info("Starting import",
		logger.String("run_id", r.res.RunID),
		logger.Int("requested", n),
	)

	var staged []models.StoredJoke
	remaining := n
	for {
		if remaining > 0 && !r.res.Exhausted {
			batch, err := i.collect(ctx, r, remaining)
			if err != nil {
				return r.res, err
			}
			staged = append(staged, batch...)
		}
		if len(staged) == 0 {
			break
		}

		saved, err := i.store.SaveBatch(ctx, staged)
		var conflictErr *database.ConflictError
		if errors.As(err, &conflictErr) {
			// lost the unique index race to another writer: nothing was written,
			// drop the taken rows and refill their slots before writing again
			staged = without(staged, conflictErr.ExternalIDs)
			remaining = len(conflictErr.ExternalIDs)
			r.res.Conflicts += remaining
			r.res.Duplicates += remaining
			logger.Warn("Jokes already stored by another run",
				logger.String("run_id", r.res.RunID),
				logger.Int("conflicts", remaining),
			)
			if r.res.Duplicates >= i.cfg.RunRetries {
				i.exhaust(r)
			}
			continue
		}
		if err != nil {
			return r.res, fmt.Errorf("%w: %w", ErrStore, err)
		}

		r.res.Inserted = saved
		break
	}

	i.publish(ctx, r.res)

	logger.Info("Import finished",
		logger.String("run_id", r.res.RunID),
		logger.Int("inserted", len(r.res.Inserted)),
		logger.Int("explicit", r.res.Explicit),
		logger.Int("duplicates", r.res.Duplicates),
		logger.Int("failed_slots", r.res.FailedSlots),
		logger.Bool("exhausted", r.res.Exhausted),
		logger.Duration("elapsed", time.Since(started)),
	)

	return r.res, nil
}

// collect resolves up to slots slots and returns the rows staged for insertion.
func (i *Importer) collect(ctx context.Context, r *run, slots int) ([]models.StoredJoke, error) {
	var batch []models.StoredJoke
	for slot := 1; slot <= slots && !r.res.Exhausted; slot++ {
		row, ok, err := i.fill(ctx, r, slot)
		if err != nil {
			return nil, err
		}
		if ok {
			batch = append(batch, row)
		}
	}
	return batch, nil
}

// fill fetches until the slot is resolved. ok reports whether a row was staged.
func (i *Importer) fill(ctx context.Context, r *run, slot int) (models.StoredJoke, bool, error) {
	var none models.StoredJoke
	retries := 0
	for {
		joke, err := i.api.Random(ctx)
		if errors.Is(err, chucknorris.ErrUnparseable) || (err == nil && joke == nil) {
			r.res.Unparseable++
			logger.Warn("Unparseable joke", logger.Int("slot", slot), logger.Err(err))
			return none, false, nil
		}
		if err != nil {
			return none, false, err
		}

		if joke.IsExplicit() {
			r.res.Explicit++
			logger.Info("Explicit joke",
				logger.Int("slot", slot),
				logger.String("external_id", joke.ID),
			)
			return none, false, nil
		}

		candidate := models.NewStoredJoke(*joke)
		dup, err := i.isDuplicate(ctx, r, candidate.ExternalID)
		if err != nil {
			return none, false, err
		}
		if !dup {
			r.seen[candidate.ExternalID] = struct{}{}
			logger.Debug("Joke staged",
				logger.Int("slot", slot),
				logger.String("external_id", candidate.ExternalID),
			)
			return candidate, true, nil
		}

		retries++
		r.res.Duplicates++
		logger.Info(fmt.Sprintf("Retry %d/%d", retries, i.cfg.SlotRetries),
			logger.Int("slot", slot),
			logger.String("external_id", candidate.ExternalID),
		)

		if r.res.Duplicates >= i.cfg.RunRetries {
			i.exhaust(r)
			return none, false, nil
		}
		if retries >= i.cfg.SlotRetries {
			r.res.FailedSlots++
			logger.Warn("Slot gave up after duplicates",
				logger.Int("slot", slot),
				logger.Int("retries", retries),
			)
			return none, false, nil
		}
	}
}

func (i *Importer) isDuplicate(ctx context.Context, r *run, externalID string) (bool, error) {
	if _, ok := r.seen[externalID]; ok {
		return true, nil
	}

	exists, err := i.store.Exists(ctx, externalID)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if exists {
		r.seen[externalID] = struct{}{}
	}
	return exists, nil
}

func without(rows []models.StoredJoke, externalIDs []string) []models.StoredJoke {
	drop := make(map[string]struct{}, len(externalIDs))
	for _, id := range externalIDs {
		drop[id] = struct{}{}
	}

	kept := make([]models.StoredJoke, 0, len(rows))
	for _, row := range rows {
		if _, ok := drop[row.ExternalID]; !ok {
			kept = append(kept, row)
		}
	}
	return kept
}

func (i *Importer) exhaust(r *run) {
	r.res.Exhausted = true
	logger.Info("All jokes imported!",
		logger.String("run_id", r.res.RunID),
		logger.Int("duplicates", r.res.Duplicates),
	)
}

func (i *Importer) publish(ctx context.Context, res *Result) {
	if i.pub == nil {
		return
	}

	for _, joke := range res.Inserted {
		msg := &queue.JokeMessage{
			RunID:      res.RunID,
			ID:         joke.ID,
			ExternalID: joke.ExternalID,
			URL:        joke.URL,
			Text:       joke.Text,
		}
		if err := i.pub.PublishImported(ctx, msg); err != nil {
			logger.Error("Failed to publish imported joke",
				logger.Err(err),
				logger.String("external_id", joke.ExternalID),
			)
		}
	}
}
