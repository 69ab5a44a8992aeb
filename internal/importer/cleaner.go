package importer

import (
	"context"
	"fmt"

	"chuck-jokes/pkg/logger"
)

type Deleter interface {
	DeleteAll(ctx context.Context) (int64, error)
}

// Cleaner empties the jokes table. It has no API dependency.
type Cleaner struct {
	store Deleter
}

func NewCleaner(store Deleter) *Cleaner {
	return &Cleaner{store: store}
}

func (c *Cleaner) Clean(ctx context.Context) (int64, error) {
	deleted, err := c.store.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStore, err)
	}

	logger.Info("Jokes deleted", logger.Int64("deleted", deleted))
	return deleted, nil
}
