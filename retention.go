package main

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// A Clearer can empty the data table once it holds too many rows
type Clearer interface {
	ClearIfFull(ctx context.Context, threshold int) (count int, cleared bool, err error)
}

// A RetentionGuard wipes the whole table every time the row count reaches
// the threshold. It does not trim to a window.
type RetentionGuard struct {
	Threshold int

	store  Clearer
	logger log.FieldLogger
}

func NewRetentionGuard(store Clearer, threshold int, logger log.FieldLogger) *RetentionGuard {
	return &RetentionGuard{
		Threshold: threshold,
		store:     store,
		logger:    logger,
	}
}

// Enforce checks the row count and clears the table if it is full
func (g *RetentionGuard) Enforce(ctx context.Context) error {
	count, cleared, err := g.store.ClearIfFull(ctx, g.Threshold)
	if err != nil {
		return fmt.Errorf("retention check failed: %w", err)
	}

	if cleared {
		g.logger.Infof("Table successfully cleared! %d rows were deleted.", count)
		return nil
	}

	g.logger.Debugf("Table not cleared. Current row count: %d", count)
	return nil
}
