package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	director "github.com/relistan/go-director"
	log "github.com/sirupsen/logrus"
)

// RowStore is the part of the database the Driver needs
type RowStore interface {
	Clearer
	CreateTable(ctx context.Context) error
	Insert(ctx context.Context, data string, date time.Time) error
	Close() error
}

// A Driver owns the database connection and, on each turn of the looper,
// writes a new random row and then lets the RetentionGuard purge the table
// if it is full.
type Driver struct {
	store  RowStore
	guard  *RetentionGuard
	looper director.Looper
	logger log.FieldLogger

	generate func() string
	now      func() time.Time

	interrupted atomic.Bool
	closeOnce   sync.Once
}

// NewDriver takes ownership of the store. It will be closed when Run returns.
func NewDriver(store RowStore, guard *RetentionGuard, looper director.Looper,
	logger log.FieldLogger) *Driver {

	return &Driver{
		store:    store,
		guard:    guard,
		looper:   looper,
		logger:   logger,
		generate: GenerateData,
		now:      time.Now,
	}
}

// Run makes sure the table exists and then loops until the looper finishes,
// an iteration fails, or Stop is called. The store is always closed on the
// way out. An interrupt is not an error.
func (d *Driver) Run(ctx context.Context) error {
	defer d.Close()

	// Work in flight is allowed to finish on interrupt. Stopping is done
	// between iterations by Stop().
	ctx = context.WithoutCancel(ctx)

	err := d.store.CreateTable(ctx)
	if err != nil {
		d.logger.Errorf("An error occurred: %s", err)
		return err
	}

	// Interrupted while setting up
	if d.interrupted.Load() {
		d.logger.Info("Script interrupted by user")
		return nil
	}

	go d.looper.Loop(func() error {
		return d.insertAndTrim(ctx)
	})

	err = d.looper.Wait()
	if err != nil {
		d.logger.Errorf("An error occurred: %s", err)
		return err
	}

	if d.interrupted.Load() {
		d.logger.Info("Script interrupted by user")
	}

	return nil
}

func (d *Driver) insertAndTrim(ctx context.Context) error {
	// The looper may run once more before it sees the quit
	if d.interrupted.Load() {
		return nil
	}

	data := d.generate()
	date := d.now()

	err := d.store.Insert(ctx, data, date)
	if err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	d.logger.Infof("Inserted: %s at %s", data, date.Format("2006-01-02 15:04:05.000000"))

	return d.guard.Enforce(ctx)
}

// Stop asks the looper to quit after the current iteration. Only call it
// while Run is looping.
func (d *Driver) Stop() {
	d.interrupted.Store(true)
	d.looper.Quit()
}

// Close closes the store. Only the first call does anything.
func (d *Driver) Close() {
	d.closeOnce.Do(func() {
		err := d.store.Close()
		if err != nil {
			d.logger.Warnf("Error closing database connection: %s", err)
		}
		d.logger.Info("Database connection closed")
	})
}
