package store

import (
	"context"
	"fmt"

	"github.com/Shimmur/datagen/retry"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

type OpenFunc func(ctx context.Context, driver, dsn string) (*sqlx.DB, error)

// A Connector opens the database, waiting out a database that isn't up yet
// according to its retry policy.
type Connector struct {
	Driver string
	URL    string
	Policy *retry.Policy

	logger log.FieldLogger
	open   OpenFunc
}

// NewConnector returns a Connector that opens and pings the database with
// sqlx.ConnectContext.
func NewConnector(driver, url string, policy *retry.Policy, logger log.FieldLogger) *Connector {
	return &Connector{
		Driver: driver,
		URL:    url,
		Policy: policy,
		logger: logger,
		open:   sqlx.ConnectContext,
	}
}

// Connect blocks until the database accepts a connection, the retry policy
// gives up, or the context is cancelled.
func (c *Connector) Connect(ctx context.Context) (*Store, error) {
	if !SupportedDriver(c.Driver) {
		return nil, fmt.Errorf("unsupported database driver: %s", c.Driver)
	}

	policy := *c.Policy
	policy.OnRetry = func(attempt int, err error) {
		c.logger.Warnf(
			"Database is not ready yet, retrying in %s... (attempt %d: %s)", policy.Delay, attempt, err,
		)
	}

	var db *sqlx.DB
	err := policy.Do(ctx, func() error {
		var err error
		db, err = c.open(ctx, c.Driver, c.URL)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// There is only ever one user of the connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	c.logger.Info("Connected to the database successfully")

	return New(db)
}
