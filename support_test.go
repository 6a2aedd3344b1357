package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/Shimmur/datagen/store"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

// newCaptureLogger returns a debug level logger writing into a buffer, so
// tests can check what was logged
func newCaptureLogger() (*log.Logger, *bytes.Buffer) {
	capture := &bytes.Buffer{}
	logger := log.New()
	logger.SetOutput(capture)
	logger.SetLevel(log.DebugLevel)

	return logger, capture
}

func quietLogger() *log.Logger {
	logger := log.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newSQLiteStore returns a real store backed by an in-memory database
func newSQLiteStore() *store.Store {
	db := sqlx.MustConnect("sqlite3", ":memory:")
	db.SetMaxOpenConns(1)

	s, err := store.New(db)
	if err != nil {
		panic(err)
	}
	return s
}

// mockStore implements the RowStore interface, for testing
type mockStore struct {
	CreateTableShouldError bool
	InsertShouldError      bool
	ClearShouldError       bool

	Count int

	// OnCreateTable runs inside CreateTable, before it returns
	OnCreateTable func()

	lock       sync.Mutex
	inserted   []string
	closeCalls int
	insertChan chan string
}

func newMockStore() *mockStore {
	return &mockStore{insertChan: make(chan string, 100)}
}

func (s *mockStore) CreateTable(ctx context.Context) error {
	if s.OnCreateTable != nil {
		s.OnCreateTable()
	}
	if s.CreateTableShouldError {
		return errors.New("intentional test error")
	}
	return nil
}

func (s *mockStore) Insert(ctx context.Context, data string, date time.Time) error {
	if s.InsertShouldError {
		return errors.New("intentional test error")
	}

	s.lock.Lock()
	s.inserted = append(s.inserted, data)
	s.Count++
	s.lock.Unlock()

	s.insertChan <- data
	return nil
}

func (s *mockStore) ClearIfFull(ctx context.Context, threshold int) (int, bool, error) {
	if s.ClearShouldError {
		return 0, false, errors.New("intentional test error")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	count := s.Count
	if count >= threshold {
		s.Count = 0
		return count, true, nil
	}
	return count, false, nil
}

func (s *mockStore) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.closeCalls++
	return nil
}

func (s *mockStore) CloseCalls() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.closeCalls
}

func (s *mockStore) Inserted() []string {
	s.lock.Lock()
	defer s.lock.Unlock()

	return append([]string(nil), s.inserted...)
}
