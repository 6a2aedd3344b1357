package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shimmur/datagen/retry"
	"github.com/Shimmur/datagen/store"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	director "github.com/relistan/go-director"
	"github.com/relistan/rubberneck"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	DatabaseURL        string        `envconfig:"DATABASE_URL" required:"true"`
	DatabaseDriver     string        `envconfig:"DATABASE_DRIVER" default:"postgres"`
	ClearThreshold     int           `envconfig:"TABLE_CLEAR_THRESHOLD" default:"30"`
	InsertInterval     int           `envconfig:"DATA_INSERT_INTERVAL" default:"60"`
	ConnectRetryDelay  time.Duration `envconfig:"CONNECT_RETRY_DELAY" default:"5s"`
	ConnectMaxAttempts int           `envconfig:"CONNECT_MAX_ATTEMPTS" default:"0"`
	LogLevel           string        `envconfig:"LOG_LEVEL" default:"debug"`
}

// loadConfig reads the environment, after pulling in a .env file if there is one
func loadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	var config Config
	err := envconfig.Process("", &config)
	if err != nil {
		return nil, err
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if !store.SupportedDriver(c.DatabaseDriver) {
		return fmt.Errorf("unsupported DATABASE_DRIVER: %s", c.DatabaseDriver)
	}

	if c.ClearThreshold < 1 {
		return fmt.Errorf("TABLE_CLEAR_THRESHOLD must be at least 1, got %d", c.ClearThreshold)
	}

	if c.InsertInterval < 1 {
		return fmt.Errorf("DATA_INSERT_INTERVAL must be at least 1, got %d", c.InsertInterval)
	}

	if c.ConnectMaxAttempts < 0 {
		return fmt.Errorf("CONNECT_MAX_ATTEMPTS can't be negative, got %d", c.ConnectMaxAttempts)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return nil
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.InsertInterval) * time.Second
}

// Redacted returns a copy that is safe to print
func (c *Config) Redacted() Config {
	redacted := *c

	u, err := url.Parse(c.DatabaseURL)
	switch {
	case err != nil || u.Scheme == "":
		// Probably a key=value DSN, which may hold a password anywhere
		redacted.DatabaseURL = "[redacted]"
	default:
		// lib/pq also takes the password as a query parameter
		q := u.Query()
		if q.Has("password") {
			q.Set("password", "xxxxx")
			u.RawQuery = q.Encode()
		}
		redacted.DatabaseURL = u.Redacted()
	}

	return redacted
}

func newLogger(level string) *log.Logger {
	logger := log.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.DebugLevel
	}
	logger.SetLevel(lvl)

	return logger
}

func main() {
	config, err := loadConfig()
	if err != nil {
		log.Fatal(err.Error())
	}

	logger := newLogger(config.LogLevel)
	rubberneck.NewPrinter(logger.Infof, rubberneck.NoAddLineFeed).Print(config.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy := retry.NewPolicy(config.ConnectRetryDelay, config.ConnectMaxAttempts)
	connector := store.NewConnector(config.DatabaseDriver, config.DatabaseURL, policy, logger)

	db, err := connector.Connect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("Script interrupted by user")
			return
		}
		logger.Fatal(err.Error())
	}

	looper := director.NewImmediateTimedLooper(director.FOREVER, config.Interval(), make(chan error))
	guard := NewRetentionGuard(db, config.ClearThreshold, logger)
	driver := NewDriver(db, guard, looper, logger)

	go func() {
		<-ctx.Done()
		driver.Stop()
	}()

	err = driver.Run(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}
