package valkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/uvensys/anchorauth/lib/store"
)

var (
	ErrNoURL  = errors.New("valkey: url is missing from config")
	ErrBadURL = errors.New("valkey: url does not parse")
)

func init() {
	store.Register("valkey", Factory{})
}

// Factory builds Valkey-backed stores from a config containing a single
// connection URL.
type Factory struct{}

func (Factory) Build(ctx context.Context, data json.RawMessage) (store.Interface, error) {
	var config Config
	if err := json.Unmarshal([]byte(data), &config); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrBadConfig, err)
	}

	if err := config.Valid(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrBadConfig, err)
	}

	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadURL, err)
	}

	rdb := redis.NewClient(opts)

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("can't reach valkey at %s: %w", config.URL, err)
	}

	return &Store{rdb: rdb}, nil
}

func (Factory) Valid(data json.RawMessage) error {
	var config Config
	if err := json.Unmarshal([]byte(data), &config); err != nil {
		return fmt.Errorf("%w: %w", store.ErrBadConfig, err)
	}

	return config.Valid()
}

// Config is the valkey backend configuration.
type Config struct {
	URL string `json:"url"`
}

func (c Config) Valid() error {
	if c.URL == "" {
		return ErrNoURL
	}

	if _, err := redis.ParseURL(c.URL); err != nil {
		return fmt.Errorf("%w: %w", ErrBadURL, err)
	}

	return nil
}
