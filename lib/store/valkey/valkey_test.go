package valkey

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/uvensys/anchorauth/lib/store/storetest"
)

// TestImpl needs a running Valkey or Redis. Point VALKEY_URL at one
// (for example redis://localhost:6379/0) to run it.
func TestImpl(t *testing.T) {
	url := os.Getenv("VALKEY_URL")
	if url == "" {
		t.Skip("VALKEY_URL not set")
	}

	storetest.Common(t, Factory{}, json.RawMessage(fmt.Sprintf(`{"url": %q}`, url)))
}

func TestConfigValid(t *testing.T) {
	for _, tt := range []struct {
		name   string
		config Config
		err    error
	}{
		{
			name:   "happy path",
			config: Config{URL: "redis://localhost:6379/0"},
			err:    nil,
		},
		{
			name:   "no url",
			config: Config{},
			err:    ErrNoURL,
		},
		{
			name:   "bad url",
			config: Config{URL: "not a url at all"},
			err:    ErrBadURL,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Valid(); !errors.Is(err, tt.err) {
				t.Logf("want: %v", tt.err)
				t.Logf("got:  %v", err)
				t.Error("wrong error")
			}
		})
	}
}
