// Package config parses and validates the anchorauth server
// configuration file.
//
// Configuration is written in YAML but every type here carries json
// tags: the file is converted to JSON before decoding, so YAML and JSON
// config files are equally valid.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/uvensys/anchorauth"
	"github.com/uvensys/anchorauth/lib/challenge"
	"github.com/uvensys/anchorauth/lib/keypair"
	"sigs.k8s.io/yaml"
)

var (
	ErrNoAnchorName        = errors.New("config: anchor_name must be set")
	ErrBadChallengeTimeout = errors.New("config: challenge_timeout does not parse as a duration")
	ErrAccountNoAddress    = errors.New("config.Account: address must be set")
	ErrAccountBadAddress   = errors.New("config.Account: address is not a valid account address")
	ErrAccountBadThreshold = errors.New("config.Account: threshold must be greater than zero")
	ErrAccountNoSigners    = errors.New("config.Account: must list at least one signer")
	ErrSignerBadAddress    = errors.New("config.Account: signer address is not a valid account address")
	ErrSignerBadWeight     = errors.New("config.Account: signer weight must be greater than zero")
)

// Account is a client account the server knows signers for. Challenges
// from accounts listed here are verified against the signer weights and
// threshold below instead of the single-signer default.
type Account struct {
	Address   string             `json:"address"`
	Threshold int32              `json:"threshold"`
	Signers   []challenge.Signer `json:"signers"`
}

func (a *Account) Valid() error {
	var errs []error

	if a.Address == "" {
		errs = append(errs, ErrAccountNoAddress)
	} else if _, err := keypair.ParseAddress(a.Address); err != nil {
		errs = append(errs, fmt.Errorf("%w: %q", ErrAccountBadAddress, a.Address))
	}

	if a.Threshold <= 0 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrAccountBadThreshold, a.Threshold))
	}

	if len(a.Signers) == 0 {
		errs = append(errs, ErrAccountNoSigners)
	}

	for i, signer := range a.Signers {
		if _, err := keypair.ParseAddress(signer.Address); err != nil {
			errs = append(errs, fmt.Errorf("%w: signer %d: %q", ErrSignerBadAddress, i, signer.Address))
		}

		if signer.Weight <= 0 {
			errs = append(errs, fmt.Errorf("%w: signer %d: got %d", ErrSignerBadWeight, i, signer.Weight))
		}
	}

	if len(errs) != 0 {
		return fmt.Errorf("account %s not valid:\n%w", a.Address, errors.Join(errs...))
	}

	return nil
}

type Config struct {
	// AnchorName names the service in the challenge's manage data
	// operation. Clients check it against the server they think they
	// are talking to.
	AnchorName string `json:"anchor_name"`

	// NetworkPassphrase namespaces signatures to one network. Defaults
	// to the test network passphrase, which is the safe direction to
	// fail in.
	NetworkPassphrase string `json:"network_passphrase"`

	// ChallengeTimeout is how long an issued challenge stays valid,
	// in time.ParseDuration syntax ("5m", "300s"). Empty means the
	// default of five minutes.
	ChallengeTimeout string `json:"challenge_timeout"`

	Store Store `json:"store"`

	Accounts []Account `json:"accounts"`
}

func (c *Config) Valid() error {
	var errs []error

	if c.AnchorName == "" {
		errs = append(errs, ErrNoAnchorName)
	}

	if c.ChallengeTimeout != "" {
		if _, err := time.ParseDuration(c.ChallengeTimeout); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q", ErrBadChallengeTimeout, c.ChallengeTimeout))
		}
	}

	if err := c.Store.Valid(); err != nil {
		errs = append(errs, err)
	}

	for _, a := range c.Accounts {
		if err := a.Valid(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) != 0 {
		return fmt.Errorf("config is not valid:\n%w", errors.Join(errs...))
	}

	return nil
}

// Timeout returns the configured challenge validity window. Call only
// after Valid has passed.
func (c *Config) Timeout() time.Duration {
	if c.ChallengeTimeout == "" {
		return anchorauth.DefaultChallengeTimeout
	}

	d, err := time.ParseDuration(c.ChallengeTimeout)
	if err != nil {
		return anchorauth.DefaultChallengeTimeout
	}

	return d
}

// Account looks up the signer configuration for a client account.
func (c *Config) Account(address string) (Account, bool) {
	for _, a := range c.Accounts {
		if a.Address == address {
			return a, true
		}
	}

	return Account{}, false
}

// Load parses a config file, fills in defaults, and validates it. fname
// is only used in error messages.
func Load(fin io.Reader, fname string) (*Config, error) {
	data, err := io.ReadAll(fin)
	if err != nil {
		return nil, fmt.Errorf("can't read config %s: %w", fname, err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("can't parse config YAML %s: %w", fname, err)
	}

	if c.NetworkPassphrase == "" {
		c.NetworkPassphrase = anchorauth.DefaultNetworkPassphrase
	}

	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}

	if err := c.Valid(); err != nil {
		return nil, err
	}

	return &c, nil
}

// LoadFile is Load over a file on disk.
func LoadFile(path string) (*Config, error) {
	fin, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("can't open config %s: %w", path, err)
	}
	defer fin.Close()

	return Load(fin, path)
}
