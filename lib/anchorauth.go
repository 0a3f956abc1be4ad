// Package lib is the anchorauth HTTP server: it issues challenge
// transactions to clients and verifies the signed transactions they
// send back, consuming each challenge exactly once.
package lib

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/uvensys/anchorauth/lib/challenge"
	"github.com/uvensys/anchorauth/lib/config"
	"github.com/uvensys/anchorauth/lib/keypair"
	"github.com/uvensys/anchorauth/lib/store"
)

var (
	challengesServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anchorauth_http_challenges_served",
		Help: "The total number of challenge transactions handed to clients",
	})

	verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anchorauth_http_verifications",
		Help: "The total number of verification requests by result",
	}, []string{"result"})

	challengeReplays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anchorauth_challenge_replays",
		Help: "The total number of challenges rejected because they were already consumed",
	})
)

var (
	ErrNoServerKeypair = errors.New("lib: Options.ServerKP is required")
	ErrNoConfig        = errors.New("lib: Options.Config is required")
	ErrNoStore         = errors.New("lib: Options.Store is required")

	// ErrChallengeAlreadyUsed means a structurally valid, correctly
	// signed challenge was presented a second time.
	ErrChallengeAlreadyUsed = errors.New("lib: challenge already used")
)

type Options struct {
	// ServerKP signs every challenge the server issues. Its address is
	// the source account clients verify against.
	ServerKP *keypair.Full

	Config *config.Config

	// Store is the single-use ledger of consumed challenges.
	Store store.Interface
}

// UsedChallenge is the ledger record written when a challenge is
// consumed. It only exists so operators can see who burned a challenge
// when debugging; rejection needs nothing but the key.
type UsedChallenge struct {
	Account string    `json:"account"`
	UsedAt  time.Time `json:"used_at"`
}

type Server struct {
	mux  *http.ServeMux
	opts Options
	used *store.JSON[UsedChallenge]
}

func New(opts Options) (*Server, error) {
	if opts.ServerKP == nil {
		return nil, ErrNoServerKeypair
	}

	if opts.Config == nil {
		return nil, ErrNoConfig
	}

	if opts.Store == nil {
		return nil, ErrNoStore
	}

	result := &Server{
		opts: opts,
		used: &store.JSON[UsedChallenge]{
			Underlying: opts.Store,
			Prefix:     "challenge:",
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth", result.GetChallenge)
	mux.HandleFunc("POST /auth", result.PostChallenge)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})

	result.mux = mux

	return result, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// verify runs the full acceptance pipeline for a signed challenge:
// structural checks, signature checks against the configured signers
// for the client account (or the account's own key when it is not
// configured), then the single-use ledger. Returns the authenticated
// client account.
func (s *Server) verify(ctx context.Context, envelope string) (string, error) {
	serverAccount := s.opts.ServerKP.Address()
	cfg := s.opts.Config

	tx, clientAccount, err := challenge.Read(envelope, serverAccount, cfg.NetworkPassphrase)
	if err != nil {
		return "", err
	}

	if account, ok := cfg.Account(clientAccount); ok {
		if _, err := challenge.VerifyChallengeThreshold(envelope, serverAccount, cfg.NetworkPassphrase, account.Threshold, account.Signers); err != nil {
			return "", err
		}
	} else {
		if _, _, err := challenge.VerifyChallenge(envelope, serverAccount, cfg.NetworkPassphrase); err != nil {
			return "", err
		}
	}

	hash, err := tx.Hash(cfg.NetworkPassphrase)
	if err != nil {
		return "", fmt.Errorf("can't hash challenge transaction: %w", err)
	}

	key := hex.EncodeToString(hash[:])

	_, err = s.used.Get(ctx, key)
	switch {
	case err == nil:
		challengeReplays.Inc()
		return "", fmt.Errorf("%w: %s", ErrChallengeAlreadyUsed, key)
	case !errors.Is(err, store.ErrNotFound):
		return "", fmt.Errorf("can't read used-challenge ledger: %w", err)
	}

	// The ledger entry only needs to outlive the challenge's own
	// validity window. Read already rejected expired transactions, so
	// MaxTime is in the future here.
	ttl := time.Until(time.Unix(tx.TimeBounds.MaxTime, 0))

	if err := s.used.Set(ctx, key, UsedChallenge{
		Account: clientAccount,
		UsedAt:  time.Now(),
	}, ttl); err != nil {
		return "", fmt.Errorf("can't write used-challenge ledger: %w", err)
	}

	return clientAccount, nil
}
