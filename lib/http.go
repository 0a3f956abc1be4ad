package lib

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/uvensys/anchorauth/internal"
	"github.com/uvensys/anchorauth/lib/challenge"
	"github.com/uvensys/anchorauth/lib/keypair"
)

// ChallengeResponse is the body of a successful GET /auth.
type ChallengeResponse struct {
	Transaction       string `json:"transaction"`
	NetworkPassphrase string `json:"network_passphrase"`
}

// VerifyRequest is the body of POST /auth.
type VerifyRequest struct {
	Transaction string `json:"transaction"`
}

// VerifyResponse is the body of a successful POST /auth.
type VerifyResponse struct {
	Account string `json:"account"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

// GetChallenge issues a fresh challenge transaction for the account in
// the query string.
func (s *Server) GetChallenge(w http.ResponseWriter, r *http.Request) {
	lg := internal.GetRequestLogger(r).With("request_id", uuid.NewString())

	account := r.FormValue("account")
	if account == "" {
		respondError(w, http.StatusBadRequest, "missing account parameter")
		return
	}

	if _, err := keypair.ParseAddress(account); err != nil {
		lg.Debug("rejecting challenge request", "err", err)
		respondError(w, http.StatusBadRequest, "account is not a valid account address")
		return
	}

	cfg := s.opts.Config

	envelope, err := challenge.Build(challenge.BuildParams{
		Server:            s.opts.ServerKP,
		ClientAccount:     account,
		AnchorName:        cfg.AnchorName,
		NetworkPassphrase: cfg.NetworkPassphrase,
		Timeout:           cfg.Timeout(),
	})
	if err != nil {
		lg.Error("can't build challenge", "account", account, "err", err)
		respondError(w, http.StatusInternalServerError, "can't build challenge")
		return
	}

	challengesServed.Inc()
	lg.Info("challenge issued", "account", account)

	respondJSON(w, http.StatusOK, ChallengeResponse{
		Transaction:       envelope,
		NetworkPassphrase: cfg.NetworkPassphrase,
	})
}

// PostChallenge verifies a signed challenge transaction and, on
// success, reports the authenticated account.
func (s *Server) PostChallenge(w http.ResponseWriter, r *http.Request) {
	lg := internal.GetRequestLogger(r).With("request_id", uuid.NewString())

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "request body is not valid JSON")
		return
	}

	if req.Transaction == "" {
		respondError(w, http.StatusBadRequest, "missing transaction")
		return
	}

	account, err := s.verify(r.Context(), req.Transaction)
	switch {
	case err == nil:
		// fallthrough to the success path below
	case errors.Is(err, challenge.ErrInvalidChallenge):
		lg.Info("challenge rejected", "err", err)
		verifications.WithLabelValues("rejected").Inc()
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ErrChallengeAlreadyUsed):
		lg.Info("challenge replayed", "err", err)
		verifications.WithLabelValues("replayed").Inc()
		respondError(w, http.StatusBadRequest, "challenge already used")
		return
	default:
		lg.Error("can't verify challenge", "err", err)
		verifications.WithLabelValues("error").Inc()
		respondError(w, http.StatusInternalServerError, "can't verify challenge")
		return
	}

	verifications.WithLabelValues("ok").Inc()
	lg.Info("challenge verified", "account", account)

	respondJSON(w, http.StatusOK, VerifyResponse{Account: account})
}
