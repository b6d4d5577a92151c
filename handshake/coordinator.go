// Package handshake implements the two-phase, anomaly-gated session
// establishment protocol.
//
// Phase 1 (Initiate) accepts the caller's ephemeral public key, generates a
// server-side pair and persists the handshake record. Phase 2 (Validate)
// computes the shared secret, derives the session key, scores the attempt
// with the anomaly oracle and releases the key only on a clean verdict.
//
// Oracle failures are absorbed by a fail-open fallback (see package oracle):
// availability is preferred over strict enforcement when the scoring service
// is down. That trade-off is deliberate and revisitable via Config.
package handshake

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"keygate/crypto"
	"keygate/oracle"
	"keygate/store"
	"keygate/throttle"
)

// Algorithm identifies the key agreement suite in responses.
const Algorithm = "X25519-HKDF-SHA256"

const (
	// DefaultScoreThreshold rejects verdicts at or above this anomaly score.
	DefaultScoreThreshold = 0.6
	// DefaultEntropyFloor is the weak-key heuristic in bits/byte, consulted
	// only for unsigned validation attempts.
	DefaultEntropyFloor = 4.0
)

var (
	// ErrNotFound means the handshake id resolves to no record.
	ErrNotFound = errors.New("handshake: not found")

	// ErrUnauthorized means the record belongs to a different principal.
	ErrUnauthorized = errors.New("handshake: record owned by another principal")

	// ErrAlreadyProcessed means a concurrent validation won the record's
	// terminal transition. The loser gets this deterministic answer rather
	// than a second derived key.
	ErrAlreadyProcessed = errors.New("handshake: already processed by a concurrent call")
)

// Config carries the coordinator's collaborators and policy knobs.
// Zero values select the defaults documented on each field.
type Config struct {
	// ScoreThreshold overrides DefaultScoreThreshold when > 0.
	ScoreThreshold float64
	// EntropyFloor overrides DefaultEntropyFloor when > 0.
	EntropyFloor float64
	// OracleTimeout bounds each scoring call; defaults to
	// oracle.DefaultTimeout.
	OracleTimeout time.Duration

	// IPRiskScore and GeoRiskScore are placeholder reputation inputs the
	// surrounding system injects; the coordinator never computes them.
	IPRiskScore  float64
	GeoRiskScore float64

	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// OracleLog throttles oracle-failure noise; defaults to one line per
	// 10s on Logger.
	OracleLog *throttle.Logger
	// Alerts, when set, is notified of every Suspicious transition.
	Alerts AlertSink
}

// Coordinator owns the handshake state machine. It has exclusive write
// access to handshake records; no other component mutates them.
type Coordinator struct {
	st  store.Store
	orc oracle.Oracle
	cfg Config
}

// New wires a coordinator with defaults applied.
func New(st store.Store, orc oracle.Oracle, cfg Config) *Coordinator {
	if cfg.ScoreThreshold <= 0 {
		cfg.ScoreThreshold = DefaultScoreThreshold
	}
	if cfg.EntropyFloor <= 0 {
		cfg.EntropyFloor = DefaultEntropyFloor
	}
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = oracle.DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.OracleLog == nil {
		cfg.OracleLog = throttle.New(cfg.Logger, 10*time.Second, 1)
	}
	return &Coordinator{st: st, orc: orc, cfg: cfg}
}

// InitiateResult is the phase-1 response.
type InitiateResult struct {
	HandshakeID    string
	LocalPublicKey []byte
	Algorithm      string
}

// Initiate starts a handshake for the given principal. The record write
// completes before the id is returned, so a following Validate is
// guaranteed to observe it.
func (c *Coordinator) Initiate(ctx context.Context, principal string, remotePublicKey []byte) (InitiateResult, error) {
	if len(remotePublicKey) != crypto.KeySize {
		return InitiateResult{}, crypto.ErrInvalidKeyMaterial
	}

	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		return InitiateResult{}, err
	}

	rec := store.Record{
		ID:              uuid.NewString(),
		Owner:           principal,
		RemotePublicKey: append([]byte(nil), remotePublicKey...),
		LocalPublicKey:  kp.PublicKey,
		LocalPrivateKey: kp.PrivateKey,
		Status:          store.StatusInitiated,
		CreatedAt:       time.Now(),
	}
	if err := c.st.Create(ctx, rec); err != nil {
		return InitiateResult{}, fmt.Errorf("handshake: persist record: %w", err)
	}

	c.cfg.Logger.Info("handshake initiated",
		slog.String("id", rec.ID),
		slog.String("owner", principal),
	)
	return InitiateResult{
		HandshakeID:    rec.ID,
		LocalPublicKey: kp.PublicKey,
		Algorithm:      Algorithm,
	}, nil
}

// ValidateRequest is the phase-2 input. Signature and SignerPublicKey are
// optional; when present the signature must verify over the base64
// (standard encoding) string of the server public key exactly as it was
// returned by Initiate.
type ValidateRequest struct {
	HandshakeID     string
	Principal       string
	Signature       []byte
	SignerPublicKey []byte
}

// ValidateResult is the phase-2 response. SessionKey is set only when
// Accepted is true.
type ValidateResult struct {
	Accepted   bool
	SessionKey []byte
	Verdict    oracle.Verdict
	Reason     string
}

// Validate runs phase 2 against an initiated record.
//
// The session key is derived before the anomaly decision and released only
// on acceptance; on any rejection branch the derived key is discarded and
// never logged or persisted. Terminal transitions are persisted before the
// call returns.
//
// A repeat call against a record that already reached a terminal state
// re-runs the whole decision and may move the record to a different
// terminal state, with RetryCount still counting. This mirrors the
// original system's observed behavior and is deliberately not tightened.
// Only a concurrent lost race yields ErrAlreadyProcessed.
func (c *Coordinator) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	rec, err := c.st.Get(ctx, req.HandshakeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ValidateResult{}, ErrNotFound
		}
		return ValidateResult{}, fmt.Errorf("handshake: load record: %w", err)
	}
	if rec.Owner != "" && req.Principal != rec.Owner {
		return ValidateResult{}, ErrUnauthorized
	}

	// Counted before feature extraction so rapid repeats show up as an
	// anomaly signal, including repeats against terminal records.
	rec.RetryCount++

	secret, err := crypto.SharedSecret(rec.LocalPrivateKey, rec.RemotePublicKey)
	if err != nil {
		// The record's own invariant is broken; unreachable when Initiate
		// validated the inputs.
		return ValidateResult{}, c.fail(ctx, rec, err)
	}
	sessionKey, err := crypto.DeriveSessionKey(secret)
	if err != nil {
		return ValidateResult{}, c.fail(ctx, rec, err)
	}

	sigSupplied := len(req.Signature) > 0 || len(req.SignerPublicKey) > 0
	sigValid := true
	if sigSupplied {
		attested := []byte(base64.StdEncoding.EncodeToString(rec.LocalPublicKey))
		sigValid = crypto.VerifyDetached(attested, req.Signature, req.SignerPublicKey)
	}

	feats := c.buildFeatures(rec, sigValid)
	verdict := c.score(ctx, rec.ID, feats)
	reason := c.rejectReason(verdict, sigSupplied, sigValid, feats.RemoteKeyEntropy)

	rec.CompletedAt = time.Now()
	if reason == "" {
		rec.Status = store.StatusCompleted
		rec.SessionKey = sessionKey
	} else {
		rec.Status = store.StatusSuspicious
		rec.SessionKey = nil
	}

	if err := c.st.Update(ctx, rec); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return ValidateResult{}, ErrAlreadyProcessed
		}
		return ValidateResult{}, fmt.Errorf("handshake: persist transition: %w", err)
	}

	if reason != "" {
		c.cfg.Logger.Warn("handshake rejected",
			slog.String("id", rec.ID),
			slog.String("reason", reason),
			slog.Float64("score", verdict.Score),
			slog.String("verdict", verdict.Label),
		)
		if c.cfg.Alerts != nil {
			c.cfg.Alerts.HandshakeFlagged(ctx, rec.Clone(), verdict, reason)
		}
		return ValidateResult{Accepted: false, Verdict: verdict, Reason: reason}, nil
	}

	c.cfg.Logger.Info("handshake completed",
		slog.String("id", rec.ID),
		slog.Float64("score", verdict.Score),
		slog.Int("retries", rec.RetryCount),
	)
	return ValidateResult{Accepted: true, SessionKey: sessionKey, Verdict: verdict}, nil
}

// fail persists the Failed transition before surfacing cause.
func (c *Coordinator) fail(ctx context.Context, rec store.Record, cause error) error {
	rec.Status = store.StatusFailed
	rec.SessionKey = nil
	rec.CompletedAt = time.Now()
	if err := c.st.Update(ctx, rec); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return ErrAlreadyProcessed
		}
		return fmt.Errorf("handshake: persist failure: %w", err)
	}
	c.cfg.Logger.Error("handshake failed",
		slog.String("id", rec.ID),
		slog.String("error", cause.Error()),
	)
	return cause
}

// score calls the oracle with a bounded timeout. Every failure mode,
// including a panicking implementation, is absorbed into the fail-open
// fallback verdict; nothing from here may abort a validation.
func (c *Coordinator) score(ctx context.Context, id string, feats oracle.Features) (verdict oracle.Verdict) {
	verdict = oracle.Verdict{Score: oracle.FallbackScore, Label: oracle.FallbackLabel}

	defer func() {
		if r := recover(); r != nil {
			c.cfg.OracleLog.Warn("oracle panicked, failing open",
				slog.String("id", id),
				slog.Any("panic", r),
			)
			verdict = oracle.Verdict{Score: oracle.FallbackScore, Label: oracle.FallbackLabel}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.OracleTimeout)
	defer cancel()

	v, err := c.orc.Score(ctx, feats)
	if err != nil {
		c.cfg.OracleLog.Warn("oracle unavailable, failing open",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return verdict
	}
	return v
}

// rejectReason evaluates the rejection predicate; any single branch is
// sufficient. An empty string means accept.
func (c *Coordinator) rejectReason(v oracle.Verdict, sigSupplied, sigValid bool, remoteEntropy float64) string {
	switch {
	case sigSupplied && !sigValid:
		return "invalid signature"
	case v.Score >= c.cfg.ScoreThreshold:
		return fmt.Sprintf("anomaly score %.2f above threshold", v.Score)
	case v.Label != oracle.LabelNormal:
		return "oracle verdict " + v.Label
	case !sigSupplied && remoteEntropy < c.cfg.EntropyFloor:
		return "low remote key entropy"
	default:
		return ""
	}
}
