// Package oracle defines the anomaly-scoring interface consumed by the
// handshake coordinator, and an HTTP client for the scoring service.
//
// The oracle must be treated as unreliable: the coordinator absorbs every
// failure of it behind a fail-open fallback verdict, so nothing in this
// package is allowed to take down a handshake.
package oracle

import "context"

// Verdict labels used by the scoring service.
const (
	LabelNormal     = "normal"
	LabelSuspicious = "suspicious"
)

// Fallback verdict applied when the oracle is unreachable or errors.
// These are the same defaults the scoring service itself returns on an
// internal failure, so a dead oracle and a broken oracle look alike.
const (
	FallbackScore = 0.1
	FallbackLabel = LabelNormal
)

// Features is the fixed set of numeric signals describing a handshake
// validation attempt. It is an explicit struct rather than an open map so
// the boundary is typed; the IP and geolocation risk scores are supplied by
// the surrounding system, not computed here.
type Features struct {
	// ElapsedMS is the time since the handshake record was created.
	ElapsedMS float64
	// KeySize is the fixed key length in bytes.
	KeySize float64
	// SignatureValid is 1 when the supplied signature verified (or none
	// was supplied), 0 otherwise.
	SignatureValid float64
	// LocalKeyEntropy and RemoteKeyEntropy are Shannon entropies of the
	// raw public key bytes, in bits per byte.
	LocalKeyEntropy  float64
	RemoteKeyEntropy float64
	// RetryCount is the number of validation attempts, this one included.
	RetryCount float64
	// HourOfDay is the local hour in [0, 23].
	HourOfDay float64
	// IPRiskScore and GeoRiskScore are placeholder reputation inputs.
	IPRiskScore  float64
	GeoRiskScore float64
}

// Verdict is the oracle's answer for one feature vector.
type Verdict struct {
	// Score is the anomaly probability in [0, 1].
	Score float64 `json:"anomaly_score"`
	// Label is the oracle's classification, LabelNormal for clean traffic.
	Label string `json:"verdict"`
}

// Oracle scores handshake feature vectors.
type Oracle interface {
	Score(ctx context.Context, f Features) (Verdict, error)
}
