package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout bounds a scoring round-trip. The oracle is the only
// network call on the validation path, so the budget stays short.
const DefaultTimeout = 5 * time.Second

// HTTPOracle talks to the scoring service over HTTP.
// The service accepts a flat JSON object of numeric features at
// POST <base>/predict/handshake and answers {"anomaly_score", "verdict"}.
type HTTPOracle struct {
	Base string
	HTTP *http.Client
}

// NewHTTP creates a client for the scoring service at base.
func NewHTTP(base string) *HTTPOracle {
	return &HTTPOracle{
		Base: base,
		HTTP: &http.Client{Timeout: DefaultTimeout},
	}
}

var _ Oracle = (*HTTPOracle)(nil)

func (c *HTTPOracle) Score(ctx context.Context, f Features) (Verdict, error) {
	payload := map[string]float64{
		"elapsed_ms":         f.ElapsedMS,
		"key_size":           f.KeySize,
		"signature_valid":    f.SignatureValid,
		"local_key_entropy":  f.LocalKeyEntropy,
		"remote_key_entropy": f.RemoteKeyEntropy,
		"retry_count":        f.RetryCount,
		"hour_of_day":        f.HourOfDay,
		"ip_risk_score":      f.IPRiskScore,
		"geo_risk_score":     f.GeoRiskScore,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Verdict{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+"/predict/handshake", bytes.NewReader(body))
	if err != nil {
		return Verdict{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Verdict{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Verdict{}, fmt.Errorf("oracle: score failed: %s", resp.Status)
	}

	var v Verdict
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return Verdict{}, err
	}
	return v, nil
}
