package handshake

import (
	"time"

	"keygate/crypto"
	"keygate/oracle"
	"keygate/store"
)

// buildFeatures assembles the oracle feature vector for one validation
// attempt. Entropies are computed over the raw key bytes, never a text
// encoding; the IP and geolocation risk scores come from Config.
func (c *Coordinator) buildFeatures(rec store.Record, sigValid bool) oracle.Features {
	now := time.Now()
	f := oracle.Features{
		ElapsedMS:        float64(now.Sub(rec.CreatedAt).Milliseconds()),
		KeySize:          float64(crypto.KeySize),
		LocalKeyEntropy:  crypto.ShannonEntropy(rec.LocalPublicKey),
		RemoteKeyEntropy: crypto.ShannonEntropy(rec.RemotePublicKey),
		RetryCount:       float64(rec.RetryCount),
		HourOfDay:        float64(now.Hour()),
		IPRiskScore:      c.cfg.IPRiskScore,
		GeoRiskScore:     c.cfg.GeoRiskScore,
	}
	if sigValid {
		f.SignatureValid = 1
	}
	return f
}
