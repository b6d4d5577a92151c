package crypto

import "math"

// ShannonEntropy returns the Shannon entropy of b in bits per byte, in the
// range [0, 8]. It is computed over the raw bytes, not any text encoding.
//
// Well-generated 32-byte keys land close to 5 bits/byte (32 mostly distinct
// values); constant or heavily repeated material scores far lower, which the
// handshake uses as a weak-key heuristic.
func ShannonEntropy(b []byte) float64 {
	if len(b) == 0 {
		return 0
	}
	var freq [256]int
	for _, c := range b {
		freq[c]++
	}
	total := float64(len(b))
	entropy := 0.0
	for _, n := range freq {
		if n == 0 {
			continue
		}
		p := float64(n) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}
