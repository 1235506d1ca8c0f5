package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainTrace separates trace digests from any other hash in the system.
const DomainTrace = "tftrace/trace/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest returns a content hash of the trace over its canonical form.
// Two traces with the same phases, resources and events in the same order
// share a digest regardless of log timestamps.
func (t *Trace) Digest() (string, error) {
	canonical, err := MarshalCanonical(t.ToValue())
	if err != nil {
		return "", fmt.Errorf("trace digest: %w", err)
	}
	return hashWithDomain(DomainTrace, canonical), nil
}
