package usecase

import (
	"crypto/rand"
	"fmt"

	"github.com/atvirokodosprendimai/kvss/internal/core/domain"
)

// KeyGenerator returns a fresh tenant key.
type KeyGenerator func() (string, error)

// GenerateKey draws domain.KeyLength characters uniformly from
// domain.KeyAlphabet using crypto/rand.
func GenerateKey() (string, error) {
	const limit = 256 - 256%len(domain.KeyAlphabet)

	out := make([]byte, 0, domain.KeyLength)
	var buf [64]byte
	for len(out) < domain.KeyLength {
		if _, err := rand.Read(buf[:]); err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, domain.KeyAlphabet[int(b)%len(domain.KeyAlphabet)])
			if len(out) == domain.KeyLength {
				break
			}
		}
	}
	return string(out), nil
}
