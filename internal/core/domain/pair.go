package domain

import "time"

// Pair is a key-value record owned by exactly one tenant. Key is unique per
// owner only.
type Pair struct {
	ID       int64
	OwnerID  int64
	Key      string
	Value    string
	Created  time.Time
	Modified time.Time
}

func ValidatePairKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return nil
}

// NextModified returns the modified timestamp for a write at now over a
// record last modified at prev. The result is always after prev so that
// every overwrite is observable even when the clock has not advanced.
func NextModified(prev, now time.Time) time.Time {
	now = now.UTC().Truncate(time.Microsecond)
	if prev.IsZero() || now.After(prev) {
		return now
	}
	return prev.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
}
