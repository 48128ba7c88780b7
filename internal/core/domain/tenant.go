package domain

import (
	"strings"
	"time"
)

const (
	KeyAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	KeyLength   = 32
)

// Tenant is an API key holder. Key is the bearer credential and never
// changes once issued.
type Tenant struct {
	ID       int64
	Key      string
	Name     string
	Email    string
	Note     string
	Created  time.Time
	Modified time.Time
}

// TenantProfile is the mutable part of a tenant.
type TenantProfile struct {
	Name  string
	Email string
	Note  string
}

func (p TenantProfile) Normalize() TenantProfile {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Note = strings.TrimSpace(p.Note)
	return p
}

// ValidAPIKey reports whether s has the shape of an issued key. It is a
// cheap pre-check only; possession is proven by a registry lookup.
func ValidAPIKey(s string) bool {
	if len(s) != KeyLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(KeyAlphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
