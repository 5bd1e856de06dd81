package credential

import (
	"strings"
	"time"
)

// Provider identifies an AI provider.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGrok      Provider = "grok"
)

// Providers lists every supported provider in display order.
var Providers = []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGrok}

// ParseProvider validates a provider name.
func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Providers {
		if p == known {
			return p, nil
		}
	}
	return "", ErrUnknownProvider
}

// Entry is a stored provider key.
type Entry struct {
	Provider  Provider  `json:"provider"`
	Key       string    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status reports whether a provider has a key without exposing it.
type Status struct {
	Provider  Provider   `json:"provider"`
	Present   bool       `json:"present"`
	Masked    string     `json:"masked,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Mask hides all but the last four characters of a key.
func Mask(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
