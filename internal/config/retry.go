package config

import (
	"time"

	"git.home.luguber.info/inful/updatesnap/internal/foundation/normalization"
)

// RetryBackoffMode enumerates supported backoff strategies for forge requests.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffNormalizer = normalization.NewNormalizer(map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
	"exp":         RetryBackoffExponential,
}, "")

// NormalizeRetryBackoff converts arbitrary user input (case-insensitive) into a typed mode,
// returning empty string for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	return retryBackoffNormalizer.Normalize(raw)
}

// RetryConfig controls how transient forge failures are retried.
type RetryConfig struct {
	Backoff    RetryBackoffMode `yaml:"backoff"`
	Initial    time.Duration    `yaml:"initial"`
	Max        time.Duration    `yaml:"max"`
	MaxRetries int              `yaml:"max_retries"`
}
