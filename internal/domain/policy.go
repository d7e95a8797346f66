package domain

import "time"

// Стратегии backoff.
const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

// RetryPolicy — политика повторов для item.
type RetryPolicy struct {
	// MaxAttempts — максимальное количество попыток (default: 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// Backoff — стратегия: "fixed" (default) или "exponential".
	Backoff string `json:"backoff" yaml:"backoff"`

	// InitialDelay — задержка перед второй попыткой (default: 5s).
	InitialDelay time.Duration `json:"initial_delay" yaml:"initial_delay"`

	// MaxDelay — верхняя граница задержки для exponential (default: 1m).
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay"`
}

// DefaultRetryPolicy возвращает политику по умолчанию: 3 попытки, fixed 5s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		Backoff:      BackoffFixed,
		InitialDelay: 5 * time.Second,
		MaxDelay:     time.Minute,
	}
}
