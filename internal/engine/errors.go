// Package engine implements the location scoring pipeline: POI feature
// extraction, per-city percentile normalization, and metric aggregation.
package engine

import (
	"errors"
	"fmt"
)

// InvalidRadiusError rejects a scoring request before any feature
// source I/O. The caller's input is at fault; retrying is pointless.
type InvalidRadiusError struct {
	Radius float64
	Max    float64
}

func (e *InvalidRadiusError) Error() string {
	if e.Radius <= 0 {
		return fmt.Sprintf("engine: radius must be positive, got %.1f", e.Radius)
	}
	return fmt.Sprintf("engine: radius %.1f exceeds maximum %.1f", e.Radius, e.Max)
}

// DataUnavailableError wraps a transient feature-source failure
// (transport error, timeout, rate limit, malformed payload). The caller
// may retry with backoff; the engine itself never retries.
type DataUnavailableError struct {
	Err error
}

func (e *DataUnavailableError) Error() string {
	return "engine: feature source unavailable: " + e.Err.Error()
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports a startup-time misconfiguration (metric
// weights not summing to 1, missing baseline for a cataloged city).
// Fatal: the process must not serve requests.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "engine: configuration: " + e.Reason
}

// IsInvalidRadius reports whether err is (or wraps) an InvalidRadiusError.
func IsInvalidRadius(err error) bool {
	var target *InvalidRadiusError
	return errors.As(err, &target)
}

// IsDataUnavailable reports whether err is (or wraps) a DataUnavailableError.
func IsDataUnavailable(err error) bool {
	var target *DataUnavailableError
	return errors.As(err, &target)
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}
