package binary

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNetwork matches every NetworkError
	ErrNetwork = errors.New("network error")
	// ErrDownloadFailed matches every DownloadFailedError
	ErrDownloadFailed = errors.New("download failed")
	// ErrExtractionFailed matches every ExtractionFailedError
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrBinaryNotFound matches every BinaryNotFoundError
	ErrBinaryNotFound = errors.New("binary not found in archive")
	// ErrVerificationFailed matches every VerificationFailedError
	ErrVerificationFailed = errors.New("verification failed")
)

// NetworkError is a transport-level failure (DNS, TLS, connection reset,
// timeout) while fetching URL.
type NetworkError struct {
	URL   string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// DownloadFailedError is a terminal non-2xx response, or redirect
// exhaustion when Reason is set.
type DownloadFailedError struct {
	StatusCode int
	URL        string
	Reason     string
}

func (e *DownloadFailedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("download failed: %s (status %d) %s", e.Reason, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("download failed: %d %s", e.StatusCode, e.URL)
}

func (e *DownloadFailedError) Is(target error) bool { return target == ErrDownloadFailed }

// StrategyError records one extraction tool's failure.
type StrategyError struct {
	Strategy string
	Err      error
}

func (e StrategyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Strategy, e.Err)
}

// ExtractionFailedError means every available extraction strategy for
// Format failed. Attempts lists each one in the order tried.
type ExtractionFailedError struct {
	Format   Format
	Attempts []StrategyError
}

func (e *ExtractionFailedError) Error() string {
	if len(e.Attempts) == 0 {
		return fmt.Sprintf("extraction of %s failed: no extraction strategy available", e.Format)
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Error())
	}
	return fmt.Sprintf("extraction of %s failed: %s", e.Format, strings.Join(parts, "; "))
}

func (e *ExtractionFailedError) Is(target error) bool { return target == ErrExtractionFailed }

// Unwrap exposes the individual strategy failures to errors.Is/As.
func (e *ExtractionFailedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// BinaryNotFoundError means the extracted tree holds no regular file named
// ExpectedName.
type BinaryNotFoundError struct {
	ExpectedName string
}

func (e *BinaryNotFoundError) Error() string {
	return fmt.Sprintf("binary %s not found in archive", e.ExpectedName)
}

func (e *BinaryNotFoundError) Is(target error) bool { return target == ErrBinaryNotFound }

// VerificationFailedError means a downloaded asset did not match its
// published checksum or signature.
type VerificationFailedError struct {
	Method    VerificationMethod
	AssetName string
	Cause     error
}

func (e *VerificationFailedError) Error() string {
	return fmt.Sprintf("%s verification of %s failed: %v", e.Method, e.AssetName, e.Cause)
}

func (e *VerificationFailedError) Unwrap() error { return e.Cause }

func (e *VerificationFailedError) Is(target error) bool { return target == ErrVerificationFailed }
