package launcher

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInstalled matches every NotInstalledError
	ErrNotInstalled = errors.New("binary not installed")
	// ErrLaunchFailed matches every LaunchFailedError
	ErrLaunchFailed = errors.New("launch failed")
)

// NotInstalledError means nothing is present at the canonical path.
type NotInstalledError struct {
	ExpectedPath string
}

func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("binary not found at %s", e.ExpectedPath)
}

func (e *NotInstalledError) Is(target error) bool { return target == ErrNotInstalled }

// LaunchFailedError means the binary exists but could not be started.
type LaunchFailedError struct {
	Path  string
	Cause error
}

func (e *LaunchFailedError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Path, e.Cause)
}

func (e *LaunchFailedError) Unwrap() error { return e.Cause }

func (e *LaunchFailedError) Is(target error) bool { return target == ErrLaunchFailed }
