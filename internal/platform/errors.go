package platform

import (
	"errors"
	"fmt"
)

// ErrUnsupportedPlatform is matched by every UnsupportedPlatformError.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// UnsupportedPlatformError reports an OS or architecture outside the
// supported enumeration. It is never retryable.
type UnsupportedPlatformError struct {
	RawOS   string
	RawArch string
}

func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform: %s-%s", e.RawOS, e.RawArch)
}

// Is reports whether target is ErrUnsupportedPlatform.
func (e *UnsupportedPlatformError) Is(target error) bool {
	return target == ErrUnsupportedPlatform
}
