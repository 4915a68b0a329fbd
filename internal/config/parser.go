package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/agent-telegram/binwrap/internal/platform"
)

// ReleaseFileName is the optional per-package override file, looked up in
// the package root.
const ReleaseFileName = "release.lua"

// Lua schema field names and globals
const (
	luaGlobalRelease    = "release"
	luaFieldName        = "name" // rejected: the binary name is fixed
	luaFieldBaseURL     = "base_url"
	luaFieldScheme      = "scheme"
	luaFieldChecksums   = "checksums"
	luaFieldVerify      = "verify"
	luaFieldKeyring     = "keyring"
	luaFieldIssuer      = "identity_issuer"
	luaFieldSAN         = "identity_san"
	luaFieldTrustedRoot = "trusted_root"
	luaFieldPreserve    = "preserve"
)

// Release holds the overrides a release.lua file may set. Empty fields
// are unset and fall through to the next configuration source.
type Release struct {
	BaseURL        string
	Scheme         string
	Checksums      string
	Verify         string
	Keyring        string
	IdentityIssuer string
	IdentitySAN    string
	TrustedRoot    string
	Preserve       []string
}

// Parser evaluates release.lua files with the host exposed as a
// read-only "platform" table.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a new release parser with the given platform detector.
// A nil detector leaves the platform table undefined.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseFile evaluates the release file at path. A missing file is not an
// error and yields an empty Release.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Release, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Release{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return p.ParseString(ctx, string(code))
}

// ParseString evaluates release Lua code held in memory.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Release, error) {
	L := newSandboxedVM(ctx)
	defer L.Close()

	if p.detector != nil {
		host, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, host); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua error in " + ReleaseFileName,
			Detail:  err.Error(),
		}
	}

	return extractRelease(L)
}

// ParseError represents a release file error with a friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractRelease reads the global "release" table. A file that never
// assigns it configures nothing.
func extractRelease(L *lua.LState) (*Release, error) {
	value := L.GetGlobal(luaGlobalRelease)
	if value.Type() == lua.LTNil {
		return &Release{}, nil
	}
	table, ok := value.(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: "invalid 'release' value",
			Detail:  fmt.Sprintf("expected table, got %s", value.Type()),
		}
	}

	// The launcher resolves <root>/bin/agent-telegram without reading any
	// configuration, so the installer must never write anywhere else.
	if v := table.RawGetString(luaFieldName); v.Type() != lua.LTNil {
		return nil, &ParseError{
			Message: "invalid 'release.name' value",
			Detail:  "the binary name is fixed and cannot be overridden",
		}
	}

	r := &Release{}
	fields := []struct {
		key string
		dst *string
	}{
		{luaFieldBaseURL, &r.BaseURL},
		{luaFieldScheme, &r.Scheme},
		{luaFieldChecksums, &r.Checksums},
		{luaFieldVerify, &r.Verify},
		{luaFieldKeyring, &r.Keyring},
		{luaFieldIssuer, &r.IdentityIssuer},
		{luaFieldSAN, &r.IdentitySAN},
		{luaFieldTrustedRoot, &r.TrustedRoot},
	}
	for _, f := range fields {
		s, err := stringField(table, f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = s
	}

	if preserveVal := table.RawGetString(luaFieldPreserve); preserveVal.Type() != lua.LTNil {
		preserveTable, ok := preserveVal.(*lua.LTable)
		if !ok {
			return nil, &ParseError{
				Message: "invalid 'release.preserve' value",
				Detail:  fmt.Sprintf("expected table, got %s", preserveVal.Type()),
			}
		}
		r.Preserve = extractStrings(preserveTable)
	}

	if err := r.Validate(); err != nil {
		return nil, &ParseError{
			Message: "release validation failed",
			Detail:  err.Error(),
		}
	}

	return r, nil
}

// stringField returns table[key] as a string. nil yields "".
func stringField(table *lua.LTable, key string) (string, error) {
	v := table.RawGetString(key)
	switch v.Type() {
	case lua.LTNil:
		return "", nil
	case lua.LTString:
		return strings.TrimSpace(v.String()), nil
	default:
		return "", &ParseError{
			Message: fmt.Sprintf("invalid 'release.%s' value", key),
			Detail:  fmt.Sprintf("expected string, got %s", v.Type()),
		}
	}
}

// extractStrings collects the string elements of a list table. nil
// entries left by platform.when() are skipped.
func extractStrings(table *lua.LTable) []string {
	var out []string
	table.ForEach(func(_, value lua.LValue) {
		if value.Type() != lua.LTString {
			return
		}
		if s := strings.TrimSpace(value.String()); s != "" {
			out = append(out, s)
		}
	})
	return out
}

// Validate rejects values no later stage could use.
func (r *Release) Validate() error {
	switch r.Scheme {
	case "", "bare", "archive":
	default:
		return fmt.Errorf("scheme must be \"bare\" or \"archive\", got %q", r.Scheme)
	}
	switch r.Verify {
	case "", "auto", "require", "off":
	default:
		return fmt.Errorf("verify must be \"auto\", \"require\" or \"off\", got %q", r.Verify)
	}
	if r.BaseURL != "" && !strings.HasPrefix(r.BaseURL, "https://") && !strings.HasPrefix(r.BaseURL, "http://") {
		return fmt.Errorf("base_url must be an http(s) URL, got %q", r.BaseURL)
	}
	for _, p := range r.Preserve {
		if strings.ContainsAny(p, `/\`) || p == "." || p == ".." {
			return fmt.Errorf("preserve entries must be plain file names, got %q", p)
		}
	}
	return nil
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		// Extract the most relevant part of the error
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
