package binary

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/sigstore/sigstore-go/pkg/bundle"
	"github.com/sigstore/sigstore-go/pkg/root"
	"github.com/sigstore/sigstore-go/pkg/verify"
)

// VerifyConfig selects which checks the Verifier performs.
type VerifyConfig struct {
	// Mode controls whether a missing checksum file is fatal
	Mode VerifyMode
	// KeyringPath enables GPG verification of the checksum file
	KeyringPath string
	// IdentityIssuer and IdentitySAN enable Sigstore verification of the
	// checksum file. IdentitySAN is a regular expression.
	IdentityIssuer string
	IdentitySAN    string
	// TrustedRootPath replaces the public-good Sigstore trusted root
	TrustedRootPath string
}

// GPGEnabled reports whether a detached signature is required.
func (c VerifyConfig) GPGEnabled() bool {
	return c.KeyringPath != ""
}

// SigstoreEnabled reports whether a Sigstore bundle is required.
func (c VerifyConfig) SigstoreEnabled() bool {
	return c.IdentityIssuer != "" || c.IdentitySAN != ""
}

// Verifier checks downloaded assets against their published checksum file,
// and optionally checks that file's GPG signature or Sigstore bundle.
type Verifier struct {
	cfg VerifyConfig
}

// NewVerifier creates a new verifier
func NewVerifier(cfg VerifyConfig) *Verifier {
	if cfg.Mode == "" {
		cfg.Mode = VerifyAuto
	}
	return &Verifier{cfg: cfg}
}

// VerifyFile verifies assetPath against the checksum file. When
// signature checks are configured the checksum file is authenticated
// first, so the SHA256 comparison is only trusted once its source is.
func (v *Verifier) VerifyFile(assetPath, checksumPath, signaturePath, bundlePath string, a *Artifact) (*VerificationResult, error) {
	if a == nil {
		return nil, fmt.Errorf("artifact is required")
	}
	if checksumPath == "" {
		return nil, &VerificationFailedError{Method: VerificationSHA256, AssetName: a.AssetName, Cause: fmt.Errorf("checksum file not available")}
	}

	method := VerificationSHA256

	if v.cfg.GPGEnabled() {
		if signaturePath == "" {
			return nil, &VerificationFailedError{Method: VerificationGPG, AssetName: a.AssetName, Cause: fmt.Errorf("signature not available")}
		}
		if result, err := v.verifyGPG(checksumPath, signaturePath); err != nil {
			return result, &VerificationFailedError{Method: VerificationGPG, AssetName: a.AssetName, Cause: err}
		}
		method = VerificationGPG
	}

	if v.cfg.SigstoreEnabled() {
		if bundlePath == "" {
			return nil, &VerificationFailedError{Method: VerificationSigstore, AssetName: a.AssetName, Cause: fmt.Errorf("sigstore bundle not available")}
		}
		if result, err := v.verifySigstore(checksumPath, bundlePath); err != nil {
			return result, &VerificationFailedError{Method: VerificationSigstore, AssetName: a.AssetName, Cause: err}
		}
		method = VerificationSigstore
	}

	result, err := v.verifySHA256(assetPath, checksumPath, a.AssetName)
	if err != nil {
		return result, &VerificationFailedError{Method: VerificationSHA256, AssetName: a.AssetName, Cause: err}
	}

	result.Method = method
	return result, nil
}

// verifyGPG verifies a file using a detached GPG signature
func (v *Verifier) verifyGPG(filePath, signaturePath string) (*VerificationResult, error) {
	fail := func(err error) (*VerificationResult, error) {
		return &VerificationResult{Method: VerificationGPG, Success: false, Error: err}, err
	}

	keyring, err := LoadKeyring(v.cfg.KeyringPath)
	if err != nil {
		return fail(fmt.Errorf("load keyring: %w", err))
	}

	signed, err := os.ReadFile(filePath)
	if err != nil {
		return fail(fmt.Errorf("read signed file: %w", err))
	}

	sig, err := os.ReadFile(signaturePath)
	if err != nil {
		return fail(fmt.Errorf("read signature: %w", err))
	}

	// Try armored first, then binary
	_, err = openpgp.CheckArmoredDetachedSignature(keyring, bytes.NewReader(signed), bytes.NewReader(sig), nil)
	if err != nil {
		_, err = openpgp.CheckDetachedSignature(keyring, bytes.NewReader(signed), bytes.NewReader(sig), nil)
	}
	if err != nil {
		return fail(fmt.Errorf("verify signature: %w", err))
	}

	return &VerificationResult{Method: VerificationGPG, Success: true}, nil
}

// verifySigstore verifies a file against a Sigstore bundle issued to the
// configured certificate identity.
func (v *Verifier) verifySigstore(filePath, bundlePath string) (*VerificationResult, error) {
	fail := func(err error) (*VerificationResult, error) {
		return &VerificationResult{Method: VerificationSigstore, Success: false, Error: err}, err
	}

	b, err := bundle.LoadJSONFromPath(bundlePath)
	if err != nil {
		return fail(fmt.Errorf("load bundle: %w", err))
	}

	trusted, err := v.trustedMaterial()
	if err != nil {
		return fail(fmt.Errorf("load trusted root: %w", err))
	}

	verifier, err := verify.NewVerifier(trusted,
		verify.WithSignedCertificateTimestamps(1),
		verify.WithTransparencyLog(1),
		verify.WithObserverTimestamps(1),
	)
	if err != nil {
		return fail(fmt.Errorf("create sigstore verifier: %w", err))
	}

	identity, err := verify.NewShortCertificateIdentity(v.cfg.IdentityIssuer, "", "", v.cfg.IdentitySAN)
	if err != nil {
		return fail(fmt.Errorf("certificate identity: %w", err))
	}

	f, err := os.Open(filePath)
	if err != nil {
		return fail(fmt.Errorf("open signed file: %w", err))
	}
	defer f.Close()

	if _, err := verifier.Verify(b, verify.NewPolicy(verify.WithArtifact(f), verify.WithCertificateIdentity(identity))); err != nil {
		return fail(fmt.Errorf("verify bundle: %w", err))
	}

	return &VerificationResult{Method: VerificationSigstore, Success: true}, nil
}

func (v *Verifier) trustedMaterial() (root.TrustedMaterial, error) {
	if v.cfg.TrustedRootPath != "" {
		return root.NewTrustedRootFromPath(v.cfg.TrustedRootPath)
	}
	return root.FetchTrustedRoot()
}

// verifySHA256 compares the SHA256 of assetPath with the entry for
// assetName in checksumPath.
func (v *Verifier) verifySHA256(assetPath, checksumPath, assetName string) (*VerificationResult, error) {
	fail := func(err error) (*VerificationResult, error) {
		return &VerificationResult{Method: VerificationSHA256, Success: false, Error: err}, err
	}

	actualChecksum, err := calculateSHA256(assetPath)
	if err != nil {
		return fail(fmt.Errorf("calculate checksum: %w", err))
	}

	expectedChecksum, err := findChecksum(checksumPath, assetName)
	if err != nil {
		return fail(fmt.Errorf("find checksum: %w", err))
	}

	if !strings.EqualFold(actualChecksum, expectedChecksum) {
		return fail(fmt.Errorf("checksum mismatch:\nactual:   %s\nexpected: %s", actualChecksum, expectedChecksum))
	}

	return &VerificationResult{Method: VerificationSHA256, Success: true}, nil
}

// calculateSHA256 calculates the SHA256 checksum of a file
func calculateSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// findChecksum finds the checksum for a specific filename in a checksum file
// Format: "abc123def456  filename.tar.gz" (a leading "*" marks binary mode)
func findChecksum(checksumPath, filename string) (string, error) {
	file, err := os.Open(checksumPath)
	if err != nil {
		return "", fmt.Errorf("open checksum file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) < 2 {
			continue
		}

		checksumFilename := strings.TrimPrefix(parts[1], "*")
		if checksumFilename == filename || filepath.Base(checksumFilename) == filename {
			return parts[0], nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}

	return "", fmt.Errorf("checksum not found for %s", filename)
}
