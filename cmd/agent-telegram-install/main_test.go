package main

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agent-telegram/binwrap/internal/launcher"
	"github.com/agent-telegram/binwrap/internal/platform"
	"github.com/agent-telegram/binwrap/internal/testutil"
)

// useHost pins host detection for the duration of a test.
func useHost(t *testing.T, rawOS, rawArch string) {
	t.Helper()
	orig := newDetector
	newDetector = func() platform.Detector {
		return &platform.StaticDetector{RawOS: rawOS, RawArch: rawArch}
	}
	t.Cleanup(func() { newDetector = orig })

	testutil.SetupTestEnv(t)
}

func releaseArchive(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	body := []byte("#!/bin/sh\necho agent-telegram\n")
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "agent-telegram", Mode: 0755, Size: int64(len(body))}))
	_, err := tw.Write(body)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

type cliResult struct {
	stdout, stderr string
	exitCode       int
}

func runCLI(args ...string) cliResult {
	var stdout, stderr bytes.Buffer
	res := cliResult{exitCode: -1}
	runMain(append([]string{"agent-telegram-install"}, args...), &stdout, &stderr, func(code int) {
		res.exitCode = code
	})
	res.stdout = stdout.String()
	res.stderr = stderr.String()
	return res
}

func TestInstall(t *testing.T) {
	useHost(t, "linux", "x86_64")
	archive := releaseArchive(t)
	const asset = "agent-telegram_0.1.0_linux_amd64.tar.gz"
	sum := sha256.Sum256(archive)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v0.1.0/" + asset:
			_, _ = w.Write(archive)
		case "/v0.1.0/agent-telegram_0.1.0_checksums.txt":
			_, _ = fmt.Fprintf(w, "%s  %s\n", hex.EncodeToString(sum[:]), asset)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	root := testutil.PackageRoot(t, "0.1.0")

	res := runCLI("--root", root, "--base-url", server.URL)
	require.Equal(t, -1, res.exitCode, "stderr: %s", res.stderr)
	assert.Contains(t, res.stdout, "installed to "+filepath.Join(root, "bin", "agent-telegram"))
	assert.FileExists(t, filepath.Join(root, "bin", "agent-telegram"))

	// A second run with the server gone is a no-op.
	server.Close()
	res = runCLI("--root", root, "--base-url", server.URL)
	assert.Equal(t, -1, res.exitCode, "stderr: %s", res.stderr)
	assert.Contains(t, res.stderr, "Binary already exists")
}

func TestInstallFailurePrintsHints(t *testing.T) {
	useHost(t, "darwin", "arm64")
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	root := testutil.PackageRoot(t, "0.1.0")

	res := runCLI("--root", root, "--base-url", server.URL)
	assert.Equal(t, 1, res.exitCode)
	assert.Contains(t, res.stderr, "Error:")
	assert.Contains(t, res.stderr, "404")
	assert.Contains(t, res.stderr, "hint:")
	assert.Contains(t, res.stderr, server.URL+"/v0.1.0/agent-telegram_0.1.0_darwin_arm64.tar.gz")
	assert.Contains(t, res.stderr, "go build -o bin/agent-telegram .")
	assert.NoFileExists(t, filepath.Join(root, "bin", "agent-telegram"))
}

func TestInstallWithoutVersion(t *testing.T) {
	useHost(t, "linux", "amd64")
	root := t.TempDir()

	res := runCLI("--root", root)
	assert.Equal(t, 1, res.exitCode)
	assert.Contains(t, res.stderr, "no version to install")
}

func TestInstallUnsupportedPlatform(t *testing.T) {
	useHost(t, "freebsd", "riscv64")
	root := testutil.PackageRoot(t, "0.1.0")

	res := runCLI("--root", root)
	assert.Equal(t, 1, res.exitCode)
	assert.Contains(t, res.stderr, "unsupported platform: freebsd-riscv64")
	assert.Contains(t, res.stderr, "go build -o bin/agent-telegram .")
}

func TestInstallBadReleaseFile(t *testing.T) {
	useHost(t, "linux", "amd64")
	root := testutil.PackageRoot(t, "0.1.0")
	require.NoError(t, os.WriteFile(filepath.Join(root, "release.lua"), []byte(`release = { scheme = "tarball" }`), 0644))

	res := runCLI("--root", root)
	assert.Equal(t, 1, res.exitCode)
	assert.Contains(t, res.stderr, "release validation failed")
}

func TestPathCommand(t *testing.T) {
	useHost(t, "win32", "x64")
	root := testutil.PackageRoot(t, "0.1.0")

	res := runCLI("path", "--root", root)
	require.Equal(t, -1, res.exitCode, "stderr: %s", res.stderr)
	assert.Equal(t, filepath.Join(root, "bin", "agent-telegram.exe")+"\n", res.stdout)
}

func TestPlatformCommand(t *testing.T) {
	useHost(t, "darwin", "aarch64")

	res := runCLI("platform")
	require.Equal(t, -1, res.exitCode, "stderr: %s", res.stderr)
	assert.Contains(t, res.stdout, "platform: darwin/arm64")
	assert.Contains(t, res.stdout, "reported: darwin/aarch64")
}

func TestVersionCommand(t *testing.T) {
	useHost(t, "linux", "amd64")
	root := testutil.PackageRoot(t, "1.4.2")
	t.Setenv("AGENT_TELEGRAM_VERSION", "1.5.0")

	res := runCLI("version", "--root", root)
	require.Equal(t, -1, res.exitCode, "stderr: %s", res.stderr)
	assert.Contains(t, res.stdout, "agent-telegram-install "+Version)
	assert.Contains(t, res.stdout, "agent-telegram 1.5.0")
}

func TestUnknownFlag(t *testing.T) {
	useHost(t, "linux", "amd64")

	res := runCLI("--bogus")
	assert.Equal(t, 1, res.exitCode)
	assert.Contains(t, res.stderr, "unknown flag")
	assert.NotContains(t, res.stderr, "hint:")
}

// serveRelease publishes archive as the 0.1.0 tar.gz asset for host.
func serveRelease(t *testing.T, host *platform.Host, archive []byte) *httptest.Server {
	t.Helper()
	asset := fmt.Sprintf("/v0.1.0/agent-telegram_0.1.0_%s_%s.tar.gz", host.OS, host.Arch)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == asset {
			_, _ = w.Write(archive)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestInstallAndLauncherAgreeOnPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("release archives for windows are zip files")
	}
	host, err := platform.Resolve(runtime.GOOS, runtime.GOARCH)
	if err != nil {
		t.Skipf("test host %s/%s is not a supported platform", runtime.GOOS, runtime.GOARCH)
	}
	useHost(t, runtime.GOOS, runtime.GOARCH)
	server := serveRelease(t, host, releaseArchive(t))

	root := testutil.PackageRoot(t, "0.1.0")
	require.NoError(t, os.WriteFile(filepath.Join(root, "release.lua"), []byte(`
		release = {
			scheme = "archive",
			preserve = { "notes.txt" },
		}
	`), 0644))

	res := runCLI("--root", root, "--base-url", server.URL, "--verify", "off")
	require.Equal(t, -1, res.exitCode, "stderr: %s", res.stderr)

	pathRes := runCLI("path", "--root", root)
	require.Equal(t, -1, pathRes.exitCode, "stderr: %s", pathRes.stderr)

	t.Setenv("AGENT_TELEGRAM_ROOT", root)
	resolved, err := launcher.New("").ResolveBinary()
	require.NoError(t, err)

	assert.Contains(t, res.stdout, "installed to "+resolved)
	assert.Equal(t, resolved+"\n", pathRes.stdout)
	assert.Equal(t, filepath.Join(root, "bin", "agent-telegram"), resolved)
}

func TestInstallRejectsNameOverride(t *testing.T) {
	useHost(t, "linux", "amd64")
	server := serveRelease(t, &platform.Host{OS: "linux", Arch: "amd64"}, releaseArchive(t))

	root := testutil.PackageRoot(t, "0.1.0")
	require.NoError(t, os.WriteFile(filepath.Join(root, "release.lua"), []byte(`release = { name = "tg" }`), 0644))

	res := runCLI("--root", root, "--base-url", server.URL, "--verify", "off")
	assert.Equal(t, 1, res.exitCode)
	assert.Contains(t, res.stderr, "release.name")
	assert.NoFileExists(t, filepath.Join(root, "bin", "tg"))
	assert.NoFileExists(t, filepath.Join(root, "bin", "agent-telegram"))
}

func TestInstallRerunSkipsConfiguration(t *testing.T) {
	useHost(t, "linux", "amd64")
	server := serveRelease(t, &platform.Host{OS: "linux", Arch: "amd64"}, releaseArchive(t))

	root := testutil.PackageRoot(t, "0.1.0")
	res := runCLI("--root", root, "--base-url", server.URL, "--verify", "off")
	require.Equal(t, -1, res.exitCode, "stderr: %s", res.stderr)

	// Neither file is read once the binary is in place.
	require.NoError(t, os.WriteFile(filepath.Join(root, "release.lua"), []byte(`release = {`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "package.json"), []byte(`{not json`), 0644))
	server.Close()

	res = runCLI("--root", root, "--base-url", server.URL)
	assert.Equal(t, -1, res.exitCode, "stderr: %s", res.stderr)
	assert.Contains(t, res.stderr, "Binary already exists")
	assert.NotContains(t, res.stderr, "Error:")
}
