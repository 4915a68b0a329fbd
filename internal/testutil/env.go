// Package testutil isolates tests from the developer's environment.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// EnvKeys are the AGENT_TELEGRAM_* variables the provisioning tools read.
var EnvKeys = []string{
	"AGENT_TELEGRAM_VERSION",
	"AGENT_TELEGRAM_BASE_URL",
	"AGENT_TELEGRAM_ROOT",
	"AGENT_TELEGRAM_VERIFY",
	"AGENT_TELEGRAM_DEBUG",
}

// SetupTestEnv unsets every AGENT_TELEGRAM_* variable for the duration of
// the test. Variables are restored by t.Setenv's cleanup.
func SetupTestEnv(t *testing.T) {
	t.Helper()

	for _, key := range EnvKeys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

// PackageRoot creates a package root holding a package.json with the given
// version. An empty version writes no package.json.
func PackageRoot(t *testing.T, version string) string {
	t.Helper()

	root := t.TempDir()
	if version == "" {
		return root
	}
	pkg := `{"name": "agent-telegram", "version": "` + version + `"}`
	if err := os.WriteFile(filepath.Join(root, "package.json"), []byte(pkg), 0o644); err != nil {
		t.Fatalf("failed to write package.json: %v", err)
	}
	return root
}
