package binary

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
)

// mkTree creates files (relative path -> content) below root.
func mkTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if strings.HasSuffix(name, "/") {
			if err := os.MkdirAll(path, 0755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestFindBinary(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		maxDepth int
		want     string
		wantErr  bool
	}{
		{
			name:     "top_level",
			files:    map[string]string{"agent-telegram": "bin", "README.md": "readme"},
			maxDepth: MaxSearchDepth,
			want:     "agent-telegram",
		},
		{
			name:     "two_levels_deep",
			files:    map[string]string{"pkg/bin/agent-telegram": "bin", "pkg/LICENSE": "MIT"},
			maxDepth: MaxSearchDepth,
			want:     "pkg/bin/agent-telegram",
		},
		{
			name:     "shallow_wins",
			files:    map[string]string{"a/agent-telegram": "deep", "agent-telegram": "shallow"},
			maxDepth: MaxSearchDepth,
			want:     "agent-telegram",
		},
		{
			name:     "lexical_order",
			files:    map[string]string{"b/agent-telegram": "b", "a/agent-telegram": "a"},
			maxDepth: MaxSearchDepth,
			want:     "a/agent-telegram",
		},
		{
			name:     "directory_with_same_name_is_skipped",
			files:    map[string]string{"agent-telegram/": "", "x/agent-telegram": "bin"},
			maxDepth: MaxSearchDepth,
			want:     "x/agent-telegram",
		},
		{
			name:     "prefix_does_not_match",
			files:    map[string]string{"agent-telegram-extra": "no", "agent-telegram.sha256": "no"},
			maxDepth: MaxSearchDepth,
			wantErr:  true,
		},
		{
			name:     "beyond_depth_limit",
			files:    map[string]string{"a/b/c/agent-telegram": "bin"},
			maxDepth: 2,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			mkTree(t, root, tt.files)

			got, err := FindBinary(root, "agent-telegram", tt.maxDepth)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error but got %q", got)
				}
				var bnf *BinaryNotFoundError
				if !errors.As(err, &bnf) || bnf.ExpectedName != "agent-telegram" {
					t.Errorf("expected BinaryNotFoundError for agent-telegram, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindBinary() error = %v", err)
			}
			if want := filepath.Join(root, filepath.FromSlash(tt.want)); got != want {
				t.Errorf("FindBinary() = %q, want %q", got, want)
			}
		})
	}
}

func TestInstallerInstall(t *testing.T) {
	binDir := t.TempDir()
	stageDir := filepath.Join(binDir, ".extract-123")
	mkTree(t, binDir, map[string]string{
		".extract-123/agent-telegram_0.1.0_linux_amd64/bin/agent-telegram": "binary",
		".extract-123/agent-telegram_0.1.0_linux_amd64/LICENSE":            "MIT",
		".extract-123/agent-telegram_0.1.0_linux_amd64/README.md":          "readme",
		"agent-telegram-run": "launcher",
		"run.js":             "shim",
		"stale-file":         "old",
	})

	installed, err := NewInstaller("linux", nil).Install(stageDir, binDir, "agent-telegram", DefaultPreserve)
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	if want := filepath.Join(binDir, "agent-telegram"); installed.Path != want {
		t.Errorf("Path = %q, want %q", installed.Path, want)
	}
	assertFileContent(t, installed.Path, "binary")

	if runtime.GOOS != "windows" {
		info, err := os.Stat(installed.Path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm()&0111 == 0 {
			t.Errorf("binary is not executable: %v", info.Mode())
		}
	}

	entries, err := os.ReadDir(binDir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	want := []string{"agent-telegram", "agent-telegram-run", "run.js"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("bin dir = %v, want %v", names, want)
	}
}

func TestInstallerBinaryMissing(t *testing.T) {
	binDir := t.TempDir()
	stageDir := filepath.Join(binDir, ".extract-1")
	mkTree(t, binDir, map[string]string{
		".extract-1/LICENSE":   "MIT",
		".extract-1/README.md": "readme",
	})

	_, err := NewInstaller("linux", nil).Install(stageDir, binDir, "agent-telegram", nil)
	if !errors.Is(err, ErrBinaryNotFound) {
		t.Fatalf("expected ErrBinaryNotFound, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(binDir, "agent-telegram")); !os.IsNotExist(statErr) {
		t.Error("no binary should exist at the canonical path")
	}
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	mkTree(t, dir, map[string]string{
		"keep-me":      "1",
		"drop-me":      "2",
		"nested/file":  "3",
		"also-keep-me": "4",
	})

	if err := Cleanup(dir, []string{"keep-me", "also-keep-me", "not-present"}); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Errorf("expected 2 entries after cleanup, got %d", len(entries))
	}
	if err := Cleanup(filepath.Join(dir, "missing"), nil); err == nil {
		t.Error("expected error for missing directory")
	}
}
