package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix namespaces every environment override.
	EnvPrefix = "AGENT_TELEGRAM"
	// PackageFileName holds the version the binary is provisioned at.
	PackageFileName = "package.json"
)

// Settings are the values read from package.json and the environment.
// Environment variables win over package.json; empty means unset.
type Settings struct {
	// Name is the package name from package.json, used in diagnostics only
	Name string
	// Version from package.json, or AGENT_TELEGRAM_VERSION
	Version string
	// BaseURL from AGENT_TELEGRAM_BASE_URL
	BaseURL string
	// Root from AGENT_TELEGRAM_ROOT
	Root string
	// Verify from AGENT_TELEGRAM_VERIFY
	Verify string
	// Debug from AGENT_TELEGRAM_DEBUG
	Debug bool
	// PackageFile is the package.json that was read, or "" when none exists
	PackageFile string
}

// newEnvViper returns a viper instance that resolves keys such as
// "base_url" from AGENT_TELEGRAM_BASE_URL.
func newEnvViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	v.SetDefault("debug", false)
	return v
}

// EnvRoot returns AGENT_TELEGRAM_ROOT, or "" when unset.
func EnvRoot() string {
	return newEnvViper().GetString("root")
}

// EnvDebug reports whether AGENT_TELEGRAM_DEBUG enables debug output.
func EnvDebug() bool {
	return newEnvViper().GetBool("debug")
}

// LoadSettings reads root/package.json, if present, and layers the
// environment on top of it.
func LoadSettings(root string) (*Settings, error) {
	v := newEnvViper()

	packageFile := filepath.Join(root, PackageFileName)
	if info, err := os.Stat(packageFile); err == nil && !info.IsDir() {
		v.SetConfigFile(packageFile)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read %s: %w", packageFile, err)
		}
	} else {
		packageFile = ""
	}

	return &Settings{
		Name:        v.GetString("name"),
		Version:     strings.TrimSpace(v.GetString("version")),
		BaseURL:     strings.TrimSpace(v.GetString("base_url")),
		Root:        strings.TrimSpace(v.GetString("root")),
		Verify:      strings.TrimSpace(v.GetString("verify")),
		Debug:       v.GetBool("debug"),
		PackageFile: packageFile,
	}, nil
}
