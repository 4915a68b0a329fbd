// Package binary provisions the agent-telegram executable: it locates the
// release artifact for a host, downloads it, verifies it, extracts it and
// installs the binary at a fixed path the launcher can find without
// searching.
//
// # Pipeline
//
// Manager.Install drives a strictly sequential state machine:
//
//	NotStarted → PlatformResolved → ArtifactLocated → Downloaded
//	           → Verified → Extracted → Installed
//
// Any stage may end in Failed. When the canonical binary already exists
// the run ends in Installed right after host resolution, without touching
// the network.
//
// # Artifact Naming
//
// Two schemes are supported:
//   - bare:    <base>/v<version>/<name>-<os>-<arch>[.exe]
//   - archive: <base>/v<version>/<name>_<version>_<os>_<arch>.<tar.gz|zip>
//
// Either way the binary ends up at <root>/bin/<name>[.exe].
//
// # Verification
//
// Assets are checked against the release's SHA256 checksum file. When a
// GPG keyring or a Sigstore certificate identity is configured, the
// checksum file itself must carry a valid signature first. In the default
// auto mode a release without a checksum file installs with a warning.
//
// # Extraction
//
// Archives are unpacked with the host's tools (tar, unzip, PowerShell)
// tried in order, with a built-in Go extractor as the last resort. The
// downloaded archive is always deleted afterwards.
//
// # Usage
//
//	mgr, err := binary.NewManager(binary.Config{
//	    Root:    "/path/to/package",
//	    Release: binary.ReleaseConfig{Scheme: binary.SchemeArchive},
//	})
//	if err != nil {
//	    return err
//	}
//	result, err := mgr.Install(ctx, "0.1.0")
package binary
