package platform

import (
	"fmt"
	"os"
	"regexp"

	"github.com/hashicorp/go-version"
)

// Kernels older than 4.14 may lack the RT boost-hold feature, making the
// average-frequency comparison unreliable.
var minBoostHoldVersion = version.Must(version.NewVersion("4.14"))

var (
	kernelReleaseRegex = regexp.MustCompile(`(\d+\.\d+(?:\.\d+)?)`)
	procVersionRegex   = regexp.MustCompile(`^Linux version (\S+)`)
)

var procVersionPath = "/proc/version"

// ReadKernelVersion returns the running kernel's release string as reported
// by /proc/version, e.g. "4.19.110-g1a2b3c".
func ReadKernelVersion() (string, error) {
	versionData, err := os.ReadFile(procVersionPath)
	if err != nil {
		return "", fmt.Errorf("failed to read kernel version: %w", err)
	}

	// "Linux version <release> (...)"
	fields := procVersionRegex.FindStringSubmatch(string(versionData))
	if fields == nil {
		return "", fmt.Errorf("unexpected /proc/version format: %q", string(versionData))
	}

	return fields[1], nil
}

// BoostHoldSupported reports whether the given kernel release carries the RT
// boost-hold feature required for a stable boosted frequency.
func BoostHoldSupported(release string) (bool, error) {
	numeric := kernelReleaseRegex.FindString(release)
	if numeric == "" {
		return false, fmt.Errorf("no version number in kernel release %q", release)
	}

	parsed, err := version.NewVersion(numeric)
	if err != nil {
		return false, fmt.Errorf("failed to parse kernel release %q: %w", release, err)
	}

	return parsed.GreaterThanOrEqual(minBoostHoldVersion), nil
}
