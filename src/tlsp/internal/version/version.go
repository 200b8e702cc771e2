// Package version parses and compares the version strings reported by the toit and jag tools.
package version

import (
	"bufio"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Clean normalizes a reported version to MAJOR.MINOR.PATCH.
// A leading "v", pre-release and build suffixes are stripped. Missing minor or patch parts default to zero.
// It returns false if the result is not a valid semantic version.
func Clean(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	v = strings.TrimPrefix(strings.TrimPrefix(v, "v"), "V")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	if v == "" {
		return "", false
	}

	canonical := semver.Canonical("v" + v)
	if canonical == "" {
		return "", false
	}
	return strings.TrimPrefix(canonical, "v"), true
}

// Compare returns -1, 0 or +1 depending on whether a < b, a == b or a > b.
func Compare(a, b string) (int, error) {
	ca, ok := Clean(a)
	if !ok {
		return 0, fmt.Errorf("invalid version %q", a)
	}
	cb, ok := Clean(b)
	if !ok {
		return 0, fmt.Errorf("invalid version %q", b)
	}
	return semver.Compare("v"+ca, "v"+cb), nil
}

// AtLeast reports whether v is equal to or newer than minimum.
func AtLeast(v, minimum string) (bool, error) {
	c, err := Compare(v, minimum)
	if err != nil {
		return false, err
	}
	return c >= 0, nil
}

// Extract finds the version in the output of a version command.
// Both a bare version and the "Version: v1.2.3" table printed by jag are understood.
func Extract(output string) string {
	scanner := bufio.NewScanner(strings.NewReader(output))
	first := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if found && strings.EqualFold(strings.TrimSpace(key), "version") {
			return strings.TrimSpace(value)
		}
		if first == "" {
			first = line
		}
	}
	if fields := strings.Fields(first); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
