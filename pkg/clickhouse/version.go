package clickhouse

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/pkg/errors"
)

var versionRegex = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.(\d+))?(?:\.(\d+))?`)

type (
	// Querier is the read half of a ClickHouse connection.
	Querier interface {
		Query(context.Context, string, ...any) (driver.Rows, error)
	}

	// VersionInfo represents a parsed ClickHouse server version.
	VersionInfo struct {
		Major int    // Major version number (e.g., 25)
		Minor int    // Minor version number (e.g., 7)
		Patch int    // Patch version number (e.g., 1)
		Raw   string // Raw version string from ClickHouse
	}
)

func (v VersionInfo) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// IsAtLeast reports whether v is major.minor or newer.
func (v VersionInfo) IsAtLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// ServerVersion asks the server for its version.
func ServerVersion(ctx context.Context, ch Querier) (*VersionInfo, error) {
	rows, err := ch.Query(ctx, "SELECT version()")
	if err != nil {
		return nil, errors.Wrap(err, "failed to query ClickHouse version")
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, errors.Wrap(err, "failed to query ClickHouse version")
		}
		return nil, errors.New("failed to query ClickHouse version: no rows returned")
	}

	var raw string
	if err := rows.Scan(&raw); err != nil {
		return nil, errors.Wrap(err, "failed to query ClickHouse version")
	}

	version, err := parseVersion(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse ClickHouse version: %s", raw)
	}

	return version, nil
}

func parseVersion(versionStr string) (*VersionInfo, error) {
	cleaned := strings.TrimSpace(versionStr)

	// "24.3.1.2672 (official build)" and "22.8.2.11-testing"
	if idx := strings.IndexAny(cleaned, " -"); idx != -1 {
		cleaned = cleaned[:idx]
	}

	matches := versionRegex.FindStringSubmatch(cleaned)
	if len(matches) < 3 {
		return nil, errors.Errorf("invalid version format: %s", versionStr)
	}

	major, err := strconv.Atoi(matches[1])
	if err != nil {
		return nil, errors.Errorf("invalid major version: %s", matches[1])
	}

	minor, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil, errors.Errorf("invalid minor version: %s", matches[2])
	}

	patch := 0
	if matches[3] != "" {
		if patch, err = strconv.Atoi(matches[3]); err != nil {
			return nil, errors.Errorf("invalid patch version: %s", matches[3])
		}
	}

	return &VersionInfo{
		Major: major,
		Minor: minor,
		Patch: patch,
		Raw:   versionStr,
	}, nil
}
