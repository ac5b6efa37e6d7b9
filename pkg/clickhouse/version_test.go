package clickhouse

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/pseudomuto/chmigrate/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input   string
		want    *VersionInfo
		wantErr bool
	}{
		{input: "25.7.1.3997", want: &VersionInfo{Major: 25, Minor: 7, Patch: 1}},
		{input: "24.3.12.75 (official build)", want: &VersionInfo{Major: 24, Minor: 3, Patch: 12}},
		{input: "23.8.2.7-lts", want: &VersionInfo{Major: 23, Minor: 8, Patch: 2}},
		{input: "25.7.1", want: &VersionInfo{Major: 25, Minor: 7, Patch: 1}},
		{input: "22.1", want: &VersionInfo{Major: 22, Minor: 1}},
		{input: "head", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseVersion(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			tt.want.Raw = tt.input
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersionInfoString(t *testing.T) {
	v := VersionInfo{Major: 25, Minor: 7, Patch: 1, Raw: "25.7.1.3997"}
	assert.Equal(t, "25.7.1", v.String())
}

func TestVersionInfoIsAtLeast(t *testing.T) {
	v := VersionInfo{Major: 24, Minor: 8}

	tests := []struct {
		major, minor int
		want         bool
	}{
		{major: 24, minor: 8, want: true},
		{major: 24, minor: 3, want: true},
		{major: 23, minor: 12, want: true},
		{major: 24, minor: 9, want: false},
		{major: 25, minor: 1, want: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, v.IsAtLeast(tt.major, tt.minor), "%s >= %d.%d", v, tt.major, tt.minor)
	}
}

func TestServerVersion(t *testing.T) {
	ch := testutil.NewFakeClickHouse()
	ch.ServerVersion = "24.8.4.13 (official build)"

	v, err := ServerVersion(t.Context(), ch)
	require.NoError(t, err)
	assert.Equal(t, "24.8.4", v.String())
	assert.Equal(t, "24.8.4.13 (official build)", v.Raw)

	ch.ServerVersion = "nightly"
	_, err = ServerVersion(t.Context(), ch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse ClickHouse version: nightly")

	ch.QueryErr = func(string) error { return errors.New("gone") }
	_, err = ServerVersion(t.Context(), ch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query ClickHouse version: gone")
}
