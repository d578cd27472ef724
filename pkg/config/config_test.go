package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/simpledfs/pkg/errors"
)

func TestParse(t *testing.T) {
	out := ".simpledfs.yaml"

	customized := Default()
	customized.Server.Lease = Duration{time.Minute}
	customized.Client.ServerAddress = "dfs.example.com:50051"
	customized.Client.Workers = 8

	noLease := Default()
	noLease.Server.Lease = Duration{0}

	tests := []struct {
		name      string
		input     []byte
		expConfig Config
		expError  error
	}{
		{
			name:      "EmptyFile",
			input:     []byte(""),
			expConfig: Default(),
		},
		{
			name: "PartialOverride",
			input: []byte(`
server:
  lease: 1m
client:
  serverAddress: dfs.example.com:50051
  workers: 8
`),
			expConfig: customized,
		},
		{
			name: "DisableLease",
			input: []byte(fmt.Sprintf(`
version: %s
server:
  lease: 0s
`, SupportedConfigVersion)),
			expConfig: noLease,
		},
		{
			name:  "IncorrectVersion",
			input: []byte("version: incorrect_version\nextra: fields"),
			expError: errors.WithContext(incompatibleVersionError{
				path:   out,
				exp:    SupportedConfigVersion,
				actual: "incorrect_version",
			}, "parse"),
		},
		{
			name: "InvalidWorkers",
			input: []byte(`
client:
  workers: 0
`),
			expError: errors.NewFriendlyError("client.workers must be positive, got 0"),
		},
	}

	homedirExpand = func(_ string) (string, error) {
		return out, nil
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			fs = afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, out, test.input, 0644))

			config, err := Parse("")
			assert.Equal(t, test.expError, err)
			if test.expError == nil {
				assert.Equal(t, test.expConfig, config)
			}
		})
	}
}

func TestParseExtraField(t *testing.T) {
	fs = afero.NewMemMapFs()
	homedirExpand = func(_ string) (string, error) {
		return ".simpledfs.yaml", nil
	}
	require.NoError(t, afero.WriteFile(fs, ".simpledfs.yaml", []byte("extra: field"), 0644))

	_, err := Parse("")
	require.Error(t, err)
	_, ok := errors.RootCause(err).(errors.FriendlyError)
	assert.True(t, ok)
	assert.Contains(t, err.Error(), "Configuration file could not be parsed")
}

func TestParseMissingFile(t *testing.T) {
	fs = afero.NewMemMapFs()
	homedirExpand = func(_ string) (string, error) {
		return ".simpledfs.yaml", nil
	}

	config, err := Parse("")
	assert.NoError(t, err)
	assert.Equal(t, Default(), config)
}

func TestParseWritten(t *testing.T) {
	fs = afero.NewMemMapFs()
	homedirExpand = func(_ string) (string, error) {
		return ".simpledfs.yaml", nil
	}

	cfg := Default()
	cfg.Version = ""
	cfg.Server.Directory = "/srv/dfs"
	cfg.Client.Timeout = Duration{5 * time.Second}

	// Write the config to disk, and assert that we get the same config when
	// we parse it.
	require.NoError(t, Write("", cfg))

	parsed, err := Parse("")
	require.NoError(t, err)

	cfg.Version = SupportedConfigVersion
	assert.Equal(t, cfg, parsed)
}
