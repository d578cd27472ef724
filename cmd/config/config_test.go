package config

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/simpledfs/pkg/config"
)

func TestPromptUser(t *testing.T) {
	tests := []struct {
		name                                                 string
		helpString, prompt, defaultAnswer, currAnswer, stdin string
		expPrompt, expResult                                 string
	}{
		{
			name:       "No default or current answer",
			helpString: "explanation",
			prompt:     "prompt",
			stdin:      "user input\n",
			expPrompt: "explanation\n" +
				"prompt:\n" +
				"Please enter manually: \n",
			expResult: "user input",
		},
		{
			name:          "Default answer only, chose default answer",
			helpString:    "explanation",
			prompt:        "prompt",
			defaultAnswer: "default answer",
			stdin:         "1\n",
			expPrompt: "explanation\n" +
				"prompt:\n" +
				"\n" +
				"\t1. default answer (recommended)\n" +
				"\t2. (Enter manually)\n" +
				"\n" +
				"Please choose one [1-2]: \n",
			expResult: "default answer",
		},
		{
			name:          "Empty choice picks the recommended answer",
			helpString:    "explanation",
			prompt:        "prompt",
			defaultAnswer: "default answer",
			currAnswer:    "current answer",
			stdin:         "\n",
			expPrompt: "explanation\n" +
				"prompt:\n" +
				"\n" +
				"\t1. default answer (recommended)\n" +
				"\t2. current answer\n" +
				"\t3. (Enter manually)\n" +
				"\n" +
				"Please choose one [1-3]: \n",
			expResult: "default answer",
		},
		{
			name:          "Chose current answer",
			helpString:    "explanation",
			prompt:        "prompt",
			defaultAnswer: "default answer",
			currAnswer:    "current answer",
			stdin:         "2\n",
			expPrompt: "explanation\n" +
				"prompt:\n" +
				"\n" +
				"\t1. default answer (recommended)\n" +
				"\t2. current answer\n" +
				"\t3. (Enter manually)\n" +
				"\n" +
				"Please choose one [1-3]: \n",
			expResult: "current answer",
		},
		{
			name:          "Invalid choice, then enter manually",
			helpString:    "explanation",
			prompt:        "prompt",
			defaultAnswer: "default answer",
			currAnswer:    "default answer",
			stdin:         "9\n2\nuser input\n",
			expPrompt: "explanation\n" +
				"prompt:\n" +
				"\n" +
				"\t1. default answer (recommended)\n" +
				"\t2. (Enter manually)\n" +
				"\n" +
				"Please choose one [1-2]: " +
				"Please choose one [1-2]: " +
				"Please enter manually: \n",
			expResult: "user input",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			out := bytes.NewBuffer(nil)
			stdout = out

			in := bufio.NewReader(strings.NewReader(test.stdin))
			result, err := promptUser(in, test.helpString, test.prompt,
				test.defaultAnswer, test.currAnswer)
			require.NoError(t, err)
			assert.Equal(t, test.expResult, result)
			assert.Equal(t, test.expPrompt, out.String())
		})
	}
}

func TestServerAddressValidation(t *testing.T) {
	tests := []struct {
		addr  string
		expOK bool
	}{
		{"localhost:50051", true},
		{"10.0.0.1:80", true},
		{"[::1]:50051", true},
		{"localhost", false},
		{":50051", false},
		{"localhost:port", false},
		{"localhost:70000", false},
	}

	for _, test := range tests {
		_, ok := serverAddressValidationFn(test.addr)
		assert.Equal(t, test.expOK, ok, test.addr)
	}
}

func TestGenerateConfig(t *testing.T) {
	getWorkingDirectory = func() (string, error) { return "/home/user/project", nil }

	curr := config.Default()
	curr.Server.Address = "0.0.0.0:6000"

	tests := []struct {
		name  string
		opts  cliOptions
		stdin string
		exp   func(config.Config) config.Config
	}{
		{
			name: "AllFlags",
			opts: cliOptions{serverAddress: "dfs:50051", directory: "/data"},
			exp: func(cfg config.Config) config.Config {
				cfg.Client.ServerAddress = "dfs:50051"
				cfg.Client.Directory = "/data"
				return cfg
			},
		},
		{
			name: "PromptForBoth",
			// Reject an invalid address before accepting one. Then pick the
			// recommended directory.
			stdin: "2\nnot-an-address\n2\ndfs:7000\n1\n",
			exp: func(cfg config.Config) config.Config {
				cfg.Client.ServerAddress = "dfs:7000"
				cfg.Client.Directory = "/home/user/project/client_files"
				return cfg
			},
		},
		{
			name:  "PromptForDirectory",
			opts:  cliOptions{serverAddress: "dfs:50051"},
			stdin: "3\n/custom\n",
			exp: func(cfg config.Config) config.Config {
				cfg.Client.ServerAddress = "dfs:50051"
				cfg.Client.Directory = "/custom"
				return cfg
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			stdout = bytes.NewBuffer(nil)
			stdin = strings.NewReader(test.stdin)

			cfg, err := generateConfig(test.opts, curr)
			require.NoError(t, err)
			assert.Equal(t, test.exp(curr), cfg)

			// Server settings are never changed.
			assert.Equal(t, "0.0.0.0:6000", cfg.Server.Address)
		})
	}
}

func TestSetupConfig(t *testing.T) {
	parseConfig = func(string) (config.Config, error) {
		return config.Default(), nil
	}

	var written config.Config
	var writtenPath string
	writeConfig = func(path string, cfg config.Config) error {
		writtenPath = path
		written = cfg
		return nil
	}

	out := bytes.NewBuffer(nil)
	stdout = out

	err := SetupConfig(cliOptions{path: "/tmp/cfg.yaml", serverAddress: "dfs:1", directory: "/d"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/cfg.yaml", writtenPath)
	assert.Equal(t, "dfs:1", written.Client.ServerAddress)
	assert.Equal(t, "/d", written.Client.Directory)
	assert.Equal(t, "Wrote config to /tmp/cfg.yaml\n", out.String())
}

func TestGetters(t *testing.T) {
	configCmd := New()
	serverCmd, _, err := configCmd.Find([]string{"get-server"})
	assert.NoError(t, err)
	dirCmd, _, err := configCmd.Find([]string{"get-dir"})
	assert.NoError(t, err)

	expServer := "dfs:50051"
	expDir := "/data"
	parseConfig = func(string) (config.Config, error) {
		cfg := config.Default()
		cfg.Client.ServerAddress = expServer
		cfg.Client.Directory = expDir
		return cfg, nil
	}

	out := bytes.NewBuffer(nil)
	stdout = out

	serverCmd.Run(nil, nil)
	dirCmd.Run(nil, nil)
	assert.Equal(t, fmt.Sprintf("%s\n%s\n", expServer, expDir), out.String())
}
