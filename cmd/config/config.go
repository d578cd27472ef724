package config

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/simpledfs/cmd/util"
	"github.com/sidkik/simpledfs/pkg/config"
	"github.com/sidkik/simpledfs/pkg/errors"
)

// Mocked for unit testing.
var (
	stdout              io.Writer = os.Stdout
	stdin               io.Reader = os.Stdin
	parseConfig                   = config.Parse
	writeConfig                   = config.Write
	getWorkingDirectory           = os.Getwd
)

// cliOptions are the settings that can be passed as flags instead of being
// prompted for.
type cliOptions struct {
	path          string
	serverAddress string
	directory     string
}

// New creates a new `config` command.
func New() *cobra.Command {
	var opts cliOptions
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Setup the simpledfs client configuration",
		Run: func(_ *cobra.Command, _ []string) {
			if err := SetupConfig(opts); err != nil {
				err = errors.NewFriendlyError("Failed to setup configuration:\n%s", err)
				util.HandleFatalError(err)
			}
		},
	}
	cmd.PersistentFlags().StringVar(&opts.path, "config", "",
		fmt.Sprintf("Path to the config file. Defaults to %s.", config.DefaultPath))
	cmd.Flags().StringVar(&opts.serverAddress, "server", "",
		"Set the server address in the config. "+
			"Optional: If not set, `simpledfs config` will interactively prompt.")
	cmd.Flags().StringVar(&opts.directory, "dir", "",
		"Set the local directory in the config. "+
			"Optional: If not set, `simpledfs config` will interactively prompt.")

	// Setup the commands for querying the contents of the config.
	type getterSpec struct {
		use, short string
		fn         func(config.Config) string
	}

	getters := []getterSpec{
		{
			use:   "get-server",
			short: "Get the configured server address",
			fn:    func(cfg config.Config) string { return cfg.Client.ServerAddress },
		},
		{
			use:   "get-dir",
			short: "Get the configured local directory",
			fn:    func(cfg config.Config) string { return cfg.Client.Directory },
		},
	}
	for _, getter := range getters {
		getter := getter
		cmd.AddCommand(&cobra.Command{
			Use:   getter.use,
			Short: getter.short,
			Run: func(_ *cobra.Command, _ []string) {
				cfg, err := parseConfig(opts.path)
				if err != nil {
					util.HandleFatalError(errors.WithContext(err, "read config"))
				}
				fmt.Fprintln(stdout, getter.fn(cfg))
			},
		})
	}

	return cmd
}

// SetupConfig writes the client config, prompting the user for any settings
// that weren't passed as flags.
func SetupConfig(opts cliOptions) error {
	cfg, err := parseConfig(opts.path)
	if err != nil {
		log.WithError(err).Debug("Failed to read current config")
		cfg = config.Default()
	}

	cfg, err = generateConfig(opts, cfg)
	if err != nil {
		return errors.WithContext(err, "generate config")
	}

	if err := writeConfig(opts.path, cfg); err != nil {
		return errors.WithContext(err, "write config")
	}

	path := opts.path
	if path == "" {
		path = config.DefaultPath
	}
	fmt.Fprintf(stdout, "Wrote config to %s\n", path)
	return nil
}

func serverAddressValidationFn(addr string) (string, bool) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return "The server address must be in the form host:port, " +
			"for example localhost:50051.", false
	}

	if portNum, err := strconv.Atoi(port); err != nil || portNum <= 0 || portNum > 65535 {
		return "The port must be a number between 1 and 65535.", false
	}
	return "", true
}

type prompt struct {
	helpString, prompt, defaultAnswer, currAnswer string
	field                                         *string
	validationFn                                  func(string) (string, bool)
}

// generateConfig fills in the client settings in `curr`. Settings passed as
// flags are used as is, and the user is asked for the rest.
func generateConfig(opts cliOptions, curr config.Config) (config.Config, error) {
	cfg := curr
	defaults := guessDefaults()

	var prompts []prompt
	if opts.serverAddress != "" {
		cfg.Client.ServerAddress = opts.serverAddress
	} else {
		prompts = append(prompts, prompt{
			helpString: "Enter the address of the simpledfs server.\n" +
				"This is the host and port that `simpledfs server` listens on.",
			prompt:        "Server address",
			defaultAnswer: defaults.Client.ServerAddress,
			currAnswer:    curr.Client.ServerAddress,
			field:         &cfg.Client.ServerAddress,
			validationFn:  serverAddressValidationFn,
		})
	}

	if opts.directory != "" {
		cfg.Client.Directory = opts.directory
	} else {
		prompts = append(prompts, prompt{
			helpString: "Enter the local directory to keep in sync with the server.\n" +
				"It's created if it doesn't exist.",
			prompt:        "Local directory",
			defaultAnswer: defaults.Client.Directory,
			currAnswer:    curr.Client.Directory,
			field:         &cfg.Client.Directory,
		})
	}

	in := bufio.NewReader(stdin)
	for _, prompt := range prompts {
		for {
			resp, err := promptUser(in, prompt.helpString, prompt.prompt,
				prompt.defaultAnswer, prompt.currAnswer)
			if err != nil {
				return config.Config{}, errors.WithContext(err, "read response")
			}

			if prompt.validationFn != nil {
				if msg, ok := prompt.validationFn(resp); !ok {
					fmt.Fprintln(stdout, msg)
					continue
				}
			}

			*prompt.field = resp
			break
		}
	}

	return cfg, nil
}

// guessDefaults returns the recommended settings. The local directory
// defaults to client_files in the current directory.
func guessDefaults() config.Config {
	cfg := config.Default()
	if wd, err := getWorkingDirectory(); err == nil {
		cfg.Client.Directory = filepath.Join(wd, cfg.Client.Directory)
	} else {
		log.WithError(err).Info("Failed to get working directory")
	}
	return cfg
}

// promptUser asks the user to pick between the recommended and current
// answers, or to type their own.
func promptUser(in *bufio.Reader, helpString, prompt, defaultAnswer, currAnswer string) (string, error) {
	// Separate the prompts with a blank line.
	defer fmt.Fprintln(stdout)

	var options []string
	if defaultAnswer != "" {
		options = append(options, defaultAnswer)
	}
	if currAnswer != "" && currAnswer != defaultAnswer {
		options = append(options, currAnswer)
	}
	manualChoice := len(options) + 1

	fmt.Fprintln(stdout, helpString+"\n"+prompt+":")
	if len(options) != 0 {
		fmt.Fprintln(stdout)
		for i, option := range options {
			if i == 0 {
				option += " (recommended)"
			}
			fmt.Fprintf(stdout, "\t%d. %s\n", i+1, option)
		}
		fmt.Fprintf(stdout, "\t%d. (Enter manually)\n\n", manualChoice)

		for {
			fmt.Fprintf(stdout, "Please choose one [1-%d]: ", manualChoice)
			choiceStr, err := readLine(in)
			if err != nil {
				return "", err
			}

			// An empty response picks the recommended answer.
			choice := 1
			if choiceStr != "" {
				choice, err = strconv.Atoi(choiceStr)
				if err != nil || choice < 1 || choice > manualChoice {
					continue
				}
			}

			if choice != manualChoice {
				return options[choice-1], nil
			}
			break
		}
	}

	fmt.Fprint(stdout, "Please enter manually: ")
	return readLine(in)
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
