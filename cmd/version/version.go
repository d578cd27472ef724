package version

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidkik/simpledfs/cmd/util"
	"github.com/sidkik/simpledfs/pkg/config"
	"github.com/sidkik/simpledfs/pkg/errors"
	syncClient "github.com/sidkik/simpledfs/pkg/sync/client"
	"github.com/sidkik/simpledfs/pkg/version"
)

// Mocked for unit testing.
var (
	stdout    io.Writer = os.Stdout
	newClient           = func(addr string) (syncClient.Client, error) {
		return syncClient.New(addr, syncClient.Options{})
	}
)

// New creates a new `version` command.
func New() *cobra.Command {
	var configPath, serverAddress string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the local and remote version of simpledfs.",
		Run: func(cmd *cobra.Command, _ []string) {
			cfg, err := config.Parse(configPath)
			if err != nil {
				util.HandleFatalError(errors.WithContext(err, "parse config"))
			}

			if cmd.Flags().Changed("server") {
				cfg.Client.ServerAddress = serverAddress
			}

			if err := run(cfg.Client.ServerAddress); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "",
		fmt.Sprintf("Path to the config file. Defaults to %s.", config.DefaultPath))
	cmd.Flags().StringVar(&serverAddress, "server", "",
		"The address of the simpledfs server. Overrides the config file.")
	return cmd
}

func run(serverAddress string) error {
	fmt.Fprintf(stdout, "local version:  %s\n", version.Version)

	c, err := newClient(serverAddress)
	if err != nil {
		return errors.WithContext(err, "connect to server")
	}
	defer c.Close()

	remoteVersion, err := c.GetVersion()
	if err != nil {
		return errors.WithContext(err, "get remote version")
	}

	fmt.Fprintf(stdout, "server version: %s\n", remoteVersion)
	return syncClient.CheckVersion(version.Version, remoteVersion)
}
