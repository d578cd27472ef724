package server

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sidkik/simpledfs/cmd/util"
	"github.com/sidkik/simpledfs/pkg/config"
	"github.com/sidkik/simpledfs/pkg/errors"
	"github.com/sidkik/simpledfs/pkg/sync/server"
)

// Mocked for unit testing.
var runServer = server.Run

// New creates a new `server` command.
func New() *cobra.Command {
	var configPath, address, directory, metricsAddress string
	var lease config.Duration
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the simpledfs server",
		Long: "Run the server that stores the shared directory and hands out\n" +
			"write locks to clients.",
		Run: func(cmd *cobra.Command, _ []string) {
			cfg, err := config.Parse(configPath)
			if err != nil {
				util.HandleFatalError(errors.WithContext(err, "parse config"))
			}

			flags := cmd.Flags()
			if flags.Changed("address") {
				cfg.Server.Address = address
			}
			if flags.Changed("dir") {
				cfg.Server.Directory = directory
			}
			if flags.Changed("metrics-address") {
				cfg.Server.MetricsAddress = metricsAddress
			}
			if flags.Changed("lease") {
				cfg.Server.Lease = lease
			}

			if err := runServer(cfg.Server); err != nil {
				util.HandleFatalError(err)
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "",
		fmt.Sprintf("Path to the config file. Defaults to %s.", config.DefaultPath))
	flags.StringVar(&address, "address", "",
		"The address to listen on. Overrides the config file.")
	flags.StringVar(&directory, "dir", "",
		"The directory to store files in. Overrides the config file.")
	flags.StringVar(&metricsAddress, "metrics-address", "",
		"The address to serve Prometheus metrics on. Empty disables metrics.")
	flags.DurationVar(&lease.Duration, "lease", 0,
		"How long a lock is exclusive before another client may take it. "+
			"Zero means locks never expire.")
	return cmd
}
