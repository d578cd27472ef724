package client

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sidkik/simpledfs/cmd/util"
	"github.com/sidkik/simpledfs/pkg/config"
	"github.com/sidkik/simpledfs/pkg/errors"
	"github.com/sidkik/simpledfs/pkg/fswatch"
	"github.com/sidkik/simpledfs/pkg/store"
	"github.com/sidkik/simpledfs/pkg/sync"
	syncClient "github.com/sidkik/simpledfs/pkg/sync/client"
	"github.com/sidkik/simpledfs/pkg/version"
)

// Mocked for unit testing.
var (
	stdout io.Writer = os.Stdout
	stdin  io.Reader = os.Stdin
	fs               = afero.NewOsFs()
)

const timeFormat = "2006-01-02 15:04:05"

const usage = `Commands:
  start         - Start the file watcher
  stop          - Stop the file watcher
  list          - List files on the server
  fetch <file>  - Fetch a file from the server
  store <file>  - Store a file to the server
  sync          - Sync all files from server
  quit          - Exit the program
`

// New creates a new `client` command.
func New() *cobra.Command {
	var configPath, serverAddress, directory string
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Start an interactive session against a simpledfs server",
		Long: "Connect to a simpledfs server and mirror the shared directory in a\n" +
			"local directory. Changes in the local directory are pushed to the\n" +
			"server while the file watcher is running, and `sync` pulls newer\n" +
			"files from the server.",
		Run: func(cmd *cobra.Command, _ []string) {
			cfg, err := config.Parse(configPath)
			if err != nil {
				util.HandleFatalError(errors.WithContext(err, "parse config"))
			}

			if cmd.Flags().Changed("server") {
				cfg.Client.ServerAddress = serverAddress
			}
			if cmd.Flags().Changed("dir") {
				cfg.Client.Directory = directory
			}

			if err := run(cfg.Client); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "",
		fmt.Sprintf("Path to the config file. Defaults to %s.", config.DefaultPath))
	cmd.Flags().StringVar(&serverAddress, "server", "",
		"The address of the simpledfs server. Overrides the config file.")
	cmd.Flags().StringVar(&directory, "dir", "",
		"The local directory to mirror. Overrides the config file.")
	return cmd
}

func run(cfg config.Client) error {
	files, err := store.New(fs, cfg.Directory)
	if err != nil {
		return errors.WithContext(err, "open local directory")
	}

	c, err := syncClient.New(cfg.ServerAddress, syncClient.Options{
		Timeout: cfg.Timeout.Duration,
	})
	if err != nil {
		return errors.WithContext(err, "connect to server")
	}
	defer c.Close()

	checkServerVersion(c)

	watcher := fswatch.New(cfg.Directory, func(name string) error {
		return sync.StoreFile(c, files, name)
	}, fswatch.Options{
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
		Debounce:  cfg.Debounce.Duration,
	}, log.StandardLogger())

	fmt.Fprintf(stdout, "Client initialized with ID: %s\n", c.ID())
	fmt.Fprintf(stdout, "Using directory: %s\n", cfg.Directory)

	r := repl{
		client:  c,
		files:   files,
		watcher: watcher,
		engine:  sync.NewEngine(c, files, log.StandardLogger()),
		in:      stdin,
		out:     stdout,
	}
	r.run()
	return nil
}

// checkServerVersion warns if the server is running an incompatible
// version. The server may be unreachable at this point, in which case the
// check is skipped and the user finds out when they run a command.
func checkServerVersion(c syncClient.Client) {
	remoteVersion, err := c.GetVersion()
	if err != nil {
		log.WithError(err).Debug("Failed to get server version")
		return
	}

	if err := syncClient.CheckVersion(version.Version, remoteVersion); err != nil {
		log.Warn(errors.GetPrintableMessage(err))
	}
}

type fileWatcher interface {
	Start() error
	Stop()
	Running() bool
}

// repl reads commands from `in` until `quit` or the end of input.
type repl struct {
	client  syncClient.Client
	files   *store.Store
	watcher fileWatcher
	engine  *sync.Engine

	in  io.Reader
	out io.Writer
}

func (r repl) run() {
	fmt.Fprint(r.out, usage)

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			break
		}

		// Everything after the first space is the argument, so filenames
		// may contain spaces.
		parts := strings.SplitN(strings.TrimSpace(scanner.Text()), " ", 2)
		command, args := parts[0], parts[1:]
		if len(args) == 0 && (command == "quit" || command == "exit") {
			break
		}
		r.handle(command, args)
	}

	if err := scanner.Err(); err != nil {
		log.WithError(err).Warn("Failed to read input")
	}

	if r.watcher.Running() {
		r.watcher.Stop()
	}
}

func (r repl) handle(command string, args []string) {
	switch {
	case command == "start" && len(args) == 0:
		r.start()
	case command == "stop" && len(args) == 0:
		r.stop()
	case command == "list" && len(args) == 0:
		r.list()
	case command == "fetch" && len(args) == 1:
		r.fetch(args[0])
	case command == "store" && len(args) == 1:
		r.store(args[0])
	case command == "sync" && len(args) == 0:
		r.sync()
	default:
		fmt.Fprint(r.out, usage)
	}
}

func (r repl) start() {
	if r.watcher.Running() {
		fmt.Fprintln(r.out, "File watcher is already running")
		return
	}

	if err := r.watcher.Start(); err != nil {
		fmt.Fprintf(r.out, "Failed to start file watcher: %s\n", errors.GetPrintableMessage(err))
		return
	}
	fmt.Fprintln(r.out, "File watcher started")
}

func (r repl) stop() {
	if !r.watcher.Running() {
		fmt.Fprintln(r.out, "File watcher is not running")
		return
	}

	r.watcher.Stop()
	fmt.Fprintln(r.out, "File watcher stopped")
}

func (r repl) list() {
	files, err := r.client.List()
	if err != nil {
		fmt.Fprintf(r.out, "List failed: %s\n", errors.GetPrintableMessage(err))
		return
	}

	fmt.Fprintln(r.out, "Files on server:")
	if len(files) == 0 {
		fmt.Fprintln(r.out, "  (none)")
	}
	for _, f := range files {
		fmt.Fprintf(r.out, "  %s (%d bytes, modified: %s)\n",
			f.Name, f.Size, time.Unix(f.ModTime, 0).Format(timeFormat))
	}
}

func (r repl) fetch(name string) {
	if _, err := sync.FetchFile(r.client, r.files, name); err != nil {
		fmt.Fprintf(r.out, "Fetch failed: %s\n", errors.GetPrintableMessage(err))
		return
	}
	fmt.Fprintf(r.out, "Successfully fetched %s\n", name)
}

func (r repl) store(name string) {
	err := sync.StoreFile(r.client, r.files, name)
	if err == nil {
		fmt.Fprintf(r.out, "Successfully stored %s\n", name)
		return
	}

	var lockErr errors.LockDenied
	if errors.As(err, &lockErr) {
		fmt.Fprintf(r.out, "Failed to acquire write lock for %s: %s\n", name, lockErr.Reason)
		return
	}
	fmt.Fprintf(r.out, "Store failed: %s\n", errors.GetPrintableMessage(err))
}

func (r repl) sync() {
	fmt.Fprintln(r.out, "Syncing files from server...")
	fetched, err := r.engine.Run()
	for _, name := range fetched {
		fmt.Fprintf(r.out, "Fetched %s\n", name)
	}

	if err != nil {
		fmt.Fprintf(r.out, "Sync failed: %s\n", errors.GetPrintableMessage(err))
		return
	}
	fmt.Fprintln(r.out, "Sync complete")
}
