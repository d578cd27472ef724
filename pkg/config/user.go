package config

import (
	"fmt"
	"time"

	"github.com/ghodss/yaml"
	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/simpledfs/pkg/errors"
)

const (
	// DefaultPath is the default path to the simpledfs config.
	DefaultPath = "~/.simpledfs.yaml"

	// InitialConfigVersion is the first version of the config. Config files
	// that do not specify a version will default to this version.
	InitialConfigVersion = "v1alpha1"

	// SupportedConfigVersion is the config version supported by this binary.
	SupportedConfigVersion = "v1alpha1"

	// DefaultPort is the port the sync server listens on by default.
	DefaultPort = 50051
)

// Config contains the settings for both the server and the client.
type Config struct {
	Version string `json:"version,omitempty"`
	Server  Server `json:"server"`
	Client  Client `json:"client"`
}

// Server configures `simpledfs server`.
type Server struct {
	Address   string `json:"address"`
	Directory string `json:"directory"`

	// MetricsAddress is where Prometheus metrics are served. Metrics are
	// disabled if it's empty.
	MetricsAddress string `json:"metricsAddress"`

	// Lease is how long a lock stays exclusive before another client may
	// take it over. Zero means locks never expire.
	Lease Duration `json:"lease"`
}

// Client configures `simpledfs client`.
type Client struct {
	ServerAddress string `json:"serverAddress"`
	Directory     string `json:"directory"`

	// Workers is the number of goroutines uploading watched changes.
	Workers int `json:"workers"`

	// QueueSize bounds the number of pending uploads per worker.
	QueueSize int `json:"queueSize"`

	// Debounce is how long the watcher waits for a file to stop changing
	// before uploading it.
	Debounce Duration `json:"debounce"`

	// Timeout bounds each call to the server.
	Timeout Duration `json:"timeout"`
}

func (c Config) getVersion() string {
	return c.Version
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	return Config{
		Version: InitialConfigVersion,
		Server: Server{
			Address:        fmt.Sprintf("0.0.0.0:%d", DefaultPort),
			Directory:      "server_files",
			MetricsAddress: "0.0.0.0:9090",
			Lease:          Duration{5 * time.Minute},
		},
		Client: Client{
			ServerAddress: fmt.Sprintf("localhost:%d", DefaultPort),
			Directory:     "client_files",
			Workers:       4,
			QueueSize:     64,
			Debounce:      Duration{100 * time.Millisecond},
			Timeout:       Duration{30 * time.Second},
		},
	}
}

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

// Parse reads the config at `path`, or DefaultPath if `path` is empty. If
// the file doesn't exist, the defaults are returned.
func Parse(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}

	path, err := homedirExpand(path)
	if err != nil {
		return Config{}, errors.WithContext(err, "expand config path")
	}

	config := Default()
	if err := parseConfig(path, &config, SupportedConfigVersion); err != nil {
		if _, ok := err.(errors.FileNotFound); ok {
			log.WithField("path", path).Debug("No config file, using defaults")
			return Default(), nil
		}
		return Config{}, errors.WithContext(err, "parse")
	}

	config.Server.Directory, err = homedir.Expand(config.Server.Directory)
	if err != nil {
		return Config{}, errors.WithContext(err, "expand server directory")
	}

	config.Client.Directory, err = homedir.Expand(config.Client.Directory)
	if err != nil {
		return Config{}, errors.WithContext(err, "expand client directory")
	}

	if err := config.validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) validate() error {
	if c.Client.Workers <= 0 {
		return errors.NewFriendlyError("client.workers must be positive, got %d",
			c.Client.Workers)
	}
	if c.Client.QueueSize <= 0 {
		return errors.NewFriendlyError("client.queueSize must be positive, got %d",
			c.Client.QueueSize)
	}
	if c.Server.Lease.Duration < 0 {
		return errors.NewFriendlyError("server.lease must not be negative, got %s",
			c.Server.Lease)
	}
	return nil
}

// Write writes the given config to `path`, or DefaultPath if `path` is
// empty.
func Write(path string, cfg Config) error {
	if path == "" {
		path = DefaultPath
	}

	path, err := homedirExpand(path)
	if err != nil {
		return errors.WithContext(err, "expand config path")
	}

	cfg.Version = SupportedConfigVersion
	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}

	if err := afero.WriteFile(fs, path, yamlBytes, 0644); err != nil {
		return errors.WithContext(err, "write")
	}
	return nil
}
