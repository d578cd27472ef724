package util

import (
	"io/ioutil"
	"net"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/simpledfs/pkg/config"
	"github.com/sidkik/simpledfs/pkg/errors"
	"github.com/sidkik/simpledfs/pkg/fswatch"
	"github.com/sidkik/simpledfs/pkg/store"
	"github.com/sidkik/simpledfs/pkg/sync"
	syncClient "github.com/sidkik/simpledfs/pkg/sync/client"
	"github.com/sidkik/simpledfs/pkg/sync/server"
)

// TestHelper runs a simpledfs server for integration tests, and creates
// clients that talk to it over TCP.
type TestHelper struct {
	ServerAddress string
	ServerDir     string

	root     string
	listener net.Listener
}

// NewTestHelper starts a server that stores its files under `root`.
func NewTestHelper(root string) (*TestHelper, error) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, errors.WithContext(err, "listen")
	}

	helper := &TestHelper{
		ServerAddress: lis.Addr().String(),
		ServerDir:     filepath.Join(root, "server_files"),
		root:          root,
		listener:      lis,
	}

	go func() {
		err := server.Serve(lis, config.Server{Directory: helper.ServerDir})
		log.WithError(err).Info("Test server stopped")
	}()
	return helper, nil
}

// Close stops the server.
func (helper *TestHelper) Close() error {
	return helper.listener.Close()
}

// Machine is a client with its own local directory, as if it were running on
// a separate computer.
type Machine struct {
	Name    string
	Dir     string
	Client  syncClient.Client
	Files   *store.Store
	Watcher *fswatch.Watcher
	Engine  *sync.Engine
}

// NewMachine creates a client whose local directory is named after `name`.
// The machine's watcher isn't started.
func (helper *TestHelper) NewMachine(name string) (*Machine, error) {
	dir := filepath.Join(helper.root, name)
	files, err := store.New(afero.NewOsFs(), dir)
	if err != nil {
		return nil, errors.WithContext(err, "create local directory")
	}

	c, err := syncClient.New(helper.ServerAddress, syncClient.Options{ID: name})
	if err != nil {
		return nil, errors.WithContext(err, "connect")
	}

	logger := log.WithField("machine", name)
	watcher := fswatch.New(dir, func(file string) error {
		return sync.StoreFile(c, files, file)
	}, fswatch.DefaultOptions, logger)

	return &Machine{
		Name:    name,
		Dir:     dir,
		Client:  c,
		Files:   files,
		Watcher: watcher,
		Engine:  sync.NewEngine(c, files, logger),
	}, nil
}

// WriteFile writes a file directly to the machine's local directory, as a
// user editing it would.
func (m *Machine) WriteFile(name, contents string) error {
	return ioutil.WriteFile(filepath.Join(m.Dir, name), []byte(contents), 0644)
}

// ReadFile reads a file from the machine's local directory. It returns the
// empty string if the file doesn't exist.
func (m *Machine) ReadFile(name string) (string, error) {
	contents, err := ioutil.ReadFile(filepath.Join(m.Dir, name))
	if os.IsNotExist(err) {
		return "", nil
	}
	return string(contents), err
}

// Close stops the machine's watcher and disconnects it from the server.
func (m *Machine) Close() {
	m.Watcher.Stop()
	if err := m.Client.Close(); err != nil {
		log.WithError(err).WithField("machine", m.Name).Warn("Failed to close client")
	}
}
