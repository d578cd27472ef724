package client

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	logrusTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/simpledfs/pkg/errors"
	"github.com/sidkik/simpledfs/pkg/store"
	"github.com/sidkik/simpledfs/pkg/sync"
	syncClient "github.com/sidkik/simpledfs/pkg/sync/client"
	"github.com/sidkik/simpledfs/pkg/sync/client/mocks"
)

type fakeWatcher struct {
	running  bool
	startErr error
	starts   int
	stops    int
}

func (w *fakeWatcher) Start() error {
	if w.startErr != nil {
		return w.startErr
	}
	w.starts++
	w.running = true
	return nil
}

func (w *fakeWatcher) Stop() {
	w.stops++
	w.running = false
}

func (w *fakeWatcher) Running() bool {
	return w.running
}

func newTestREPL(t *testing.T, input string) (repl, *mocks.Client, *fakeWatcher, *bytes.Buffer) {
	files, err := store.New(afero.NewMemMapFs(), "/client_files")
	require.NoError(t, err)

	mockClient := &mocks.Client{}
	watcher := &fakeWatcher{}
	log, _ := logrusTest.NewNullLogger()
	var out bytes.Buffer
	return repl{
		client:  mockClient,
		files:   files,
		watcher: watcher,
		engine:  sync.NewEngine(mockClient, files, log),
		in:      strings.NewReader(input),
		out:     &out,
	}, mockClient, watcher, &out
}

// outputAfterUsage strips the usage message printed on startup and the
// prompts.
func outputAfterUsage(out *bytes.Buffer) string {
	withoutPrompts := strings.Replace(out.String(), "\n> ", "\n", -1)
	return strings.TrimPrefix(withoutPrompts, usage)
}

func TestStartStop(t *testing.T) {
	r, _, watcher, out := newTestREPL(t, "start\nstart\nstop\nstop\nquit\n")
	r.run()

	assert.Equal(t, "File watcher started\n"+
		"File watcher is already running\n"+
		"File watcher stopped\n"+
		"File watcher is not running\n", outputAfterUsage(out))
	assert.Equal(t, 1, watcher.starts)
	assert.Equal(t, 1, watcher.stops)
}

func TestStartFailure(t *testing.T) {
	r, _, watcher, out := newTestREPL(t, "start\n")
	watcher.startErr = errors.NewFriendlyError("no such directory")
	r.run()

	assert.Equal(t, "Failed to start file watcher: no such directory\n", outputAfterUsage(out))
	assert.False(t, watcher.Running())
}

func TestQuitStopsWatcher(t *testing.T) {
	r, _, watcher, _ := newTestREPL(t, "start\nquit\nstop\n")
	r.run()
	assert.False(t, watcher.Running())
	assert.Equal(t, 1, watcher.stops)
}

func TestEndOfInputStopsWatcher(t *testing.T) {
	r, _, watcher, _ := newTestREPL(t, "start")
	r.run()
	assert.False(t, watcher.Running())
}

func TestUnknownCommand(t *testing.T) {
	r, mockClient, _, out := newTestREPL(t, "bogus\nfetch\nlist all\n\n   \nquit\n")
	r.run()

	assert.Equal(t, usage+usage+usage+usage+usage, outputAfterUsage(out))
	mockClient.AssertExpectations(t)
}

func TestList(t *testing.T) {
	r, mockClient, _, out := newTestREPL(t, "list\nlist\n")
	mockClient.On("List").Return([]syncClient.FileInfo{
		{Name: "a.txt", Size: 10, ModTime: 1000},
		{Name: "b.txt", Size: 20, ModTime: 2000},
	}, nil).Once()
	mockClient.On("List").Return(nil, errors.NetworkFailure{
		Op: "list", Err: errors.New("connection refused")}).Once()
	r.run()

	assert.Equal(t, fmt.Sprintf("Files on server:\n"+
		"  a.txt (10 bytes, modified: %s)\n"+
		"  b.txt (20 bytes, modified: %s)\n"+
		"List failed: list: network failure: connection refused\n",
		time.Unix(1000, 0).Format(timeFormat),
		time.Unix(2000, 0).Format(timeFormat)), outputAfterUsage(out))
}

func TestListEmpty(t *testing.T) {
	r, mockClient, _, out := newTestREPL(t, "list\n")
	mockClient.On("List").Return(nil, nil)
	r.run()
	assert.Equal(t, "Files on server:\n  (none)\n", outputAfterUsage(out))
}

func TestFetch(t *testing.T) {
	r, mockClient, _, out := newTestREPL(t, "fetch a.txt\nfetch missing\n")
	mockClient.On("Fetch", "a.txt").Return(
		syncClient.File{Name: "a.txt", Content: []byte("a"), ModTime: 100}, nil)
	mockClient.On("Fetch", "missing").Return(syncClient.File{}, errors.FileNotFound{Path: "missing"})
	r.run()

	assert.Equal(t, "Successfully fetched a.txt\n"+
		"Fetch failed: \"missing\" does not exist\n", outputAfterUsage(out))

	record, err := r.files.Read("a.txt")
	require.NoError(t, err)
	assert.Equal(t, store.Record{Filename: "a.txt", Content: []byte("a"), ModTime: 100}, record)
}

func TestFilenameWithSpaces(t *testing.T) {
	r, mockClient, _, out := newTestREPL(t, "fetch my file.txt\nstore my file.txt\n")
	mockClient.On("Fetch", "my file.txt").Return(
		syncClient.File{Name: "my file.txt", Content: []byte("a"), ModTime: 100}, nil)
	mockClient.On("RequestLock", "my file.txt").Return(nil)
	mockClient.On("Store", "my file.txt", []byte("a"), int64(100)).Return(nil)
	r.run()

	assert.Equal(t, "Successfully fetched my file.txt\n"+
		"Successfully stored my file.txt\n", outputAfterUsage(out))
	mockClient.AssertExpectations(t)
}

func TestStore(t *testing.T) {
	r, mockClient, _, out := newTestREPL(t, "store a.txt\nstore b.txt\nstore missing\n")
	require.NoError(t, r.files.Write("a.txt", []byte("a"), 100))
	require.NoError(t, r.files.Write("b.txt", []byte("b"), 200))

	mockClient.On("RequestLock", "a.txt").Return(nil)
	mockClient.On("Store", "a.txt", []byte("a"), int64(100)).Return(nil)
	mockClient.On("RequestLock", "b.txt").Return(
		errors.LockDenied{Filename: "b.txt", Reason: "File is locked by another client"})
	r.run()

	assert.Equal(t, "Successfully stored a.txt\n"+
		"Failed to acquire write lock for b.txt: File is locked by another client\n"+
		"Store failed: read missing: \"missing\" does not exist\n", outputAfterUsage(out))
	mockClient.AssertExpectations(t)
}

func TestSync(t *testing.T) {
	r, mockClient, _, out := newTestREPL(t, "sync\n")
	require.NoError(t, r.files.Write("a.txt", []byte("old"), 100))

	mockClient.On("List").Return([]syncClient.FileInfo{
		{Name: "a.txt", ModTime: 200},
		{Name: "b.txt", ModTime: 50},
	}, nil)
	mockClient.On("Fetch", "a.txt").Return(
		syncClient.File{Name: "a.txt", Content: []byte("new"), ModTime: 200}, nil)
	mockClient.On("Fetch", "b.txt").Return(
		syncClient.File{Name: "b.txt", Content: []byte("b"), ModTime: 50}, nil)
	r.run()

	assert.Equal(t, "Syncing files from server...\n"+
		"Fetched a.txt\n"+
		"Fetched b.txt\n"+
		"Sync complete\n", outputAfterUsage(out))
}

func TestSyncFailure(t *testing.T) {
	r, mockClient, _, out := newTestREPL(t, "sync\n")
	mockClient.On("List").Return(nil, errors.NetworkFailure{
		Op: "list", Err: errors.New("connection refused")})
	r.run()

	assert.Equal(t, "Syncing files from server...\n"+
		"Sync failed: list: list: network failure: connection refused\n", outputAfterUsage(out))
}
