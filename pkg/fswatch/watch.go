// Package fswatch pushes changes in a local directory to the server as they
// happen.
package fswatch

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	goSync "sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/simpledfs/pkg/errors"
)

var fs = afero.NewOsFs()

// EventKind is the type of change observed for a file.
type EventKind int

const (
	// Created means that a new file appeared in the directory.
	Created EventKind = iota

	// Modified means that an existing file was written to.
	Modified

	// Deleted means that a file was removed or renamed away.
	Deleted

	// Ignored is used for changes that don't affect the file's contents,
	// such as permission changes.
	Ignored
)

func (kind EventKind) String() string {
	switch kind {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return "ignored"
	}
}

// Event is a change to a file in the watched directory.
type Event struct {
	// Name is the file's name relative to the watched directory.
	Name string
	Kind EventKind
}

// Hidden returns whether the event is for a dotfile. Changes to hidden files
// are never synced.
func (e Event) Hidden() bool {
	return strings.HasPrefix(e.Name, ".")
}

// Handler uploads the current version of the named file.
type Handler func(name string) error

// Options configures a Watcher.
type Options struct {
	// Workers is the number of uploads that may run in parallel.
	Workers int

	// QueueSize is the number of pending uploads each worker may have.
	// Events beyond that are dropped.
	QueueSize int

	// Debounce is how long a file must be quiet before it's uploaded. A
	// single save usually generates several events.
	Debounce time.Duration
}

// DefaultOptions are the Options used for fields that aren't set.
var DefaultOptions = Options{
	Workers:   4,
	QueueSize: 64,
	Debounce:  100 * time.Millisecond,
}

// Watcher uploads files in a directory whenever they're created or modified.
// Detecting changes is decoupled from uploading them: the event loop only
// classifies and queues changes, and a pool of workers uploads them. All
// changes to a file are handled by the same worker, so uploads of a file
// happen in the order that the changes were made.
type Watcher struct {
	dir     string
	handler Handler
	opts    Options
	log     logrus.FieldLogger

	lock    goSync.Mutex
	running bool
	stop    chan struct{}
	fsw     *fsnotify.Watcher
	wg      goSync.WaitGroup
}

// New creates a Watcher for `dir`. It doesn't start watching until Start is
// called.
func New(dir string, handler Handler, opts Options, log logrus.FieldLogger) *Watcher {
	if opts.Workers <= 0 {
		opts.Workers = DefaultOptions.Workers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultOptions.QueueSize
	}
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}

	return &Watcher{
		dir:     dir,
		handler: handler,
		opts:    opts,
		log:     log,
	}
}

// Start begins watching the directory. Starting a running Watcher is a
// no-op.
func (w *Watcher) Start() error {
	w.lock.Lock()
	defer w.lock.Unlock()

	if w.running {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WithContext(err, "create watcher")
	}

	if err := fsw.Add(w.dir); err != nil {
		// Close the watcher so that we release its file handles.
		if err := fsw.Close(); err != nil {
			w.log.WithError(err).Warn("Failed to close file watcher")
		}
		return errors.WithContext(err, fmt.Sprintf("watch %q", w.dir))
	}

	stop := make(chan struct{})
	queues := make([]chan string, w.opts.Workers)
	for i := range queues {
		queues[i] = make(chan string, w.opts.QueueSize)
		w.wg.Add(1)
		go w.work(stop, queues[i])
	}

	w.wg.Add(1)
	go w.watch(fsw, stop, queues)

	w.fsw = fsw
	w.stop = stop
	w.running = true
	w.log.WithField("dir", w.dir).Info("Started watching")
	return nil
}

// Stop stops watching the directory. It blocks until any in-progress
// uploads finish. Queued changes that haven't started uploading are dropped.
// Stopping a stopped Watcher is a no-op.
func (w *Watcher) Stop() {
	w.lock.Lock()
	defer w.lock.Unlock()

	if !w.running {
		return
	}

	close(w.stop)
	if err := w.fsw.Close(); err != nil {
		w.log.WithError(err).Warn("Failed to close file watcher")
	}
	w.wg.Wait()

	w.running = false
	w.log.WithField("dir", w.dir).Info("Stopped watching")
}

// Running returns whether the Watcher is started.
func (w *Watcher) Running() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	return w.running
}

// watch reads filesystem events and queues uploads once a file has been
// quiet for the debounce period.
func (w *Watcher) watch(fsw *fsnotify.Watcher, stop chan struct{}, queues []chan string) {
	defer w.wg.Done()

	debounce := newDebouncer(w.opts.Debounce, stop)
	defer debounce.stopAll()

	for {
		select {
		case <-stop:
			return

		case f := <-debounce.settled:
			if debounce.settle(f) {
				w.enqueue(stop, queues, f.name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("File watcher error")

		case fsEvent, ok := <-fsw.Events:
			if !ok {
				return
			}

			event, ok := w.toEvent(fsEvent)
			if !ok {
				continue
			}

			logger := w.log.WithField("file", event.Name)
			switch event.Kind {
			case Deleted:
				debounce.cancel(event.Name)
				logger.Info("File deleted locally. Deletions aren't synced to the server")
			case Created, Modified:
				logger.WithField("kind", event.Kind).Debug("File changed")
				if w.opts.Debounce == 0 {
					w.enqueue(stop, queues, event.Name)
					continue
				}
				debounce.touch(event.Name)
			}
		}
	}
}

type pendingFile struct {
	timer *time.Timer
	gen   uint64
}

type settledFile struct {
	name string
	gen  uint64
}

// debouncer delays a file's upload until it stops changing. It's only used
// from the watch goroutine. Each timer is tagged with a generation so that a
// timer that fired just before being replaced is ignored.
type debouncer struct {
	delay   time.Duration
	stop    chan struct{}
	settled chan settledFile

	pending map[string]pendingFile
	gen     uint64
}

func newDebouncer(delay time.Duration, stop chan struct{}) *debouncer {
	return &debouncer{
		delay:   delay,
		stop:    stop,
		settled: make(chan settledFile),
		pending: map[string]pendingFile{},
	}
}

// touch restarts the quiet period for `name`.
func (d *debouncer) touch(name string) {
	if p, ok := d.pending[name]; ok && p.timer.Stop() {
		p.timer.Reset(d.delay)
		return
	}

	d.gen++
	f := settledFile{name: name, gen: d.gen}
	d.pending[name] = pendingFile{
		gen: f.gen,
		timer: time.AfterFunc(d.delay, func() {
			select {
			case d.settled <- f:
			case <-d.stop:
			}
		}),
	}
}

func (d *debouncer) cancel(name string) {
	if p, ok := d.pending[name]; ok {
		p.timer.Stop()
		delete(d.pending, name)
	}
}

// settle returns whether `f` is the latest pending change to its file, and
// if so stops tracking it.
func (d *debouncer) settle(f settledFile) bool {
	p, ok := d.pending[f.name]
	if !ok || p.gen != f.gen {
		return false
	}
	delete(d.pending, f.name)
	return true
}

func (d *debouncer) stopAll() {
	for _, p := range d.pending {
		p.timer.Stop()
	}
}

// toEvent converts a filesystem event into an Event. It returns false for
// events that should be ignored entirely.
func (w *Watcher) toEvent(fsEvent fsnotify.Event) (Event, bool) {
	event := Event{Name: filepath.Base(fsEvent.Name), Kind: kindOf(fsEvent.Op)}
	if event.Hidden() || event.Kind == Ignored {
		return Event{}, false
	}

	if event.Kind != Deleted {
		fi, err := fs.Stat(fsEvent.Name)
		if err != nil {
			// The file was removed before we got to it. The Remove event
			// will follow.
			if !os.IsNotExist(err) {
				w.log.WithError(err).WithField("file", event.Name).Warn("Failed to stat file")
			}
			return Event{}, false
		}

		if fi.IsDir() {
			return Event{}, false
		}
	}
	return event, true
}

func kindOf(op fsnotify.Op) EventKind {
	switch {
	case op&(fsnotify.Remove|fsnotify.Rename) != 0:
		return Deleted
	case op&fsnotify.Create != 0:
		return Created
	case op&fsnotify.Write != 0:
		return Modified
	default:
		return Ignored
	}
}

// enqueue hands `name` to its worker. If the worker is backed up, the change
// is dropped.
func (w *Watcher) enqueue(stop chan struct{}, queues []chan string, name string) {
	select {
	case <-stop:
		return
	default:
	}

	select {
	case queues[workerFor(name, len(queues))] <- name:
	default:
		w.log.WithField("file", name).Warn("Upload queue is full. Dropping change")
	}
}

func (w *Watcher) work(stop chan struct{}, queue chan string) {
	defer w.wg.Done()

	for {
		select {
		case <-stop:
			return
		case name := <-queue:
			// Check again so that nothing new starts once Stop was called,
			// even if there's queued work.
			select {
			case <-stop:
				return
			default:
			}

			logger := w.log.WithField("file", name)
			if err := w.handler(name); err != nil {
				logger.WithError(err).Warn("Failed to sync change. Dropping it")
				continue
			}
			logger.Info("Synced change to server")
		}
	}
}

// workerFor returns the index of the worker responsible for `name`.
func workerFor(name string, numWorkers int) int {
	h := fnv.New32a()
	h.Write([]byte(name))
	return int(h.Sum32() % uint32(numWorkers))
}
