package util

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/simpledfs/pkg/errors"
)

// Variables mocked for unit testing.
var (
	exit   func(int) = os.Exit
	stderr io.Writer = os.Stderr
)

// HandleFatalError prints `err` and exits. Friendly errors are printed as
// is. Other errors are logged with their full context.
func HandleFatalError(err error) {
	if _, ok := errors.RootCause(err).(errors.FriendlyError); ok {
		fmt.Fprintln(stderr, errors.GetPrintableMessage(err))
	} else {
		log.WithError(err).Error("Fatal error")
	}
	exit(1)
}

// HandlePanic logs any panic that's in progress and exits. It should be
// deferred at the top of main.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithField("stack", string(debug.Stack())).Errorf("Unexpected panic: %v", r)
		exit(1)
	}
}
