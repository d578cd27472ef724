package sync

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/sidkik/simpledfs/pkg/errors"
	"github.com/sidkik/simpledfs/pkg/store"
	"github.com/sidkik/simpledfs/pkg/sync/client"
)

// Engine pulls files from the server into the local directory.
type Engine struct {
	client client.Client
	files  *store.Store
	log    logrus.FieldLogger
}

// NewEngine creates an Engine that syncs into `files`.
func NewEngine(c client.Client, files *store.Store, log logrus.FieldLogger) *Engine {
	return &Engine{client: c, files: files, log: log}
}

// Run fetches every server file that is missing locally or is strictly
// newer than the local copy. Local files that are newer or equally old are
// left untouched. A failure on one file doesn't stop the others from being
// synced; the failures are returned together once all files were tried.
// The names of the fetched files are returned in the server's listing
// order.
func (e *Engine) Run() ([]string, error) {
	remoteFiles, err := e.client.List()
	if err != nil {
		return nil, errors.WithContext(err, "list")
	}

	var fetched []string
	var result *multierror.Error
	for _, remote := range remoteFiles {
		logger := e.log.WithField("file", remote.Name)

		stale, err := e.isStale(remote)
		if err != nil {
			logger.WithError(err).Warn("Failed to check local copy")
			result = multierror.Append(result, err)
			continue
		}

		if !stale {
			logger.Debug("Local copy is up to date")
			continue
		}

		if _, err := FetchFile(e.client, e.files, remote.Name); err != nil {
			logger.WithError(err).Warn("Failed to fetch")
			result = multierror.Append(result,
				errors.WithContext(err, fmt.Sprintf("fetch %s", remote.Name)))
			continue
		}

		logger.WithField("modtime", remote.ModTime).Info("Fetched newer file")
		fetched = append(fetched, remote.Name)
	}
	return fetched, result.ErrorOrNil()
}

func (e *Engine) isStale(remote client.FileInfo) (bool, error) {
	local, err := e.files.Stat(remote.Name)
	if err != nil {
		var notFound errors.FileNotFound
		if errors.As(err, &notFound) {
			return true, nil
		}
		return false, errors.WithContext(err, fmt.Sprintf("stat %s", remote.Name))
	}
	return local.ModTime < remote.ModTime, nil
}
