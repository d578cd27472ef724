package sync

import (
	"fmt"

	"github.com/sidkik/simpledfs/pkg/errors"
	"github.com/sidkik/simpledfs/pkg/store"
	"github.com/sidkik/simpledfs/pkg/sync/client"
)

// StoreFile uploads the local copy of `name` with its current contents and
// modification time. The client must win the file's lock before uploading.
func StoreFile(c client.Client, files *store.Store, name string) error {
	record, err := files.Read(name)
	if err != nil {
		return errors.WithContext(err, fmt.Sprintf("read %s", name))
	}

	if err := c.RequestLock(name); err != nil {
		return err
	}

	return c.Store(name, record.Content, record.ModTime)
}

// FetchFile downloads `name` into the local directory, overwriting any
// local copy. The local modification time is set to the server's.
func FetchFile(c client.Client, files *store.Store, name string) (client.File, error) {
	f, err := c.Fetch(name)
	if err != nil {
		return client.File{}, err
	}

	if err := files.Write(name, f.Content, f.ModTime); err != nil {
		return client.File{}, errors.WithContext(err, fmt.Sprintf("write %s", name))
	}
	return f, nil
}
