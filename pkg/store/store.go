// Package store persists the contents of the shared directory. The server
// keeps the authoritative copy in one, and each client mirrors it in another.
// Files are stored flat under a single root directory, and each file's
// modification time is the timestamp supplied by the client that stored it.
package store

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/sidkik/simpledfs/pkg/errors"
)

// tempPrefix marks files that are in the process of being written. They're
// hidden, so they're never returned by List.
const tempPrefix = ".simpledfs-tmp-"

const fileMode os.FileMode = 0644

// Record is a stored file.
type Record struct {
	Filename string
	Content  []byte

	// ModTime is in seconds since the epoch.
	ModTime int64
}

// Info is the metadata of a stored file.
type Info struct {
	Filename string
	Size     int64
	ModTime  int64
}

// Store reads and writes files under a root directory.
type Store struct {
	fs   afero.Fs
	root string
}

// New creates a Store rooted at `root`, creating the directory if needed.
func New(fs afero.Fs, root string) (*Store, error) {
	if err := fs.MkdirAll(root, 0755); err != nil {
		return nil, errors.IOFailure{Op: "create root directory", Err: err}
	}
	return &Store{fs: fs, root: root}, nil
}

// ValidateFilename checks that `name` refers to a visible file directly
// under the root directory.
func ValidateFilename(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.HasPrefix(name, ".") ||
		strings.ContainsAny(name, `/\`) ||
		strings.ContainsRune(name, filepath.Separator) {
		return errors.InvalidFilename{Name: name}
	}
	return nil
}

// Write replaces the contents of `filename` and sets its modification time
// to `mtime`. The new contents are staged in a temporary file and renamed
// into place, so readers either see the old file or the new one.
func (s *Store) Write(filename string, content []byte, mtime int64) error {
	if err := ValidateFilename(filename); err != nil {
		return err
	}

	tmp, err := afero.TempFile(s.fs, s.root, tempPrefix)
	if err != nil {
		return errors.IOFailure{Op: "create temp file", Err: err}
	}

	// Clean up the staged file unless it was successfully renamed.
	renamed := false
	defer func() {
		if !renamed {
			_ = s.fs.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return errors.IOFailure{Op: "write", Err: err}
	}

	if err := tmp.Close(); err != nil {
		return errors.IOFailure{Op: "close", Err: err}
	}

	// Temp files are created private to the user.
	if err := s.fs.Chmod(tmp.Name(), fileMode); err != nil {
		return errors.IOFailure{Op: "chmod", Err: err}
	}

	// Change the modification time as the last step before the rename so
	// that it doesn't get reset by the write.
	modTime := time.Unix(mtime, 0)
	if err := s.fs.Chtimes(tmp.Name(), time.Now(), modTime); err != nil {
		return errors.IOFailure{Op: "set modtime", Err: err}
	}

	if err := s.fs.Rename(tmp.Name(), s.path(filename)); err != nil {
		return errors.IOFailure{Op: "rename", Err: err}
	}
	renamed = true
	return nil
}

// Read returns the contents and modification time of `filename`.
func (s *Store) Read(filename string) (Record, error) {
	if err := ValidateFilename(filename); err != nil {
		return Record{}, err
	}

	path := s.path(filename)
	fi, err := s.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, errors.FileNotFound{Path: filename}
		}
		return Record{}, errors.IOFailure{Op: "stat", Err: err}
	}

	if fi.IsDir() {
		return Record{}, errors.FileNotFound{Path: filename}
	}

	content, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return Record{}, errors.IOFailure{Op: "read", Err: err}
	}

	return Record{
		Filename: filename,
		Content:  content,
		ModTime:  fi.ModTime().Unix(),
	}, nil
}

// Stat returns the metadata of `filename` without reading its contents.
func (s *Store) Stat(filename string) (Info, error) {
	if err := ValidateFilename(filename); err != nil {
		return Info{}, err
	}

	fi, err := s.fs.Stat(s.path(filename))
	switch {
	case os.IsNotExist(err):
		return Info{}, errors.FileNotFound{Path: filename}
	case err != nil:
		return Info{}, errors.IOFailure{Op: "stat", Err: err}
	case fi.IsDir():
		return Info{}, errors.FileNotFound{Path: filename}
	}

	return Info{
		Filename: filename,
		Size:     fi.Size(),
		ModTime:  fi.ModTime().Unix(),
	}, nil
}

// List returns the metadata for all stored files, sorted by filename.
func (s *Store) List() ([]Info, error) {
	fis, err := afero.ReadDir(s.fs, s.root)
	if err != nil {
		return nil, errors.IOFailure{Op: "read directory", Err: err}
	}

	var files []Info
	for _, fi := range fis {
		if fi.IsDir() || strings.HasPrefix(fi.Name(), ".") {
			continue
		}

		files = append(files, Info{
			Filename: fi.Name(),
			Size:     fi.Size(),
			ModTime:  fi.ModTime().Unix(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Filename < files[j].Filename
	})
	return files, nil
}

func (s *Store) path(filename string) string {
	return filepath.Join(s.root, filename)
}
