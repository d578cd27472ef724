package server

import (
	"context"
	"net"
	"net/http"
	goSync "sync"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sidkik/simpledfs/pkg/config"
	"github.com/sidkik/simpledfs/pkg/errors"
	"github.com/sidkik/simpledfs/pkg/lock"
	"github.com/sidkik/simpledfs/pkg/metrics"
	"github.com/sidkik/simpledfs/pkg/proto/dfs"
	"github.com/sidkik/simpledfs/pkg/store"
	"github.com/sidkik/simpledfs/pkg/version"

	_ "google.golang.org/grpc/encoding/gzip" // Install the gzip compressor
)

// Messages returned to clients. They match what clients print to the user.
const (
	msgLockGranted  = "Lock granted"
	msgNotLocked    = "No write lock for this file"
	msgStoreFailed  = "Failed to store file"
	msgStored       = "File stored successfully"
	msgFileNotFound = "File not found"
)

// Variables mocked for unit testing.
var (
	fs       = afero.NewOsFs()
	newClock = clockwork.NewRealClock
)

// Service implements the DFS gRPC service. It owns the lock table and the
// file store, and serializes every access to them with a single mutex so that
// lock checks and the writes they authorize happen atomically.
type Service struct {
	lock  goSync.Mutex
	locks *lock.Table
	files *store.Store
}

// New returns a Service backed by the given lock table and file store.
func New(locks *lock.Table, files *store.Store) *Service {
	return &Service{locks: locks, files: files}
}

// Run starts the sync server and listens for connections. It blocks until the
// server stops.
func Run(cfg config.Server) error {
	lis, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return errors.WithContext(err, "listen")
	}
	return Serve(lis, cfg)
}

// Serve runs the sync server on an existing listener. cfg.Address is only
// used for logging.
func Serve(lis net.Listener, cfg config.Server) error {
	files, err := store.New(fs, cfg.Directory)
	if err != nil {
		return errors.WithContext(err, "open file store")
	}

	grpcServer := grpc.NewServer()
	dfs.RegisterDFSServer(grpcServer, New(lock.NewTable(newClock(), cfg.Lease.Duration), files))

	if cfg.MetricsAddress != "" {
		go serveMetrics(cfg.MetricsAddress)
	}

	log.WithFields(log.Fields{
		"address":   lis.Addr().String(),
		"directory": cfg.Directory,
		"lease":     cfg.Lease.Duration,
	}).Info("simpledfs server is ready")
	if err := grpcServer.Serve(lis); err != nil {
		return errors.WithContext(err, "serve")
	}
	return nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	log.WithField("address", addr).Info("Serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Error("Metrics server stopped")
	}
}

// RequestLock grants the caller the write lock on a file. It never blocks
// waiting for the lock: a held lock results in a denied response.
func (s *Service) RequestLock(ctx context.Context, req *dfs.LockRequest) (
	*dfs.LockResponse, error) {

	logger := log.WithFields(log.Fields{
		"file":   req.GetFilename(),
		"client": req.GetClientId(),
	})
	logger.Debug("Lock request")

	if err := validateRequest(req.GetFilename(), req.GetClientId()); err != nil {
		metrics.RecordLockRequest(metrics.ResultInvalid)
		return &dfs.LockResponse{Message: err.Error(), Code: dfs.CodeInvalidRequest}, nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.locks.Acquire(req.GetFilename(), req.GetClientId()); err != nil {
		metrics.RecordLockRequest(metrics.ResultDenied)
		logger.Info("Lock denied")
		return &dfs.LockResponse{Message: lock.ReasonHeld, Code: dfs.CodeLockDenied}, nil
	}

	metrics.RecordLockRequest(metrics.ResultGranted)
	metrics.SetLocksHeld(s.locks.Len())
	logger.Info("Lock granted")
	return &dfs.LockResponse{Granted: true, Message: msgLockGranted}, nil
}

// Store writes a file on behalf of the client holding its lock. The lock is
// released once the write succeeds. If the write fails, the lock stays with
// the client so that it can retry the store.
func (s *Service) Store(ctx context.Context, req *dfs.FileData) (
	*dfs.StatusResponse, error) {

	logger := log.WithFields(log.Fields{
		"file":   req.GetFilename(),
		"client": req.GetClientId(),
	})
	logger.Debug("Store request")

	if err := validateRequest(req.GetFilename(), req.GetClientId()); err != nil {
		metrics.RecordStore(metrics.ResultInvalid, 0)
		return &dfs.StatusResponse{Message: err.Error(), Code: dfs.CodeInvalidRequest}, nil
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if !s.locks.HeldBy(req.GetFilename(), req.GetClientId()) {
		metrics.RecordStore(metrics.ResultNotAuthorized, 0)
		logger.Info("Rejected store without lock")
		return &dfs.StatusResponse{Message: msgNotLocked, Code: dfs.CodeNotLocked}, nil
	}

	err := s.files.Write(req.GetFilename(), req.GetData(), req.GetModifiedTime())
	if err != nil {
		metrics.RecordStore(metrics.ResultFailed, 0)
		logger.WithError(err).Error("Failed to store file")
		return &dfs.StatusResponse{
			Message: errors.WithContext(err, msgStoreFailed).Error(),
			Code:    dfs.CodeIOFailure,
		}, nil
	}

	s.locks.Release(req.GetFilename())
	metrics.RecordStore(metrics.ResultStored, len(req.GetData()))
	metrics.SetLocksHeld(s.locks.Len())
	logger.WithField("size", len(req.GetData())).Info("File stored")
	return &dfs.StatusResponse{Success: true, Message: msgStored}, nil
}

// Fetch returns the contents of a file. No lock is required.
func (s *Service) Fetch(ctx context.Context, req *dfs.FileRequest) (*dfs.FileData, error) {
	logger := log.WithField("file", req.GetFilename())
	logger.Debug("Fetch request")

	if err := store.ValidateFilename(req.GetFilename()); err != nil {
		metrics.RecordFetch(metrics.ResultInvalid)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	s.lock.Lock()
	record, err := s.files.Read(req.GetFilename())
	s.lock.Unlock()

	if err != nil {
		if _, ok := errors.RootCause(err).(errors.FileNotFound); ok {
			metrics.RecordFetch(metrics.ResultNotFound)
			return nil, status.Error(codes.NotFound, msgFileNotFound)
		}
		metrics.RecordFetch(metrics.ResultFailed)
		logger.WithError(err).Error("Failed to read file")
		return nil, status.Error(codes.Internal, err.Error())
	}

	metrics.RecordFetch(metrics.ResultFetched)
	logger.Info("File fetched")
	return &dfs.FileData{
		Filename:     record.Filename,
		Data:         record.Content,
		ModifiedTime: record.ModTime,
	}, nil
}

// List returns the metadata of every stored file, sorted by filename. No lock
// is required.
func (s *Service) List(ctx context.Context, _ *dfs.Empty) (*dfs.FileList, error) {
	s.lock.Lock()
	files, err := s.files.List()
	s.lock.Unlock()

	if err != nil {
		log.WithError(err).Error("Failed to list files")
		return nil, status.Error(codes.Internal, err.Error())
	}

	resp := &dfs.FileList{}
	for _, f := range files {
		resp.Files = append(resp.Files, &dfs.FileInfo{
			Filename:     f.Filename,
			Size:         f.Size,
			ModifiedTime: f.ModTime,
		})
	}
	log.WithField("count", len(resp.Files)).Info("Listed files")
	return resp, nil
}

// GetVersion returns the version of the server.
func (s *Service) GetVersion(ctx context.Context, _ *dfs.Empty) (*dfs.VersionResponse, error) {
	return &dfs.VersionResponse{Version: version.Version}, nil
}

func validateRequest(filename, clientID string) error {
	if clientID == "" {
		return errors.MissingFieldError{Field: "client_id"}
	}
	return store.ValidateFilename(filename)
}
