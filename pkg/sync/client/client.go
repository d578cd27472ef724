package client

//go:generate mockery -name Client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goVersion "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding/gzip"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/sidkik/simpledfs/pkg/errors"
	"github.com/sidkik/simpledfs/pkg/proto/dfs"
	"github.com/sidkik/simpledfs/pkg/version"
)

// Client is the interface for talking to the simpledfs server. Every method
// blocks until the server responds.
type Client interface {
	// ID returns the identity this client uses when locking files.
	ID() string

	RequestLock(filename string) error
	Store(filename string, content []byte, modTime int64) error
	Fetch(filename string) (File, error)
	List() ([]FileInfo, error)
	GetVersion() (string, error)
	Close() error
}

// File is a file fetched from the server.
type File struct {
	Name    string
	Content []byte

	// ModTime is in seconds since the epoch.
	ModTime int64
}

// FileInfo describes a file stored on the server.
type FileInfo struct {
	Name    string
	Size    int64
	ModTime int64
}

// Options configures a Client.
type Options struct {
	// ID identifies the client when locking. A new ID is generated if it's
	// empty.
	ID string

	// Timeout bounds each attempt of each call.
	Timeout time.Duration

	// Backoff controls how calls that fail because the server is
	// unreachable are retried. Other failures are never retried.
	Backoff wait.Backoff

	// DialOptions are appended to the default dial options.
	DialOptions []grpc.DialOption
}

// DefaultBackoff makes three attempts with jittered exponential backoff.
var DefaultBackoff = wait.Backoff{
	Duration: 200 * time.Millisecond,
	Factor:   2,
	Jitter:   0.1,
	Steps:    3,
}

const defaultTimeout = 30 * time.Second

type client struct {
	id      string
	timeout time.Duration
	backoff wait.Backoff

	pbClient dfs.DFSClient
	grpcConn *grpc.ClientConn
}

// New creates a new client connected to the server at `addr`.
func New(addr string, opts Options) (Client, error) {
	keepaliveOpt := grpc.WithKeepaliveParams(keepalive.ClientParameters{Time: 30 * time.Second})
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.UseCompressor(gzip.Name)),
		keepaliveOpt,
	}, opts.DialOptions...)

	conn, err := grpc.Dial(addr, dialOpts...)
	if err != nil {
		return nil, errors.WithContext(err, "dial")
	}

	c := newClient(dfs.NewDFSClient(conn), opts)
	c.grpcConn = conn
	return c, nil
}

func newClient(pbClient dfs.DFSClient, opts Options) *client {
	if opts.ID == "" {
		opts.ID = NewID()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Backoff.Steps <= 0 {
		opts.Backoff = DefaultBackoff
	}

	return &client{
		id:       opts.ID,
		timeout:  opts.Timeout,
		backoff:  opts.Backoff,
		pbClient: pbClient,
	}
}

// NewID returns a random client identity such as "client-1a2b3c4d".
func NewID() string {
	hex := strings.Replace(uuid.New().String(), "-", "", -1)
	return "client-" + hex[:8]
}

func (c *client) ID() string {
	return c.id
}

func (c *client) RequestLock(filename string) error {
	var resp *dfs.LockResponse
	err := c.call("request lock", filename, func(ctx context.Context) (err error) {
		resp, err = c.pbClient.RequestLock(ctx, &dfs.LockRequest{
			Filename: filename,
			ClientId: c.id,
		})
		return err
	})
	if err != nil {
		return err
	}

	switch {
	case resp.GetGranted():
		return nil
	case resp.GetCode() == dfs.CodeLockDenied:
		return errors.LockDenied{Filename: filename, Reason: resp.GetMessage()}
	default:
		return errors.WithContext(errors.New(resp.GetMessage()), "request lock")
	}
}

func (c *client) Store(filename string, content []byte, modTime int64) error {
	var resp *dfs.StatusResponse
	err := c.call("store", filename, func(ctx context.Context) (err error) {
		resp, err = c.pbClient.Store(ctx, &dfs.FileData{
			Filename:     filename,
			ClientId:     c.id,
			Data:         content,
			ModifiedTime: modTime,
		})
		return err
	})
	if err != nil {
		return err
	}

	switch {
	case resp.GetSuccess():
		return nil
	case resp.GetCode() == dfs.CodeNotLocked:
		return errors.NotAuthorized{Filename: filename, Reason: resp.GetMessage()}
	case resp.GetCode() == dfs.CodeIOFailure:
		return errors.IOFailure{Op: "store on server", Err: errors.New(resp.GetMessage())}
	default:
		return errors.WithContext(errors.New(resp.GetMessage()), "store")
	}
}

func (c *client) Fetch(filename string) (File, error) {
	var resp *dfs.FileData
	err := c.call("fetch", filename, func(ctx context.Context) (err error) {
		resp, err = c.pbClient.Fetch(ctx, &dfs.FileRequest{Filename: filename})
		return err
	})
	if err != nil {
		return File{}, err
	}

	return File{
		Name:    resp.GetFilename(),
		Content: resp.GetData(),
		ModTime: resp.GetModifiedTime(),
	}, nil
}

func (c *client) List() ([]FileInfo, error) {
	var resp *dfs.FileList
	err := c.call("list", "", func(ctx context.Context) (err error) {
		resp, err = c.pbClient.List(ctx, &dfs.Empty{})
		return err
	})
	if err != nil {
		return nil, err
	}

	var files []FileInfo
	for _, f := range resp.GetFiles() {
		files = append(files, FileInfo{
			Name:    f.GetFilename(),
			Size:    f.GetSize(),
			ModTime: f.GetModifiedTime(),
		})
	}
	return files, nil
}

func (c *client) GetVersion() (string, error) {
	var resp *dfs.VersionResponse
	err := c.call("get version", "", func(ctx context.Context) (err error) {
		resp, err = c.pbClient.GetVersion(ctx, &dfs.Empty{})
		return err
	})
	return resp.GetVersion(), err
}

func (c *client) Close() error {
	if c.grpcConn == nil {
		return nil
	}
	return c.grpcConn.Close()
}

// call invokes `fn`, retrying with backoff while the server is unreachable.
func (c *client) call(op, filename string, fn func(context.Context) error) error {
	var lastErr error
	err := wait.ExponentialBackoff(c.backoff, func() (bool, error) {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		lastErr = fromRPCError(op, filename, fn(ctx))
		if lastErr == nil {
			return true, nil
		}

		if errors.IsRetryable(lastErr) {
			log.WithError(lastErr).WithField("op", op).Debug("Server unreachable, retrying")
			return false, nil
		}
		return false, lastErr
	})

	// The backoff returns its own timeout error once it runs out of steps.
	// The last failure is more useful to the caller.
	if err != nil && lastErr != nil {
		return lastErr
	}
	return err
}

// fromRPCError converts gRPC status errors into the errors package's
// taxonomy.
func fromRPCError(op, filename string, err error) error {
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok {
		return errors.WithContext(err, op)
	}

	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		return errors.NetworkFailure{Op: op, Err: err}
	case codes.NotFound:
		return errors.FileNotFound{Path: filename}
	case codes.InvalidArgument:
		return errors.InvalidFilename{Name: filename}
	case codes.Internal:
		return errors.IOFailure{Op: op + " on server", Err: errors.New(st.Message())}
	default:
		return errors.WithContext(err, op)
	}
}

// CheckVersion returns a friendly error if the client and server versions
// have different major versions. Development builds are always compatible.
func CheckVersion(local, remote string) error {
	if version.IsDevelopment(local) || version.IsDevelopment(remote) {
		return nil
	}

	localVersion, err := goVersion.NewVersion(local)
	if err != nil {
		return errors.WithContext(err, fmt.Sprintf("parse local version %q", local))
	}

	remoteVersion, err := goVersion.NewVersion(remote)
	if err != nil {
		return errors.WithContext(err, fmt.Sprintf("parse server version %q", remote))
	}

	if localVersion.Segments()[0] != remoteVersion.Segments()[0] {
		return errors.NewFriendlyError("The server is running simpledfs %s, "+
			"which is incompatible with this client (%s).\n"+
			"Upgrade the older of the two so that the major versions match.",
			remote, local)
	}
	return nil
}
