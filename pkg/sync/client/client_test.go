package client

import (
	"context"
	"net"
	"regexp"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/sidkik/simpledfs/pkg/errors"
	"github.com/sidkik/simpledfs/pkg/lock"
	"github.com/sidkik/simpledfs/pkg/proto/dfs"
	"github.com/sidkik/simpledfs/pkg/store"
	"github.com/sidkik/simpledfs/pkg/sync/server"
)

var fastBackoff = wait.Backoff{Duration: time.Millisecond, Factor: 1, Steps: 3}

// startServer runs a DFS server over an in-memory listener and returns a
// function for connecting clients to it.
func startServer(t *testing.T) func(id string) Client {
	files, err := store.New(afero.NewMemMapFs(), "/server_files")
	require.NoError(t, err)

	lis := bufconn.Listen(1024 * 1024)
	grpcServer := grpc.NewServer()
	dfs.RegisterDFSServer(grpcServer,
		server.New(lock.NewTable(clockwork.NewFakeClock(), 0), files))
	go grpcServer.Serve(lis)
	t.Cleanup(grpcServer.Stop)

	dialer := grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
	return func(id string) Client {
		c, err := New("bufnet", Options{
			ID:          id,
			Timeout:     5 * time.Second,
			Backoff:     fastBackoff,
			DialOptions: []grpc.DialOption{dialer},
		})
		require.NoError(t, err)
		t.Cleanup(func() { c.Close() })
		return c
	}
}

func TestEndToEnd(t *testing.T) {
	connect := startServer(t)
	a := connect("client-a")
	b := connect("client-b")

	require.NoError(t, a.RequestLock("f"))

	var lockErr errors.LockDenied
	require.True(t, errors.As(b.RequestLock("f"), &lockErr))
	assert.Equal(t, "f", lockErr.Filename)
	assert.Equal(t, lock.ReasonHeld, lockErr.Reason)

	var authErr errors.NotAuthorized
	assert.True(t, errors.As(b.Store("f", []byte("b"), 1), &authErr))

	require.NoError(t, a.Store("f", []byte("hello"), 1234))

	file, err := b.Fetch("f")
	require.NoError(t, err)
	assert.Equal(t, File{Name: "f", Content: []byte("hello"), ModTime: 1234}, file)

	files, err := b.List()
	require.NoError(t, err)
	assert.Equal(t, []FileInfo{{Name: "f", Size: 5, ModTime: 1234}}, files)

	// The lock was released by the store.
	assert.NoError(t, b.RequestLock("f"))
}

func TestFetchErrors(t *testing.T) {
	c := startServer(t)("client-a")

	_, err := c.Fetch("missing")
	assert.Equal(t, errors.FileNotFound{Path: "missing"}, err)

	_, err = c.Fetch("../escape")
	assert.Equal(t, errors.InvalidFilename{Name: "../escape"}, err)
}

func TestListEmpty(t *testing.T) {
	files, err := startServer(t)("client-a").List()
	assert.NoError(t, err)
	assert.Empty(t, files)
}

// flakyDFS fails the first `failures` RequestLock calls with `err`.
type flakyDFS struct {
	dfs.DFSClient
	failures int
	err      error
	calls    int
}

func (f *flakyDFS) RequestLock(context.Context, *dfs.LockRequest, ...grpc.CallOption) (
	*dfs.LockResponse, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return &dfs.LockResponse{Granted: true}, nil
}

func TestRetry(t *testing.T) {
	unavailable := status.Error(codes.Unavailable, "connection refused")
	tests := []struct {
		name      string
		failures  int
		err       error
		expCalls  int
		expNilErr bool
		checkErr  func(error) bool
	}{
		{
			name:      "RecoversFromNetworkFailure",
			failures:  2,
			err:       unavailable,
			expCalls:  3,
			expNilErr: true,
		},
		{
			name:     "GivesUpAfterBackoffSteps",
			failures: 10,
			err:      unavailable,
			expCalls: 3,
			checkErr: errors.IsRetryable,
		},
		{
			name:     "DeadlineExceededIsRetried",
			failures: 10,
			err:      status.Error(codes.DeadlineExceeded, "timeout"),
			expCalls: 3,
			checkErr: errors.IsRetryable,
		},
		{
			name:     "OtherErrorsAreNotRetried",
			failures: 10,
			err:      status.Error(codes.PermissionDenied, "nope"),
			expCalls: 1,
			checkErr: func(err error) bool { return !errors.IsRetryable(err) },
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			pb := &flakyDFS{failures: test.failures, err: test.err}
			c := newClient(pb, Options{ID: "client-a", Backoff: fastBackoff})

			err := c.RequestLock("f")
			assert.Equal(t, test.expCalls, pb.calls)
			if test.expNilErr {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, test.checkErr(err), err.Error())
			}
		})
	}
}

func TestNewID(t *testing.T) {
	id := NewID()
	assert.Regexp(t, regexp.MustCompile(`^client-[0-9a-f]{8}$`), id)
	assert.NotEqual(t, id, NewID())

	c := newClient(&flakyDFS{}, Options{})
	assert.Regexp(t, `^client-[0-9a-f]{8}$`, c.ID())
}

func TestCheckVersion(t *testing.T) {
	tests := []struct {
		name        string
		local       string
		remote      string
		expFriendly bool
	}{
		{"SameVersion", "1.2.0", "1.2.0", false},
		{"MinorMismatch", "1.2.0", "1.5.3", false},
		{"MajorMismatch", "1.2.0", "2.0.0", true},
		{"LocalDevelopment", "set-by-make", "2.0.0", false},
		{"RemoteDevelopment", "1.0.0", "2.0.0-dev", false},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			err := CheckVersion(test.local, test.remote)
			if !test.expFriendly {
				assert.NoError(t, err)
				return
			}

			var friendly errors.FriendlyError
			assert.True(t, errors.As(err, &friendly))
		})
	}
}
