package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/simpledfs/ci/util"
	"github.com/sidkik/simpledfs/pkg/errors"
)

// Test checks that the server's write locks keep machines from overwriting
// each other's changes.
func Test(t *testing.T, helper *util.TestHelper) {
	first, err := helper.NewMachine("lock-first")
	require.NoError(t, err)
	defer first.Close()

	second, err := helper.NewMachine("lock-second")
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, first.Client.RequestLock("shared.txt"))

	var lockErr errors.LockDenied
	assert.True(t, errors.As(second.Client.RequestLock("shared.txt"), &lockErr))

	var authErr errors.NotAuthorized
	assert.True(t, errors.As(second.Client.Store("shared.txt", []byte("second"), 1), &authErr))

	require.NoError(t, first.Client.Store("shared.txt", []byte("first"), 1))

	// Storing released the lock.
	require.NoError(t, second.Client.RequestLock("shared.txt"))
	require.NoError(t, second.Client.Store("shared.txt", []byte("second"), 2))

	f, err := first.Client.Fetch("shared.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", string(f.Content))
	assert.Equal(t, int64(2), f.ModTime)
}
