package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/simpledfs/ci/util"
)

// Test checks that changes made on one machine reach another.
func Test(t *testing.T, helper *util.TestHelper) {
	t.Run("PushThenPull", func(t *testing.T) {
		testPushThenPull(t, helper)
	})
	t.Run("PullKeepsNewerLocalFiles", func(t *testing.T) {
		testPullKeepsNewerLocalFiles(t, helper)
	})
}

func testPushThenPull(t *testing.T, helper *util.TestHelper) {
	writer, err := helper.NewMachine("push-writer")
	require.NoError(t, err)
	defer writer.Close()

	reader, err := helper.NewMachine("push-reader")
	require.NoError(t, err)
	defer reader.Close()

	require.NoError(t, writer.Watcher.Start())
	require.NoError(t, writer.WriteFile("notes.txt", "first draft"))

	// The watcher uploads the file on its own.
	assert.Eventually(t, func() bool {
		files, err := reader.Client.List()
		if err != nil {
			return false
		}
		for _, f := range files {
			if f.Name == "notes.txt" && f.Size == int64(len("first draft")) {
				return true
			}
		}
		return false
	}, 10*time.Second, 100*time.Millisecond)

	fetched, err := reader.Engine.Run()
	require.NoError(t, err)
	assert.Contains(t, fetched, "notes.txt")

	contents, err := reader.ReadFile("notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "first draft", contents)

	writerInfo, err := writer.Files.Stat("notes.txt")
	require.NoError(t, err)
	readerInfo, err := reader.Files.Stat("notes.txt")
	require.NoError(t, err)
	assert.Equal(t, writerInfo.ModTime, readerInfo.ModTime)

	// Nothing changed, so a second pull is a no-op.
	fetched, err = reader.Engine.Run()
	require.NoError(t, err)
	assert.NotContains(t, fetched, "notes.txt")
}

func testPullKeepsNewerLocalFiles(t *testing.T, helper *util.TestHelper) {
	writer, err := helper.NewMachine("newer-writer")
	require.NoError(t, err)
	defer writer.Close()

	reader, err := helper.NewMachine("newer-reader")
	require.NoError(t, err)
	defer reader.Close()

	require.NoError(t, writer.Files.Write("report.txt", []byte("server copy"), 1000))
	require.NoError(t, writer.Client.RequestLock("report.txt"))
	require.NoError(t, writer.Client.Store("report.txt", []byte("server copy"), 1000))

	require.NoError(t, reader.Files.Write("report.txt", []byte("local edit"), 2000))

	fetched, err := reader.Engine.Run()
	require.NoError(t, err)
	assert.NotContains(t, fetched, "report.txt")

	contents, err := reader.ReadFile("report.txt")
	require.NoError(t, err)
	assert.Equal(t, "local edit", contents)
}
