package skyvault

import (
	"bytes"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyvault/skyvault-go/engine"
)

func TestUploadDownloadRoundTrip(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t)
	ctx := testCtx(t)

	payload := bytes.Repeat([]byte("skyvault"), 2048)
	src := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(src, payload, 0o644))

	info, err := c.Upload(ctx, src, NodeRef{})
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", info.Name)
	assert.Equal(t, int64(len(payload)), info.Size)

	_, err = c.Info(ctx, ByPath("/report.pdf"))
	require.NoError(t, err)

	dst := filepath.Join(t.TempDir(), "out.pdf")
	require.NoError(t, c.Download(ctx, ByPath("/report.pdf"), dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, got))
}

func TestUploadRemoteNameAndProgress(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t)
	ctx := testCtx(t)

	payload := []byte("progress payload")
	src := filepath.Join(t.TempDir(), "local.bin")
	require.NoError(t, os.WriteFile(src, payload, 0o644))

	var got []Progress

	info, err := c.Upload(ctx, src, NodeRef{},
		WithRemoteName("renamed.bin"),
		WithProgress(func(p Progress) { got = append(got, p) }))
	require.NoError(t, err)
	assert.Equal(t, "renamed.bin", info.Name)

	_, err = c.Info(ctx, ByPath("/renamed.bin"))
	require.NoError(t, err)

	// Direct progress is delivered in order, all before Upload returns.
	require.NotEmpty(t, got)

	last := got[len(got)-1]
	assert.Equal(t, int64(len(payload)), last.Transferred)
	assert.Equal(t, int64(len(payload)), last.Total)

	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Transferred, got[i].Transferred)
	}
}

func TestUploadMissingLocalFile(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t)

	_, err := c.Upload(testCtx(t), filepath.Join(t.TempDir(), "nope.bin"), NodeRef{})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestUploadDirectoryRejected(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t)

	_, err := c.Upload(testCtx(t), t.TempDir(), NodeRef{})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUploadReplacesExisting(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t)
	ctx := testCtx(t)

	dir := t.TempDir()

	first := filepath.Join(dir, "f1")
	require.NoError(t, os.WriteFile(first, []byte("v1"), 0o644))

	second := filepath.Join(dir, "f2")
	require.NoError(t, os.WriteFile(second, []byte("version two"), 0o644))

	_, err := c.Upload(ctx, first, NodeRef{}, WithRemoteName("data.bin"))
	require.NoError(t, err)

	_, err = c.Upload(ctx, second, NodeRef{}, WithRemoteName("data.bin"))
	require.NoError(t, err)

	info, err := c.Info(ctx, ByPath("/data.bin"))
	require.NoError(t, err)
	assert.Equal(t, int64(len("version two")), info.Size)
}

func TestDownloadFolderRejected(t *testing.T) {
	t.Parallel()

	c, eng := testClient(t)
	require.NoError(t, eng.SeedFolder("/docs"))

	err := c.Download(testCtx(t), ByPath("/docs"), filepath.Join(t.TempDir(), "out"))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTransferErrorPassthrough(t *testing.T) {
	t.Parallel()

	c, eng := testClient(t)
	ctx := testCtx(t)

	_, err := eng.SeedFile("/f.txt", []byte("x"))
	require.NoError(t, err)

	eng.FailNextTransfer(3, "session expired")

	err = c.Download(ctx, ByPath("/f.txt"), filepath.Join(t.TempDir(), "out"))

	var trErr *engine.TransferError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, 3, trErr.Code)
	assert.Equal(t, "session expired", trErr.Message)
}

func TestAsyncProgressDoesNotDelayCompletion(t *testing.T) {
	t.Parallel()

	c, _ := testClient(t)
	ctx := testCtx(t)

	payload := []byte("async progress payload")
	src := filepath.Join(t.TempDir(), "in.bin")
	require.NoError(t, os.WriteFile(src, payload, 0o644))

	release := make(chan struct{})

	var ran atomic.Int32

	// Both updates park until released; the upload must still complete.
	_, err := c.Upload(ctx, src, NodeRef{}, WithAsyncProgress(func(Progress) {
		<-release
		ran.Add(1)
	}))
	require.NoError(t, err)
	assert.Zero(t, ran.Load())

	close(release)

	assert.Eventually(t, func() bool { return ran.Load() == 2 },
		2*time.Second, 10*time.Millisecond)
}
