package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	stdpath "path"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	skyvault "github.com/skyvault/skyvault-go"
	"github.com/skyvault/skyvault-go/internal/journal"
)

const (
	defaultWatchDebounce = 2 * time.Second

	watchErrInitBackoff = 1 * time.Second
	watchErrBackoffMult = 2
	watchErrMaxBackoff  = 30 * time.Second
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <local-dir> [remote-parent]",
		Short: "Watch a local directory and upload changed files",
		Long: `Watch a local directory and upload files as they are created or
written. Changes are debounced so a file being written in bursts
uploads once, after it settles.

Watching is not recursive: only files directly inside the directory
are uploaded. Editor temporaries and partial files are skipped.
Stop with Ctrl-C.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runWatch,
	}

	cmd.Flags().Duration("debounce", defaultWatchDebounce, "settle time before uploading a changed file")

	return cmd
}

// excludedWatchSuffixes lists file endings that are never worth uploading:
// partial downloads and editor temporaries.
var excludedWatchSuffixes = []string{".partial", ".tmp", ".swp", ".crdownload"}

// isExcludedName reports whether a file name should be ignored by watch.
func isExcludedName(name string) bool {
	lower := strings.ToLower(name)

	for _, suffix := range excludedWatchSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}

	return strings.HasPrefix(name, "~") || strings.HasPrefix(name, ".~")
}

func runWatch(cmd *cobra.Command, args []string) error {
	localDir := args[0]

	remoteParent := "/"
	if len(args) > 1 {
		remoteParent = args[1]
	}

	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return err
	}

	if debounce <= 0 {
		return fmt.Errorf("--debounce must be positive, got %s", debounce)
	}

	fi, err := os.Stat(localDir)
	if err != nil {
		return fmt.Errorf("stating watch directory: %w", err)
	}

	if !fi.IsDir() {
		return fmt.Errorf("%q is not a directory", localDir)
	}

	logger := buildLogger()
	ctx := shutdownContext(cmd.Context(), logger)

	client, cleanup, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	parentInfo, err := client.Info(ctx, skyvault.ByPath(remoteParent))
	if err != nil {
		return fmt.Errorf("resolving %q: %w", remoteParent, err)
	}

	if !parentInfo.IsFolder {
		return fmt.Errorf("%q is not a folder", remoteParent)
	}

	j := openJournalLogged(logger)
	if j != nil {
		defer j.Close()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating filesystem watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(localDir); err != nil {
		return fmt.Errorf("watching %q: %w", localDir, err)
	}

	statusf("Watching %s (uploads to %s). Ctrl-C to stop.\n", localDir, remoteParent)

	w := &watchSession{
		client:       client,
		journal:      j,
		logger:       logger,
		localDir:     localDir,
		remoteParent: remoteParent,
		parent:       skyvault.ByHandle(parentInfo.Handle),
		pending:      make(map[string]struct{}),
	}

	return w.loop(ctx, watcher, debounce)
}

// watchSession holds the state of one running watch command.
type watchSession struct {
	client       *skyvault.Client
	journal      *journal.Journal
	logger       *slog.Logger
	localDir     string
	remoteParent string
	parent       skyvault.NodeRef

	// pending maps local paths awaiting the debounce timer.
	pending map[string]struct{}
}

// loop is the main select loop: fsnotify events mark files pending, the
// debounce timer flushes them, and watcher errors back off exponentially so
// a broken watch does not spin.
func (w *watchSession) loop(ctx context.Context, watcher *fsnotify.Watcher, debounce time.Duration) error {
	timer := time.NewTimer(debounce)
	defer timer.Stop()

	stopTimer(timer)

	errBackoff := watchErrInitBackoff

	for {
		select {
		case <-ctx.Done():
			statusf("Stopped watching.\n")
			return nil

		case fsEvent, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if w.handleFsEvent(fsEvent) {
				stopTimer(timer)
				timer.Reset(debounce)
			}

			errBackoff = watchErrInitBackoff

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			w.logger.Warn("filesystem watcher error",
				slog.String("error", watchErr.Error()),
				slog.Duration("backoff", errBackoff),
			)

			// Back off so sustained errors (e.g. kernel buffer overflow)
			// do not turn into a tight loop.
			if sleepErr := ctxSleep(ctx, errBackoff); sleepErr != nil {
				statusf("Stopped watching.\n")
				return nil
			}

			errBackoff *= watchErrBackoffMult
			if errBackoff > watchErrMaxBackoff {
				errBackoff = watchErrMaxBackoff
			}

		case <-timer.C:
			w.flushPending(ctx)
		}
	}
}

// handleFsEvent marks a created or written file pending. Returns true when
// the debounce timer should restart.
func (w *watchSession) handleFsEvent(fsEvent fsnotify.Event) bool {
	// Mode changes are not uploads.
	if fsEvent.Has(fsnotify.Chmod) && !fsEvent.Has(fsnotify.Create) && !fsEvent.Has(fsnotify.Write) {
		return false
	}

	if !fsEvent.Has(fsnotify.Create) && !fsEvent.Has(fsnotify.Write) {
		return false
	}

	name := filepath.Base(fsEvent.Name)
	if isExcludedName(name) {
		w.logger.Debug("watch: skipping excluded file", slog.String("name", name))
		return false
	}

	w.pending[fsEvent.Name] = struct{}{}

	return true
}

// flushPending uploads every pending file. Upload failures are logged and
// the watch continues; only cancellation stops the flush.
func (w *watchSession) flushPending(ctx context.Context) {
	for localPath := range w.pending {
		delete(w.pending, localPath)

		if ctx.Err() != nil {
			return
		}

		fi, err := os.Stat(localPath)
		if err != nil {
			// Gone before the debounce settled.
			w.logger.Debug("watch: pending file disappeared", slog.String("path", localPath))
			continue
		}

		if !fi.Mode().IsRegular() {
			continue
		}

		w.uploadOne(ctx, localPath, fi.Size())
	}
}

// uploadOne uploads a single settled file under the watched remote parent.
func (w *watchSession) uploadOne(ctx context.Context, localPath string, size int64) {
	remotePath := stdpath.Join("/", w.remoteParent, filepath.Base(localPath))

	w.logger.Debug("watch: uploading", "local_path", localPath, "remote_path", remotePath, "size", size)

	err := journaled(ctx, w.journal, w.logger, "upload", remotePath, "", func() (int64, error) {
		if _, upErr := w.client.Upload(ctx, localPath, w.parent); upErr != nil {
			return 0, upErr
		}

		return size, nil
	})
	if err != nil {
		w.logger.Warn("watch: upload failed",
			slog.String("path", localPath),
			slog.String("error", err.Error()),
		)

		return
	}

	statusf("Uploaded %s (%s)\n", remotePath, formatSize(size))
}

// stopTimer stops a timer and drains its channel if it already fired.
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}

// ctxSleep sleeps for d or until ctx is canceled, returning the context
// error in that case.
func ctxSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
