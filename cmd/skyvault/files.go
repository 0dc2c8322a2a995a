package main

import (
	"encoding/json"
	"fmt"
	"os"
	stdpath "path"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	skyvault "github.com/skyvault/skyvault-go"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <remote-path> [local-path]",
		Short: "Download a file",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runGet,
	}
}

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <local-path>...",
		Short: "Upload one or more files",
		Long: `Upload one or more local files to a remote folder.

Files upload concurrently, bounded by transfers.parallel. An existing
remote file with the same name is replaced.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runPut,
	}

	cmd.Flags().String("to", "/", "remote folder to upload into")
	cmd.Flags().String("name", "", "remote file name (single file only)")

	return cmd
}

func newCatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat <remote-path>",
		Short: "Stream a file's content to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  runCat,
	}

	cmd.Flags().Int64("offset", 0, "byte offset to start from")
	cmd.Flags().Int64("length", -1, "bytes to stream (-1 means through end of file)")

	return cmd
}

func runGet(cmd *cobra.Command, args []string) error {
	remotePath := args[0]
	ctx := cmd.Context()
	logger := buildLogger()

	client, cleanup, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Debug("get", "remote_path", remotePath)

	info, err := client.Info(ctx, skyvault.ByPath(remotePath))
	if err != nil {
		return fmt.Errorf("resolving %q: %w", remotePath, err)
	}

	if info.IsFolder {
		return fmt.Errorf("%q is a folder, not a file", remotePath)
	}

	localPath := info.Name
	if len(args) > 1 {
		localPath = args[1]

		// A directory target means download into it under the remote name.
		if fi, statErr := os.Stat(localPath); statErr == nil && fi.IsDir() {
			localPath = filepath.Join(localPath, info.Name)
		}
	}

	j := openJournalLogged(logger)
	if j != nil {
		defer j.Close()
	}

	var transferred int64

	progress := func(p skyvault.Progress) {
		transferred = p.Transferred

		if progressEnabled() {
			statusf("Downloading: %s / %s\n", formatSize(p.Transferred), formatSize(p.Total))
		}
	}

	err = journaled(ctx, j, logger, "download", remotePath, info.Handle.String(), func() (int64, error) {
		if dlErr := client.Download(ctx, skyvault.ByPath(remotePath), localPath, skyvault.WithProgress(progress)); dlErr != nil {
			return transferred, dlErr
		}

		return info.Size, nil
	})
	if err != nil {
		return err
	}

	logger.Debug("download complete", "local_path", localPath, "bytes", info.Size)
	statusf("Downloaded %s (%s)\n", localPath, formatSize(info.Size))

	return nil
}

// putJSONResult is the JSON output schema for one uploaded file.
type putJSONResult struct {
	Uploaded string `json:"uploaded"`
	Handle   string `json:"handle"`
	Size     int64  `json:"size"`
}

func runPut(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := buildLogger()

	to, err := cmd.Flags().GetString("to")
	if err != nil {
		return err
	}

	remoteName, err := cmd.Flags().GetString("name")
	if err != nil {
		return err
	}

	if remoteName != "" && len(args) > 1 {
		return fmt.Errorf("--name applies to a single file, got %d", len(args))
	}

	// Stat everything up front so a bad argument fails before any upload.
	sizes := make([]int64, len(args))

	for i, localPath := range args {
		fi, statErr := os.Stat(localPath)
		if statErr != nil {
			return fmt.Errorf("stating local file: %w", statErr)
		}

		if fi.IsDir() {
			return fmt.Errorf("%q is a directory, not a file", localPath)
		}

		sizes[i] = fi.Size()
	}

	client, cleanup, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	parentInfo, err := client.Info(ctx, skyvault.ByPath(to))
	if err != nil {
		return fmt.Errorf("resolving %q: %w", to, err)
	}

	if !parentInfo.IsFolder {
		return fmt.Errorf("%q is not a folder", to)
	}

	parent := skyvault.ByHandle(parentInfo.Handle)

	j := openJournalLogged(logger)
	if j != nil {
		defer j.Close()
	}

	results := make([]putJSONResult, len(args))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolvedCfg.Transfers.Parallel)

	for i, localPath := range args {
		name := remoteName
		if name == "" {
			name = filepath.Base(localPath)
		}

		remotePath := stdpath.Join("/", to, name)
		size := sizes[i]
		idx := i

		var opts []skyvault.TransferOption
		if name != filepath.Base(localPath) {
			opts = append(opts, skyvault.WithRemoteName(name))
		}

		// Per-chunk progress only makes sense for a single upload.
		if len(args) == 1 {
			opts = append(opts, skyvault.WithProgress(func(p skyvault.Progress) {
				if progressEnabled() {
					statusf("Uploading: %s / %s\n", formatSize(p.Transferred), formatSize(p.Total))
				}
			}))
		}

		g.Go(func() error {
			logger.Debug("put", "local_path", localPath, "remote_path", remotePath, "size", size)

			return journaled(gctx, j, logger, "upload", remotePath, "", func() (int64, error) {
				info, upErr := client.Upload(gctx, localPath, parent, opts...)
				if upErr != nil {
					return 0, upErr
				}

				results[idx] = putJSONResult{Uploaded: remotePath, Handle: info.Handle.String(), Size: size}
				statusf("Uploaded %s (%s)\n", remotePath, formatSize(size))

				return size, nil
			})
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(results)
	}

	return nil
}

func runCat(cmd *cobra.Command, args []string) error {
	remotePath := args[0]
	ctx := cmd.Context()
	logger := buildLogger()

	offset, err := cmd.Flags().GetInt64("offset")
	if err != nil {
		return err
	}

	length, err := cmd.Flags().GetInt64("length")
	if err != nil {
		return err
	}

	client, cleanup, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Debug("cat", "remote_path", remotePath, "offset", offset, "length", length)

	j := openJournalLogged(logger)
	if j != nil {
		defer j.Close()
	}

	return journaled(ctx, j, logger, "stream", remotePath, "", func() (int64, error) {
		s, openErr := client.OpenStream(ctx, skyvault.ByPath(remotePath), offset, length)
		if openErr != nil {
			return 0, openErr
		}
		defer s.Close()

		var written int64

		for s.Next() {
			n, werr := os.Stdout.Write(s.Bytes())
			written += int64(n)

			if werr != nil {
				return written, werr
			}
		}

		return written, s.Err()
	})
}
