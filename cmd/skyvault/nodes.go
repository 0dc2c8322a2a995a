package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	skyvault "github.com/skyvault/skyvault-go"
)

func newMkdirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a folder (recursive)",
		Args:  cobra.ExactArgs(1),
		RunE:  runMkdir,
	}
}

func newRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <path>",
		Short: "Delete a file or folder",
		Long: `Delete a file or folder.

Folder deletion is recursive: all contents will be deleted.
Use --recursive (-r) to confirm intent when deleting folders.`,
		Args: cobra.ExactArgs(1),
		RunE: runRm,
	}

	cmd.Flags().BoolP("recursive", "r", false, "confirm recursive folder deletion")

	return cmd
}

func newMvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <path> <new-parent>",
		Short: "Move a file or folder into another folder",
		Args:  cobra.ExactArgs(2),
		RunE:  runMv,
	}
}

func newCpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cp <path> <new-parent>",
		Short: "Copy a file or folder into another folder",
		Args:  cobra.ExactArgs(2),
		RunE:  runCp,
	}
}

func newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Display file or folder metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  runStat,
	}
}

// cleanRemotePath strips leading/trailing slashes, returns "" for root.
func cleanRemotePath(path string) string {
	return strings.Trim(path, "/")
}

// mkdirJSONOutput is the JSON output schema for the mkdir command.
type mkdirJSONOutput struct {
	Created string `json:"created"`
	Handle  string `json:"handle"`
}

func runMkdir(cmd *cobra.Command, args []string) error {
	remotePath := cleanRemotePath(args[0])
	if remotePath == "" {
		return fmt.Errorf("cannot create root folder")
	}

	ctx := cmd.Context()
	logger := buildLogger()

	client, cleanup, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Debug("mkdir", "path", remotePath)

	// Walk path segments, creating each missing folder.
	segments := strings.Split(remotePath, "/")
	parent := skyvault.Root()
	builtPath := ""
	lastHandle := ""

	for _, seg := range segments {
		builtPath = builtPath + "/" + seg

		existing, infoErr := client.Info(ctx, skyvault.ByPath(builtPath))
		if infoErr == nil {
			if !existing.IsFolder {
				return fmt.Errorf("%q already exists and is not a folder", builtPath)
			}

			parent = skyvault.ByHandle(existing.Handle)
			lastHandle = existing.Handle.String()

			continue
		}

		if !errors.Is(infoErr, skyvault.ErrNotFound) {
			return fmt.Errorf("resolving %q: %w", builtPath, infoErr)
		}

		created, createErr := client.CreateFolder(ctx, seg, parent)
		if createErr != nil {
			return fmt.Errorf("creating folder %q: %w", seg, createErr)
		}

		parent = skyvault.ByHandle(created.Handle)
		lastHandle = created.Handle.String()
	}

	logger.Debug("mkdir complete", "path", remotePath, "handle", lastHandle)

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(mkdirJSONOutput{Created: remotePath, Handle: lastHandle})
	}

	statusf("Created /%s\n", remotePath)

	return nil
}

// rmJSONOutput is the JSON output schema for the rm command.
type rmJSONOutput struct {
	Deleted string `json:"deleted"`
}

func runRm(cmd *cobra.Command, args []string) error {
	remotePath := args[0]
	ctx := cmd.Context()
	logger := buildLogger()

	client, cleanup, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Debug("rm", "path", remotePath)

	info, err := client.Info(ctx, skyvault.ByPath(remotePath))
	if err != nil {
		return fmt.Errorf("resolving %q: %w", remotePath, err)
	}

	// Require --recursive for folder deletion.
	recursive, err := cmd.Flags().GetBool("recursive")
	if err != nil {
		return err
	}

	if info.IsFolder && !recursive {
		return fmt.Errorf("cannot delete folder %q without --recursive (-r) flag", remotePath)
	}

	if err := client.Remove(ctx, skyvault.ByPath(remotePath)); err != nil {
		return fmt.Errorf("deleting %q: %w", remotePath, err)
	}

	logger.Debug("delete complete", "path", remotePath, "handle", info.Handle.String())

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(rmJSONOutput{Deleted: remotePath})
	}

	statusf("Deleted %s\n", remotePath)

	return nil
}

// mvJSONOutput is the JSON output schema for the mv command.
type mvJSONOutput struct {
	Moved string `json:"moved"`
	To    string `json:"to"`
}

func runMv(cmd *cobra.Command, args []string) error {
	remotePath := args[0]
	newParent := args[1]
	ctx := cmd.Context()
	logger := buildLogger()

	client, cleanup, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Debug("mv", "path", remotePath, "new_parent", newParent)

	if err := client.Move(ctx, skyvault.ByPath(remotePath), skyvault.ByPath(newParent)); err != nil {
		return fmt.Errorf("moving %q: %w", remotePath, err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(mvJSONOutput{Moved: remotePath, To: newParent})
	}

	statusf("Moved %s to %s\n", remotePath, newParent)

	return nil
}

// cpJSONOutput is the JSON output schema for the cp command.
type cpJSONOutput struct {
	Copied string `json:"copied"`
	To     string `json:"to"`
	Handle string `json:"handle"`
}

func runCp(cmd *cobra.Command, args []string) error {
	remotePath := args[0]
	newParent := args[1]
	ctx := cmd.Context()
	logger := buildLogger()

	client, cleanup, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Debug("cp", "path", remotePath, "new_parent", newParent)

	info, err := client.Copy(ctx, skyvault.ByPath(remotePath), skyvault.ByPath(newParent))
	if err != nil {
		return fmt.Errorf("copying %q: %w", remotePath, err)
	}

	logger.Debug("copy complete", "path", remotePath, "handle", info.Handle.String())

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(cpJSONOutput{Copied: remotePath, To: newParent, Handle: info.Handle.String()})
	}

	statusf("Copied %s to %s\n", remotePath, newParent)

	return nil
}

// statJSONOutput is the JSON output schema for the stat command.
type statJSONOutput struct {
	Handle     string `json:"handle"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	IsFolder   bool   `json:"is_folder"`
	ModifiedAt string `json:"modified_at,omitempty"`
}

func runStat(cmd *cobra.Command, args []string) error {
	remotePath := args[0]
	ctx := cmd.Context()
	logger := buildLogger()

	client, cleanup, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Debug("stat", "path", remotePath)

	info, err := client.Info(ctx, skyvault.ByPath(remotePath))
	if err != nil {
		return fmt.Errorf("resolving %q: %w", remotePath, err)
	}

	if flagJSON {
		out := statJSONOutput{
			Handle:   info.Handle.String(),
			Name:     info.Name,
			Size:     info.Size,
			IsFolder: info.IsFolder,
		}

		if !info.ModTime.IsZero() {
			out.ModifiedAt = info.ModTime.UTC().Format(time.RFC3339)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	}

	itemType := "file"
	if info.IsFolder {
		itemType = "folder"
	}

	fmt.Printf("Name:     %s\n", info.Name)
	fmt.Printf("Type:     %s\n", itemType)
	fmt.Printf("Size:     %s (%d bytes)\n", formatSize(info.Size), info.Size)

	if !info.ModTime.IsZero() {
		fmt.Printf("Modified: %s\n", info.ModTime.UTC().Format("2006-01-02 15:04:05 UTC"))
	}

	fmt.Printf("Handle:   %s\n", info.Handle.String())

	return nil
}
