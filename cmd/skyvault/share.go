package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	skyvault "github.com/skyvault/skyvault-go"
	"github.com/skyvault/skyvault-go/engine"
)

func newShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share <path> <email>",
		Short: "Share a folder with another account",
		Args:  cobra.ExactArgs(2),
		RunE:  runShare,
	}

	cmd.Flags().String("access", "read", "access level (read, read-write, full)")

	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <path>",
		Short: "Create a public link",
		Long: `Create a public link for a file or folder.

The link never expires unless --expires-in is given. By default the
link serves through the provider's hosted viewer; --raw disables that.`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}

	cmd.Flags().Duration("expires-in", 0, "lifetime of the link (0 means never)")
	cmd.Flags().Bool("writable", false, "make the link writable")
	cmd.Flags().Bool("raw", false, "skip the provider's hosted viewer")

	return cmd
}

// parseAccessLevel maps the --access flag to an engine access level.
func parseAccessLevel(s string) (engine.AccessLevel, error) {
	switch s {
	case "read":
		return engine.AccessRead, nil
	case "read-write":
		return engine.AccessReadWrite, nil
	case "full":
		return engine.AccessFull, nil
	default:
		return engine.AccessUnknown, fmt.Errorf("invalid access level %q (valid: read, read-write, full)", s)
	}
}

// shareJSONOutput is the JSON output schema for the share command.
type shareJSONOutput struct {
	Shared string `json:"shared"`
	Email  string `json:"email"`
	Access string `json:"access"`
}

func runShare(cmd *cobra.Command, args []string) error {
	remotePath := args[0]
	email := args[1]
	ctx := cmd.Context()
	logger := buildLogger()

	accessStr, err := cmd.Flags().GetString("access")
	if err != nil {
		return err
	}

	level, err := parseAccessLevel(accessStr)
	if err != nil {
		return err
	}

	client, cleanup, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Debug("share", "path", remotePath, "email", email, "access", level.String())

	if err := client.Share(ctx, skyvault.ByPath(remotePath), email, level); err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(shareJSONOutput{Shared: remotePath, Email: email, Access: level.String()})
	}

	statusf("Shared %s with %s (%s)\n", remotePath, email, level.String())

	return nil
}

// exportJSONOutput is the JSON output schema for the export command.
type exportJSONOutput struct {
	Path      string `json:"path"`
	Link      string `json:"link"`
	Writable  bool   `json:"writable"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

func runExport(cmd *cobra.Command, args []string) error {
	remotePath := args[0]
	ctx := cmd.Context()
	logger := buildLogger()

	expiresIn, err := cmd.Flags().GetDuration("expires-in")
	if err != nil {
		return err
	}

	writable, err := cmd.Flags().GetBool("writable")
	if err != nil {
		return err
	}

	raw, err := cmd.Flags().GetBool("raw")
	if err != nil {
		return err
	}

	var opts []skyvault.ExportOption

	var expiresAt time.Time
	if expiresIn > 0 {
		expiresAt = time.Now().Add(expiresIn)
		opts = append(opts, skyvault.WithExpiry(expiresAt))
	}

	if writable {
		opts = append(opts, skyvault.WithWritable())
	}

	if raw {
		opts = append(opts, skyvault.WithoutHosting())
	}

	client, cleanup, err := openSession(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Debug("export", "path", remotePath, "writable", writable, "raw", raw)

	link, err := client.Export(ctx, skyvault.ByPath(remotePath), opts...)
	if err != nil {
		return err
	}

	if flagJSON {
		out := exportJSONOutput{Path: remotePath, Link: link, Writable: writable}
		if !expiresAt.IsZero() {
			out.ExpiresAt = expiresAt.UTC().Format(time.RFC3339)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	}

	fmt.Println(link)

	return nil
}
