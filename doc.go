// Package skyvault is a cloud storage client built on pluggable,
// callback-driven engine providers. It turns the engine's callback flow into
// ordinary blocking calls: every operation takes a context, waits for the
// engine's terminal callback, and returns a value or an error.
//
// A provider is selected by name, database/sql style. Importing a provider
// package registers it:
//
//	import (
//		"github.com/skyvault/skyvault-go"
//		_ "github.com/skyvault/skyvault-go/pkg/memengine"
//	)
//
//	client, err := skyvault.Open("mem", "", logger)
//	if err != nil {
//		...
//	}
//	defer client.Close()
//
//	if err := client.Login(ctx, email, password); err != nil {
//		...
//	}
//
//	info, err := client.Info(ctx, skyvault.ByPath("/docs/report.txt"))
//
// Remote nodes are addressed with NodeRef values built by ByPath, ByHandle,
// ByInfo and Root. Paths are normalized to NFC before lookup, and the node
// tree is fetched on first use.
//
// Engine failures carry the engine's own status code and message, unmodified,
// as *engine.RequestError or *engine.TransferError. Local misuse is reported
// as ErrInvalidArgument, and failed lookups as *NodeNotFoundError.
package skyvault
