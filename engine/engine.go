// Package engine defines the contract between skyvault and callback-driven
// storage engine providers. A provider implements Engine and delivers
// operation outcomes by invoking listener callbacks from its own goroutines;
// the bridging layer above converts those callbacks into values callers can
// wait on. The split mirrors database/sql and database/sql/driver: application
// code talks to the skyvault facade, providers implement this package and
// register themselves by name.
package engine

import "time"

// Engine is a single authenticated session against a storage engine. All
// request- and transfer-issuing methods must return promptly: work happens on
// engine-owned goroutines and results arrive through the supplied listener.
// Each submitted operation receives exactly one terminal completion callback.
//
// Implementations must be safe for concurrent use; the bridge submits
// overlapping operations against one session and imposes no serialization of
// its own.
type Engine interface {
	// Session requests.
	Login(email, password string, l RequestListener)
	Logout(l RequestListener)
	FetchNodes(l RequestListener)
	AccountDetails(l RequestListener)
	WhyBlocked(l RequestListener)
	RetryConnections(disconnect, includeTransfers bool, l RequestListener)

	// Node requests. Node arguments must have been obtained from this
	// session's lookup methods.
	CreateFolder(name string, parent Node, l RequestListener)
	Remove(node Node, l RequestListener)
	Move(node, newParent Node, l RequestListener)
	Copy(node, newParent Node, l RequestListener)
	Export(node Node, expireAt int64, writable, hosted bool, l RequestListener)
	Share(node Node, email string, level AccessLevel, l RequestListener)
	PublicNode(link string, l RequestListener)

	// Transfers.
	Upload(localPath string, parent Node, name string, l TransferListener)
	Download(node Node, localPath string, l TransferListener)

	// Stream starts a streaming download of size bytes beginning at offset.
	// Data arrives through the listener's OnTransferData callback instead of
	// being written to a local file.
	Stream(node Node, offset, size int64, l TransferListener)

	// Synchronous node lookups against the fetched filesystem snapshot.
	// Both return nil when the node is unknown or the filesystem has not
	// been fetched yet.
	NodeByHandle(h Handle) Node
	NodeByPath(path string) Node

	// FilesystemReady reports whether FetchNodes has completed and lookups
	// can succeed.
	FilesystemReady() bool
}

// RequestListener receives callbacks for a single request operation. The
// engine invokes these from its own goroutines; the Request value is valid
// only for the duration of the call and must be snapshotted to keep.
type RequestListener interface {
	OnRequestStart(r Request)

	// OnRequestFinish is the terminal completion. It is invoked exactly once
	// per submitted request, with st.Code == StatusOK on success.
	OnRequestFinish(r Request, st Status)

	// OnRequestTemporaryError reports a transient failure the engine will
	// retry on its own. It never resolves the operation.
	OnRequestTemporaryError(r Request, st Status)
}

// TransferListener receives callbacks for a single transfer operation, under
// the same threading and lifetime rules as RequestListener.
type TransferListener interface {
	OnTransferStart(t Transfer)

	// OnTransferUpdate reports cumulative progress. Zero or more updates may
	// arrive between start and finish.
	OnTransferUpdate(t Transfer)

	// OnTransferFinish is the terminal completion, invoked exactly once.
	OnTransferFinish(t Transfer, st Status)

	OnTransferTemporaryError(t Transfer, st Status)

	// OnTransferData delivers a chunk of a streaming transfer. The buffer is
	// owned by the engine and valid only until the callback returns. A false
	// return tells the engine to abort the transfer.
	OnTransferData(t Transfer, data []byte) bool
}

// Request is the engine's ephemeral view of an in-flight request. Accessors
// not populated by the request's type return zero values.
type Request interface {
	Type() RequestType
	NodeHandle() Handle
	Link() string
	Email() string
	Access() AccessLevel
	Flag() bool
	Number() int64
	Text() string
	Account() *AccountDetails
	PublicNode() Node
}

// Transfer is the engine's ephemeral view of an in-flight transfer.
type Transfer interface {
	Type() TransferType
	Path() string
	Name() string
	NodeHandle() Handle
	Offset() int64
	Size() int64
	Transferred() int64
	Speed() int64
	Streaming() bool
}

// Node is an entry in the engine's filesystem snapshot. Values returned by
// lookup methods remain valid for the life of the session; values reachable
// from callback arguments (Request.PublicNode) are ephemeral like their
// parent.
type Node interface {
	Handle() Handle
	Name() string
	Size() int64
	IsFolder() bool
	ModTime() time.Time
}
