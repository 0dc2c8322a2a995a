package engine

import (
	"fmt"
	"time"
)

// StatusOK is the status code engines report for success.
const StatusOK = 0

// Status is the structured outcome carried by a terminal callback: a numeric
// code and a human-readable message. Code 0 means success; all other codes
// are engine-defined and passed through unmodified.
type Status struct {
	Code    int
	Message string
}

// OK reports whether the status describes a successful completion.
func (s Status) OK() bool { return s.Code == StatusOK }

func (s Status) String() string {
	if s.OK() {
		return "OK"
	}

	return fmt.Sprintf("%s (code %d)", s.Message, s.Code)
}

// Handle is an engine-assigned node identifier, stable for the life of the
// node. The zero value is never a valid handle.
type Handle uint64

func (h Handle) String() string { return fmt.Sprintf("%x", uint64(h)) }

// RequestType identifies which operation a request callback belongs to.
type RequestType int

// Request types, one per request-issuing Engine method.
const (
	RequestUnknown RequestType = iota
	RequestLogin
	RequestLogout
	RequestFetchNodes
	RequestAccountDetails
	RequestWhyBlocked
	RequestRetryConnections
	RequestCreateFolder
	RequestRemove
	RequestMove
	RequestCopy
	RequestExport
	RequestShare
	RequestPublicNode
)

func (t RequestType) String() string {
	switch t {
	case RequestLogin:
		return "login"
	case RequestLogout:
		return "logout"
	case RequestFetchNodes:
		return "fetch-nodes"
	case RequestAccountDetails:
		return "account-details"
	case RequestWhyBlocked:
		return "why-blocked"
	case RequestRetryConnections:
		return "retry-connections"
	case RequestCreateFolder:
		return "create-folder"
	case RequestRemove:
		return "remove"
	case RequestMove:
		return "move"
	case RequestCopy:
		return "copy"
	case RequestExport:
		return "export"
	case RequestShare:
		return "share"
	case RequestPublicNode:
		return "public-node"
	default:
		return "unknown"
	}
}

// TransferType distinguishes download-direction transfers (including streams)
// from uploads.
type TransferType int

const (
	TransferDownload TransferType = iota
	TransferUpload
)

func (t TransferType) String() string {
	if t == TransferUpload {
		return "upload"
	}

	return "download"
}

// AccessLevel is the permission granted when sharing a folder.
type AccessLevel int

// Share access levels, lowest to highest.
const (
	AccessUnknown   AccessLevel = iota - 1
	AccessRead                  // read-only
	AccessReadWrite             // read and write
	AccessFull                  // full control
	AccessOwner                 // ownership transfer
)

func (a AccessLevel) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessReadWrite:
		return "read-write"
	case AccessFull:
		return "full"
	case AccessOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// AccountDetails describes account identity and quota usage. Engines build a
// fresh value per account-details request, so unlike callback arguments it
// may be retained as-is.
type AccountDetails struct {
	Email        string
	StorageUsed  int64
	StorageMax   int64
	TransferUsed int64
	TransferMax  int64
}

// RequestInfo is an owned snapshot of a Request, safe to retain after the
// originating callback returns.
type RequestInfo struct {
	Type       RequestType
	NodeHandle Handle
	Link       string
	Email      string
	Access     AccessLevel
	Flag       bool
	Number     int64
	Text       string
	Account    *AccountDetails
	PublicNode *NodeInfo
}

// SnapshotRequest copies the ephemeral view r into an owned RequestInfo.
// It must be called while the callback that supplied r is still on the stack.
func SnapshotRequest(r Request) *RequestInfo {
	if r == nil {
		return &RequestInfo{}
	}

	info := &RequestInfo{
		Type:       r.Type(),
		NodeHandle: r.NodeHandle(),
		Link:       r.Link(),
		Email:      r.Email(),
		Access:     r.Access(),
		Flag:       r.Flag(),
		Number:     r.Number(),
		Text:       r.Text(),
		Account:    r.Account(),
	}

	if pn := r.PublicNode(); pn != nil {
		info.PublicNode = SnapshotNode(pn)
	}

	return info
}

// TransferInfo is an owned snapshot of a Transfer.
type TransferInfo struct {
	Type        TransferType
	Path        string
	Name        string
	NodeHandle  Handle
	Offset      int64
	Size        int64
	Transferred int64
	Speed       int64
	Streaming   bool
}

// SnapshotTransfer copies the ephemeral view t into an owned TransferInfo,
// under the same rules as SnapshotRequest.
func SnapshotTransfer(t Transfer) *TransferInfo {
	if t == nil {
		return &TransferInfo{}
	}

	return &TransferInfo{
		Type:        t.Type(),
		Path:        t.Path(),
		Name:        t.Name(),
		NodeHandle:  t.NodeHandle(),
		Offset:      t.Offset(),
		Size:        t.Size(),
		Transferred: t.Transferred(),
		Speed:       t.Speed(),
		Streaming:   t.Streaming(),
	}
}

// NodeInfo is an owned snapshot of a Node.
type NodeInfo struct {
	Handle   Handle
	Name     string
	Size     int64
	IsFolder bool
	ModTime  time.Time
}

// SnapshotNode copies n into an owned NodeInfo.
func SnapshotNode(n Node) *NodeInfo {
	if n == nil {
		return nil
	}

	return &NodeInfo{
		Handle:   n.Handle(),
		Name:     n.Name(),
		Size:     n.Size(),
		IsFolder: n.IsFolder(),
		ModTime:  n.ModTime(),
	}
}
