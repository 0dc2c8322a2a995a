// Package memengine provides an in-memory engine used by tests and as the
// default provider for local experimentation. It registers itself under the
// name "mem"; import it for side effects to make the provider available:
//
//	import _ "github.com/skyvault/skyvault-go/pkg/memengine"
//
// The engine keeps a node tree behind a mutex and delivers callbacks from
// per-operation goroutines, matching the threading model of wrapped native
// engines. Helpers on the concrete type seed content and inject failures.
package memengine

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/skyvault/skyvault-go/engine"
)

// Status codes reported by this engine. Codes are engine-defined and flow
// through RequestError and TransferError unmodified.
const (
	CodeAccessDenied = 1
	CodeNotFound     = 2
	CodeExists       = 3
	CodeNotLoggedIn  = 4
	CodeBadArgument  = 5
	CodeLocalFile    = 6
	CodeAborted      = 7
	CodeNotReady     = 8
)

const defaultChunkSize = 2_097_152

var statusOK = engine.Status{Code: engine.StatusOK}

// Engine is an in-memory engine.Engine implementation. A node tree lives
// behind a mutex; every operation runs on its own goroutine and reports
// through listener callbacks. The zero value is not usable, construct with
// New or through engine.Open("mem", dsn).
type Engine struct {
	logger        *slog.Logger
	chunkSize     int
	latency       time.Duration
	blockedReason string

	mu          sync.Mutex
	loggedIn    bool
	fsReady     bool
	account     engine.AccountDetails
	nextHandle  engine.Handle
	root        *node
	byHandle    map[engine.Handle]*node
	links       map[string]engine.Handle
	reqFailures []engine.Status
	trFailures  []engine.Status
	tempErrs    []engine.Status
	streamFail  *streamFailure

	wg sync.WaitGroup
}

type streamFailure struct {
	afterChunks int
	status      engine.Status
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithChunkSize sets the chunk size for streaming transfers.
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithLatency adds a fixed delay before each operation delivers callbacks.
func WithLatency(d time.Duration) Option {
	return func(e *Engine) { e.latency = d }
}

// WithEmail presets the account email reported by AccountDetails.
func WithEmail(email string) Option {
	return func(e *Engine) { e.account.Email = email }
}

// WithQuota presets the storage and transfer quota reported by
// AccountDetails.
func WithQuota(storageMax, transferMax int64) Option {
	return func(e *Engine) {
		e.account.StorageMax = storageMax
		e.account.TransferMax = transferMax
	}
}

// WithBlockedReason marks the account blocked with the given reason,
// reported by WhyBlocked.
func WithBlockedReason(reason string) Option {
	return func(e *Engine) { e.blockedReason = reason }
}

// New returns an empty engine with a root folder.
func New(opts ...Option) *Engine {
	e := &Engine{
		chunkSize: defaultChunkSize,
		byHandle:  make(map[engine.Handle]*node),
		links:     make(map[string]engine.Handle),
		account: engine.AccountDetails{
			Email:       "user@skyvault.test",
			StorageMax:  20 << 30,
			TransferMax: 1 << 40,
		},
	}

	e.nextHandle = 1
	e.root = &node{
		handle:   e.nextHandle,
		name:     "/",
		folder:   true,
		children: make(map[string]*node),
		modTime:  time.Now().UTC(),
	}
	e.byHandle[e.root.handle] = e.root

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return e
}

// Close waits for all in-flight operation goroutines to deliver their
// callbacks. The engine must not be used after Close.
func (e *Engine) Close() error {
	e.wg.Wait()
	return nil
}

type driver struct{}

// Named instances, keyed by the "name" DSN option. Every Open with the same
// name returns the same engine, the way separate logins to one account see
// the same server-side tree. Instances live for the process.
var (
	namedMu sync.Mutex
	named   = map[string]*Engine{}
)

// Open implements engine.Driver. The DSN is an optional query string of
// engine options, for example "chunk=65536&latency=10ms". A "name" option
// yields a process-shared instance.
func (driver) Open(dsn string) (engine.Engine, error) {
	name, opts, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}

	if name == "" {
		return New(opts...), nil
	}

	namedMu.Lock()
	defer namedMu.Unlock()

	if e, ok := named[name]; ok {
		return e, nil
	}

	e := New(opts...)
	named[name] = e

	return e, nil
}

func init() { engine.Register("mem", driver{}) }

func parseDSN(dsn string) (string, []Option, error) {
	if dsn == "" {
		return "", nil, nil
	}

	values, err := url.ParseQuery(dsn)
	if err != nil {
		return "", nil, fmt.Errorf("memengine: parsing dsn: %w", err)
	}

	var (
		name string
		opts []Option
	)

	for key := range values {
		val := values.Get(key)

		switch key {
		case "name":
			name = val
		case "chunk":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return "", nil, fmt.Errorf("memengine: invalid chunk size %q", val)
			}

			opts = append(opts, WithChunkSize(n))
		case "latency":
			d, err := time.ParseDuration(val)
			if err != nil {
				return "", nil, fmt.Errorf("memengine: invalid latency %q: %w", val, err)
			}

			opts = append(opts, WithLatency(d))
		case "email":
			opts = append(opts, WithEmail(val))
		default:
			return "", nil, fmt.Errorf("memengine: unknown dsn option %q", key)
		}
	}

	return name, opts, nil
}

// FailNextRequest arranges for the next submitted request to finish with the
// given status instead of executing. Multiple calls queue failures in order.
func (e *Engine) FailNextRequest(code int, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reqFailures = append(e.reqFailures, engine.Status{Code: code, Message: message})
}

// FailNextTransfer arranges for the next submitted transfer to finish with
// the given status instead of executing.
func (e *Engine) FailNextTransfer(code int, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.trFailures = append(e.trFailures, engine.Status{Code: code, Message: message})
}

// FailStreamAfter arranges for the next streaming transfer to fail with the
// given status after delivering n chunks.
func (e *Engine) FailStreamAfter(n, code int, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.streamFail = &streamFailure{
		afterChunks: n,
		status:      engine.Status{Code: code, Message: message},
	}
}

// TemporaryErrorNextRequest queues a transient error delivered through
// OnRequestTemporaryError before the next request executes. The request
// still completes normally afterwards.
func (e *Engine) TemporaryErrorNextRequest(code int, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tempErrs = append(e.tempErrs, engine.Status{Code: code, Message: message})
}

// run executes fn on an engine-owned goroutine, after the configured
// latency. Close waits for all such goroutines.
func (e *Engine) run(fn func()) {
	e.wg.Add(1)

	go func() {
		defer e.wg.Done()

		if e.latency > 0 {
			time.Sleep(e.latency)
		}

		fn()
	}()
}

// submitRequest drives the callback sequence shared by all requests: start,
// any queued temporary errors, an injected failure if one is pending,
// otherwise fn, then the terminal finish. The listener is never invoked with
// e.mu held.
func (e *Engine) submitRequest(l engine.RequestListener, req *request, fn func(req *request) engine.Status) {
	e.run(func() {
		l.OnRequestStart(req)

		e.mu.Lock()
		pending := e.tempErrs
		e.tempErrs = nil
		e.mu.Unlock()

		for _, st := range pending {
			l.OnRequestTemporaryError(req, st)
		}

		st := e.takeRequestFailure()
		if st.OK() {
			st = fn(req)
		}

		e.finishRequest(l, req, st)
	})
}

func (e *Engine) takeRequestFailure() engine.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.reqFailures) == 0 {
		return statusOK
	}

	st := e.reqFailures[0]
	e.reqFailures = e.reqFailures[1:]

	return st
}

func (e *Engine) finishRequest(l engine.RequestListener, req *request, st engine.Status) {
	if !st.OK() {
		e.logger.Debug("memengine: request failed",
			slog.String("type", req.typ.String()),
			slog.String("status", st.String()))
	}

	l.OnRequestFinish(req, st)
	req.reset()
}

// readyLocked gates operations that need an authenticated session with a
// fetched filesystem.
func (e *Engine) readyLocked() engine.Status {
	if !e.loggedIn {
		return engine.Status{Code: CodeNotLoggedIn, Message: "not logged in"}
	}

	if !e.fsReady {
		return engine.Status{Code: CodeNotReady, Message: "filesystem not fetched"}
	}

	return statusOK
}

// Login authenticates the session. Any non-empty credential pair is
// accepted; use FailNextRequest to exercise authentication failures.
func (e *Engine) Login(email, password string, l engine.RequestListener) {
	req := &request{typ: engine.RequestLogin, email: email}

	e.submitRequest(l, req, func(req *request) engine.Status {
		if email == "" || password == "" {
			return engine.Status{Code: CodeBadArgument, Message: "missing credentials"}
		}

		e.mu.Lock()
		defer e.mu.Unlock()

		e.loggedIn = true
		e.account.Email = email

		return statusOK
	})
}

// Logout ends the session. The node tree is retained but lookups fail until
// the next login and fetch.
func (e *Engine) Logout(l engine.RequestListener) {
	e.submitRequest(l, &request{typ: engine.RequestLogout}, func(*request) engine.Status {
		e.mu.Lock()
		defer e.mu.Unlock()

		e.loggedIn = false
		e.fsReady = false

		return statusOK
	})
}

// FetchNodes makes the filesystem available for lookups.
func (e *Engine) FetchNodes(l engine.RequestListener) {
	e.submitRequest(l, &request{typ: engine.RequestFetchNodes}, func(*request) engine.Status {
		e.mu.Lock()
		defer e.mu.Unlock()

		if !e.loggedIn {
			return engine.Status{Code: CodeNotLoggedIn, Message: "not logged in"}
		}

		e.fsReady = true

		return statusOK
	})
}

// AccountDetails reports identity and quota. Storage use is computed from
// the live tree.
func (e *Engine) AccountDetails(l engine.RequestListener) {
	req := &request{typ: engine.RequestAccountDetails}

	e.submitRequest(l, req, func(req *request) engine.Status {
		e.mu.Lock()
		defer e.mu.Unlock()

		if !e.loggedIn {
			return engine.Status{Code: CodeNotLoggedIn, Message: "not logged in"}
		}

		det := e.account
		det.StorageUsed = usage(e.root)
		req.account = &det

		return statusOK
	})
}

// WhyBlocked reports the block state configured with WithBlockedReason.
func (e *Engine) WhyBlocked(l engine.RequestListener) {
	req := &request{typ: engine.RequestWhyBlocked}

	e.submitRequest(l, req, func(req *request) engine.Status {
		req.flag = e.blockedReason != ""
		req.text = e.blockedReason

		return statusOK
	})
}

// RetryConnections is a no-op for an in-memory engine.
func (e *Engine) RetryConnections(disconnect, includeTransfers bool, l engine.RequestListener) {
	req := &request{typ: engine.RequestRetryConnections, flag: disconnect}

	e.submitRequest(l, req, func(*request) engine.Status { return statusOK })
}

// request is the ephemeral engine.Request handed to listener callbacks. It
// is recycled after the terminal callback, so listeners that retain it past
// the callback observe zero values instead of stale results.
type request struct {
	typ     engine.RequestType
	handle  engine.Handle
	link    string
	email   string
	access  engine.AccessLevel
	flag    bool
	number  int64
	text    string
	account *engine.AccountDetails
	public  engine.Node
}

func (r *request) Type() engine.RequestType        { return r.typ }
func (r *request) NodeHandle() engine.Handle       { return r.handle }
func (r *request) Link() string                    { return r.link }
func (r *request) Email() string                   { return r.email }
func (r *request) Access() engine.AccessLevel      { return r.access }
func (r *request) Flag() bool                      { return r.flag }
func (r *request) Number() int64                   { return r.number }
func (r *request) Text() string                    { return r.text }
func (r *request) Account() *engine.AccountDetails { return r.account }
func (r *request) PublicNode() engine.Node         { return r.public }

func (r *request) reset() { *r = request{} }

// transfer is the ephemeral engine.Transfer handed to listener callbacks,
// recycled like request.
type transfer struct {
	typ         engine.TransferType
	path        string
	name        string
	handle      engine.Handle
	offset      int64
	size        int64
	transferred int64
	speed       int64
	streaming   bool
}

func (t *transfer) Type() engine.TransferType { return t.typ }
func (t *transfer) Path() string              { return t.path }
func (t *transfer) Name() string              { return t.name }
func (t *transfer) NodeHandle() engine.Handle { return t.handle }
func (t *transfer) Offset() int64             { return t.offset }
func (t *transfer) Size() int64               { return t.size }
func (t *transfer) Transferred() int64        { return t.transferred }
func (t *transfer) Speed() int64              { return t.speed }
func (t *transfer) Streaming() bool           { return t.streaming }

func (t *transfer) reset() { *t = transfer{} }
