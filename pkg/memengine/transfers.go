package memengine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/skyvault/skyvault-go/engine"
)

func (e *Engine) takeTransferFailure() engine.Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.trFailures) == 0 {
		return statusOK
	}

	st := e.trFailures[0]
	e.trFailures = e.trFailures[1:]

	return st
}

func (e *Engine) finishTransfer(l engine.TransferListener, tr *transfer, st engine.Status) {
	if !st.OK() {
		e.logger.Debug("memengine: transfer failed",
			slog.String("name", tr.name),
			slog.String("status", st.String()))
	}

	l.OnTransferFinish(tr, st)
	tr.reset()
}

// Upload reads localPath and stores it under parent. A nil parent means the
// root; an empty name means the local base name. An existing file with the
// same name is replaced.
func (e *Engine) Upload(localPath string, parent engine.Node, name string, l engine.TransferListener) {
	if name == "" {
		name = filepath.Base(localPath)
	}

	e.run(func() {
		tr := &transfer{typ: engine.TransferUpload, path: localPath, name: name}
		l.OnTransferStart(tr)

		if st := e.takeTransferFailure(); !st.OK() {
			e.finishTransfer(l, tr, st)
			return
		}

		data, err := os.ReadFile(localPath)
		if err != nil {
			e.finishTransfer(l, tr, engine.Status{
				Code:    CodeLocalFile,
				Message: fmt.Sprintf("reading local file: %v", err),
			})
			return
		}

		tr.size = int64(len(data))

		e.mu.Lock()

		st := e.readyLocked()

		var p *node
		if st.OK() {
			p = e.root
			if parent != nil {
				p = e.resolveLocked(parent)
			}

			switch {
			case p == nil:
				st = engine.Status{Code: CodeNotFound, Message: "parent folder not found"}
			case !p.folder:
				st = engine.Status{Code: CodeBadArgument, Message: "parent is not a folder"}
			}
		}

		if st.OK() {
			if existing, ok := p.children[name]; ok && existing.folder {
				st = engine.Status{Code: CodeExists, Message: "a folder with that name exists"}
			}
		}

		if !st.OK() {
			e.mu.Unlock()
			e.finishTransfer(l, tr, st)
			return
		}

		n, ok := p.children[name]
		if ok {
			n.data = append([]byte(nil), data...)
			n.modTime = time.Now().UTC()
		} else {
			n = e.newNodeLocked(name, false, append([]byte(nil), data...))
			attachLocked(p, n)
		}
		tr.handle = n.handle

		e.mu.Unlock()

		if tr.size > 0 {
			tr.transferred = tr.size / 2
			tr.speed = tr.size
			l.OnTransferUpdate(tr)
		}

		tr.transferred = tr.size
		l.OnTransferUpdate(tr)

		e.finishTransfer(l, tr, statusOK)
	})
}

// Download writes a file node's content to localPath.
func (e *Engine) Download(node engine.Node, localPath string, l engine.TransferListener) {
	e.run(func() {
		tr := &transfer{typ: engine.TransferDownload, path: localPath}
		if node != nil {
			tr.handle = node.Handle()
			tr.name = node.Name()
		}

		l.OnTransferStart(tr)

		if st := e.takeTransferFailure(); !st.OK() {
			e.finishTransfer(l, tr, st)
			return
		}

		e.mu.Lock()

		st := e.readyLocked()

		var data []byte
		if st.OK() {
			n := e.resolveLocked(node)
			switch {
			case n == nil:
				st = engine.Status{Code: CodeNotFound, Message: "node not found"}
			case n.folder:
				st = engine.Status{Code: CodeBadArgument, Message: "node is a folder"}
			default:
				data = append([]byte(nil), n.data...)
				tr.name = n.name
			}
		}

		e.mu.Unlock()

		if !st.OK() {
			e.finishTransfer(l, tr, st)
			return
		}

		tr.size = int64(len(data))

		if err := os.WriteFile(localPath, data, 0o644); err != nil {
			e.finishTransfer(l, tr, engine.Status{
				Code:    CodeLocalFile,
				Message: fmt.Sprintf("writing local file: %v", err),
			})
			return
		}

		tr.transferred = tr.size
		tr.speed = tr.size
		l.OnTransferUpdate(tr)

		e.finishTransfer(l, tr, statusOK)
	})
}

// Stream delivers a byte range of a file node through OnTransferData in
// chunks of the configured chunk size. A negative size means to the end of
// the file.
func (e *Engine) Stream(node engine.Node, offset, size int64, l engine.TransferListener) {
	e.run(func() {
		tr := &transfer{typ: engine.TransferDownload, streaming: true, offset: offset, size: size}
		if node != nil {
			tr.handle = node.Handle()
			tr.name = node.Name()
		}

		l.OnTransferStart(tr)

		if st := e.takeTransferFailure(); !st.OK() {
			e.finishTransfer(l, tr, st)
			return
		}

		e.mu.Lock()

		st := e.readyLocked()

		var data []byte
		if st.OK() {
			n := e.resolveLocked(node)
			switch {
			case n == nil:
				st = engine.Status{Code: CodeNotFound, Message: "node not found"}
			case n.folder:
				st = engine.Status{Code: CodeBadArgument, Message: "node is a folder"}
			case offset < 0 || offset > n.size():
				st = engine.Status{Code: CodeBadArgument, Message: "offset out of range"}
			default:
				// Compare against the remainder rather than offset+size,
				// which can overflow for huge sizes.
				end := n.size()
				if size >= 0 && size < end-offset {
					end = offset + size
				}

				data = append([]byte(nil), n.data[offset:end]...)
				tr.name = n.name
			}
		}

		failAfter := e.streamFail
		e.streamFail = nil

		e.mu.Unlock()

		if !st.OK() {
			e.finishTransfer(l, tr, st)
			return
		}

		tr.size = int64(len(data))

		sent, chunks := 0, 0
		for sent < len(data) {
			if failAfter != nil && chunks >= failAfter.afterChunks {
				e.finishTransfer(l, tr, failAfter.status)
				return
			}

			end := min(sent+e.chunkSize, len(data))

			if !l.OnTransferData(tr, data[sent:end]) {
				e.finishTransfer(l, tr, engine.Status{Code: CodeAborted, Message: "transfer aborted"})
				return
			}

			// Chunk buffers are engine-owned and valid only during the
			// callback. Invalidate delivered bytes to catch listeners that
			// retain them.
			clear(data[sent:end])

			sent = end
			chunks++

			tr.transferred = int64(sent)
			l.OnTransferUpdate(tr)
		}

		if failAfter != nil {
			e.finishTransfer(l, tr, failAfter.status)
			return
		}

		e.finishTransfer(l, tr, statusOK)
	})
}
