package memengine

import (
	"strings"

	"github.com/google/uuid"

	"github.com/skyvault/skyvault-go/engine"
)

// CreateFolder creates a folder under parent. A nil parent means the root.
// On success the request's node handle is the created folder.
func (e *Engine) CreateFolder(name string, parent engine.Node, l engine.RequestListener) {
	req := &request{typ: engine.RequestCreateFolder, text: name}
	if parent != nil {
		req.handle = parent.Handle()
	}

	e.submitRequest(l, req, func(req *request) engine.Status {
		e.mu.Lock()
		defer e.mu.Unlock()

		if st := e.readyLocked(); !st.OK() {
			return st
		}

		if name == "" || strings.Contains(name, "/") {
			return engine.Status{Code: CodeBadArgument, Message: "invalid folder name"}
		}

		p := e.root
		if parent != nil {
			p = e.resolveLocked(parent)
		}

		switch {
		case p == nil:
			return engine.Status{Code: CodeNotFound, Message: "parent folder not found"}
		case !p.folder:
			return engine.Status{Code: CodeBadArgument, Message: "parent is not a folder"}
		}

		if _, exists := p.children[name]; exists {
			return engine.Status{Code: CodeExists, Message: "name already exists"}
		}

		n := e.newNodeLocked(name, true, nil)
		attachLocked(p, n)
		req.handle = n.handle

		return statusOK
	})
}

// Remove deletes a node and its subtree.
func (e *Engine) Remove(node engine.Node, l engine.RequestListener) {
	req := &request{typ: engine.RequestRemove}
	if node != nil {
		req.handle = node.Handle()
	}

	e.submitRequest(l, req, func(req *request) engine.Status {
		e.mu.Lock()
		defer e.mu.Unlock()

		if st := e.readyLocked(); !st.OK() {
			return st
		}

		n := e.resolveLocked(node)
		switch {
		case n == nil:
			return engine.Status{Code: CodeNotFound, Message: "node not found"}
		case n == e.root:
			return engine.Status{Code: CodeAccessDenied, Message: "cannot remove the root folder"}
		}

		e.removeLocked(n)

		return statusOK
	})
}

// Move reparents a node under newParent, keeping its name.
func (e *Engine) Move(node, newParent engine.Node, l engine.RequestListener) {
	req := &request{typ: engine.RequestMove}
	if node != nil {
		req.handle = node.Handle()
	}

	e.submitRequest(l, req, func(req *request) engine.Status {
		e.mu.Lock()
		defer e.mu.Unlock()

		if st := e.readyLocked(); !st.OK() {
			return st
		}

		n := e.resolveLocked(node)
		p := e.resolveLocked(newParent)

		switch {
		case n == nil:
			return engine.Status{Code: CodeNotFound, Message: "node not found"}
		case p == nil:
			return engine.Status{Code: CodeNotFound, Message: "target folder not found"}
		case n == e.root:
			return engine.Status{Code: CodeAccessDenied, Message: "cannot move the root folder"}
		case !p.folder:
			return engine.Status{Code: CodeBadArgument, Message: "target is not a folder"}
		case isDescendant(p, n):
			return engine.Status{Code: CodeBadArgument, Message: "cannot move a folder into itself"}
		}

		if sibling, exists := p.children[n.name]; exists && sibling != n {
			return engine.Status{Code: CodeExists, Message: "name already exists in target"}
		}

		detachLocked(n)
		attachLocked(p, n)

		return statusOK
	})
}

// Copy deep-copies a node's subtree under newParent. On success the
// request's node handle is the new copy.
func (e *Engine) Copy(node, newParent engine.Node, l engine.RequestListener) {
	req := &request{typ: engine.RequestCopy}
	if node != nil {
		req.handle = node.Handle()
	}

	e.submitRequest(l, req, func(req *request) engine.Status {
		e.mu.Lock()
		defer e.mu.Unlock()

		if st := e.readyLocked(); !st.OK() {
			return st
		}

		n := e.resolveLocked(node)
		p := e.resolveLocked(newParent)

		switch {
		case n == nil:
			return engine.Status{Code: CodeNotFound, Message: "node not found"}
		case p == nil:
			return engine.Status{Code: CodeNotFound, Message: "target folder not found"}
		case !p.folder:
			return engine.Status{Code: CodeBadArgument, Message: "target is not a folder"}
		}

		if _, exists := p.children[n.name]; exists {
			return engine.Status{Code: CodeExists, Message: "name already exists in target"}
		}

		dup := e.cloneLocked(n)
		attachLocked(p, dup)
		req.handle = dup.handle

		return statusOK
	})
}

// Export creates a public link for a node. On success the request carries
// the link.
func (e *Engine) Export(node engine.Node, expireAt int64, writable, hosted bool, l engine.RequestListener) {
	req := &request{typ: engine.RequestExport, flag: writable, number: expireAt}
	if node != nil {
		req.handle = node.Handle()
	}

	e.submitRequest(l, req, func(req *request) engine.Status {
		e.mu.Lock()
		defer e.mu.Unlock()

		if st := e.readyLocked(); !st.OK() {
			return st
		}

		n := e.resolveLocked(node)
		if n == nil {
			return engine.Status{Code: CodeNotFound, Message: "node not found"}
		}

		link := "https://skyvault.example/p/" + uuid.NewString()
		e.links[link] = n.handle
		req.link = link

		return statusOK
	})
}

// Share grants email the given access level on a folder.
func (e *Engine) Share(node engine.Node, email string, level engine.AccessLevel, l engine.RequestListener) {
	req := &request{typ: engine.RequestShare, email: email, access: level}
	if node != nil {
		req.handle = node.Handle()
	}

	e.submitRequest(l, req, func(req *request) engine.Status {
		e.mu.Lock()
		defer e.mu.Unlock()

		if st := e.readyLocked(); !st.OK() {
			return st
		}

		n := e.resolveLocked(node)

		switch {
		case n == nil:
			return engine.Status{Code: CodeNotFound, Message: "node not found"}
		case !n.folder:
			return engine.Status{Code: CodeBadArgument, Message: "only folders can be shared"}
		case email == "":
			return engine.Status{Code: CodeBadArgument, Message: "missing email"}
		}

		if n.shares == nil {
			n.shares = make(map[string]engine.AccessLevel)
		}
		n.shares[email] = level

		return statusOK
	})
}

// PublicNode resolves a link minted by Export. It works without a fetched
// filesystem, matching public-link semantics.
func (e *Engine) PublicNode(link string, l engine.RequestListener) {
	req := &request{typ: engine.RequestPublicNode, link: link}

	e.submitRequest(l, req, func(req *request) engine.Status {
		e.mu.Lock()
		defer e.mu.Unlock()

		h, ok := e.links[link]
		if !ok {
			return engine.Status{Code: CodeNotFound, Message: "unknown public link"}
		}

		n := e.byHandle[h]
		if n == nil {
			return engine.Status{Code: CodeNotFound, Message: "node no longer exists"}
		}

		req.handle = n.handle
		req.public = n.view()

		return statusOK
	})
}
