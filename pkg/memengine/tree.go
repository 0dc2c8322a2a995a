package memengine

import (
	"fmt"
	stdpath "path"
	"strings"
	"time"

	"github.com/skyvault/skyvault-go/engine"
)

// node is an entry in the tree. Access only with e.mu held; internal *node
// values never leave the lock, callers get nodeView snapshots.
type node struct {
	handle   engine.Handle
	name     string
	folder   bool
	data     []byte
	modTime  time.Time
	parent   *node
	children map[string]*node
	shares   map[string]engine.AccessLevel
}

func (n *node) size() int64 { return int64(len(n.data)) }

func (n *node) view() nodeView {
	return nodeView{
		handle:  n.handle,
		name:    n.name,
		size:    n.size(),
		folder:  n.folder,
		modTime: n.modTime,
	}
}

// nodeView is an immutable snapshot handed to callers as an engine.Node.
type nodeView struct {
	handle  engine.Handle
	name    string
	size    int64
	folder  bool
	modTime time.Time
}

func (v nodeView) Handle() engine.Handle { return v.handle }
func (v nodeView) Name() string          { return v.name }
func (v nodeView) Size() int64           { return v.size }
func (v nodeView) IsFolder() bool        { return v.folder }
func (v nodeView) ModTime() time.Time    { return v.modTime }

// NodeByHandle implements engine.Engine.
func (e *Engine) NodeByHandle(h engine.Handle) engine.Node {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.fsReady {
		return nil
	}

	n := e.byHandle[h]
	if n == nil {
		return nil
	}

	return n.view()
}

// NodeByPath implements engine.Engine. Paths are absolute, "/" is the root.
func (e *Engine) NodeByPath(path string) engine.Node {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.fsReady {
		return nil
	}

	n := e.walkLocked(path)
	if n == nil {
		return nil
	}

	return n.view()
}

// FilesystemReady implements engine.Engine.
func (e *Engine) FilesystemReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.fsReady
}

func (e *Engine) walkLocked(path string) *node {
	cleaned := stdpath.Clean("/" + path)
	if cleaned == "/" {
		return e.root
	}

	cur := e.root
	for _, part := range strings.Split(strings.TrimPrefix(cleaned, "/"), "/") {
		if cur == nil || !cur.folder {
			return nil
		}

		cur = cur.children[part]
	}

	return cur
}

// resolveLocked maps a caller-supplied node back to the engine's internal
// record. Returns nil for nil nodes and unknown handles.
func (e *Engine) resolveLocked(n engine.Node) *node {
	if n == nil {
		return nil
	}

	return e.byHandle[n.Handle()]
}

func (e *Engine) newNodeLocked(name string, folder bool, data []byte) *node {
	e.nextHandle++

	n := &node{
		handle:  e.nextHandle,
		name:    name,
		folder:  folder,
		data:    data,
		modTime: time.Now().UTC(),
	}
	if folder {
		n.children = make(map[string]*node)
	}

	e.byHandle[n.handle] = n

	return n
}

func attachLocked(parent, n *node) {
	n.parent = parent
	parent.children[n.name] = n
}

func detachLocked(n *node) {
	if n.parent != nil {
		delete(n.parent.children, n.name)
		n.parent = nil
	}
}

// removeLocked detaches n and forgets it and all descendants, including any
// public links pointing into the removed subtree.
func (e *Engine) removeLocked(n *node) {
	detachLocked(n)
	e.forgetLocked(n)
}

func (e *Engine) forgetLocked(n *node) {
	delete(e.byHandle, n.handle)

	for link, h := range e.links {
		if h == n.handle {
			delete(e.links, link)
		}
	}

	for _, c := range n.children {
		e.forgetLocked(c)
	}
}

// cloneLocked deep-copies a subtree under fresh handles, preserving content
// and modification times.
func (e *Engine) cloneLocked(src *node) *node {
	n := e.newNodeLocked(src.name, src.folder, nil)
	n.modTime = src.modTime

	if src.data != nil {
		n.data = append([]byte(nil), src.data...)
	}

	for _, c := range src.children {
		attachLocked(n, e.cloneLocked(c))
	}

	return n
}

// isDescendant reports whether n is inside the subtree rooted at of,
// including n == of.
func isDescendant(n, of *node) bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur == of {
			return true
		}
	}

	return false
}

func usage(n *node) int64 {
	total := n.size()
	for _, c := range n.children {
		total += usage(c)
	}

	return total
}

// SeedFolder creates the folder at path, making parents as needed. It is a
// provisioning helper for tests and bypasses the request callback flow.
func (e *Engine) SeedFolder(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, err := e.mkdirAllLocked(path)

	return err
}

// SeedFile creates or replaces the file at path with data, making parent
// folders as needed, and returns the file's handle.
func (e *Engine) SeedFile(path string, data []byte) (engine.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cleaned := stdpath.Clean("/" + path)

	dir, name := stdpath.Split(cleaned)
	if name == "" {
		return 0, fmt.Errorf("memengine: %q: missing file name", path)
	}

	parent, err := e.mkdirAllLocked(dir)
	if err != nil {
		return 0, err
	}

	if existing, ok := parent.children[name]; ok {
		if existing.folder {
			return 0, fmt.Errorf("memengine: %s: is a folder", cleaned)
		}

		existing.data = append([]byte(nil), data...)
		existing.modTime = time.Now().UTC()

		return existing.handle, nil
	}

	n := e.newNodeLocked(name, false, append([]byte(nil), data...))
	attachLocked(parent, n)

	return n.handle, nil
}

func (e *Engine) mkdirAllLocked(path string) (*node, error) {
	cleaned := stdpath.Clean("/" + path)
	if cleaned == "/" {
		return e.root, nil
	}

	cur := e.root
	for _, part := range strings.Split(strings.TrimPrefix(cleaned, "/"), "/") {
		next, ok := cur.children[part]
		if !ok {
			next = e.newNodeLocked(part, true, nil)
			attachLocked(cur, next)
		} else if !next.folder {
			return nil, fmt.Errorf("memengine: %s: not a folder", part)
		}

		cur = next
	}

	return cur, nil
}
