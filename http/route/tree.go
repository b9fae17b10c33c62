package route

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/xy-planning-network/waypoint"
)

// IndexSegment is substituted for a missing segment
// and tried in place of a segment matching nothing.
const IndexSegment = "index"

// DefaultExtensions are the file extensions Scan treats as leaves when none are given.
var DefaultExtensions = []string{".go"}

type kind int

const (
	dirKind kind = iota
	leafKind
	opaqueKind
)

type node struct {
	kind     kind
	path     string
	children map[string]*node
	factory  Factory
}

func newDir(p string) *node {
	return &node{kind: dirKind, path: p, children: make(map[string]*node)}
}

// A Tree maps request paths to the Factory constructing the Unit handling them.
//
// A Tree is shaped like a directory: it holds directories, leaves and opaque entries.
// Build it once at startup with Register and Scan;
// after that, Resolve is safe for concurrent use.
type Tree struct {
	root *node
}

// NewTree constructs an empty *Tree.
func NewTree() *Tree {
	return &Tree{root: newDir("")}
}

// Register adds a leaf at p whose Units f constructs.
//
// Directories leading to p are created as needed.
// Register returns waypoint.ErrBadConfig if p is empty,
// if any part of p is already a leaf, if p is already a directory,
// or if a Factory is already registered at p.
func (t *Tree) Register(p string, f Factory) error {
	if f == nil {
		return fmt.Errorf("%w: nil factory for route %q", waypoint.ErrBadConfig, p)
	}

	segs := Segments(p)
	if len(segs) == 0 {
		return fmt.Errorf("%w: empty route", waypoint.ErrBadConfig)
	}

	dir, err := t.mkdirAll(segs[:len(segs)-1])
	if err != nil {
		return err
	}

	name := segs[len(segs)-1]
	leafPath := strings.Join(segs, "/")
	existing, ok := dir.children[name]
	switch {
	case !ok, existing.kind == opaqueKind:
		dir.children[name] = &node{kind: leafKind, path: leafPath, factory: f}
	case existing.kind == dirKind:
		return fmt.Errorf("%w: route %q is a directory", waypoint.ErrBadConfig, leafPath)
	case existing.factory != nil:
		return fmt.Errorf("%w: route %q already registered", waypoint.ErrBadConfig, leafPath)
	default:
		existing.factory = f
	}

	return nil
}

// Scan walks fsys once, adding every directory it finds,
// a leaf for every file whose extension is one of exts,
// and an opaque entry for every other file.
//
// A leaf is named by the file's stem: "admin/users.go" adds the leaf "admin/users".
// A file is also added as an opaque entry under its full name,
// so requests for "admin/users.go" are not found.
// A directory shadows a leaf of the same name, and a leaf shadows an opaque entry.
// Files sharing a stem add a single leaf.
//
// Leaves found by Scan need a Factory registered with Register; see Unbound.
func (t *Tree) Scan(fsys fs.FS, exts ...string) error {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if p == "." {
			return nil
		}

		segs := strings.Split(p, "/")
		parent, err := t.mkdirAll(segs[:len(segs)-1])
		if err != nil {
			return err
		}

		name := d.Name()
		if d.IsDir() {
			_, err := t.mkdirAll(segs)
			return err
		}

		if _, ok := parent.children[name]; !ok {
			parent.children[name] = &node{kind: opaqueKind, path: p}
		}

		ext := path.Ext(name)
		if !hasExt(exts, ext) {
			return nil
		}

		stem := strings.TrimSuffix(name, ext)
		existing, ok := parent.children[stem]
		if ok && existing.kind != opaqueKind {
			return nil
		}

		parent.children[stem] = &node{kind: leafKind, path: path.Join(path.Dir(p), stem)}
		return nil
	})
}

// Unbound lists leaves added by Scan that have no Factory registered.
func (t *Tree) Unbound() []string {
	var out []string
	t.walk(t.root, func(n *node) {
		if n.kind == leafKind && n.factory == nil {
			out = append(out, n.path)
		}
	})

	sort.Strings(out)
	return out
}

// Routes lists every leaf in t.
func (t *Tree) Routes() []string {
	var out []string
	t.walk(t.root, func(n *node) {
		if n.kind == leafKind {
			out = append(out, n.path)
		}
	})

	sort.Strings(out)
	return out
}

// Resolve walks t along the segments of p to the leaf handling it.
//
// Resolve descends into directories segment by segment,
// using IndexSegment once p runs out of segments, and stops at the first leaf.
// When a segment matches nothing, Resolve tries IndexSegment at the same depth instead,
// once, leaving the segment for the next depth.
// Resolve returns ErrNotFound when neither matches or a segment names an opaque entry.
//
// Segments are percent-decoded before they are compared to the names in t.
// "." and ".." segments are dropped, so p never reaches outside of t.
func (t *Tree) Resolve(p string) (*Match, error) {
	rest := Segments(p)
	n := t.root

	for {
		seg, consumed := IndexSegment, false
		if len(rest) > 0 {
			seg, consumed = unescape(rest[0]), true
		}

		child, ok := n.children[seg]
		if !ok && seg != IndexSegment {
			seg, consumed = IndexSegment, false
			child, ok = n.children[seg]
		}

		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, p)
		}

		if consumed {
			rest = rest[1:]
		}

		switch child.kind {
		case dirKind:
			n = child
		case leafKind:
			if child.factory == nil {
				return nil, fmt.Errorf("%w: %q has no factory", ErrNotFound, child.path)
			}

			if len(rest) == 0 {
				rest = nil
			}

			return &Match{Unit: child.path, Factory: child.factory, Segments: rest}, nil
		default:
			return nil, fmt.Errorf("%w: %q", ErrNotFound, child.path)
		}
	}
}

// Segments splits p on "/", dropping empty, "." and ".." segments.
func Segments(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".", "..":
			continue
		}

		out = append(out, seg)
	}

	return out
}

func (t *Tree) mkdirAll(segs []string) (*node, error) {
	n := t.root
	for i, seg := range segs {
		child, ok := n.children[seg]
		if !ok || child.kind == opaqueKind || (child.kind == leafKind && child.factory == nil) {
			child = newDir(strings.Join(segs[:i+1], "/"))
			n.children[seg] = child
		}

		if child.kind != dirKind {
			return nil, fmt.Errorf("%w: route %q is a leaf, not a directory", waypoint.ErrBadConfig, child.path)
		}

		n = child
	}

	return n, nil
}

func (t *Tree) walk(n *node, fn func(*node)) {
	fn(n)
	for _, child := range n.children {
		t.walk(child, fn)
	}
}

func hasExt(exts []string, ext string) bool {
	for _, e := range exts {
		if e == ext {
			return true
		}
	}

	return false
}
