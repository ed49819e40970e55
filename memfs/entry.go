package memfs

// entry is the transient, resolution-time view of a position in the
// tree (spec §3 "Entry"): a name, the entry above it, and the node it
// currently names. Resolution threads a chain of entries rather than
// node pointers, so a hard-linked directory can never be mistaken for
// its own ancestor: the chain is built fresh on every resolve and only
// ever grows toward the root that was actually walked to reach it.
type entry struct {
	name   string
	parent *entry
	file   node
}

// path reconstructs the absolute path the entry chain was built from.
func (e *entry) path() string {
	if e.parent == nil {
		return "/"
	}

	var segs []string
	for cur := e; cur.parent != nil; cur = cur.parent {
		segs = append(segs, cur.name)
	}

	total := 0
	for _, s := range segs {
		total += len(s) + 1
	}

	buf := make([]byte, 0, total)
	for i := len(segs) - 1; i >= 0; i-- {
		buf = append(buf, '/')
		buf = append(buf, segs[i]...)
	}

	return string(buf)
}

// dir returns the entry's node as a directory, which it always is except
// transiently for the last entry produced while resolving a non-directory
// leaf.
func (e *entry) dir() (*dirNode, bool) {
	d, ok := e.file.(*dirNode)
	return d, ok
}
