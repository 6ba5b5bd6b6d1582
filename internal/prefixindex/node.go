package prefixindex

// lookupThreshold is the fan-out past which a node also keeps a map from
// rune to child. Below it a linear scan over edges is cheaper.
const lookupThreshold = 8

type edge struct {
	r rune
	n *node
}

// node is one code point along an inserted word. Children are kept in
// insertion order so traversal is deterministic.
type node struct {
	edges    []edge
	lookup   map[rune]*node
	terminal bool
	records  []Record
}

func newNode() *node {
	return &node{}
}

func (n *node) child(r rune) *node {
	if n.lookup != nil {
		return n.lookup[r]
	}
	for _, e := range n.edges {
		if e.r == r {
			return e.n
		}
	}
	return nil
}

func (n *node) addChild(r rune) *node {
	c := newNode()
	n.edges = append(n.edges, edge{r: r, n: c})
	switch {
	case n.lookup != nil:
		n.lookup[r] = c
	case len(n.edges) > lookupThreshold:
		n.lookup = make(map[rune]*node, len(n.edges))
		for _, e := range n.edges {
			n.lookup[e.r] = e.n
		}
	}
	return c
}

func (n *node) removeChild(r rune) {
	for i, e := range n.edges {
		if e.r != r {
			continue
		}
		n.edges = append(n.edges[:i], n.edges[i+1:]...)
		break
	}
	if n.lookup == nil {
		return
	}
	if len(n.edges) > lookupThreshold {
		delete(n.lookup, r)
		return
	}
	n.lookup = nil
}

func (n *node) recordIndex(id string) int {
	for i, rec := range n.records {
		if rec.ID == id {
			return i
		}
	}
	return -1
}
