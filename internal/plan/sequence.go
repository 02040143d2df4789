package plan

import (
	"slices"
	"strings"

	"schemac/internal/core"
)

// Sequence orders statements so that every dependency hint is honored:
//   - a provider of a key runs before statements that require or reference it,
//   - statements that read a key run before the statement dropping it,
//   - a drop of a key runs before the next statement providing it again,
//   - a statement that needs a key after its drop, with no later provider,
//     is moved before the drop.
//
// Among statements that are ready, the one with the lowest Order runs first,
// so input order is kept wherever no dependency forces a change and the
// same input always yields the same output. Weak references that nothing
// in the batch provides are returned as unresolved.
func Sequence(stmts []Statement) ([]Statement, []string, error) {
	n := len(stmts)
	if n == 0 {
		return nil, nil, nil
	}

	byOrder := slices.Clone(stmts)
	slices.SortStableFunc(byOrder, func(a, b Statement) int { return a.Order - b.Order })

	g := newGraph(n)
	unresolved := g.link(byOrder)

	out := make([]Statement, 0, n)
	done := make([]bool, n)
	for len(out) < n {
		next := -1
		for i := range n {
			if !done[i] && g.indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, nil, core.Errorf(core.ErrInconsistentRequest, "", "statement order",
				"dependency cycle between statements: %s", strings.Join(g.pending(byOrder, done), "; "))
		}
		done[next] = true
		out = append(out, byOrder[next])
		for _, to := range g.edges[next] {
			g.indegree[to]--
		}
	}
	return out, unresolved, nil
}

type graph struct {
	edges    [][]int
	indegree []int
	seen     map[[2]int]bool
}

func newGraph(n int) *graph {
	return &graph{
		edges:    make([][]int, n),
		indegree: make([]int, n),
		seen:     make(map[[2]int]bool),
	}
}

func (g *graph) add(from, to int) {
	if from == to || from < 0 || to < 0 {
		return
	}
	if g.seen[[2]int{from, to}] {
		return
	}
	g.seen[[2]int{from, to}] = true
	g.edges[from] = append(g.edges[from], to)
	g.indegree[to]++
}

// keyState tracks one key while statements are scanned in order.
type keyState struct {
	provider int
	dropper  int
	readers  []int
	// forward holds readers bound to a provider that comes later in input
	// order, keyed by that provider.
	forward map[int][]int
}

// link derives edges from the hints. Keys are processed in sorted order
// so the edge set does not depend on map iteration.
func (g *graph) link(stmts []Statement) []string {
	providers := make(map[string][]int)
	droppers := make(map[string][]int)
	for i, s := range stmts {
		for _, k := range s.Provides {
			providers[k] = append(providers[k], i)
		}
		for _, k := range s.Drops {
			droppers[k] = append(droppers[k], i)
		}
	}

	states := make(map[string]*keyState)
	state := func(k string) *keyState {
		st, ok := states[k]
		if !ok {
			st = &keyState{provider: -1, dropper: -1, forward: make(map[int][]int)}
			states[k] = st
		}
		return st
	}

	var unresolved []string
	reported := make(map[string]bool)

	read := func(i int, k string, weak bool) {
		st := state(k)
		if st.provider >= 0 {
			g.add(st.provider, i)
			st.readers = append(st.readers, i)
			return
		}
		if p := firstAfter(providers[k], i); p >= 0 && !between(droppers[k], i, p) {
			g.add(p, i)
			st.forward[p] = append(st.forward[p], i)
			return
		}
		if st.dropper >= 0 {
			// Read of a dropped key that is never provided again: it
			// belongs to the old generation and must run before the drop.
			g.add(i, st.dropper)
			return
		}
		if weak && !reported[k] {
			reported[k] = true
			unresolved = append(unresolved, k)
		}
		st.readers = append(st.readers, i)
	}

	for i, s := range stmts {
		for _, k := range sortedKeys(s.Requires) {
			read(i, k, false)
		}
		for _, k := range sortedKeys(s.References) {
			read(i, k, true)
		}
		for _, k := range sortedKeys(s.Drops) {
			st := state(k)
			for _, r := range st.readers {
				g.add(r, i)
			}
			g.add(st.provider, i)
			st.dropper = i
			st.provider = -1
			st.readers = nil
		}
		for _, k := range sortedKeys(s.Provides) {
			st := state(k)
			g.add(st.dropper, i)
			st.provider = i
			st.readers = st.forward[i]
		}
	}
	return unresolved
}

func (g *graph) pending(stmts []Statement, done []bool) []string {
	var out []string
	for i, s := range stmts {
		if !done[i] {
			out = append(out, firstLine(s.SQL))
		}
	}
	return out
}

func firstAfter(idx []int, i int) int {
	for _, p := range idx {
		if p > i {
			return p
		}
	}
	return -1
}

// between reports whether any index lies in [lo, hi).
func between(idx []int, lo, hi int) bool {
	for _, d := range idx {
		if d >= lo && d < hi {
			return true
		}
	}
	return false
}

func sortedKeys(keys []string) []string {
	if len(keys) < 2 {
		return keys
	}
	out := slices.Clone(keys)
	slices.Sort(out)
	return slices.Compact(out)
}

func firstLine(s string) string {
	if line, _, ok := strings.Cut(s, "\n"); ok {
		return line + " ..."
	}
	return s
}
