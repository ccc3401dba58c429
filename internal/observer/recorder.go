// Package observer provides algo.Observer implementations for inspecting
// the constraint tree.
package observer

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/elektrokombinacija/mapf-cbs/internal/algo"
	"github.com/elektrokombinacija/mapf-cbs/internal/core"
)

// NodeRecord is a constraint tree node as seen by the Recorder.
type NodeRecord struct {
	algo.NodeInfo
	Expanded   bool
	IsSolution bool
	Conflict   *algo.Conflict // conflict the node branched on, if expanded
}

// Counts summarizes a recorded search.
type Counts struct {
	Generated        int
	Expanded         int
	Conflicts        int
	LowLevelSearches int
	FailedSearches   int
}

// Recorder keeps the constraint tree of a search. It is safe to read
// while the search is running.
type Recorder struct {
	mu sync.Mutex

	nodes    map[int]*NodeRecord
	children map[int][]int
	expanded []int
	current  int
	counts   Counts
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	r := &Recorder{}
	r.Reset()
	return r
}

// Reset clears the recorded tree.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nodes = make(map[int]*NodeRecord)
	r.children = make(map[int][]int)
	r.expanded = nil
	r.current = -1
	r.counts = Counts{}
}

// OnNodeExpanded implements algo.Observer.
func (r *Recorder) OnNodeExpanded(node algo.NodeInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := r.addLocked(node)
	rec.Expanded = true
	r.current = node.ID
	r.expanded = append(r.expanded, node.ID)
	r.counts.Expanded++
}

// OnConflictDetected implements algo.Observer.
func (r *Recorder) OnConflictDetected(conflict algo.Conflict) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counts.Conflicts++
	if rec, ok := r.nodes[r.current]; ok {
		rec.Conflict = &conflict
	}
}

// OnConstraintAdded implements algo.Observer.
func (r *Recorder) OnConstraintAdded(child algo.NodeInfo, _ algo.Constraint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addLocked(child)
}

// OnLowLevelSearch implements algo.Observer.
func (r *Recorder) OnLowLevelSearch(_ core.AgentID, found bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counts.LowLevelSearches++
	if !found {
		r.counts.FailedSearches++
	}
}

// OnSolutionFound implements algo.Observer. The node expanded last is the
// goal node.
func (r *Recorder) OnSolutionFound(core.Solution) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec, ok := r.nodes[r.current]; ok {
		rec.IsSolution = true
	}
}

func (r *Recorder) addLocked(node algo.NodeInfo) *NodeRecord {
	if rec, ok := r.nodes[node.ID]; ok {
		return rec
	}
	rec := &NodeRecord{NodeInfo: node}
	r.nodes[node.ID] = rec
	r.counts.Generated++
	if node.ParentID >= 0 {
		r.children[node.ParentID] = append(r.children[node.ParentID], node.ID)
	}
	return rec
}

// Nodes returns a copy of every recorded node ordered by ID.
func (r *Recorder) Nodes() []NodeRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]NodeRecord, 0, len(r.nodes))
	for _, rec := range r.nodes {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Expanded returns node IDs in expansion order.
func (r *Recorder) Expanded() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.expanded...)
}

// Children returns the IDs of the children of id in generation order.
func (r *Recorder) Children(id int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.children[id]...)
}

// Counts returns the event counters.
func (r *Recorder) Counts() Counts {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts
}

// WriteTree prints the recorded tree, one node per line, children
// indented under their parent.
func (r *Recorder) WriteTree(w io.Writer) error {
	nodes := r.Nodes()
	byID := make(map[int]NodeRecord, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	var walk func(id, depth int) error
	walk = func(id, depth int) error {
		n := byID[id]
		mark := " "
		switch {
		case n.IsSolution:
			mark = "*"
		case n.Expanded:
			mark = "-"
		}
		line := fmt.Sprintf("%s%s #%d cost=%d conflicts=%d", strings.Repeat("  ", depth), mark, n.ID, n.Cost, n.Conflicts)
		if k := len(n.Constraints); k > 0 {
			line += " +" + n.Constraints[k-1].String()
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		for _, c := range r.Children(id) {
			if err := walk(c, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, n := range nodes {
		if n.ParentID < 0 {
			if err := walk(n.ID, 0); err != nil {
				return err
			}
		}
	}
	return nil
}
