package schedule

import (
	"context"
	"fmt"
	"sort"

	"github.com/specialistvlad/rcpgrid/internal/busregistry"
	"github.com/specialistvlad/rcpgrid/internal/ctxlog"
	"github.com/specialistvlad/rcpgrid/internal/descriptor"
	"github.com/specialistvlad/rcpgrid/internal/signalgraph"
)

// Build produces the execution steps for a resolved graph and its finalized
// bus transactions. Every descriptor of the graph appears in exactly one
// step.
func Build(ctx context.Context, g *signalgraph.Graph, txs []busregistry.Transaction) ([]Step, error) {
	logger := ctxlog.FromContext(ctx)
	descs := g.Descriptors()

	succ, err := orderingEdges(ctx, g, descs)
	if err != nil {
		return nil, err
	}
	if err := detectCycles(descs, succ); err != nil {
		return nil, err
	}

	txOf, rank, err := indexTransactions(g, descs, txs)
	if err != nil {
		return nil, err
	}

	indegree := make(map[string]int, len(descs))
	for _, targets := range succ {
		for _, to := range targets {
			indegree[to]++
		}
	}

	var ready []*descriptor.Descriptor
	for _, d := range descs {
		if indegree[d.ID()] == 0 {
			ready = append(ready, d)
		}
	}

	less := func(a, b *descriptor.Descriptor) bool {
		pa, pb := a.Timing().Priority, b.Timing().Priority
		if pa != pb {
			return pa < pb
		}
		return g.Position(a.ID()) < g.Position(b.ID())
	}

	holds := readerHolds(txs, succ)
	done := make(map[string]bool, len(descs))
	eligible := func(d *descriptor.Descriptor) bool {
		writer, held := holds[d.ID()]
		return !held || done[writer]
	}

	steps := make([]Step, 0, len(descs))
	for len(ready) > 0 {
		sort.SliceStable(ready, func(i, j int) bool { return less(ready[i], ready[j]) })
		next := ready[0]
		for _, d := range ready {
			if eligible(d) {
				next = d
				break
			}
		}

		var step Step
		var taken []*descriptor.Descriptor
		if tx, onBus := txOf[next.ID()]; onBus {
			step, taken = busStep(tx.Bus.Name, ready, txOf, rank, eligible, holds)
		} else {
			step = Step{Kind: BlockStep, Entries: []Entry{{Descriptor: next}}}
			taken = []*descriptor.Descriptor{next}
		}
		step.Index = len(steps)
		steps = append(steps, step)

		for _, d := range taken {
			done[d.ID()] = true
		}
		remaining := ready[:0]
		for _, d := range ready {
			if !done[d.ID()] {
				remaining = append(remaining, d)
			}
		}
		ready = remaining

		for _, d := range taken {
			for _, to := range succ[d.ID()] {
				indegree[to]--
				if indegree[to] == 0 {
					dd, _ := g.Descriptor(to)
					ready = append(ready, dd)
				}
			}
		}
	}

	scheduled := len(done)
	if scheduled != len(descs) {
		// Unreachable after detectCycles.
		return nil, fmt.Errorf("scheduled %d of %d blocks", scheduled, len(descs))
	}

	logger.Debug("Schedule built.", "steps", len(steps), "blocks", scheduled)
	return steps, nil
}

// orderingEdges returns, per producer, the consumers that must run after it.
// Wires into blocks without feedthrough impose no ordering.
func orderingEdges(ctx context.Context, g *signalgraph.Graph, descs []*descriptor.Descriptor) (map[string][]string, error) {
	succ := make(map[string][]string, len(descs))
	for _, d := range descs {
		if !d.Feedthrough() {
			continue
		}
		producers, err := g.DependenciesOf(ctx, d.ID())
		if err != nil {
			return nil, err
		}
		for _, p := range producers {
			succ[p] = append(succ[p], d.ID())
		}
	}
	return succ, nil
}

// detectCycles runs a depth-first search with temporary and permanent marks
// and reports the first loop found, walking blocks in declaration order.
func detectCycles(descs []*descriptor.Descriptor, succ map[string][]string) error {
	permanent := make(map[string]bool, len(descs))
	temporary := make(map[string]bool)
	var path []string

	var visit func(id string) error
	visit = func(id string) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			start := 0
			for i, p := range path {
				if p == id {
					start = i
					break
				}
			}
			cycle := append(append([]string{}, path[start:]...), id)
			return &CyclicDependencyError{Cycle: cycle}
		}

		temporary[id] = true
		path = append(path, id)
		for _, next := range succ[id] {
			if err := visit(next); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		delete(temporary, id)
		permanent[id] = true
		return nil
	}

	for _, d := range descs {
		if err := visit(d.ID()); err != nil {
			return err
		}
	}
	return nil
}

// indexTransactions maps block IDs to their transactions and remembers the
// finalize order. Each bus-bound block needs exactly one transaction.
func indexTransactions(g *signalgraph.Graph, descs []*descriptor.Descriptor, txs []busregistry.Transaction) (map[string]*busregistry.Transaction, map[string]int, error) {
	txOf := make(map[string]*busregistry.Transaction, len(txs))
	rank := make(map[string]int, len(txs))
	for i := range txs {
		tx := &txs[i]
		id := tx.Descriptor.ID()
		if d, ok := g.Descriptor(id); !ok || d != tx.Descriptor {
			return nil, nil, fmt.Errorf("bus transaction %s refers to a block outside the graph", tx)
		}
		if _, dup := txOf[id]; dup {
			return nil, nil, fmt.Errorf("block %q has more than one bus transaction", id)
		}
		txOf[id] = tx
		rank[id] = i
	}

	for _, d := range descs {
		if bus, onBus := d.Bus(); onBus {
			if _, ok := txOf[d.ID()]; !ok {
				return nil, nil, &descriptor.SchemaError{
					Block:  d.ID(),
					Kind:   d.Name(),
					Reason: fmt.Sprintf("bound to bus %s but has no registered transaction", bus),
				}
			}
		}
	}
	return txOf, rank, nil
}

// readerHolds pairs each bus reader with the writer of the same device so
// the reader waits until that writer has run. A pair is skipped when the
// reader already feeds the writer; the data dependency decides then. Holds
// are added in finalize order and never close a loop with the data edges.
func readerHolds(txs []busregistry.Transaction, succ map[string][]string) map[string]string {
	type slot struct {
		bus    string
		device int
	}
	writers := make(map[slot]string)
	for _, tx := range txs {
		if tx.Access == busregistry.Write {
			writers[slot{tx.Bus.Name, tx.DeviceID}] = tx.Descriptor.ID()
		}
	}

	edges := make(map[string][]string, len(succ))
	for from, to := range succ {
		edges[from] = append([]string(nil), to...)
	}

	holds := make(map[string]string)
	for _, tx := range txs {
		if tx.Access != busregistry.Read {
			continue
		}
		writer, ok := writers[slot{tx.Bus.Name, tx.DeviceID}]
		reader := tx.Descriptor.ID()
		if !ok || reaches(edges, reader, writer) {
			continue
		}
		holds[reader] = writer
		edges[writer] = append(edges[writer], reader)
	}
	return holds
}

func reaches(edges map[string][]string, from, to string) bool {
	seen := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == to {
			return true
		}
		for _, next := range edges[id] {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// busStep groups every eligible ready block on the named bus, plus held
// readers whose writer joins the same step: writers first, then readers,
// each in finalize order.
func busStep(bus string, ready []*descriptor.Descriptor, txOf map[string]*busregistry.Transaction, rank map[string]int, eligible func(*descriptor.Descriptor) bool, holds map[string]string) (Step, []*descriptor.Descriptor) {
	var members, held []*descriptor.Descriptor
	inStep := make(map[string]bool)
	for _, d := range ready {
		tx, ok := txOf[d.ID()]
		if !ok || tx.Bus.Name != bus {
			continue
		}
		if eligible(d) {
			members = append(members, d)
			inStep[d.ID()] = true
		} else {
			held = append(held, d)
		}
	}
	for _, d := range held {
		if inStep[holds[d.ID()]] {
			members = append(members, d)
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		a, b := txOf[members[i].ID()], txOf[members[j].ID()]
		if a.Access != b.Access {
			return a.Access == busregistry.Write
		}
		return rank[members[i].ID()] < rank[members[j].ID()]
	})

	step := Step{Kind: BusStep, Bus: bus, Entries: make([]Entry, 0, len(members))}
	for _, d := range members {
		step.Entries = append(step.Entries, Entry{Descriptor: d, Transaction: txOf[d.ID()]})
	}
	return step, members
}
