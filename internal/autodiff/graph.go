// Package autodiff implements reverse-mode automatic differentiation over a
// per-pass graph arena.
//
// A Graph records one Node per differentiable operation while the forward
// pass runs. Backward walks the recorded nodes in reverse execution order,
// which is a reverse topological order, and adds the resulting gradients
// into the accumulators of leaf tensors that require gradients.
//
// Usage:
//
//	g := autodiff.NewGraph()
//	defer g.Release()
//
//	h, _ := g.Linear(x, w, b)
//	logp, _ := g.LogSoftmax(h)
//	loss, _ := g.NLLLoss(logp, labels)
//	if err := g.Backward(loss); err != nil {
//	    return err
//	}
//	// w.Grad(), b.Grad() now hold dLoss/dw, dLoss/db
package autodiff

import (
	"github.com/born-ml/backprop/internal/autodiff/ops"
	"github.com/born-ml/backprop/internal/tensor"
)

// Node is one recorded operation instance. It references, but does not own,
// the operation's input tensors.
type Node struct {
	seq int
	op  ops.Operation
}

// Seq returns the node's position in execution order.
func (n *Node) Seq() int {
	return n.seq
}

// Op returns the recorded operation.
func (n *Node) Op() ops.Operation {
	return n.op
}

// Kind returns the recorded operation kind.
func (n *Node) Kind() ops.Kind {
	return n.op.Kind()
}

// Graph is the arena for one forward pass. Create one per batch, run the
// forward pass through its methods, call Backward once, then drop it.
//
// A nil *Graph is a valid context that never records, so inference code
// can pass nil instead of a graph.
type Graph struct {
	nodes     []*Node                  // Recorded nodes (in execution order)
	producers map[*tensor.Tensor]*Node // Output tensor -> producing node
	recording bool
	released  bool
}

// NewGraph creates an empty graph with recording enabled.
func NewGraph() *Graph {
	return &Graph{
		nodes:     make([]*Node, 0, 16),
		producers: make(map[*tensor.Tensor]*Node),
		recording: true,
	}
}

// Recording reports whether operations run through g are currently recorded.
func (g *Graph) Recording() bool {
	return g != nil && g.recording && !g.released
}

// Len returns the number of recorded nodes.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}

// Nodes returns the recorded nodes in execution order.
func (g *Graph) Nodes() []*Node {
	if g == nil {
		return nil
	}
	return g.nodes
}

// Producer returns the node that produced t, or nil if t is a leaf or was
// produced while recording was off.
func (g *Graph) Producer(t *tensor.Tensor) *Node {
	if g == nil {
		return nil
	}
	return g.producers[t]
}

// Release drops every recorded node. The graph stops recording and any
// later Backward call fails with ErrNoGraph.
func (g *Graph) Release() {
	if g == nil {
		return
	}
	g.nodes = nil
	g.producers = nil
	g.released = true
	g.recording = false
}

// record adds op to the graph if recording is enabled.
func (g *Graph) record(op ops.Operation) {
	if !g.Recording() {
		return
	}
	node := &Node{seq: len(g.nodes), op: op}
	g.nodes = append(g.nodes, node)
	g.producers[op.Output()] = node
}
