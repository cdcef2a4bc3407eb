package streamteam

import (
	"fmt"
	"log"
	"strings"
)

// Processor is a single node in a SingleElementProcessorGraph: it consumes
// one element and produces zero or more. Filters, stores and detectors are
// all processors; the graph never knows which kind a node is — per design
// note 9, this is a tagged-variant-free polymorphism that avoids an
// inheritance hierarchy.
type Processor interface {
	Name() string
	Process(matchID string, e Element) ([]Element, error)
}

// WindowProcessor is the root of a WindowProcessorGraph: invoked on a
// wall-clock tick rather than on an input element, it produces zero or
// more elements that then traverse the same processor subgraph as any
// other root.
type WindowProcessor interface {
	Name() string
	Window(matchID string) ([]Element, error)
}

// ProcessorFunc adapts a plain function to Processor.
type ProcessorFunc struct {
	FuncName string
	Fn       func(matchID string, e Element) ([]Element, error)
}

func (f ProcessorFunc) Name() string { return f.FuncName }
func (f ProcessorFunc) Process(matchID string, e Element) ([]Element, error) {
	return f.Fn(matchID, e)
}

// Node is one vertex of the processor DAG: a processor plus its ordered
// children. Children are visited depth-first, in the order they were
// added.
type Node struct {
	ID        string
	Processor Processor
	Children  []*Node
}

// WindowNode is one root of a WindowProcessorGraph.
type WindowNode struct {
	ID        string
	Processor WindowProcessor
	Children  []*Node
}

// AddChild wires a new child processor under n, returning the child node
// so call sites can keep wiring further down the same branch.
func (n *Node) AddChild(id string, p Processor) *Node {
	child := &Node{ID: id, Processor: p}
	n.Children = append(n.Children, child)
	return child
}

// AddChild wires a new child processor under a window root.
func (n *WindowNode) AddChild(id string, p Processor) *Node {
	child := &Node{ID: id, Processor: p}
	n.Children = append(n.Children, child)
	return child
}

// Graph is a SingleElementProcessorGraph: a rooted DAG — one root per
// input-stream filter — traversed depth-first for every input element.
type Graph struct {
	Roots  []*Node
	Logger *log.Logger
}

// NewGraph constructs an empty graph logging drops to the default logger.
func NewGraph() *Graph {
	return &Graph{Logger: log.Default()}
}

// AddRoot adds a new root processor (conventionally a FilterModule gating
// on stream name) to the graph.
func (g *Graph) AddRoot(id string, p Processor) *Node {
	root := &Node{ID: id, Processor: p}
	g.Roots = append(g.Roots, root)
	return root
}

// Process routes e through every root, depth-first. Per-element processor
// errors are logged (naming the stream, key and reason per spec.md §7)
// and the offending branch is dropped; sibling branches and other roots
// still run.
func (g *Graph) Process(matchID string, e Element) {
	for _, root := range g.Roots {
		g.processNode(root, matchID, e)
	}
}

func (g *Graph) processNode(n *Node, matchID string, e Element) {
	outputs, err := n.Processor.Process(matchID, e)
	if err != nil {
		g.logDrop(n.ID, e, err)
		return
	}
	for _, out := range outputs {
		for _, child := range n.Children {
			g.processNode(child, matchID, out)
		}
	}
}

func (g *Graph) logDrop(node string, e Element, err error) {
	logger := g.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("dropped element: node=%s stream=%s key=%s reason=%v", node, e.StreamName(), e.Key(), err)
}

// Render produces an ASCII visualization of the graph for debugging,
// generated from the typed node structure rather than built up as a
// construction-time string side effect.
func (g *Graph) Render() string {
	var b strings.Builder
	for _, root := range g.Roots {
		renderNode(&b, root, 0)
	}
	return b.String()
}

func renderNode(b *strings.Builder, n *Node, depth int) {
	fmt.Fprintf(b, "%s- %s\n", strings.Repeat("  ", depth), n.ID)
	for _, c := range n.Children {
		renderNode(b, c, depth+1)
	}
}

// WindowGraph is a WindowProcessorGraph: identical to Graph except its
// roots have no input element — they're invoked by the worker's periodic
// tick — and feed whatever they produce into the same kind of
// single-element subgraph.
type WindowGraph struct {
	Roots  []*WindowNode
	Logger *log.Logger
}

// NewWindowGraph constructs an empty window graph.
func NewWindowGraph() *WindowGraph {
	return &WindowGraph{Logger: log.Default()}
}

// AddRoot adds a new window-triggered root to the graph.
func (g *WindowGraph) AddRoot(id string, p WindowProcessor) *WindowNode {
	root := &WindowNode{ID: id, Processor: p}
	g.Roots = append(g.Roots, root)
	return root
}

// Tick invokes every root's Window method for matchID and routes whatever
// they produce through their child subgraphs, depth-first.
func (g *WindowGraph) Tick(matchID string) {
	for _, root := range g.Roots {
		outputs, err := root.Processor.Window(matchID)
		if err != nil {
			g.logDrop(root.ID, matchID, err)
			continue
		}
		helper := &Graph{Logger: g.Logger}
		for _, out := range outputs {
			for _, child := range root.Children {
				helper.processNode(child, matchID, out)
			}
		}
	}
}

func (g *WindowGraph) logDrop(node, matchID string, err error) {
	logger := g.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("dropped window tick: node=%s key=%s reason=%v", node, matchID, err)
}

// Render produces an ASCII visualization of the window graph.
func (g *WindowGraph) Render() string {
	var b strings.Builder
	for _, root := range g.Roots {
		fmt.Fprintf(&b, "- %s (window)\n", root.ID)
		for _, c := range root.Children {
			renderNode(&b, c, 1)
		}
	}
	return b.String()
}
