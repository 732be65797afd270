package story

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Engine evaluates choices against a compiled, read-only story graph.
// An Engine is safe for concurrent use.
type Engine struct {
	start string
	nodes map[string]*compiledNode
	order []string
}

type compiledNode struct {
	node    Node
	choices map[string]Choice
	labels  map[string]string
}

// View is the client-facing rendering of a node.
type View struct {
	NodeID  string
	Message string
	Prompt  string
	Art     string
	Choices map[string]string
}

// New validates g and compiles it into an Engine. A graph with a missing
// start node, dangling targets, or a node without choices is rejected.
func New(g *Graph) (*Engine, error) {
	if g == nil {
		return nil, errors.New("story graph is nil")
	}
	if g.Start == "" {
		return nil, errors.New("story graph has no start node")
	}

	e := &Engine{
		start: g.Start,
		nodes: make(map[string]*compiledNode, len(g.Nodes)),
	}

	for _, n := range g.Nodes {
		if n.ID == "" {
			return nil, errors.New("story node with empty id")
		}
		if _, dup := e.nodes[n.ID]; dup {
			return nil, fmt.Errorf("duplicate story node: %s", n.ID)
		}
		if len(n.Choices) == 0 {
			return nil, fmt.Errorf("story node %s has no choices", n.ID)
		}

		cn := &compiledNode{
			node:    n,
			choices: make(map[string]Choice, len(n.Choices)),
			labels:  make(map[string]string, len(n.Choices)),
		}
		for _, c := range n.Choices {
			if err := validateChoice(n.ID, c); err != nil {
				return nil, err
			}
			if _, dup := cn.choices[c.Key]; dup {
				return nil, fmt.Errorf("story node %s: duplicate choice key %q", n.ID, c.Key)
			}
			cn.choices[c.Key] = c
			cn.labels[c.Key] = c.Label
		}
		e.nodes[n.ID] = cn
		e.order = append(e.order, n.ID)
	}

	if _, ok := e.nodes[g.Start]; !ok {
		return nil, fmt.Errorf("story start node not found: %s", g.Start)
	}

	for _, id := range e.order {
		for _, c := range e.nodes[id].choices {
			if c.Next == "" {
				continue
			}
			if _, ok := e.nodes[c.Next]; !ok {
				return nil, fmt.Errorf("story node %s: choice %q targets unknown node %s", id, c.Key, c.Next)
			}
		}
	}

	return e, nil
}

func validateChoice(nodeID string, c Choice) error {
	if utf8.RuneCountInString(c.Key) != 1 {
		return fmt.Errorf("story node %s: choice key %q must be a single character", nodeID, c.Key)
	}
	if strings.ToLower(c.Key) != c.Key {
		return fmt.Errorf("story node %s: choice key %q must be lower case", nodeID, c.Key)
	}

	switch c.End {
	case EndingNone:
		if c.Next == "" {
			return fmt.Errorf("story node %s: choice %q has neither next nor end", nodeID, c.Key)
		}
	case EndingWin, EndingLose:
		if c.Next != "" {
			return fmt.Errorf("story node %s: choice %q has both next and end", nodeID, c.Key)
		}
		if c.Message == "" {
			return fmt.Errorf("story node %s: ending choice %q has no message", nodeID, c.Key)
		}
	default:
		return fmt.Errorf("story node %s: choice %q has unknown ending %q", nodeID, c.Key, c.End)
	}
	return nil
}

// StartNode returns the id of the node every session starts at.
func (e *Engine) StartNode() string {
	return e.start
}

// HasNode reports whether nodeID exists in the graph.
func (e *Engine) HasNode(nodeID string) bool {
	_, ok := e.nodes[nodeID]
	return ok
}

// NodeIDs returns node ids in document order.
func (e *Engine) NodeIDs() []string {
	return append([]string(nil), e.order...)
}

// View renders the node with the given id.
func (e *Engine) View(nodeID string) (View, bool) {
	cn, ok := e.nodes[nodeID]
	if !ok {
		return View{}, false
	}
	return cn.view(), true
}

// Start renders the start node.
func (e *Engine) Start() View {
	return e.nodes[e.start].view()
}

// Transition decides the outcome of rawChoice submitted at currentNode.
// Unrecognized input is a lost game, not an error.
func (e *Engine) Transition(currentNode, rawChoice string) Outcome {
	cn, ok := e.nodes[currentNode]
	if !ok {
		return Terminal{Message: InvalidStateMessage}
	}

	c, ok := cn.choices[strings.ToLower(rawChoice)]
	if !ok {
		return Terminal{Message: cn.fallback()}
	}

	if c.End != EndingNone {
		return Terminal{Message: c.Message, Won: c.End == EndingWin}
	}

	v := e.nodes[c.Next].view()
	return Continue{
		NextNode: v.NodeID,
		Message:  v.Message,
		Prompt:   v.Prompt,
		Art:      v.Art,
		Choices:  v.Choices,
	}
}

func (cn *compiledNode) fallback() string {
	if cn.node.Fallback != "" {
		return cn.node.Fallback
	}
	return DefaultFallback
}

func (cn *compiledNode) view() View {
	labels := make(map[string]string, len(cn.labels))
	for k, v := range cn.labels {
		labels[k] = v
	}
	return View{
		NodeID:  cn.node.ID,
		Message: cn.node.Message,
		Prompt:  cn.node.Prompt,
		Art:     cn.node.Art,
		Choices: labels,
	}
}
