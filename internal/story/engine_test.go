package story

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func mustDefault(t *testing.T) *Engine {
	t.Helper()
	e, err := Default()
	if err != nil {
		t.Fatalf("failed to compile default story: %v", err)
	}
	return e
}

func TestDefaultStoryShape(t *testing.T) {
	e := mustDefault(t)

	if e.StartNode() != "welcome" {
		t.Errorf("expected start node welcome, got %s", e.StartNode())
	}

	want := []string{"welcome", "riverside", "doors"}
	if got := e.NodeIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected nodes %v, got %v", want, got)
	}

	start := e.Start()
	if start.Art == "" {
		t.Error("expected start node to carry art")
	}
	if !strings.HasPrefix(start.Message, "WELCOME TO THE TREASURE LAND") {
		t.Errorf("unexpected start message %q", start.Message)
	}
	if !reflect.DeepEqual(start.Choices, map[string]string{"l": "left", "r": "right"}) {
		t.Errorf("unexpected start choices %v", start.Choices)
	}
}

func TestTransition(t *testing.T) {
	e := mustDefault(t)

	tests := []struct {
		name     string
		node     string
		choice   string
		wantNext string
		wantWon  bool
		wantOver bool
		wantMsg  string
	}{
		{name: "left to riverside", node: "welcome", choice: "l", wantNext: "riverside"},
		{name: "upper case normalized", node: "welcome", choice: "L", wantNext: "riverside"},
		{name: "right falls in hole", node: "welcome", choice: "r", wantOver: true, wantMsg: "You fall into the hole"},
		{name: "invalid at welcome", node: "welcome", choice: "x", wantOver: true, wantMsg: "Invalid choice. Game Over!"},
		{name: "full word is not a key", node: "welcome", choice: "left", wantOver: true, wantMsg: "Invalid choice. Game Over!"},
		{name: "empty choice", node: "welcome", choice: "", wantOver: true, wantMsg: "Invalid choice. Game Over!"},
		{name: "wait to doors", node: "riverside", choice: "w", wantNext: "doors"},
		{name: "swim to crocodiles", node: "riverside", choice: "s", wantOver: true, wantMsg: "Sorry, You have got attacked by the crocodiles"},
		{name: "yellow wins", node: "doors", choice: "y", wantOver: true, wantWon: true, wantMsg: "YOU WON!"},
		{name: "red burns", node: "doors", choice: "r", wantOver: true, wantMsg: "Ohoo! You got burned"},
		{name: "green loses", node: "doors", choice: "g", wantOver: true, wantMsg: "Game Over"},
		{name: "other door uses default fallback", node: "doors", choice: "b", wantOver: true, wantMsg: "Game Over"},
		{name: "unknown node", node: "nowhere", choice: "l", wantOver: true, wantMsg: InvalidStateMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.Transition(tt.node, tt.choice)

			if GameOver(out) != tt.wantOver {
				t.Fatalf("expected game over %v, got %v (%#v)", tt.wantOver, GameOver(out), out)
			}
			if Won(out) != tt.wantWon {
				t.Errorf("expected won %v, got %v", tt.wantWon, Won(out))
			}

			switch v := out.(type) {
			case Continue:
				if v.NextNode != tt.wantNext {
					t.Errorf("expected next node %s, got %s", tt.wantNext, v.NextNode)
				}
				if !Success(out) {
					t.Error("expected continue to be successful")
				}
				if len(v.Choices) == 0 {
					t.Error("expected continue to carry choices")
				}
			case Terminal:
				if !strings.HasPrefix(v.Message, tt.wantMsg) {
					t.Errorf("expected message prefix %q, got %q", tt.wantMsg, v.Message)
				}
				if Success(out) != tt.wantWon {
					t.Errorf("expected success %v, got %v", tt.wantWon, Success(out))
				}
			}
		})
	}
}

func TestTransitionDeterministic(t *testing.T) {
	e := mustDefault(t)
	for _, node := range e.NodeIDs() {
		for _, choice := range []string{"l", "r", "w", "s", "y", "g", "x", "Y"} {
			a := e.Transition(node, choice)
			b := e.Transition(node, choice)
			if !reflect.DeepEqual(a, b) {
				t.Errorf("transition(%s, %s) not deterministic: %#v vs %#v", node, choice, a, b)
			}
		}
	}
}

func TestTransitionDoesNotLeakGraph(t *testing.T) {
	e := mustDefault(t)

	out := e.Transition("welcome", "l").(Continue)
	out.Choices["z"] = "zap"

	again := e.Transition("welcome", "l").(Continue)
	if _, ok := again.Choices["z"]; ok {
		t.Error("mutating an outcome changed the graph")
	}
}

func TestOnlyStartCarriesArt(t *testing.T) {
	e := mustDefault(t)
	if c := e.Transition("welcome", "l").(Continue); c.Art != "" {
		t.Error("expected riverside to have no art")
	}
	if c := e.Transition("riverside", "w").(Continue); c.Art != "" {
		t.Error("expected doors to have no art")
	}
}

func TestNewRejectsMalformedGraphs(t *testing.T) {
	valid := func() *Graph {
		return &Graph{
			Version: 1,
			Start:   "a",
			Nodes: []Node{
				{ID: "a", Message: "A", Choices: []Choice{
					{Key: "n", Label: "next", Next: "b"},
				}},
				{ID: "b", Message: "B", Choices: []Choice{
					{Key: "w", Label: "win", End: EndingWin, Message: "won"},
				}},
			},
		}
	}

	if _, err := New(valid()); err != nil {
		t.Fatalf("expected valid graph to compile: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(g *Graph)
		errSub string
	}{
		{"missing start", func(g *Graph) { g.Start = "" }, "no start node"},
		{"unknown start", func(g *Graph) { g.Start = "zzz" }, "start node not found"},
		{"dangling target", func(g *Graph) { g.Nodes[0].Choices[0].Next = "zzz" }, "unknown node"},
		{"no choices", func(g *Graph) { g.Nodes[1].Choices = nil }, "no choices"},
		{"duplicate node", func(g *Graph) { g.Nodes[1].ID = "a" }, "duplicate story node"},
		{"long key", func(g *Graph) { g.Nodes[0].Choices[0].Key = "nx" }, "single character"},
		{"upper key", func(g *Graph) { g.Nodes[0].Choices[0].Key = "N" }, "lower case"},
		{"both next and end", func(g *Graph) { g.Nodes[0].Choices[0].End = EndingLose }, "both next and end"},
		{"neither next nor end", func(g *Graph) { g.Nodes[0].Choices[0].Next = "" }, "neither next nor end"},
		{"ending without message", func(g *Graph) { g.Nodes[1].Choices[0].Message = "" }, "no message"},
		{"unknown ending", func(g *Graph) { g.Nodes[1].Choices[0].End = "draw" }, "unknown ending"},
		{"duplicate key", func(g *Graph) {
			g.Nodes[1].Choices = append(g.Nodes[1].Choices, Choice{Key: "w", End: EndingLose, Message: "x"})
		}, "duplicate choice key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := valid()
			tt.mutate(g)
			_, err := New(g)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("expected error containing %q, got %v", tt.errSub, err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "story.yaml")
	doc := `version: 1
start: gate
nodes:
  - id: gate
    message: A gate.
    choices:
      - key: o
        label: open
        end: win
        message: Through the gate.
`
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatalf("failed to write story: %v", err)
	}

	e, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load story: %v", err)
	}
	if !Won(e.Transition("gate", "O")) {
		t.Error("expected win")
	}
}

func TestParseGraphRejectsVersion(t *testing.T) {
	if _, err := ParseGraph([]byte("version: 2\nstart: a\n")); err == nil {
		t.Error("expected unsupported version error")
	}
}
