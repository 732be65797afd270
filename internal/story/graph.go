package story

// Graph is the top-level story document loaded from YAML.
type Graph struct {
	Version int    `yaml:"version"`
	Start   string `yaml:"start"`
	Nodes   []Node `yaml:"nodes"`
}

// Node is one narrative position in the story. Fallback is the message for
// input that matches no choice key; empty means DefaultFallback.
type Node struct {
	ID       string   `yaml:"id"`
	Message  string   `yaml:"message"`
	Prompt   string   `yaml:"prompt,omitempty"`
	Art      string   `yaml:"art,omitempty"`
	Fallback string   `yaml:"fallback,omitempty"`
	Choices  []Choice `yaml:"choices"`
}

// Choice maps a single-character key to either another node (Next) or a
// terminal ending (End + Message). Exactly one of Next and End is set.
type Choice struct {
	Key     string `yaml:"key"`
	Label   string `yaml:"label"`
	Next    string `yaml:"next,omitempty"`
	End     Ending `yaml:"end,omitempty"`
	Message string `yaml:"message,omitempty"`
}

// Ending marks a choice as terminal.
type Ending string

const (
	EndingNone Ending = ""
	EndingWin  Ending = "win"
	EndingLose Ending = "lose"
)

const (
	// DefaultFallback is used for unrecognized input at nodes without their own fallback.
	DefaultFallback = "Game Over"

	// InvalidStateMessage is returned when a session points at a node the graph does not know.
	InvalidStateMessage = "Invalid game state. Game Over!"
)
