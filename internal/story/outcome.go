package story

// Outcome is the engine's decision for one submitted choice.
// It is either Continue or Terminal; callers switch on the concrete type.
type Outcome interface {
	outcome()
}

// Continue advances the player to NextNode.
type Continue struct {
	NextNode string
	Message  string
	Prompt   string
	Art      string
	Choices  map[string]string // key -> label
}

// Terminal ends the game. Won is true only for the winning choice.
type Terminal struct {
	Message string
	Won     bool
}

func (Continue) outcome() {}
func (Terminal) outcome() {}

// Success reports whether the outcome counts as a successful move:
// any advance or a win.
func Success(o Outcome) bool {
	switch v := o.(type) {
	case Continue:
		return true
	case Terminal:
		return v.Won
	default:
		return false
	}
}

// GameOver reports whether the outcome ends the game.
func GameOver(o Outcome) bool {
	_, ok := o.(Terminal)
	return ok
}

// Won reports whether the outcome is a win.
func Won(o Outcome) bool {
	t, ok := o.(Terminal)
	return ok && t.Won
}
