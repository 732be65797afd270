package events

import "fmt"

var allowedEvents = map[string]struct{}{
	// session
	"session.started": {},
	"choice.applied":  {},

	// game
	"game.won":  {},
	"game.lost": {},

	// system
	"system.startup":  {},
	"system.shutdown": {},
	"system.error":    {},
}

func Validate(event string) error {
	if _, ok := allowedEvents[event]; !ok {
		return fmt.Errorf("unknown event: %s", event)
	}
	return nil
}
