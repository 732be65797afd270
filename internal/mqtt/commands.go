package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/AaronLay10/TreasureLand/internal/session"
	"github.com/AaronLay10/TreasureLand/internal/story"
	"github.com/AaronLay10/TreasureLand/internal/wire"
)

// Chooser applies a choice to a session.
type Chooser interface {
	ApplyChoice(ctx context.Context, id, choice string) (*session.Session, story.Outcome, error)
}

// CommandHandler lets players submit choices over MQTT. A message on
// <prefix>/sessions/<id>/choice carries the raw choice; the reply goes to
// <prefix>/sessions/<id>/outcome.
type CommandHandler struct {
	transport Transport
	game      Chooser
	prefix    string
	timeout   time.Duration
}

// NewCommandHandler creates a handler for game commands under prefix.
func NewCommandHandler(t Transport, game Chooser, prefix string) *CommandHandler {
	return &CommandHandler{
		transport: t,
		game:      game,
		prefix:    prefix,
		timeout:   5 * time.Second,
	}
}

// ChoiceTopic is the wildcard subscription for choice commands.
func (h *CommandHandler) ChoiceTopic() string {
	return h.prefix + "/sessions/+/choice"
}

// OutcomeTopic is where the reply for sessionID is published.
func (h *CommandHandler) OutcomeTopic(sessionID string) string {
	return fmt.Sprintf("%s/sessions/%s/outcome", h.prefix, sessionID)
}

// Start subscribes to choice commands.
func (h *CommandHandler) Start() error {
	return h.transport.Subscribe(h.ChoiceTopic(), func(_ paho.Client, msg paho.Message) {
		h.handle(msg.Topic(), msg.Payload())
	})
}

// sessionFromTopic extracts <id> from <prefix>/sessions/<id>/choice.
func (h *CommandHandler) sessionFromTopic(topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, h.prefix+"/sessions/")
	if !ok {
		return "", false
	}
	id, ok := strings.CutSuffix(rest, "/choice")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}

func (h *CommandHandler) handle(topic string, payload []byte) {
	sessionID, ok := h.sessionFromTopic(topic)
	if !ok {
		log.Warn().Str("topic", topic).Msg("mqtt: ignoring choice on malformed topic")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var reply interface{}
	sess, outcome, err := h.game.ApplyChoice(ctx, sessionID, string(payload))
	switch {
	case err == nil:
		reply = wire.NewChoiceResponse(sess, outcome)
	case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrAlreadyOver):
		reply = wire.ErrorResponse{Detail: err.Error()}
	default:
		log.Error().Err(err).Str("session_id", sessionID).Msg("mqtt: choice failed")
		reply = wire.ErrorResponse{Detail: "internal error"}
	}

	data, err := json.Marshal(reply)
	if err != nil {
		log.Error().Err(err).Msg("mqtt: failed to marshal reply")
		return
	}
	if err := h.transport.Publish(h.OutcomeTopic(sessionID), data); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("mqtt: failed to publish reply")
	}
}
