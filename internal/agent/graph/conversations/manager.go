package conversations

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/jonboulle/clockwork"

	"github.com/study-buddy-core/server/internal/agent/model"
	"github.com/study-buddy-core/server/internal/emotion"
	logx "github.com/study-buddy-core/server/pkg/logger"
)

const startOfConversation = "This is the start of our conversation."

type MessagesManager struct {
	store      model.HistoryStore
	classifier emotion.Classifier
	clock      clockwork.Clock
	maxHistory int
}

func NewMessagesManager(store model.HistoryStore, classifier emotion.Classifier, clock clockwork.Clock, config model.ConversationConfig) *MessagesManager {
	if classifier == nil {
		classifier = emotion.HeuristicClassifier{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MessagesManager{
		store:      store,
		classifier: classifier,
		clock:      clock,
		maxHistory: config.MaxHistory,
	}
}

// UserTurn is a scored student message appended to its session.
type UserTurn struct {
	History *model.History
	Verdict emotion.Verdict
	Mood    emotion.Label
}

// ProcessUserMessage loads (or starts) the session, scores the message and
// appends it. Nothing is persisted until SaveReply.
func (mm *MessagesManager) ProcessUserMessage(ctx context.Context, in model.QueryInput) (UserTurn, error) {
	h, err := mm.store.Get(ctx, in.SessionID)
	if errors.Is(err, model.ErrHistoryNotFound) {
		h, err = model.NewHistory(in.SessionID, in), nil
	}
	if err != nil {
		return UserTurn{}, err
	}

	// The latest request decides the session settings.
	h.StudyMode = in.StudyMode
	h.Language = in.Language
	h.Persona = in.Persona
	if in.UserID != "" {
		h.UserID = in.UserID
	}

	verdict := emotion.Detect(in.Message)
	mood, err := mm.classifier.Classify(ctx, in.Message)
	if err != nil || !mood.Valid() {
		logx.Warn().Err(err).Str("session_id", in.SessionID).Msg("classifier failed, using detected emotion")
		mood = verdict.Emotion
	}

	h.Append(model.Message{
		Text:      in.Message,
		IsUser:    true,
		Timestamp: mm.clock.Now().UTC(),
		Emotion:   mood,
	})
	return UserTurn{History: h, Verdict: verdict, Mood: mood}, nil
}

// BuildResponseContext lays out the system prompt, the recent turns before
// the current message and the current message itself.
func (mm *MessagesManager) BuildResponseContext(h *model.History, systemPrompt string) []*schema.Message {
	messages := []*schema.Message{schema.SystemMessage(systemPrompt)}

	var current string
	previous := h.Messages
	if n := len(previous); n > 0 && previous[n-1].IsUser {
		current = previous[n-1].Text
		previous = previous[:n-1]
	}
	if mm.maxHistory > 0 && len(previous) > mm.maxHistory {
		previous = previous[len(previous)-mm.maxHistory:]
	}

	for _, msg := range previous {
		if strings.TrimSpace(msg.Text) == "" {
			continue
		}
		if msg.IsUser {
			messages = append(messages, schema.UserMessage(msg.Text))
		} else {
			messages = append(messages, schema.AssistantMessage(msg.Text, nil))
		}
	}

	var b strings.Builder
	if len(previous) == 0 {
		b.WriteString(startOfConversation)
		b.WriteString("\n\n")
	}
	b.WriteString("Current student message: ")
	b.WriteString(current)
	messages = append(messages, schema.UserMessage(b.String()))

	return messages
}

// SaveReply appends the assistant reply and persists the session.
func (mm *MessagesManager) SaveReply(ctx context.Context, h *model.History, reply string) error {
	h.Append(model.Message{
		Text:      reply,
		IsUser:    false,
		Timestamp: mm.clock.Now().UTC(),
	})
	return mm.store.Put(ctx, h.SessionID, h)
}
