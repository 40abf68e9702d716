package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/study-buddy-core/server/internal/agent/graph/conversations"
	"github.com/study-buddy-core/server/internal/agent/graph/prompts"
	"github.com/study-buddy-core/server/internal/agent/graph/tools"
	"github.com/study-buddy-core/server/internal/agent/model"
	logx "github.com/study-buddy-core/server/pkg/logger"
)

const (
	NodeInputConverter    = "InputConverter"
	NodeNoteRetriever     = "NoteRetriever"
	NodeResponseAssembler = "ResponseAssembler"
	NodeResponseChatModel = "ResponseChatModel"
	NodeToolExecutor      = "ToolExecutor"
)

// Keys set on the final message's Extra for the runner.
const (
	ExtraVerdict      = "emotion_verdict"
	ExtraMood         = "emotion_label"
	ExtraPassages     = "note_passages"
	ExtraTotalCostUSD = "usage_cost_total_usd"
	ExtraHistoryLen   = "history_len"
)

// NewInputConverterPreHandler creates the pre-handler for InputConverter node
func NewInputConverterPreHandler() func(context.Context, model.QueryInput, *model.AppState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, s *model.AppState) (model.QueryInput, error) {
		s.Input = in
		// Reset per-query counters
		s.ToolCallCount = 0
		s.ToolCallLimitReached = false
		s.ToolCallIDSeq = 0
		s.TotalCostUSD = 0
		s.Passages = nil
		s.Turns = nil
		return in, nil
	}
}

// NewInputConverterNode scores the student message and appends it to the session.
func NewInputConverterNode(mm *conversations.MessagesManager) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.QueryInput) (model.QueryInput, error) {
		turn, err := mm.ProcessUserMessage(ctx, input)
		if err != nil {
			return input, fmt.Errorf("load conversation: %w", err)
		}

		err = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			state.History = turn.History
			state.Verdict = turn.Verdict
			state.Mood = turn.Mood
			return nil
		})
		if err != nil {
			return input, fmt.Errorf("failed to access state: %w", err)
		}

		logx.Debug().
			Str("session_id", input.SessionID).
			Str("emotion", string(turn.Verdict.Emotion)).
			Str("mood", string(turn.Mood)).
			Float64("confidence", turn.Verdict.Confidence).
			Msg("Student message scored")
		return input, nil
	})
}

// NewNoteRetrieverCondition routes to NoteRetriever when the request asks for notes.
func NewNoteRetrieverCondition(enabled bool) func(context.Context, model.QueryInput) (string, error) {
	return func(ctx context.Context, in model.QueryInput) (string, error) {
		if enabled && in.UseNotes && in.UserID != "" {
			return NodeNoteRetriever, nil
		}
		return NodeResponseAssembler, nil
	}
}

// NewNoteRetrieverNode fetches the top passages of the student's notes.
// Retrieval failures degrade to an answer without notes.
func NewNoteRetrieverNode(notes tools.NoteSearcher, topK int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.QueryInput) (model.QueryInput, error) {
		passages, err := notes.Retrieve(ctx, input.UserID, input.Message, topK)
		if err != nil {
			logx.Warn().Err(err).Str("user_id", input.UserID).Msg("Note retrieval failed - answering without notes")
			return input, nil
		}

		err = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			state.Passages = passages
			return nil
		})
		if err != nil {
			return input, fmt.Errorf("failed to access state: %w", err)
		}

		logx.Debug().Str("user_id", input.UserID).Int("passages", len(passages)).Msg("Notes retrieved")
		return input, nil
	})
}

// NewResponseAssemblerNode renders the system prompt and lays out the turns for the model.
func NewResponseAssemblerNode(mm *conversations.MessagesManager, toolNames []string) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, input model.QueryInput) ([]*schema.Message, error) {
		var (
			h    *model.History
			vars prompts.ResponseVars
		)
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			if state.History == nil {
				return fmt.Errorf("missing conversation in state")
			}
			h = state.History
			vars = prompts.ResponseVars{
				Persona:   model.ResolvePersona(input.Persona),
				StudyMode: input.StudyMode,
				Language:  input.Language,
				Mood:      state.Mood,
				Passages:  state.Passages,
				Tools:     toolNames,
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		sysPrompt, err := prompts.RenderResponseSystem(ctx, vars)
		if err != nil {
			return nil, fmt.Errorf("generate response prompt: %w", err)
		}

		return mm.BuildResponseContext(h, sysPrompt), nil
	})
}

// NewResponseChatModelPreHandler creates the pre-handler for ResponseChatModel node
func NewResponseChatModelPreHandler(maxToolCalls int) func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.AppState) ([]*schema.Message, error) {
		// Tool results must carry the id of the call they answer.
		if len(in) > 0 {
			last := in[len(in)-1]
			if last != nil && last.Role == schema.Tool && strings.TrimSpace(last.ToolCallID) == "" {
				for i := len(state.Turns) - 1; i >= 0; i-- {
					msg := state.Turns[i]
					if msg == nil || msg.Role != schema.Assistant || len(msg.ToolCalls) == 0 {
						continue
					}
					if id := msg.ToolCalls[0].ID; strings.TrimSpace(id) != "" {
						last.ToolCallID = id
					}
					break
				}
			}
		}

		state.Turns = append(state.Turns, in...)

		if budget := newToolBudget(maxToolCalls); budget.exhausted(state) {
			state.Turns = append(state.Turns, schema.SystemMessage(fmt.Sprintf(
				"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
					"Answer the student now using what you have already gathered, "+
					"and say so if something could not be looked up.",
				budget,
			)))
		}

		return state.Turns, nil
	}
}

// NewResponseChatModelPostHandler records cost, normalizes tool call ids and
// persists the session once the reply is final.
func NewResponseChatModelPostHandler(
	mm *conversations.MessagesManager,
	modelName string,
) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		if out == nil {
			return nil, fmt.Errorf("chat model returned no message")
		}
		if out.Extra == nil {
			out.Extra = map[string]any{}
		}

		if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			usage := out.ResponseMeta.Usage
			inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(modelName))
			out.Extra["usage_cost"] = map[string]any{
				"currency":          "USD",
				"model":             modelName,
				"prompt_tokens":     usage.PromptTokens,
				"completion_tokens": usage.CompletionTokens,
				"total_tokens":      usage.TotalTokens,
				"input_cost":        inC,
				"output_cost":       outC,
				"total_cost":        totalC,
			}
			logx.Debug().
				Str("session_id", state.Input.SessionID).
				Str("node", NodeResponseChatModel).
				Str("model", modelName).
				Int("prompt_tokens", usage.PromptTokens).
				Int("completion_tokens", usage.CompletionTokens).
				Int("total_tokens", usage.TotalTokens).
				Float64("total_cost_usd", totalC).
				Msg("LLM usage")
			state.TotalCostUSD += totalC
		}

		// Some providers omit tool call ids.
		for i := range out.ToolCalls {
			if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
				state.ToolCallIDSeq++
				out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
			}
		}

		state.Turns = append(state.Turns, out)

		final := len(out.ToolCalls) == 0 || state.ToolCallLimitReached
		if final && out.Role == schema.Assistant && strings.TrimSpace(out.Content) != "" && state.History != nil {
			if err := mm.SaveReply(ctx, state.History, out.Content); err != nil {
				logx.Error().
					Str("session_id", state.Input.SessionID).
					Err(err).
					Msg("Error saving assistant reply")
			}
		}

		out.Extra[ExtraVerdict] = state.Verdict
		out.Extra[ExtraMood] = state.Mood
		out.Extra[ExtraPassages] = len(state.Passages)
		out.Extra[ExtraTotalCostUSD] = state.TotalCostUSD
		if state.History != nil {
			out.Extra[ExtraHistoryLen] = len(state.History.Messages)
		}

		if len(out.ToolCalls) > 0 && !state.ToolCallLimitReached {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		} else {
			logx.Debug().Msg("AI response ready")
		}
		return out, nil
	}
}

// NewToolExecutorCondition creates the condition function for tool execution routing
func NewToolExecutorCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		var limitReached bool
		_ = compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			limitReached = state.ToolCallLimitReached
			return nil
		})

		if limitReached {
			logx.Debug().Msg("Tool limit reached previously - routing to end")
			return compose.END, nil
		}
		if len(input.ToolCalls) > 0 {
			return NodeToolExecutor, nil
		}
		return compose.END, nil
	}
}

// NewToolExecutorPreHandler counts tool rounds against the limit.
func NewToolExecutorPreHandler(maxToolCalls int) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.AppState) (*schema.Message, error) {
		budget := newToolBudget(maxToolCalls)
		exceeded := budget.spend(state)

		logx.Debug().
			Int("tool_call_count", state.ToolCallCount).
			Str("session_id", state.Input.SessionID).
			Msg("Tool execution attempt")

		if exceeded {
			logx.Warn().
				Int("tool_call_count", state.ToolCallCount).
				Int("max_tool_calls", int(budget)).
				Str("session_id", state.Input.SessionID).
				Msg("Tool call limit exceeded - flagging and continuing")
		}
		return in, nil
	}
}
