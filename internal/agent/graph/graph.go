package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/jonboulle/clockwork"

	"github.com/study-buddy-core/server/internal/agent/graph/conversations"
	"github.com/study-buddy-core/server/internal/agent/graph/nodes"
	"github.com/study-buddy-core/server/internal/agent/graph/observers"
	"github.com/study-buddy-core/server/internal/agent/graph/tools"
	"github.com/study-buddy-core/server/internal/agent/model"
	"github.com/study-buddy-core/server/internal/emotion"
	logx "github.com/study-buddy-core/server/pkg/logger"
)

// ErrEmptyReply is returned when the model finishes without any text.
var ErrEmptyReply = errors.New("chat model returned an empty reply")

// Runner executes the compiled reply graph for one student message.
type Runner interface {
	Invoke(ctx context.Context, in model.QueryInput) (model.ChatResult, error)
}

// Config holds everything needed to compose the reply graph end-to-end.
type Config struct {
	ChatModel    einomodel.ToolCallingChatModel
	ModelName    string
	Conversation model.ConversationConfig
	HistoryStore model.HistoryStore
	Classifier   emotion.Classifier
	// Notes and Progress are optional; without them the matching tools and
	// the note retrieval step are left out.
	Notes     tools.NoteSearcher
	Progress  tools.ProgressReader
	NotesTopK int
	Clock     clockwork.Clock
}

// GraphConfig holds all configuration needed to build the graph
type GraphConfig struct {
	ChatModel       einomodel.ToolCallingChatModel
	ModelName       string
	MessagesManager *conversations.MessagesManager
	Notes           tools.NoteSearcher
	Progress        tools.ProgressReader
	NotesTopK       int
	ToolMaxCalls    int
}

// GraphBuilder handles the construction of the reply graph
type GraphBuilder struct {
	config    *GraphConfig
	graph     *compose.Graph[model.QueryInput, *schema.Message]
	chatModel einomodel.BaseChatModel
	toolNames []string
}

type graphRunner struct {
	runnable compose.Runnable[model.QueryInput, *schema.Message]
	clock    clockwork.Clock
}

func (r *graphRunner) Invoke(ctx context.Context, in model.QueryInput) (model.ChatResult, error) {
	in = normalizeInput(in)
	if in.SessionID == "" {
		return model.ChatResult{}, errors.New("session id is required")
	}

	ctx = tools.WithUserID(ctx, in.UserID)
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return model.ChatResult{}, err
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return model.ChatResult{}, ErrEmptyReply
	}

	res := model.ChatResult{
		SessionID: in.SessionID,
		Reply:     out.Content,
		StudyMode: in.StudyMode,
		Language:  in.Language,
		Persona:   model.ResolvePersona(in.Persona),
		Timestamp: r.clock.Now().UTC(),
	}
	if v, ok := out.Extra[nodes.ExtraVerdict].(emotion.Verdict); ok {
		res.Verdict = v
	}
	if v, ok := out.Extra[nodes.ExtraMood].(emotion.Label); ok {
		res.Mood = v
	}
	if v, ok := out.Extra[nodes.ExtraPassages].(int); ok {
		res.Passages = v
	}
	if v, ok := out.Extra[nodes.ExtraTotalCostUSD].(float64); ok {
		res.CostUSD = v
	}
	if v, ok := out.Extra[nodes.ExtraHistoryLen].(int); ok {
		res.HistoryLen = v
	}
	return res, nil
}

func normalizeInput(in model.QueryInput) model.QueryInput {
	in.SessionID = strings.TrimSpace(in.SessionID)
	in.StudyMode = model.ParseStudyMode(string(in.StudyMode))
	in.Language = model.ParseLanguage(string(in.Language))
	if !model.IsPersona(in.Persona) {
		in.Persona = model.DefaultPersonaID
	}
	return in
}

// BuildResponseGraph wires the messages manager, builds the graph, and returns a Runner.
func BuildResponseGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.HistoryStore == nil {
		return nil, fmt.Errorf("history store is nil")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	mm := conversations.NewMessagesManager(cfg.HistoryStore, cfg.Classifier, cfg.Clock, cfg.Conversation)

	runnable, err := BuildGraph(ctx, &GraphConfig{
		ChatModel:       cfg.ChatModel,
		ModelName:       cfg.ModelName,
		MessagesManager: mm,
		Notes:           cfg.Notes,
		Progress:        cfg.Progress,
		NotesTopK:       cfg.NotesTopK,
		ToolMaxCalls:    cfg.Conversation.Tools.MaxCalls,
	})
	if err != nil {
		return nil, err
	}

	logx.Debug().Msg("Response graph built successfully")
	return &graphRunner{runnable: runnable, clock: cfg.Clock}, nil
}

// BuildGraph constructs and returns the compiled reply graph
func BuildGraph(ctx context.Context, config *GraphConfig) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	if config == nil {
		return nil, fmt.Errorf("graph config is nil")
	}
	if config.ChatModel == nil {
		return nil, fmt.Errorf("chat model is not initialized")
	}
	if config.MessagesManager == nil {
		return nil, fmt.Errorf("messages manager is nil")
	}
	if config.NotesTopK <= 0 {
		config.NotesTopK = 3
	}

	builder := &GraphBuilder{
		config:    config,
		chatModel: config.ChatModel,
		graph: compose.NewGraph[model.QueryInput, *schema.Message](
			compose.WithGenLocalState(func(ctx context.Context) *model.AppState {
				return &model.AppState{}
			}),
		),
	}

	if err := builder.setupTools(ctx); err != nil {
		return nil, err
	}
	if err := builder.addNodes(); err != nil {
		return nil, err
	}
	if err := builder.addEdges(); err != nil {
		return nil, err
	}
	if err := builder.addBranches(); err != nil {
		return nil, err
	}

	return builder.compile(ctx)
}

// setupTools binds the study tools to the chat model and adds the tools node.
// With no tools the model is used as is and the tool loop is left out.
func (b *GraphBuilder) setupTools(ctx context.Context) error {
	studyTools := tools.GetStudyTools(b.config.Notes, b.config.Progress)
	if len(studyTools) == 0 {
		return nil
	}

	toolInfos, err := tools.GetToolInfos(ctx, studyTools)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to get tool infos")
		return fmt.Errorf("failed to get tool infos: %w", err)
	}

	bound, err := b.config.ChatModel.WithTools(toolInfos)
	if err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools to response model")
		return fmt.Errorf("failed to bind tools to response model: %w", err)
	}
	b.chatModel = bound
	for _, info := range toolInfos {
		b.toolNames = append(b.toolNames, info.Name)
	}

	toolsNode, err := compose.NewToolNode(ctx, &compose.ToolsNodeConfig{
		Tools:               studyTools,
		ExecuteSequentially: true,
		UnknownToolsHandler: func(ctx context.Context, name, input string) (string, error) {
			logx.Warn().
				Str("tool_name", name).
				Str("arguments", input).
				Msg("Unknown or invalid tool call; returning fallback result")
			return fmt.Sprintf("{\"error\":\"unknown_tool\",\"name\":%q,\"note\":\"ignored\"}", name), nil
		},
		ToolArgumentsHandler: sanitizeToolArguments,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Failed to create tools node")
		return fmt.Errorf("failed to create tools node: %w", err)
	}

	return b.graph.AddToolsNode(nodes.NodeToolExecutor, toolsNode,
		compose.WithStatePreHandler(nodes.NewToolExecutorPreHandler(b.config.ToolMaxCalls)),
	)
}

func (b *GraphBuilder) hasTools() bool { return len(b.toolNames) > 0 }

// sanitizeToolArguments coerces model-produced arguments into the shapes the
// tools expect. It never fails; unparseable input is passed through.
func sanitizeToolArguments(ctx context.Context, name, arguments string) (string, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(arguments), &m); err != nil {
		return arguments, nil
	}

	switch name {
	case tools.ToolSearchNotes:
		if v, ok := m["query"]; ok {
			switch vv := v.(type) {
			case string:
				m["query"] = strings.TrimSpace(vv)
			default:
				m["query"] = strings.TrimSpace(fmt.Sprint(v))
			}
		}
		if v, ok := m["max_results"]; ok {
			switch vv := v.(type) {
			case float64:
				m["max_results"] = clampInt(int(vv), 1, tools.MaxNoteResults)
			case string:
				if n, err := strconv.Atoi(strings.TrimSpace(vv)); err == nil {
					m["max_results"] = clampInt(n, 1, tools.MaxNoteResults)
				} else {
					delete(m, "max_results")
				}
			default:
				delete(m, "max_results")
			}
		}
	case tools.ToolGetStudyProgress:
		// Takes no arguments.
		m = map[string]any{}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return arguments, nil
	}
	return string(out), nil
}

// addNodes adds all processing nodes to the graph
func (b *GraphBuilder) addNodes() error {
	mm := b.config.MessagesManager
	steps := []func() error{
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeInputConverter,
				nodes.NewInputConverterNode(mm),
				compose.WithStatePreHandler(nodes.NewInputConverterPreHandler()),
			)
		},
		func() error {
			return b.graph.AddLambdaNode(nodes.NodeResponseAssembler,
				nodes.NewResponseAssemblerNode(mm, b.toolNames),
			)
		},
		func() error {
			return b.graph.AddChatModelNode(nodes.NodeResponseChatModel,
				b.chatModel,
				compose.WithStatePreHandler(nodes.NewResponseChatModelPreHandler(b.config.ToolMaxCalls)),
				compose.WithStatePostHandler(nodes.NewResponseChatModelPostHandler(mm, b.config.ModelName)),
			)
		},
	}
	if b.config.Notes != nil {
		steps = append(steps, func() error {
			return b.graph.AddLambdaNode(nodes.NodeNoteRetriever,
				nodes.NewNoteRetrieverNode(b.config.Notes, b.config.NotesTopK),
			)
		})
	}

	for _, step := range steps {
		if err := step(); err != nil {
			logx.Error().Err(err).Msg("Error adding graph node")
			return fmt.Errorf("error adding graph node: %w", err)
		}
	}
	return nil
}

// addEdges creates the main flow connections between nodes
func (b *GraphBuilder) addEdges() error {
	edges := [][2]string{
		{compose.START, nodes.NodeInputConverter},
		{nodes.NodeResponseAssembler, nodes.NodeResponseChatModel},
	}
	if b.config.Notes != nil {
		edges = append(edges, [2]string{nodes.NodeNoteRetriever, nodes.NodeResponseAssembler})
	} else {
		edges = append(edges, [2]string{nodes.NodeInputConverter, nodes.NodeResponseAssembler})
	}
	if b.hasTools() {
		edges = append(edges, [2]string{nodes.NodeToolExecutor, nodes.NodeResponseChatModel})
	} else {
		edges = append(edges, [2]string{nodes.NodeResponseChatModel, compose.END})
	}

	for _, edge := range edges {
		if err := b.graph.AddEdge(edge[0], edge[1]); err != nil {
			logx.Error().Err(err).Str("from", edge[0]).Str("to", edge[1]).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func (b *GraphBuilder) addBranches() error {
	if b.config.Notes != nil {
		notesBranch := compose.NewGraphBranch(
			nodes.NewNoteRetrieverCondition(true),
			map[string]bool{
				nodes.NodeNoteRetriever:     true,
				nodes.NodeResponseAssembler: true,
			},
		)
		if err := b.graph.AddBranch(nodes.NodeInputConverter, notesBranch); err != nil {
			logx.Error().Err(err).Msg("Error adding notes branch")
			return fmt.Errorf("error adding notes branch: %w", err)
		}
	}

	if b.hasTools() {
		decisionBranch := compose.NewGraphBranch(
			nodes.NewToolExecutorCondition(),
			map[string]bool{
				nodes.NodeToolExecutor: true,
				compose.END:            true,
			},
		)
		if err := b.graph.AddBranch(nodes.NodeResponseChatModel, decisionBranch); err != nil {
			logx.Error().Err(err).Msg("Error adding decision branch")
			return fmt.Errorf("error adding decision branch: %w", err)
		}
	}
	return nil
}

// compile finalizes and compiles the graph
func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[model.QueryInput, *schema.Message], error) {
	// Limit total run steps to avoid infinite loops in branching or tool retries
	maxSteps := max(20, 10+b.config.ToolMaxCalls*2)

	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(maxSteps))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Msg("Graph compiled successfully")
	return runnable, nil
}

// clampInt returns v limited to [lo, hi].
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
