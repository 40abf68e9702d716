package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

const (
	defaultNoteResults = 3
	MaxNoteResults     = 5
)

type SearchNotesInput struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

type SearchNotesOutput struct {
	Passages []string `json:"passages"`
	Total    int      `json:"total"`
	Note     string   `json:"note,omitempty"`
}

func createSearchNotesTool(notes NoteSearcher) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolSearchNotes,
			Desc: "Search the study notes the student uploaded. Returns the passages closest to the query. " +
				"Use this tool when the student asks about material from their own notes, slides or readings.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     schema.String,
					Desc:     "What to look for in the notes, e.g. a concept, definition or topic name.",
					Required: true,
				},
				"max_results": {
					Type: schema.Integer,
					Desc: "Maximum number of passages to return (default: 3, max: 5)",
				},
			}),
		},
		func(ctx context.Context, in *SearchNotesInput) (*SearchNotesOutput, error) {
			if in.Query == "" {
				return nil, fmt.Errorf("query is required")
			}
			userID := UserIDFrom(ctx)
			if userID == "" {
				return &SearchNotesOutput{Passages: []string{}, Note: "no student is signed in, notes are unavailable"}, nil
			}

			k := in.MaxResults
			if k <= 0 {
				k = defaultNoteResults
			}
			if k > MaxNoteResults {
				k = MaxNoteResults
			}

			passages, err := notes.Retrieve(ctx, userID, in.Query, k)
			if err != nil {
				return nil, fmt.Errorf("search notes: %w", err)
			}
			if passages == nil {
				passages = []string{}
			}
			out := &SearchNotesOutput{Passages: passages, Total: len(passages)}
			if len(passages) == 0 {
				out.Note = "the student has not uploaded any notes"
			}
			return out, nil
		},
	)
}
