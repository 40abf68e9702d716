package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/study-buddy-core/server/internal/progress"
)

const (
	ToolSearchNotes      = "search_notes"
	ToolGetStudyProgress = "get_study_progress"
)

// NoteSearcher finds the note passages of a student closest to a query.
type NoteSearcher interface {
	Retrieve(ctx context.Context, userID, query string, k int) ([]string, error)
}

// ProgressReader reports aggregated study progress for a student.
type ProgressReader interface {
	UserStats(ctx context.Context, userID string) (progress.Stats, error)
}

type userIDKey struct{}

// WithUserID scopes tool calls made under ctx to one student.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFrom returns the student set by WithUserID, or "".
func UserIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// GetStudyTools returns the tools backed by the given services. A nil service
// leaves its tool out.
func GetStudyTools(notes NoteSearcher, stats ProgressReader) []tool.BaseTool {
	var out []tool.BaseTool
	if notes != nil {
		out = append(out, createSearchNotesTool(notes))
	}
	if stats != nil {
		out = append(out, createStudyProgressTool(stats))
	}
	return out
}

// GetToolInfos collects the schema of every tool for binding to a chat model.
func GetToolInfos(ctx context.Context, tools []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}
