package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/study-buddy-core/server/internal/progress"
)

type StudyProgressInput struct{}

type StudyProgressOutput struct {
	Stats *progress.Stats `json:"stats,omitempty"`
	Note  string          `json:"note,omitempty"`
}

func createStudyProgressTool(stats ProgressReader) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetStudyProgress,
			Desc: "Get the student's study progress: number of sessions, minutes studied, average comprehension " +
				"and topics reviewed. Use this tool when the student asks how they are doing or what to review next.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		},
		func(ctx context.Context, _ *StudyProgressInput) (*StudyProgressOutput, error) {
			userID := UserIDFrom(ctx)
			if userID == "" {
				return &StudyProgressOutput{Note: "no student is signed in, progress is unavailable"}, nil
			}
			s, err := stats.UserStats(ctx, userID)
			if err != nil {
				return nil, fmt.Errorf("study progress: %w", err)
			}
			return &StudyProgressOutput{Stats: &s}, nil
		},
	)
}
