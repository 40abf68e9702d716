package nodes

import (
	"github.com/study-buddy-core/server/internal/agent/model"
)

const DefaultMaxToolCalls = 4

// toolBudget caps the tool rounds of one reply.
type toolBudget int

func newToolBudget(n int) toolBudget {
	if n <= 0 {
		return DefaultMaxToolCalls
	}
	return toolBudget(n)
}

// exhausted flags the state the first time the budget is used up and reports
// whether this call did the flagging.
func (b toolBudget) exhausted(state *model.AppState) bool {
	if state.ToolCallLimitReached || state.ToolCallCount < int(b) {
		return false
	}
	state.ToolCallLimitReached = true
	return true
}

// spend counts one tool round and reports whether it went over budget.
func (b toolBudget) spend(state *model.AppState) bool {
	state.ToolCallCount++
	if state.ToolCallCount <= int(b) {
		return false
	}
	state.ToolCallLimitReached = true
	return true
}
