package budget

import "github.com/dshills/revet/internal/config"

// Trigger identifies what started the run.
type Trigger string

const (
	TriggerPullRequest Trigger = "pull_request"
	TriggerPush        Trigger = "push"
	TriggerManual      Trigger = "manual"
)

// ForbiddenOnPush reports whether an agent must never run for a direct
// push to the protected branch, regardless of budget.
func ForbiddenOnPush(pol config.Policy, trigger Trigger, branch, agentID string) bool {
	if trigger != TriggerPush || branch != pol.ProtectedBranch {
		return false
	}
	for _, id := range pol.ForbidOnPush {
		if id == agentID {
			return true
		}
	}
	return false
}
