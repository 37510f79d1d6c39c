package roles

import aerr "github.com/R3E-Network/aivcs/infrastructure/errors"

// BuildExecutionPlan validates a proposed handoff sequence against the
// static accepts-from graph of templates, in order: the first role in
// sequence must have an empty AcceptsFrom (only Planner qualifies in the
// standard pipeline), and every subsequent role must accept a handoff from
// the role immediately preceding it. Returns UnauthorizedHandoff on the
// first violation.
func BuildExecutionPlan(templates []RoleTemplate, sequence []AgentRole) error {
	byRole := make(map[AgentRole]RoleTemplate, len(templates))
	for _, tpl := range templates {
		byRole[tpl.Role] = tpl
	}

	for i, role := range sequence {
		tpl, ok := byRole[role]
		if !ok {
			return aerr.UnauthorizedHandoff("unknown", string(role))
		}
		if i == 0 {
			if len(tpl.AcceptsFrom) != 0 {
				return aerr.UnauthorizedHandoff("none", string(role))
			}
			continue
		}
		prev := sequence[i-1]
		accepted := false
		for _, from := range tpl.AcceptsFrom {
			if from == prev {
				accepted = true
				break
			}
		}
		if !accepted {
			return aerr.UnauthorizedHandoff(string(prev), string(role))
		}
	}
	return nil
}
