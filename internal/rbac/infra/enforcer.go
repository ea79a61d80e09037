package infra

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Subjects are roles carried in the access token; role inheritance is
// expressed with g rules.
const ModelText = `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && (r.act == p.act || p.act == "*")
`

// Policy is one allow rule: role may perform action on resource.
type Policy struct {
	Role     string
	Resource string
	Action   string
}

// Inherit makes Role hold every permission of Parent.
type Inherit struct {
	Role   string
	Parent string
}

func NewEnforcer(policies []Policy, inherits []Inherit) (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(ModelText)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}

	rules := make([][]string, 0, len(policies))
	for _, p := range policies {
		rules = append(rules, []string{p.Role, p.Resource, p.Action})
	}
	if len(rules) > 0 {
		if _, err := e.AddPolicies(rules); err != nil {
			return nil, err
		}
	}

	groups := make([][]string, 0, len(inherits))
	for _, g := range inherits {
		groups = append(groups, []string{g.Role, g.Parent})
	}
	if len(groups) > 0 {
		if _, err := e.AddGroupingPolicies(groups); err != nil {
			return nil, err
		}
	}

	return e, nil
}
