package access

import (
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"

	"github.com/MarketOps-Admin/MarketOps-Admin/internal/db/models"
)

// Objects and actions checked by the Gate.
const (
	// ObjBranchConfig is the per branch configuration grid of a market.
	ObjBranchConfig = "branch_config"
	// ObjDefinitions is the setting definition registry.
	ObjDefinitions = "setting_definitions"

	// ActRead allows viewing.
	ActRead = "read"
	// ActWrite allows saving, resetting, creating and deleting.
	ActWrite = "write"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

var (
	defaultPolicies = [][]string{
		{SubjectFromRole(models.RoleOwner), ObjBranchConfig, ActRead},
		{SubjectFromRole(models.RoleOwner), ObjBranchConfig, ActWrite},
		{SubjectFromRole(models.RoleAdmin), ObjDefinitions, ActRead},
		{SubjectFromRole(models.RoleAdmin), ObjDefinitions, ActWrite},
	}
	defaultGroupings = [][]string{
		{SubjectFromRole(models.RoleAdmin), SubjectFromRole(models.RoleOwner)},
	}
)

// Gate decides page level permissions by role.
type Gate struct {
	enforcer *casbin.Enforcer
}

// SubjectFromRole returns the casbin subject of a role.
func SubjectFromRole(r models.Role) string {
	slug := strings.TrimSpace(strings.ToLower(string(r)))
	if slug == "" {
		slug = "anonymous"
	}

	return "role:" + slug
}

// NewGate builds a Gate with the built in role policies.
func NewGate() (*Gate, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("parse rbac model: %w", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	if _, err = e.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("add policies: %w", err)
	}

	if _, err = e.AddGroupingPolicies(defaultGroupings); err != nil {
		return nil, fmt.Errorf("add role groupings: %w", err)
	}

	return &Gate{enforcer: e}, nil
}

// Allow reports whether the role of ac may perform act on obj.
func (g *Gate) Allow(ac Context, obj, act string) (bool, error) {
	ok, err := g.enforcer.Enforce(SubjectFromRole(ac.Role()), obj, act)
	if err != nil {
		return false, fmt.Errorf("enforce %s %s: %w", obj, act, err)
	}

	return ok, nil
}
