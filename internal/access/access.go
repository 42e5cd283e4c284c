// Package access decides which cases a principal may see.
//
// Each role owns one Policy. The Evaluator dispatches on the principal's role
// and denies anything it has no policy for.
package access

import (
	"github.com/google/uuid"

	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

// Case columns a Filter may constrain.
const (
	FieldClient      = "client_id"
	FieldCoordinator = "assigned_coordinator_id"
	FieldManager     = "assigned_manager_id"
)

// Clause is one equality test on a case column. A nil Value means IS NULL.
type Clause struct {
	Field string
	Value *uuid.UUID
}

// Filter is a disjunction of clauses. An empty restricted filter matches nothing.
type Filter struct {
	Unrestricted bool
	AnyOf        []Clause
}

// Matches evaluates the filter against a loaded case.
func (f Filter) Matches(c *models.Case) bool {
	if f.Unrestricted {
		return true
	}
	for _, cl := range f.AnyOf {
		var got *uuid.UUID
		switch cl.Field {
		case FieldClient:
			id := c.ClientID
			got = &id
		case FieldCoordinator:
			got = c.AssignedCoordinatorID
		case FieldManager:
			got = c.AssignedManagerID
		default:
			continue
		}
		if cl.Value == nil && got == nil {
			return true
		}
		if cl.Value != nil && got != nil && *cl.Value == *got {
			return true
		}
	}
	return false
}

func eq(field string, id uuid.UUID) Clause { return Clause{Field: field, Value: &id} }

func isNull(field string) Clause { return Clause{Field: field} }

// Hierarchy resolves which coordinators report to a manager.
type Hierarchy interface {
	CoordinatorsUnderManager(managerID uuid.UUID) []uuid.UUID
}

// NoHierarchy is the current organization: there is no reports-to relation,
// so no manager inherits coordinators.
// TODO: back this with a coordinator-to-manager table once users carry one.
type NoHierarchy struct{}

func (NoHierarchy) CoordinatorsUnderManager(uuid.UUID) []uuid.UUID { return nil }

// Policy is the per-role access rule.
type Policy interface {
	CanAccess(p models.Principal, c *models.Case) bool
	Scope(p models.Principal) Filter
}

type clientPolicy struct{}

func (clientPolicy) CanAccess(p models.Principal, c *models.Case) bool { return c.ClientID == p.ID }

func (clientPolicy) Scope(p models.Principal) Filter {
	return Filter{AnyOf: []Clause{eq(FieldClient, p.ID)}}
}

type coordinatorPolicy struct{}

func (coordinatorPolicy) CanAccess(p models.Principal, c *models.Case) bool {
	return c.AssignedCoordinatorID != nil && *c.AssignedCoordinatorID == p.ID
}

// Unassigned cases are listed so new work shows up before anyone claims it.
func (coordinatorPolicy) Scope(p models.Principal) Filter {
	return Filter{AnyOf: []Clause{eq(FieldCoordinator, p.ID), isNull(FieldCoordinator)}}
}

type managerPolicy struct{ hierarchy Hierarchy }

func (managerPolicy) CanAccess(p models.Principal, c *models.Case) bool {
	return (c.AssignedManagerID != nil && *c.AssignedManagerID == p.ID) ||
		(c.AssignedCoordinatorID != nil && *c.AssignedCoordinatorID == p.ID)
}

func (m managerPolicy) Scope(p models.Principal) Filter {
	f := Filter{AnyOf: []Clause{eq(FieldManager, p.ID)}}
	for _, coord := range m.hierarchy.CoordinatorsUnderManager(p.ID) {
		f.AnyOf = append(f.AnyOf, eq(FieldCoordinator, coord))
	}
	return f
}

type adminPolicy struct{}

func (adminPolicy) CanAccess(models.Principal, *models.Case) bool { return true }

func (adminPolicy) Scope(models.Principal) Filter { return Filter{Unrestricted: true} }

// Evaluator answers access questions for every role.
type Evaluator struct {
	policies map[models.Role]Policy
}

// New builds the evaluator. A nil hierarchy means NoHierarchy.
func New(h Hierarchy) *Evaluator {
	if h == nil {
		h = NoHierarchy{}
	}
	return &Evaluator{policies: map[models.Role]Policy{
		models.RoleClient:      clientPolicy{},
		models.RoleCoordinator: coordinatorPolicy{},
		models.RoleManager:     managerPolicy{hierarchy: h},
		models.RoleAdmin:       adminPolicy{},
	}}
}

// CanAccess reports whether p may read or write c.
func (e *Evaluator) CanAccess(p models.Principal, c *models.Case) bool {
	pol, ok := e.policies[p.Role]
	if !ok || !p.IsActive || c == nil {
		return false
	}
	return pol.CanAccess(p, c)
}

// Scope returns the listing filter for p. Unknown roles and inactive users get
// a filter that matches nothing.
func (e *Evaluator) Scope(p models.Principal) Filter {
	pol, ok := e.policies[p.Role]
	if !ok || !p.IsActive {
		return Filter{}
	}
	return pol.Scope(p)
}
