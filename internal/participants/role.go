package participants

import (
	"context"
	"fmt"

	"github.com/shaiso/Concord/internal/domain"
	"github.com/shaiso/Concord/internal/registry"
)

// RoleGate разрешает принятие и бронирование пользователям с ролью.
type RoleGate struct {
	name string
	role string
}

// NewRoleGate создаёт участника. Пустое name заменяется на "role:<role>".
func NewRoleGate(name, role string) *RoleGate {
	if name == "" {
		name = "role:" + role
	}
	return &RoleGate{name: name, role: role}
}

func (g *RoleGate) Name() string { return g.name }

// CanAccept реализует registry.Acceptor.
func (g *RoleGate) CanAccept(_ context.Context, _ domain.TargetRef, user domain.User) (bool, string) {
	if user.HasRole(g.role) {
		return true, ""
	}
	return false, fmt.Sprintf("%s: user %q lacks role %q", g.name, user.ID, g.role)
}

// CanBook реализует registry.Booker.
func (g *RoleGate) CanBook(_ context.Context, _ domain.TargetRef, user domain.User) bool {
	return user.HasRole(g.role)
}

// RoleReviser — RoleGate, поддерживающий пересмотр бронирования.
// После пересмотра записывает автора в Data["revised_by"].
type RoleReviser struct {
	*RoleGate
}

var _ registry.Reviser = (*RoleReviser)(nil)

// NewRoleReviser создаёт участника. Пустое name заменяется на "reviser:<role>".
func NewRoleReviser(name, role string) *RoleReviser {
	if name == "" {
		name = "reviser:" + role
	}
	return &RoleReviser{RoleGate: &RoleGate{name: name, role: role}}
}

// CanRevise реализует registry.Reviser.
func (r *RoleReviser) CanRevise(_ context.Context, _ domain.TargetRef, user domain.User) bool {
	return user.HasRole(r.role)
}

// PostRevise реализует registry.Reviser.
func (r *RoleReviser) PostRevise(_ context.Context, inst *domain.WorkflowInstance, user domain.User) error {
	inst.Set("revised_by", user.ID)
	return nil
}
