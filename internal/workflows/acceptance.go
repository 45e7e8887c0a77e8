package workflows

import (
	"context"

	"github.com/shaiso/Concord/internal/domain"
	"github.com/shaiso/Concord/internal/registry"
)

// Имена решающих классов.
const (
	ClassAcceptance = "acceptance"
	ClassBooking    = "booking"
)

// AcceptanceWorkflow переводит объект в accepted или rejected.
// Причины отказа сохраняются в Data["reasons"].
type AcceptanceWorkflow struct {
	registry *registry.AcceptanceRegistry
}

// NewAcceptanceWorkflow создаёт decider поверх реестра.
func NewAcceptanceWorkflow(r *registry.AcceptanceRegistry) *AcceptanceWorkflow {
	return &AcceptanceWorkflow{registry: r}
}

// Name реализует runner.Decider.
func (w *AcceptanceWorkflow) Name() string { return ClassAcceptance }

// DoWorkflow реализует runner.Decider.
func (w *AcceptanceWorkflow) DoWorkflow(ctx context.Context, target domain.TargetRef, inst *domain.WorkflowInstance, user domain.User) error {
	ok, reasons := w.registry.CanAccept(ctx, target, user)
	if ok {
		inst.State = domain.WorkflowStateAccepted
		delete(inst.Data, "reasons")
		return nil
	}

	inst.State = domain.WorkflowStateRejected
	inst.Set("reasons", reasons)
	return nil
}
