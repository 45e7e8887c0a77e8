package workflows

import (
	"context"
	"fmt"

	"github.com/shaiso/Concord/internal/domain"
	"github.com/shaiso/Concord/internal/registry"
)

// BookingWorkflow бронирует объект, а повторным обновлением
// пересматривает уже сделанное бронирование.
//
//	new/accepted/rejected --CanBook--> booked
//	booked/revised --CanRevise--> revised (+ PostRevise)
type BookingWorkflow struct {
	registry *registry.BookingRegistry
}

// NewBookingWorkflow создаёт decider поверх реестра.
func NewBookingWorkflow(r *registry.BookingRegistry) *BookingWorkflow {
	return &BookingWorkflow{registry: r}
}

// Name реализует runner.Decider.
func (w *BookingWorkflow) Name() string { return ClassBooking }

// DoWorkflow реализует runner.Decider.
func (w *BookingWorkflow) DoWorkflow(ctx context.Context, target domain.TargetRef, inst *domain.WorkflowInstance, user domain.User) error {
	if !inst.State.IsBooked() {
		if !w.registry.CanBook(ctx, target, user) {
			return ErrBookingNotAllowed
		}
		inst.State = domain.WorkflowStateBooked
		inst.Set("booked_by", user.ID)
		return nil
	}

	if !w.registry.CanRevise(ctx, target, user) {
		return ErrRevisionNotAllowed
	}

	inst.State = domain.WorkflowStateRevised
	inst.Set("revisions", inst.Int("revisions")+1)

	if err := w.registry.PostRevise(ctx, inst, user); err != nil {
		return fmt.Errorf("post revise: %w", err)
	}
	return nil
}
