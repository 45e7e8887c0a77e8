package api

import (
	"net/http"

	"github.com/shaiso/Concord/internal/domain"
	"github.com/shaiso/Concord/internal/repo"
)

// ListWorkflows возвращает список экземпляров процессов.
// GET /api/v1/workflows?class=&target_type=&limit=&offset=
func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	instances, err := h.workflows.ListWorkflows(r.Context(), repo.WorkflowFilter{
		Class:      r.URL.Query().Get("class"),
		TargetType: r.URL.Query().Get("target_type"),
		Limit:      limit,
		Offset:     offset,
	})
	if HandleError(w, h.logger, err, "") {
		return
	}

	result := make([]WorkflowResponse, len(instances))
	for i, inst := range instances {
		result[i] = WorkflowFromDomain(inst)
	}

	List(w, result, len(result))
}

// GetWorkflow возвращает экземпляр процесса объекта.
// GET /api/v1/workflows/{class}/targets/{type}/{id}
func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	target, ok := targetFromPath(w, r)
	if !ok {
		return
	}

	inst, err := h.workflows.GetWorkflow(r.Context(), r.PathValue("class"), target)
	if HandleError(w, h.logger, err, "workflow not found") {
		return
	}

	Success(w, WorkflowFromDomain(*inst))
}

// UpdateWorkflow синхронно применяет decider класса к объекту
// от имени пользователя из заголовков.
// PUT /api/v1/workflows/{class}/targets/{type}/{id}
func (h *Handler) UpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r)
	if !ok {
		BadRequest(w, HeaderUserID+" header is required")
		return
	}

	target, ok := targetFromPath(w, r)
	if !ok {
		return
	}

	decider, err := h.deciders.Get(r.PathValue("class"))
	if HandleError(w, h.logger, err, "") {
		return
	}

	inst, err := h.updater.UpdateWorkflow(r.Context(), decider, target, user)
	if HandleError(w, h.logger, err, "") {
		return
	}

	Success(w, WorkflowFromDomain(*inst))
}

// targetFromPath собирает TargetRef из {type} и {id}.
// При ошибке сам отвечает 400.
func targetFromPath(w http.ResponseWriter, r *http.Request) (domain.TargetRef, bool) {
	target := domain.NewTargetRef(r.PathValue("type"), r.PathValue("id"))
	if err := target.Validate(); err != nil {
		BadRequest(w, err.Error())
		return domain.TargetRef{}, false
	}
	return target, true
}
