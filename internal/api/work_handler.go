package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Concord/internal/domain"
	"github.com/shaiso/Concord/internal/repo"
)

// ListWorkItems возвращает список запланированных работ.
// GET /api/v1/work-items?kind=&target_type=&limit=&offset=
func (h *Handler) ListWorkItems(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}

	items, err := h.workItems.ListWorkItems(r.Context(), repo.WorkItemFilter{
		Kind:       r.URL.Query().Get("kind"),
		TargetType: r.URL.Query().Get("target_type"),
		Limit:      limit,
		Offset:     offset,
	})
	if HandleError(w, h.logger, err, "") {
		return
	}

	result := make([]WorkItemResponse, len(items))
	for i, item := range items {
		result[i] = WorkItemFromDomain(item)
	}

	List(w, result, len(result))
}

// CreateWorkItem планирует работу над объектом.
// POST /api/v1/work-items
func (h *Handler) CreateWorkItem(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkItemRequest
	if err := decode(r, &req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	var runDate time.Time
	if req.RunDate != nil {
		runDate = *req.RunDate
	}

	item, err := domain.NewScheduledWorkItem(req.Kind, domain.NewTargetRef(req.TargetType, req.TargetID), runDate)
	if HandleError(w, h.logger, err, "") {
		return
	}

	if err := h.workItems.CreateWorkItem(r.Context(), item); HandleError(w, h.logger, err, "") {
		return
	}

	// Работа уже наступила — не ждём следующего тика планировщика
	if h.nudger != nil && item.IsDue(time.Now()) {
		if err := h.nudger.PublishNudge(r.Context(), "work item created"); err != nil {
			h.logger.Warn("failed to publish nudge", "work_item_id", item.ID, "error", err)
		}
	}

	Created(w, WorkItemFromDomain(*item))
}

// GetWorkItem возвращает work item по ID.
// GET /api/v1/work-items/{id}
func (h *Handler) GetWorkItem(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid work item id")
		return
	}

	item, err := h.workItems.GetWorkItem(r.Context(), id)
	if HandleError(w, h.logger, err, "work item not found") {
		return
	}

	Success(w, WorkItemFromDomain(*item))
}

// RunWork выполняет проход по наступившим работам и возвращает итог.
// POST /api/v1/work/run
func (h *Handler) RunWork(w http.ResponseWriter, r *http.Request) {
	var req RunWorkRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid request body")
		return
	}

	now := time.Now()
	if req.Now != nil {
		now = *req.Now
	}

	summary, err := h.batch.RunDueWork(r.Context(), now)
	if HandleError(w, h.logger, err, "") {
		return
	}

	Success(w, summary)
}

// pageParams разбирает limit и offset из query.
func pageParams(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			return 0, 0, errors.New("invalid limit")
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, errors.New("invalid offset")
		}
	}
	return limit, offset, nil
}
