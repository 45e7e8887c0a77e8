package api

import (
	"net/http"
)

// PutTarget регистрирует объект в общей таблице targets.
// PUT /api/v1/targets/{type}/{id}
func (h *Handler) PutTarget(w http.ResponseWriter, r *http.Request) {
	target, ok := targetFromPath(w, r)
	if !ok {
		return
	}

	if err := h.targets.PutTarget(r.Context(), target); HandleError(w, h.logger, err, "") {
		return
	}

	NoContent(w)
}

// DeleteTarget удаляет объект из общей таблицы targets.
// DELETE /api/v1/targets/{type}/{id}
func (h *Handler) DeleteTarget(w http.ResponseWriter, r *http.Request) {
	target, ok := targetFromPath(w, r)
	if !ok {
		return
	}

	if err := h.targets.DeleteTarget(r.Context(), target); HandleError(w, h.logger, err, "target not found") {
		return
	}

	NoContent(w)
}

// ListResults возвращает результаты последней проверки объекта.
// GET /api/v1/targets/{type}/{id}/results
func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	target, ok := targetFromPath(w, r)
	if !ok {
		return
	}

	results, err := h.results.ListResults(r.Context(), target)
	if HandleError(w, h.logger, err, "") {
		return
	}

	out := make([]ValidationResultResponse, len(results))
	for i, res := range results {
		out[i] = ValidationResultFromDomain(res)
	}

	List(w, out, len(out))
}
