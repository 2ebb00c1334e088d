package handler

import (
	"net/http"

	"github.com/jobboard/jobboard-go/internal/model"
	"github.com/jobboard/jobboard-go/internal/service"
)

// JobHandler serves the job directory.
type JobHandler struct {
	service *service.JobService
}

func NewJobHandler(svc *service.JobService) *JobHandler {
	return &JobHandler{service: svc}
}

// HandleList handles GET /api/jobs?q=&location=&type=.
func (h *JobHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	jobs, err := h.service.Search(r.Context(), q.Get("q"), q.Get("location"), q.Get("type"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(jobs))
}

// HandleFeatured handles GET /api/jobs/featured.
func (h *JobHandler) HandleFeatured(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.Featured(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(jobs))
}

// HandleGet handles GET /api/jobs/{id}.
func (h *JobHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	jobID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid job id"))
		return
	}

	job, err := h.service.Get(r.Context(), jobID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// HandleCreate handles POST /api/jobs.
func (h *JobHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	var req model.JobRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	job, err := h.service.Create(r.Context(), id.UserID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

// HandleListMine handles GET /api/jobs/employer/me.
func (h *JobHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	jobs, err := h.service.ListByEmployer(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(jobs))
}

// HandleUpdate handles PUT /api/jobs/{id}.
func (h *JobHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	jobID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid job id"))
		return
	}

	var req model.JobRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	job, err := h.service.Update(r.Context(), id.UserID, jobID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// HandleDelete handles DELETE /api/jobs/{id}.
func (h *JobHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	jobID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid job id"))
		return
	}

	if err := h.service.Delete(r.Context(), id.UserID, jobID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "job deleted"})
}

// nonNil makes empty listings encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
