package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/jobboard/jobboard-go/internal/model"
	"github.com/jobboard/jobboard-go/internal/service"
)

// multipartMemory is how much of a multipart form is held in memory before
// parts spill to temp files.
const multipartMemory = 1 << 20

// ApplicationHandler serves application submission, listings and review.
type ApplicationHandler struct {
	service        *service.ApplicationService
	maxResumeBytes int64
}

func NewApplicationHandler(svc *service.ApplicationService, maxResumeBytes int64) *ApplicationHandler {
	return &ApplicationHandler{service: svc, maxResumeBytes: maxResumeBytes}
}

// HandleApply handles POST /api/applications/{id}/apply. The body is either
// multipart/form-data with optional "resume" and "coverLetter" parts, or a
// JSON object {"coverLetter": "..."}. An empty body applies with neither.
func (h *ApplicationHandler) HandleApply(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	jobID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid job id"))
		return
	}

	var req model.ApplyRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "multipart/form-data":
		if !h.readMultipart(w, r, &req) {
			return
		}
		defer r.MultipartForm.RemoveAll()
		if req.Resume != nil {
			if c, ok := req.Resume.Content.(io.Closer); ok {
				defer c.Close()
			}
		}
	case r.ContentLength != 0:
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	resp, err := h.service.Submit(r.Context(), id.UserID, jobID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *ApplicationHandler) readMultipart(w http.ResponseWriter, r *http.Request, req *model.ApplyRequest) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxResumeBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusBadRequest, errorResponse(service.ErrResumeTooLarge.Error()))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid multipart form"))
		return false
	}

	req.CoverLetter = r.FormValue("coverLetter")

	file, header, err := r.FormFile("resume")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		r.MultipartForm.RemoveAll()
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid resume upload"))
		return false
	default:
		req.Resume = &model.ResumeUpload{
			Filename: header.Filename,
			Size:     header.Size,
			Content:  file,
		}
	}
	return true
}

// HandleListMine handles GET /api/applications/me.
func (h *ApplicationHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	apps, err := h.service.ListForCandidate(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(apps))
}

// HandleListReceived handles GET /api/applications/employer/me.
func (h *ApplicationHandler) HandleListReceived(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	apps, err := h.service.ListForEmployer(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(apps))
}

// HandleUpdateStatus handles PATCH /api/applications/{id}/status.
func (h *ApplicationHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}

	appID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid application id"))
		return
	}

	var req model.StatusUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.service.UpdateStatus(r.Context(), id.UserID, appID, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
