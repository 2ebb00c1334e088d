package model

import (
	"io"
	"time"
)

type ApplicationStatus string

const (
	StatusApplied  ApplicationStatus = "applied"
	StatusReviewed ApplicationStatus = "reviewed"
	StatusAccepted ApplicationStatus = "accepted"
	StatusRejected ApplicationStatus = "rejected"
)

var statusTransitions = map[ApplicationStatus][]ApplicationStatus{
	StatusApplied:  {StatusReviewed, StatusAccepted, StatusRejected},
	StatusReviewed: {StatusAccepted, StatusRejected},
}

func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusApplied, StatusReviewed, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s ApplicationStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// CanTransitionTo reports whether an employer may move an application from s to next.
func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Application is a candidate's submission against a job. At most one exists
// per (JobID, CandidateID).
type Application struct {
	ID                 int64
	JobID              int64
	CandidateID        int64
	CoverLetter        string
	ResumePath         string
	ResumeOriginalName string
	Status             ApplicationStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ResumeUpload is an uploaded file as received by the HTTP layer.
type ResumeUpload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// ApplyRequest carries the fields of an application submission.
type ApplyRequest struct {
	CoverLetter string        `json:"coverLetter" validate:"max=10000"`
	Resume      *ResumeUpload `json:"-"`
}

// ResumeRef points at a stored resume.
type ResumeRef struct {
	URL          string `json:"url"`
	OriginalName string `json:"original_name"`
}

// ApplicationResponse is the API view of an application. Job and Candidate
// are populated only by listing calls.
type ApplicationResponse struct {
	ID          int64             `json:"id"`
	JobID       int64             `json:"job_id"`
	CandidateID int64             `json:"candidate_id"`
	CoverLetter string            `json:"cover_letter,omitempty"`
	Resume      *ResumeRef        `json:"resume,omitempty"`
	Status      ApplicationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Job         *JobSummary       `json:"job,omitempty"`
	Candidate   *UserSummary      `json:"candidate,omitempty"`
}

func (a Application) Response() ApplicationResponse {
	resp := ApplicationResponse{
		ID:          a.ID,
		JobID:       a.JobID,
		CandidateID: a.CandidateID,
		CoverLetter: a.CoverLetter,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.ResumePath != "" {
		resp.Resume = &ResumeRef{URL: a.ResumePath, OriginalName: a.ResumeOriginalName}
	}
	return resp
}

// ApplicationListing is a row of the role-scoped listing queries.
type ApplicationListing struct {
	Application Application
	Job         JobSummary
	Candidate   UserSummary
}

// StatusUpdateRequest is the body of an application status change.
type StatusUpdateRequest struct {
	Status ApplicationStatus `json:"status" validate:"required,oneof=applied reviewed accepted rejected"`
}
