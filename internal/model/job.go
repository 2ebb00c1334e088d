package model

import (
	"strings"
	"time"
)

type JobType string

const (
	JobTypeFullTime   JobType = "full-time"
	JobTypePartTime   JobType = "part-time"
	JobTypeInternship JobType = "internship"
	JobTypeContract   JobType = "contract"
)

// ParseJobType normalises case and surrounding space. The second result
// reports whether the value names a known type.
func ParseJobType(s string) (JobType, bool) {
	t := JobType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case JobTypeFullTime, JobTypePartTime, JobTypeInternship, JobTypeContract:
		return t, true
	}
	return t, false
}

// Job is a posting owned by the employer in CreatedBy.
type Job struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Company      string    `json:"company"`
	Location     string    `json:"location"`
	Type         JobType   `json:"type"`
	Description  string    `json:"description"`
	Requirements string    `json:"requirements"`
	CreatedBy    int64     `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// JobRequest is the body of job create and update calls.
type JobRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	Company      string `json:"company" validate:"required,max=200"`
	Location     string `json:"location" validate:"required,max=200"`
	Type         string `json:"type" validate:"required,oneof=full-time part-time internship contract"`
	Description  string `json:"description" validate:"required,max=20000"`
	Requirements string `json:"requirements" validate:"max=20000"`
}

// JobFilter holds the public search parameters. Empty fields match everything.
type JobFilter struct {
	Query    string
	Location string
	Type     JobType
}

// JobSummary is the slice of a job embedded in application listings.
type JobSummary struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Company  string  `json:"company"`
	Location string  `json:"location"`
	Type     JobType `json:"type"`
}
