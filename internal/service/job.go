package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jobboard/jobboard-go/internal/model"
	"github.com/jobboard/jobboard-go/internal/repository"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrNotJobOwner = errors.New("only the employer who posted this job may change it")
)

// JobService is the job directory: public search plus owner-scoped changes.
type JobService struct {
	jobs          *repository.JobRepository
	resumes       ResumeStore
	featuredLimit int
	now           func() time.Time
}

// NewJobService creates a new JobService. featuredLimit bounds Featured;
// resumes receives the files of applications removed with a job.
func NewJobService(jobs *repository.JobRepository, resumes ResumeStore, featuredLimit int) *JobService {
	if featuredLimit < 1 {
		featuredLimit = 6
	}
	return &JobService{jobs: jobs, resumes: resumes, featuredLimit: featuredLimit, now: time.Now}
}

// Create posts a job owned by employerID.
func (s *JobService) Create(ctx context.Context, employerID int64, req model.JobRequest) (model.Job, error) {
	req = cleanJobRequest(req)
	if err := validateStruct(req); err != nil {
		return model.Job{}, err
	}

	now := s.now().UTC()
	job := model.Job{
		Title:        req.Title,
		Company:      req.Company,
		Location:     req.Location,
		Type:         model.JobType(req.Type),
		Description:  req.Description,
		Requirements: req.Requirements,
		CreatedBy:    employerID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.jobs.Create(ctx, &job); err != nil {
		return model.Job{}, err
	}
	return job, nil
}

// Get returns a single job.
func (s *JobService) Get(ctx context.Context, id int64) (model.Job, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return model.Job{}, ErrJobNotFound
		}
		return model.Job{}, err
	}
	return *job, nil
}

// Search lists jobs matching the free-text query, location and type. Type
// is an exact match, so an unknown type matches nothing.
func (s *JobService) Search(ctx context.Context, query, location, jobType string) ([]model.Job, error) {
	f := model.JobFilter{Query: query, Location: location}
	if jobType != "" {
		t, ok := model.ParseJobType(jobType)
		if !ok {
			return []model.Job{}, nil
		}
		f.Type = t
	}
	return s.jobs.Search(ctx, f)
}

// Featured returns the most recently posted jobs.
func (s *JobService) Featured(ctx context.Context) ([]model.Job, error) {
	return s.jobs.Latest(ctx, s.featuredLimit)
}

// ListByEmployer returns the jobs posted by employerID.
func (s *JobService) ListByEmployer(ctx context.Context, employerID int64) ([]model.Job, error) {
	return s.jobs.ListByOwner(ctx, employerID)
}

// Update replaces the editable fields of a job the caller owns.
func (s *JobService) Update(ctx context.Context, employerID, jobID int64, req model.JobRequest) (model.Job, error) {
	req = cleanJobRequest(req)
	if err := validateStruct(req); err != nil {
		return model.Job{}, err
	}

	job, err := s.owned(ctx, employerID, jobID)
	if err != nil {
		return model.Job{}, err
	}

	job.Title = req.Title
	job.Company = req.Company
	job.Location = req.Location
	job.Type = model.JobType(req.Type)
	job.Description = req.Description
	job.Requirements = req.Requirements
	job.UpdatedAt = s.now().UTC()

	if err := s.jobs.Update(ctx, job); err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return model.Job{}, ErrJobNotFound
		}
		return model.Job{}, err
	}
	return *job, nil
}

// Delete removes a job the caller owns together with its applications and
// their resume files.
func (s *JobService) Delete(ctx context.Context, employerID, jobID int64) error {
	if _, err := s.owned(ctx, employerID, jobID); err != nil {
		return err
	}
	paths, err := s.jobs.Delete(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return ErrJobNotFound
		}
		return err
	}

	if s.resumes == nil {
		return nil
	}
	for _, p := range paths {
		if err := s.resumes.Remove(p); err != nil {
			slog.WarnContext(ctx, "failed to remove resume of deleted job", "job_id", jobID, "path", p, "error", err)
		}
	}
	return nil
}

// owned loads a job and checks that employerID created it.
func (s *JobService) owned(ctx context.Context, employerID, jobID int64) (*model.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	if job.CreatedBy != employerID {
		return nil, ErrNotJobOwner
	}
	return job, nil
}

func cleanJobRequest(req model.JobRequest) model.JobRequest {
	req.Title = clean(req.Title)
	req.Company = clean(req.Company)
	req.Location = clean(req.Location)
	if t, ok := model.ParseJobType(req.Type); ok {
		req.Type = string(t)
	}
	req.Description = clean(req.Description)
	req.Requirements = clean(req.Requirements)
	return req
}
