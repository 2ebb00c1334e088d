package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jobboard/jobboard-go/internal/model"
	"github.com/jobboard/jobboard-go/internal/notify"
	"github.com/jobboard/jobboard-go/internal/repository"
	"github.com/jobboard/jobboard-go/internal/storage"
)

var (
	ErrApplicationNotFound     = errors.New("application not found")
	ErrAlreadyApplied          = errors.New("already applied to this job")
	ErrInvalidStatusTransition = errors.New("status change not allowed")
	ErrStatusConflict          = errors.New("application status was changed by another request")
)

// ResumeStore persists uploaded resumes.
type ResumeStore interface {
	Save(ctx context.Context, r io.Reader, ext string, maxBytes int64) (storage.Stored, error)
	Remove(ref string) error
}

// Notifier queues outgoing mail without waiting for delivery.
type Notifier interface {
	Enqueue(msgs ...notify.Message) error
}

// ApplicationService runs the application workflow: submission, role-scoped
// listings and employer review.
type ApplicationService struct {
	apps           *repository.ApplicationRepository
	jobs           *repository.JobRepository
	users          *repository.UserRepository
	resumes        ResumeStore
	notifier       Notifier
	maxResumeBytes int64
	now            func() time.Time
}

// NewApplicationService creates a new ApplicationService. notifier may be nil.
func NewApplicationService(
	apps *repository.ApplicationRepository,
	jobs *repository.JobRepository,
	users *repository.UserRepository,
	resumes ResumeStore,
	notifier Notifier,
	maxResumeBytes int64,
) *ApplicationService {
	return &ApplicationService{
		apps:           apps,
		jobs:           jobs,
		users:          users,
		resumes:        resumes,
		notifier:       notifier,
		maxResumeBytes: maxResumeBytes,
		now:            time.Now,
	}
}

// Submit records candidateID's application to jobID. A candidate can apply
// to a job once; later attempts fail with ErrAlreadyApplied.
func (s *ApplicationService) Submit(ctx context.Context, candidateID, jobID int64, req model.ApplyRequest) (model.ApplicationResponse, error) {
	req.CoverLetter = clean(req.CoverLetter)
	if err := validateStruct(req); err != nil {
		return model.ApplicationResponse{}, err
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return model.ApplicationResponse{}, ErrJobNotFound
		}
		return model.ApplicationResponse{}, err
	}

	// Checked before storing the resume so a repeat submission leaves no
	// orphan file. The unique index still decides concurrent submissions.
	exists, err := s.apps.Exists(ctx, jobID, candidateID)
	if err != nil {
		return model.ApplicationResponse{}, err
	}
	if exists {
		return model.ApplicationResponse{}, ErrAlreadyApplied
	}

	now := s.now().UTC()
	app := model.Application{
		JobID:       jobID,
		CandidateID: candidateID,
		CoverLetter: req.CoverLetter,
		Status:      model.StatusApplied,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if req.Resume != nil {
		stored, err := s.storeResume(ctx, req.Resume)
		if err != nil {
			return model.ApplicationResponse{}, err
		}
		app.ResumePath = stored.URL
		app.ResumeOriginalName = originalName(req.Resume.Filename)
	}

	if err := s.apps.Create(ctx, &app); err != nil {
		s.discardResume(ctx, app.ResumePath)
		if errors.Is(err, repository.ErrDuplicateApplication) {
			return model.ApplicationResponse{}, ErrAlreadyApplied
		}
		return model.ApplicationResponse{}, err
	}

	s.notifySubmitted(ctx, job, app)

	return app.Response(), nil
}

// ListForCandidate returns the candidate's applications with job summaries.
func (s *ApplicationService) ListForCandidate(ctx context.Context, candidateID int64) ([]model.ApplicationResponse, error) {
	listings, err := s.apps.ListByCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}

	out := make([]model.ApplicationResponse, len(listings))
	for i, l := range listings {
		out[i] = l.Application.Response()
		job := l.Job
		out[i].Job = &job
	}
	return out, nil
}

// ListForEmployer returns applications to jobs employerID posted, with job
// and candidate summaries.
func (s *ApplicationService) ListForEmployer(ctx context.Context, employerID int64) ([]model.ApplicationResponse, error) {
	listings, err := s.apps.ListByJobOwner(ctx, employerID)
	if err != nil {
		return nil, err
	}

	out := make([]model.ApplicationResponse, len(listings))
	for i, l := range listings {
		out[i] = l.Application.Response()
		job, cand := l.Job, l.Candidate
		out[i].Job = &job
		out[i].Candidate = &cand
	}
	return out, nil
}

// UpdateStatus moves an application along applied -> reviewed -> accepted|rejected.
// Only the employer who owns the job may do so.
func (s *ApplicationService) UpdateStatus(ctx context.Context, employerID, applicationID int64, req model.StatusUpdateRequest) (model.ApplicationResponse, error) {
	if err := validateStruct(req); err != nil {
		return model.ApplicationResponse{}, err
	}

	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, repository.ErrApplicationNotFound) {
			return model.ApplicationResponse{}, ErrApplicationNotFound
		}
		return model.ApplicationResponse{}, err
	}

	job, err := s.jobs.GetByID(ctx, app.JobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			return model.ApplicationResponse{}, ErrApplicationNotFound
		}
		return model.ApplicationResponse{}, err
	}
	if job.CreatedBy != employerID {
		return model.ApplicationResponse{}, ErrNotJobOwner
	}

	if !app.Status.CanTransitionTo(req.Status) {
		return model.ApplicationResponse{}, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, app.Status, req.Status)
	}

	at := s.now().UTC()
	if err := s.apps.UpdateStatus(ctx, app.ID, app.Status, req.Status, at); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return model.ApplicationResponse{}, ErrStatusConflict
		}
		return model.ApplicationResponse{}, err
	}
	app.Status = req.Status
	app.UpdatedAt = at

	if app.Status.Terminal() {
		s.notifyDecision(ctx, job, *app)
	}

	return app.Response(), nil
}

func (s *ApplicationService) storeResume(ctx context.Context, up *model.ResumeUpload) (storage.Stored, error) {
	ext, body, err := inspectResume(up, s.maxResumeBytes)
	if err != nil {
		return storage.Stored{}, err
	}

	stored, err := s.resumes.Save(ctx, body, ext, s.maxResumeBytes)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return storage.Stored{}, ErrResumeTooLarge
		}
		return storage.Stored{}, fmt.Errorf("storing resume: %w", err)
	}
	return stored, nil
}

func (s *ApplicationService) discardResume(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.resumes.Remove(ref); err != nil {
		slog.WarnContext(ctx, "failed to remove orphaned resume", "path", ref, "error", err)
	}
}

// notifySubmitted queues the candidate confirmation and the employer notice.
// Nothing here can fail the submission.
func (s *ApplicationService) notifySubmitted(ctx context.Context, job *model.Job, app model.Application) {
	if s.notifier == nil {
		return
	}

	candidate, err := s.users.GetByID(ctx, app.CandidateID)
	if err != nil {
		slog.WarnContext(ctx, "skipping application notifications", "application_id", app.ID, "error", err)
		return
	}

	msgs := []notify.Message{{
		To:      candidate.Email,
		Subject: fmt.Sprintf("Application received: %s at %s", job.Title, job.Company),
		Body: fmt.Sprintf("Hi %s,\n\nYour application for %s at %s has been received.\n\nGood luck!\n",
			candidate.Name, job.Title, job.Company),
	}}

	employer, err := s.users.GetByID(ctx, job.CreatedBy)
	if err != nil {
		slog.WarnContext(ctx, "skipping employer notification", "application_id", app.ID, "error", err)
	} else {
		body := fmt.Sprintf("Hi %s,\n\n%s (%s) applied for %s.\n", employer.Name, candidate.Name, candidate.Email, job.Title)
		if app.ResumePath != "" {
			body += fmt.Sprintf("\nResume: %s\n", app.ResumePath)
		}
		if app.CoverLetter != "" {
			body += "\nCover letter:\n" + app.CoverLetter + "\n"
		}
		msgs = append(msgs, notify.Message{
			To:      employer.Email,
			Subject: fmt.Sprintf("New application for %s", job.Title),
			Body:    body,
		})
	}

	if err := s.notifier.Enqueue(msgs...); err != nil {
		slog.WarnContext(ctx, "application notifications not queued", "application_id", app.ID, "error", err)
	}
}

func (s *ApplicationService) notifyDecision(ctx context.Context, job *model.Job, app model.Application) {
	if s.notifier == nil {
		return
	}

	candidate, err := s.users.GetByID(ctx, app.CandidateID)
	if err != nil {
		slog.WarnContext(ctx, "skipping decision notification", "application_id", app.ID, "error", err)
		return
	}

	msg := notify.Message{
		To:      candidate.Email,
		Subject: fmt.Sprintf("Update on your application: %s at %s", job.Title, job.Company),
		Body: fmt.Sprintf("Hi %s,\n\nYour application for %s at %s has been %s.\n",
			candidate.Name, job.Title, job.Company, app.Status),
	}
	if err := s.notifier.Enqueue(msg); err != nil {
		slog.WarnContext(ctx, "decision notification not queued", "application_id", app.ID, "error", err)
	}
}
