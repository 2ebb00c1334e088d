package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jobboard/jobboard-go/internal/model"
)

var (
	ErrApplicationNotFound  = errors.New("application not found")
	ErrDuplicateApplication = errors.New("application already exists for this job and candidate")
	ErrStatusChanged        = errors.New("application status changed concurrently")
)

// ApplicationRepository handles application persistence. The (job_id,
// candidate_id) unique index is what enforces one application per pair.
type ApplicationRepository struct {
	db *sql.DB
}

// NewApplicationRepository creates a new ApplicationRepository.
func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `a.id, a.job_id, a.candidate_id, a.cover_letter, a.resume_path, a.resume_original_name, a.status, a.created_at, a.updated_at`

// Create inserts app and sets its generated ID. A second insert for the same
// job and candidate fails with ErrDuplicateApplication.
func (r *ApplicationRepository) Create(ctx context.Context, app *model.Application) error {
	query := `INSERT INTO applications (job_id, candidate_id, cover_letter, resume_path, resume_original_name, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		app.JobID, app.CandidateID, app.CoverLetter, app.ResumePath, app.ResumeOriginalName,
		string(app.Status), app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateApplication
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	app.ID = id
	return nil
}

// Exists reports whether candidateID already applied to jobID.
func (r *ApplicationRepository) Exists(ctx context.Context, jobID, candidateID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM applications WHERE job_id = ? AND candidate_id = ?`, jobID, candidateID,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetByID retrieves an application by its ID.
func (r *ApplicationRepository) GetByID(ctx context.Context, id int64) (*model.Application, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+applicationColumns+` FROM applications a WHERE a.id = ?`, id)

	var app model.Application
	if err := scanApplication(row, &app); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &app, nil
}

// ListByCandidate returns the candidate's applications with their job summaries, newest first.
func (r *ApplicationRepository) ListByCandidate(ctx context.Context, candidateID int64) ([]model.ApplicationListing, error) {
	query := `SELECT ` + applicationColumns + `, j.id, j.title, j.company, j.location, j.type
		FROM applications a
		JOIN jobs j ON j.id = a.job_id
		WHERE a.candidate_id = ?
		ORDER BY a.created_at DESC, a.id DESC`

	rows, err := r.db.QueryContext(ctx, query, candidateID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := []model.ApplicationListing{}
	for rows.Next() {
		var (
			l       model.ApplicationListing
			jobType string
		)
		if err := rows.Scan(
			&l.Application.ID, &l.Application.JobID, &l.Application.CandidateID, &l.Application.CoverLetter,
			&l.Application.ResumePath, &l.Application.ResumeOriginalName, &l.Application.Status,
			&l.Application.CreatedAt, &l.Application.UpdatedAt,
			&l.Job.ID, &l.Job.Title, &l.Job.Company, &l.Job.Location, &jobType,
		); err != nil {
			return nil, err
		}
		l.Job.Type = model.JobType(jobType)
		listings = append(listings, l)
	}

	return listings, rows.Err()
}

// ListByJobOwner returns every application made to a job created by ownerID,
// joined with job and candidate summaries, newest first.
func (r *ApplicationRepository) ListByJobOwner(ctx context.Context, ownerID int64) ([]model.ApplicationListing, error) {
	query := `SELECT ` + applicationColumns + `, j.id, j.title, j.company, j.location, j.type, u.id, u.name, u.email
		FROM applications a
		JOIN jobs j ON j.id = a.job_id
		JOIN users u ON u.id = a.candidate_id
		WHERE j.created_by = ?
		ORDER BY a.created_at DESC, a.id DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := []model.ApplicationListing{}
	for rows.Next() {
		var (
			l       model.ApplicationListing
			jobType string
		)
		if err := rows.Scan(
			&l.Application.ID, &l.Application.JobID, &l.Application.CandidateID, &l.Application.CoverLetter,
			&l.Application.ResumePath, &l.Application.ResumeOriginalName, &l.Application.Status,
			&l.Application.CreatedAt, &l.Application.UpdatedAt,
			&l.Job.ID, &l.Job.Title, &l.Job.Company, &l.Job.Location, &jobType,
			&l.Candidate.ID, &l.Candidate.Name, &l.Candidate.Email,
		); err != nil {
			return nil, err
		}
		l.Job.Type = model.JobType(jobType)
		listings = append(listings, l)
	}

	return listings, rows.Err()
}

// UpdateStatus moves an application from one status to another. It fails with
// ErrStatusChanged if the stored status is no longer from.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id int64, from, to model.ApplicationStatus, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE applications SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), at, id, string(from),
	)
	if err != nil {
		return err
	}
	return expectOneRow(result, ErrStatusChanged)
}

func scanApplication(s rowScanner, app *model.Application) error {
	return s.Scan(
		&app.ID, &app.JobID, &app.CandidateID, &app.CoverLetter,
		&app.ResumePath, &app.ResumeOriginalName, &app.Status,
		&app.CreatedAt, &app.UpdatedAt,
	)
}
