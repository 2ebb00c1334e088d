package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jobboard/jobboard-go/internal/model"
)

var ErrJobNotFound = errors.New("job not found")

// JobRepository handles job posting persistence.
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new JobRepository.
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, title, company, location, type, description, requirements, created_by, created_at, updated_at`

// Create inserts job and sets its generated ID.
func (r *JobRepository) Create(ctx context.Context, job *model.Job) error {
	query := `INSERT INTO jobs (title, company, location, type, description, requirements, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		job.Title, job.Company, job.Location, string(job.Type),
		job.Description, job.Requirements, job.CreatedBy, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	job.ID = id
	return nil
}

// GetByID retrieves a job by its ID.
func (r *JobRepository) GetByID(ctx context.Context, id int64) (*model.Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// Search returns jobs matching every non-empty field of f, newest first.
// Query matches title or company; Location is a substring; Type is exact.
// Text matching ignores ASCII case only: SQLite's LOWER() leaves other
// letters alone, so "é" does not match "É" there. MySQL's default _ci
// collations fold those as well.
func (r *JobRepository) Search(ctx context.Context, f model.JobFilter) ([]model.Job, error) {
	var (
		where []string
		args  []any
	)
	if f.Query != "" {
		p := likePattern(f.Query)
		where = append(where, `(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(company) LIKE ? ESCAPE '!')`)
		args = append(args, p, p)
	}
	if f.Location != "" {
		where = append(where, `LOWER(location) LIKE ? ESCAPE '!'`)
		args = append(args, likePattern(f.Location))
	}
	if f.Type != "" {
		where = append(where, `type = ?`)
		args = append(args, string(f.Type))
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	return r.list(ctx, query, args...)
}

// Latest returns the limit most recently created jobs.
func (r *JobRepository) Latest(ctx context.Context, limit int) ([]model.Job, error) {
	return r.list(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}

// ListByOwner returns the jobs created by the given employer.
func (r *JobRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Job, error) {
	return r.list(ctx, `SELECT `+jobColumns+` FROM jobs WHERE created_by = ? ORDER BY created_at DESC, id DESC`, ownerID)
}

// Update overwrites the editable fields of job. Ownership is not checked here.
func (r *JobRepository) Update(ctx context.Context, job *model.Job) error {
	query := `UPDATE jobs SET title = ?, company = ?, location = ?, type = ?, description = ?, requirements = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		job.Title, job.Company, job.Location, string(job.Type),
		job.Description, job.Requirements, job.UpdatedAt, job.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(result, ErrJobNotFound)
}

// Delete removes a job; its applications go with it. It returns the resume
// paths those applications referenced so the caller can remove the files
// once the delete has committed.
func (r *JobRepository) Delete(ctx context.Context, id int64) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Write-lock the job row first: application inserts check it through the
	// foreign key, so none can land between the select and the delete.
	if _, err := tx.ExecContext(ctx, `UPDATE jobs SET updated_at = updated_at WHERE id = ?`, id); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT resume_path FROM applications WHERE job_id = ? AND resume_path <> '' ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return nil, err
		}
		paths = append(paths, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if err := expectOneRow(result, ErrJobNotFound); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return paths, nil
}

func (r *JobRepository) list(ctx context.Context, query string, args ...any) ([]model.Job, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []model.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}

	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(s rowScanner) (*model.Job, error) {
	var (
		job     model.Job
		jobType string
	)
	if err := s.Scan(
		&job.ID, &job.Title, &job.Company, &job.Location, &jobType,
		&job.Description, &job.Requirements, &job.CreatedBy, &job.CreatedAt, &job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	job.Type = model.JobType(jobType)
	return &job, nil
}

// expectOneRow turns a zero-row write into notFound. Updates always move
// updated_at, so MySQL's changed-rows count is safe to use here.
func expectOneRow(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
