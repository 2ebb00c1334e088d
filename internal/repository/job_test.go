package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jobboard/jobboard-go/internal/model"
)

// base gives successive jobs strictly increasing creation times.
var base = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func createJob(t *testing.T, db *sql.DB, owner int64, title, company, location string, typ model.JobType, n int) *model.Job {
	t.Helper()

	at := base.Add(time.Duration(n) * time.Minute)
	job := &model.Job{
		Title:       title,
		Company:     company,
		Location:    location,
		Type:        typ,
		Description: "Build things.",
		CreatedBy:   owner,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	if err := NewJobRepository(db).Create(context.Background(), job); err != nil {
		t.Fatalf("Create(job) unexpected error: %v", err)
	}
	return job
}

func titles(jobs []model.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.Title
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestJobSearch(t *testing.T) {
	db := newTestDB(t)
	emp := createUser(t, db, "Acme HR", "hr@acme.test", model.RoleEmployer)

	createJob(t, db, emp.ID, "Backend Engineer", "Acme", "Berlin", model.JobTypeFullTime, 1)
	createJob(t, db, emp.ID, "Designer", "Engineering Co", "Remote", model.JobTypeContract, 2)
	createJob(t, db, emp.ID, "Data Intern", "Acme", "berlin (hybrid)", model.JobTypeInternship, 3)
	createJob(t, db, emp.ID, "Ops 100% remote", "Globex", "Remote", model.JobTypeContract, 4)

	tests := []struct {
		name   string
		filter model.JobFilter
		want   []string
	}{
		{"no filter newest first", model.JobFilter{}, []string{"Ops 100% remote", "Data Intern", "Designer", "Backend Engineer"}},
		{"query matches title or company", model.JobFilter{Query: "engineer"}, []string{"Designer", "Backend Engineer"}},
		{"query is case insensitive", model.JobFilter{Query: "ACME"}, []string{"Data Intern", "Backend Engineer"}},
		{"location substring", model.JobFilter{Location: "BERLIN"}, []string{"Data Intern", "Backend Engineer"}},
		{"type exact", model.JobFilter{Type: model.JobTypeContract}, []string{"Ops 100% remote", "Designer"}},
		{"combined", model.JobFilter{Query: "acme", Location: "berlin", Type: model.JobTypeFullTime}, []string{"Backend Engineer"}},
		{"wildcards are literal", model.JobFilter{Query: "100%"}, []string{"Ops 100% remote"}},
		{"percent alone matches literally", model.JobFilter{Query: "%"}, []string{"Ops 100% remote"}},
		{"no match", model.JobFilter{Query: "astronaut"}, []string{}},
	}

	repo := NewJobRepository(db)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs, err := repo.Search(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("Search() unexpected error: %v", err)
			}
			if got := titles(jobs); !equalStrings(got, tt.want) {
				t.Errorf("Search() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJobLatestAndOwner(t *testing.T) {
	db := newTestDB(t)
	a := createUser(t, db, "A", "a@example.com", model.RoleEmployer)
	b := createUser(t, db, "B", "b@example.com", model.RoleEmployer)

	for i := 1; i <= 8; i++ {
		owner := a.ID
		if i%2 == 0 {
			owner = b.ID
		}
		createJob(t, db, owner, "Job "+string(rune('0'+i)), "Co", "Here", model.JobTypePartTime, i)
	}

	repo := NewJobRepository(db)
	latest, err := repo.Latest(context.Background(), 3)
	if err != nil {
		t.Fatalf("Latest() unexpected error: %v", err)
	}
	if got := titles(latest); !equalStrings(got, []string{"Job 8", "Job 7", "Job 6"}) {
		t.Errorf("Latest() = %v", got)
	}

	owned, err := repo.ListByOwner(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("ListByOwner() unexpected error: %v", err)
	}
	if got := titles(owned); !equalStrings(got, []string{"Job 7", "Job 5", "Job 3", "Job 1"}) {
		t.Errorf("ListByOwner() = %v", got)
	}
}

func TestJobUpdateDelete(t *testing.T) {
	db := newTestDB(t)
	emp := createUser(t, db, "A", "a@example.com", model.RoleEmployer)
	cand := createUser(t, db, "C", "c@example.com", model.RoleCandidate)
	job := createJob(t, db, emp.ID, "Backend Engineer", "Acme", "Berlin", model.JobTypeFullTime, 1)

	repo := NewJobRepository(db)
	ctx := context.Background()

	job.Title = "Senior Backend Engineer"
	job.UpdatedAt = job.UpdatedAt.Add(time.Hour)
	if err := repo.Update(ctx, job); err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	got, err := repo.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID() unexpected error: %v", err)
	}
	if got.Title != "Senior Backend Engineer" {
		t.Errorf("Title = %q after update", got.Title)
	}

	cand2 := createUser(t, db, "D", "d@example.com", model.RoleCandidate)
	app := &model.Application{JobID: job.ID, CandidateID: cand.ID, ResumePath: "/uploads/1-a.pdf", Status: model.StatusApplied, CreatedAt: base, UpdatedAt: base}
	noResume := &model.Application{JobID: job.ID, CandidateID: cand2.ID, Status: model.StatusApplied, CreatedAt: base, UpdatedAt: base}
	for _, a := range []*model.Application{app, noResume} {
		if err := NewApplicationRepository(db).Create(ctx, a); err != nil {
			t.Fatalf("Create(application) unexpected error: %v", err)
		}
	}

	paths, err := repo.Delete(ctx, job.ID)
	if err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if !equalStrings(paths, []string{"/uploads/1-a.pdf"}) {
		t.Errorf("Delete() resume paths = %v", paths)
	}
	if _, err := repo.GetByID(ctx, job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrJobNotFound", err)
	}
	if _, err := NewApplicationRepository(db).GetByID(ctx, app.ID); !errors.Is(err, ErrApplicationNotFound) {
		t.Errorf("application survived job deletion: %v", err)
	}

	if _, err := repo.Delete(ctx, job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("second Delete() error = %v, want ErrJobNotFound", err)
	}
	missing := &model.Job{ID: 999, Type: model.JobTypeContract, UpdatedAt: base}
	if err := repo.Update(ctx, missing); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrJobNotFound", err)
	}
}

func TestJobSearchNonASCII(t *testing.T) {
	db := newTestDB(t)
	emp := createUser(t, db, "A", "a@example.com", model.RoleEmployer)
	createJob(t, db, emp.ID, "Ingénieur LOGICIEL", "École Tech", "Zürich", model.JobTypeFullTime, 1)
	createJob(t, db, emp.ID, "Designer", "Acme", "Berlin", model.JobTypeFullTime, 2)

	repo := NewJobRepository(db)

	tests := []struct {
		name string
		f    model.JobFilter
		want []string
	}{
		{"accented upper case", model.JobFilter{Query: "É"}, []string{"Ingénieur LOGICIEL"}},
		{"accented with ascii case change", model.JobFilter{Query: "ingéNIEUR"}, []string{"Ingénieur LOGICIEL"}},
		{"accented letters do not fold", model.JobFilter{Query: "école"}, nil},
		{"location", model.JobFilter{Location: "zür"}, []string{"Ingénieur LOGICIEL"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs, err := repo.Search(context.Background(), tt.f)
			if err != nil {
				t.Fatalf("Search() unexpected error: %v", err)
			}
			if got := titles(jobs); !equalStrings(got, tt.want) {
				t.Errorf("Search(%+v) = %v, want %v", tt.f, got, tt.want)
			}
		})
	}
}
