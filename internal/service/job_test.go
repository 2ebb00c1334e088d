package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jobboard/jobboard-go/internal/model"
	"github.com/jobboard/jobboard-go/internal/repository"
)

func validJob(title string) model.JobRequest {
	return model.JobRequest{
		Title:       title,
		Company:     "Acme",
		Location:    "Berlin",
		Type:        "Full-Time",
		Description: "Build things.",
	}
}

func TestJobCreateNormalises(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuthService(db)
	svc := NewJobService(repository.NewJobRepository(db), nil, 6)
	emp := register(t, auth, "Emp", "emp@example.com", model.RoleEmployer)

	req := validJob("  <em>Go</em> Engineer ")
	req.Company = "R&D Labs"
	job, err := svc.Create(context.Background(), emp.User.ID, req)
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if job.ID == 0 || job.CreatedBy != emp.User.ID {
		t.Errorf("Create() = %+v", job)
	}
	if job.Title != "Go Engineer" {
		t.Errorf("Title = %q", job.Title)
	}
	if job.Company != "R&D Labs" {
		t.Errorf("Company = %q", job.Company)
	}
	if job.Type != model.JobTypeFullTime {
		t.Errorf("Type = %q, want full-time", job.Type)
	}
}

func TestJobCreateValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewJobService(repository.NewJobRepository(db), nil, 6)

	tests := []struct {
		name   string
		mutate func(*model.JobRequest)
		field  string
	}{
		{"missing title", func(r *model.JobRequest) { r.Title = "" }, "title"},
		{"missing company", func(r *model.JobRequest) { r.Company = " " }, "company"},
		{"missing location", func(r *model.JobRequest) { r.Location = "" }, "location"},
		{"bad type", func(r *model.JobRequest) { r.Type = "freelance" }, "type"},
		{"missing description", func(r *model.JobRequest) { r.Description = "" }, "description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validJob("Engineer")
			tt.mutate(&req)

			_, err := svc.Create(context.Background(), 1, req)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Create() error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestJobSearchAndFeatured(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuthService(db)
	svc := NewJobService(repository.NewJobRepository(db), nil, 2)
	emp := register(t, auth, "Emp", "emp@example.com", model.RoleEmployer)
	ctx := context.Background()

	for _, title := range []string{"Backend Engineer", "Frontend Engineer", "Designer"} {
		if _, err := svc.Create(ctx, emp.User.ID, validJob(title)); err != nil {
			t.Fatalf("Create(%s) unexpected error: %v", title, err)
		}
	}

	got, err := svc.Search(ctx, "engineer", "", "")
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Search(engineer) returned %d jobs, want 2", len(got))
	}

	got, err = svc.Search(ctx, "", "berlin", "FULL-TIME")
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("Search(location, type) returned %d jobs, want 3", len(got))
	}

	got, err = svc.Search(ctx, "", "", "freelance")
	if err != nil {
		t.Fatalf("Search(unknown type) unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Search(unknown type) = %v, want empty list", got)
	}

	featured, err := svc.Featured(ctx)
	if err != nil {
		t.Fatalf("Featured() unexpected error: %v", err)
	}
	if len(featured) != 2 {
		t.Errorf("Featured() returned %d jobs, want 2", len(featured))
	}
}

func TestJobOwnership(t *testing.T) {
	db := newTestDB(t)
	auth := newTestAuthService(db)
	svc := NewJobService(repository.NewJobRepository(db), nil, 6)
	owner := register(t, auth, "Owner", "owner@example.com", model.RoleEmployer)
	other := register(t, auth, "Other", "other@example.com", model.RoleEmployer)
	ctx := context.Background()

	job, err := svc.Create(ctx, owner.User.ID, validJob("Engineer"))
	if err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if _, err := svc.Update(ctx, other.User.ID, job.ID, validJob("Hijacked")); !errors.Is(err, ErrNotJobOwner) {
		t.Errorf("Update(other) error = %v, want ErrNotJobOwner", err)
	}
	if err := svc.Delete(ctx, other.User.ID, job.ID); !errors.Is(err, ErrNotJobOwner) {
		t.Errorf("Delete(other) error = %v, want ErrNotJobOwner", err)
	}

	updated, err := svc.Update(ctx, owner.User.ID, job.ID, validJob("Staff Engineer"))
	if err != nil {
		t.Fatalf("Update() unexpected error: %v", err)
	}
	if updated.Title != "Staff Engineer" || !updated.CreatedAt.Equal(job.CreatedAt) {
		t.Errorf("Update() = %+v", updated)
	}

	mine, err := svc.ListByEmployer(ctx, owner.User.ID)
	if err != nil || len(mine) != 1 {
		t.Fatalf("ListByEmployer() = %v, %v", mine, err)
	}

	if err := svc.Delete(ctx, owner.User.ID, job.ID); err != nil {
		t.Fatalf("Delete() unexpected error: %v", err)
	}
	if _, err := svc.Get(ctx, job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Get(deleted) error = %v, want ErrJobNotFound", err)
	}
	if err := svc.Delete(ctx, owner.User.ID, job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Delete(deleted) error = %v, want ErrJobNotFound", err)
	}
}
