package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jobboard/jobboard-go/internal/model"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := NewDB(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("NewDB() unexpected error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(context.Background(), db, DriverSQLite); err != nil {
		t.Fatalf("Migrate() unexpected error: %v", err)
	}
	return db
}

func createUser(t *testing.T, db *sql.DB, name, email string, role model.Role) *model.User {
	t.Helper()

	u := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0$a2V5",
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatalf("Create(user) unexpected error: %v", err)
	}
	return u
}

func TestUserCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := createUser(t, db, "Ada", "ada@example.com", model.RoleEmployer)
	if u.ID == 0 {
		t.Fatal("Create() did not set ID")
	}

	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() unexpected error: %v", err)
	}
	if byEmail.ID != u.ID || byEmail.Role != model.RoleEmployer || byEmail.Name != "Ada" {
		t.Errorf("GetByEmail() = %+v", byEmail)
	}

	byID, err := repo.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID() unexpected error: %v", err)
	}
	if byID.Email != "ada@example.com" {
		t.Errorf("GetByID().Email = %q", byID.Email)
	}
	if byID.CreatedAt.IsZero() {
		t.Error("GetByID().CreatedAt is zero")
	}
}

func TestUserDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createUser(t, db, "Ada", "ada@example.com", model.RoleCandidate)

	dup := &model.User{Name: "Other", Email: "ada@example.com", PasswordHash: "x", Role: model.RoleEmployer, CreatedAt: time.Now().UTC()}
	err := NewUserRepository(db).Create(context.Background(), dup)
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("Create() error = %v, want ErrDuplicateEmail", err)
	}
}

func TestUserNotFound(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByEmail() error = %v, want ErrUserNotFound", err)
	}
	if _, err := repo.GetByID(ctx, 999); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
	if err := repo.UpdatePasswordHash(ctx, 999, "x"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UpdatePasswordHash() error = %v, want ErrUserNotFound", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unrelated", ErrUserNotFound, false},
		{"mysql duplicate", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a' for key 'uq_users_email'"}, true},
		{"mysql other", &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}, false},
		{"sqlite unique", errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLikePattern(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Engineer", "%engineer%"},
		{"100%", "%100!%%"},
		{"a_b", "%a!_b%"},
		{"wow!", "%wow!!%"},
		{"École", "%École%"},
		{"ÉCOLE", "%École%"},
	}
	for _, tt := range tests {
		if got := likePattern(tt.in); got != tt.want {
			t.Errorf("likePattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewDBUnsupportedDriver(t *testing.T) {
	if _, err := NewDB("postgres", "dsn"); err == nil {
		t.Error("NewDB() expected error for unsupported driver")
	}
	if err := Migrate(context.Background(), nil, "postgres"); err == nil {
		t.Error("Migrate() expected error for unsupported driver")
	}
}
