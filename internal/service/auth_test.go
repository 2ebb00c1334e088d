package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jobboard/jobboard-go/internal/crypto"
	"github.com/jobboard/jobboard-go/internal/model"
	"github.com/jobboard/jobboard-go/internal/repository"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := repository.NewDB(repository.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("NewDB() unexpected error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := repository.Migrate(context.Background(), db, repository.DriverSQLite); err != nil {
		t.Fatalf("Migrate() unexpected error: %v", err)
	}
	return db
}

func newTestAuthService(db *sql.DB) *AuthService {
	hasher := crypto.NewPasswordHasher(crypto.HashParams{
		Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
	})
	return NewAuthService(repository.NewUserRepository(db), hasher, crypto.NewTokens("test-secret", time.Hour))
}

func register(t *testing.T, svc *AuthService, name, email string, role model.Role) model.AuthResponse {
	t.Helper()

	resp, err := svc.Register(context.Background(), model.RegisterRequest{
		Name: name, Email: email, Password: "password123", Role: role,
	})
	if err != nil {
		t.Fatalf("Register(%s) unexpected error: %v", email, err)
	}
	return resp
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuthService(newTestDB(t))

	tests := []struct {
		name  string
		req   model.RegisterRequest
		field string
	}{
		{"missing name", model.RegisterRequest{Email: "a@example.com", Password: "password123", Role: model.RoleCandidate}, "name"},
		{"markup only name", model.RegisterRequest{Name: "<b></b>", Email: "a@example.com", Password: "password123", Role: model.RoleCandidate}, "name"},
		{"bad email", model.RegisterRequest{Name: "A", Email: "not-an-email", Password: "password123", Role: model.RoleCandidate}, "email"},
		{"short password", model.RegisterRequest{Name: "A", Email: "a@example.com", Password: "short", Role: model.RoleCandidate}, "password"},
		{"unknown role", model.RegisterRequest{Name: "A", Email: "a@example.com", Password: "password123", Role: "admin"}, "role"},
		{"missing role", model.RegisterRequest{Name: "A", Email: "a@example.com", Password: "password123"}, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.req)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Register() error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuthService(newTestDB(t))
	ctx := context.Background()

	reg := register(t, svc, "Grace <script>x</script>", "  Grace@Example.COM ", model.RoleEmployer)
	if reg.Token == "" {
		t.Fatal("Register() returned empty token")
	}
	if reg.User.Email != "grace@example.com" {
		t.Errorf("email = %q, want normalised", reg.User.Email)
	}
	if reg.User.Name != "Grace" {
		t.Errorf("name = %q, want markup stripped", reg.User.Name)
	}
	if reg.User.Role != model.RoleEmployer {
		t.Errorf("role = %q", reg.User.Role)
	}

	login, err := svc.Login(ctx, model.LoginRequest{Email: "GRACE@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Login() unexpected error: %v", err)
	}
	if login.User.ID != reg.User.ID {
		t.Errorf("Login() user = %d, want %d", login.User.ID, reg.User.ID)
	}

	claims, err := crypto.NewTokens("test-secret", time.Hour).Verify(login.Token)
	if err != nil {
		t.Fatalf("Verify() unexpected error: %v", err)
	}
	if claims.UserID != reg.User.ID || claims.Role != model.RoleEmployer {
		t.Errorf("claims = %+v", claims)
	}

	me, err := svc.GetUser(ctx, reg.User.ID)
	if err != nil {
		t.Fatalf("GetUser() unexpected error: %v", err)
	}
	if me.Email != "grace@example.com" {
		t.Errorf("GetUser() email = %q", me.Email)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(newTestDB(t))

	register(t, svc, "One", "dup@example.com", model.RoleCandidate)

	_, err := svc.Register(context.Background(), model.RegisterRequest{
		Name: "Two", Email: "DUP@example.com", Password: "password123", Role: model.RoleEmployer,
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Register() error = %v, want ErrEmailTaken", err)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc := newTestAuthService(newTestDB(t))
	register(t, svc, "Lin", "lin@example.com", model.RoleCandidate)

	tests := []struct {
		name string
		req  model.LoginRequest
	}{
		{"wrong password", model.LoginRequest{Email: "lin@example.com", Password: "wrong-password"}},
		{"unknown email", model.LoginRequest{Email: "nobody@example.com", Password: "password123"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.req)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestLoginMissingFields(t *testing.T) {
	svc := newTestAuthService(newTestDB(t))

	_, err := svc.Login(context.Background(), model.LoginRequest{Email: "x@example.com"})

	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "password" {
		t.Errorf("Login() error = %v, want password validation error", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	svc := newTestAuthService(newTestDB(t))

	if _, err := svc.GetUser(context.Background(), 42); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUser() error = %v, want ErrUserNotFound", err)
	}
}
