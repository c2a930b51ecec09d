package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/models"
	"github.com/benvon/lockin/internal/request"
	"github.com/benvon/lockin/internal/services/oidc"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	_ oidc.TokenVerifier                          = (*mockVerifier)(nil)
	_ database.UserRepositoryInterface            = (*mockUserRepo)(nil)
	_ ActivityRecorder                            = (*mockActivityRepo)(nil)
	_ database.RatelimitConfigRepositoryInterface = (*mockRatelimitRepo)(nil)
	_ database.CorsConfigRepositoryInterface      = (*mockCorsRepo)(nil)
)

type mockVerifier struct {
	verifyFunc func(ctx context.Context, token string) (*models.JWTClaims, error)
}

func (m *mockVerifier) Verify(ctx context.Context, token string) (*models.JWTClaims, error) {
	return m.verifyFunc(ctx, token)
}

type mockUserRepo struct {
	getOrCreateFunc func(ctx context.Context, providerID, email string, name *string) (*models.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return nil, database.ErrNotFound
}

func (m *mockUserRepo) GetOrCreateByProviderID(ctx context.Context, providerID, email string, name *string) (*models.User, error) {
	return m.getOrCreateFunc(ctx, providerID, email, name)
}

type mockActivityRepo struct {
	calls int
	err   error
}

func (m *mockActivityRepo) UpdateLastInteraction(ctx context.Context, userID uuid.UUID) error {
	m.calls++
	return m.err
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAuth(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	verifier := &mockVerifier{verifyFunc: func(ctx context.Context, token string) (*models.JWTClaims, error) {
		if token != "good" {
			return nil, errors.New("bad signature")
		}
		return &models.JWTClaims{Sub: "sub-1", Email: "a@example.com", Name: "A"}, nil
	}}

	tests := []struct {
		name       string
		header     string
		repoErr    error
		wantStatus int
	}{
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer bad", wantStatus: http.StatusUnauthorized},
		{name: "db failure", header: "Bearer good", repoErr: errors.New("db down"), wantStatus: http.StatusInternalServerError},
		{name: "ok", header: "Bearer good", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &mockUserRepo{getOrCreateFunc: func(ctx context.Context, providerID, email string, name *string) (*models.User, error) {
				if tt.repoErr != nil {
					return nil, tt.repoErr
				}
				if providerID != "sub-1" || email != "a@example.com" || name == nil || *name != "A" {
					t.Errorf("GetOrCreateByProviderID(%q, %q, %v)", providerID, email, name)
				}
				return &models.User{ID: userID, Email: email}, nil
			}}

			var seen *models.User
			h := Auth(verifier, repo, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = UserFromContext(r)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK && (seen == nil || seen.ID != userID) {
				t.Errorf("user in context = %+v", seen)
			}
		})
	}
}

func TestActivityTracking_Throttles(t *testing.T) {
	t.Parallel()

	repo := &mockActivityRepo{err: errors.New("ignored")}
	h := ActivityTracking(repo, time.Hour, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	user := &models.User{ID: uuid.New()}
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(request.WithUser(req.Context(), user))
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if repo.calls != 1 {
		t.Errorf("UpdateLastInteraction calls = %d, want 1", repo.calls)
	}
}
