package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/metrics"
	"github.com/benvon/lockin/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type taskCounter struct {
	metrics.Nop
	created int
	toggled []bool
}

func (c *taskCounter) RecordTaskCreated() { c.created++ }
func (c *taskCounter) RecordTaskToggled(done bool) { c.toggled = append(c.toggled, done) }

func taskRoutes(h *TaskHandler) func(*mux.Router) {
	return func(r *mux.Router) { h.RegisterRoutes(r.PathPrefix("/tasks").Subrouter()) }
}

func TestTaskHandler_CreateTask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       any
		createErr  error
		wantStatus int
		wantTitle  string
	}{
		{
			name:       "valid task",
			body:       map[string]string{"title": "  Ship v1  ", "motivation": "<b>rent</b>"},
			wantStatus: http.StatusCreated,
			wantTitle:  "Ship v1",
		},
		{
			name:       "blank title",
			body:       map[string]string{"title": "   "},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "markup only title",
			body:       map[string]string{"title": "<script>x</script>"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       map[string]any{"title": "a", "priority": 1},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "repository failure",
			body:       map[string]string{"title": "a"},
			createErr:  errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			user := testUser()
			counter := &taskCounter{}
			var stored *models.Task
			repo := &mockTaskRepo{
				create: func(ctx context.Context, task *models.Task) error {
					if tt.createErr != nil {
						return tt.createErr
					}
					task.ID = uuid.New()
					task.CreatedAt = time.Now()
					stored = task
					return nil
				},
			}
			h := NewTaskHandler(repo, counter, nil)

			w := serve(t, taskRoutes(h), jsonRequest(http.MethodPost, "/tasks", tt.body), user)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				if counter.created != 0 {
					t.Error("metric recorded for failed create")
				}
				return
			}

			var got models.Task
			decodeData(t, w, &got)
			if got.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", got.Title, tt.wantTitle)
			}
			if got.Motivation != "rent" {
				t.Errorf("motivation = %q, want markup stripped", got.Motivation)
			}
			if stored.UserID != user.ID {
				t.Error("task not owned by the authenticated user")
			}
			if counter.created != 1 {
				t.Errorf("created metric = %d, want 1", counter.created)
			}
		})
	}
}

func TestTaskHandler_Unauthorized(t *testing.T) {
	t.Parallel()

	h := NewTaskHandler(&mockTaskRepo{}, nil, nil)
	w := serve(t, taskRoutes(h), jsonRequest(http.MethodGet, "/tasks", nil), nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestTaskHandler_ListTasks(t *testing.T) {
	t.Parallel()

	user := testUser()
	repo := &mockTaskRepo{
		listByUser: func(ctx context.Context, userID uuid.UUID) ([]*models.Task, error) {
			if userID != user.ID {
				t.Errorf("listed tasks of %s", userID)
			}
			return []*models.Task{{ID: uuid.New(), Title: "a"}, {ID: uuid.New(), Title: "b"}}, nil
		},
	}
	h := NewTaskHandler(repo, nil, nil)

	w := serve(t, taskRoutes(h), jsonRequest(http.MethodGet, "/tasks", nil), user)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got []models.Task
	decodeData(t, w, &got)
	if len(got) != 2 || got[0].Title != "a" {
		t.Errorf("tasks = %+v", got)
	}
}

func TestTaskHandler_UpdateTask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		body       any
		repoErr    error
		wantStatus int
	}{
		{name: "complete", path: "/tasks/" + uuid.NewString(), body: map[string]bool{"completed": true}, wantStatus: http.StatusOK},
		{name: "missing completed", path: "/tasks/" + uuid.NewString(), body: map[string]string{}, wantStatus: http.StatusBadRequest},
		{name: "bad id", path: "/tasks/nope", body: map[string]bool{"completed": true}, wantStatus: http.StatusBadRequest},
		{name: "other user's task", path: "/tasks/" + uuid.NewString(), body: map[string]bool{"completed": true}, repoErr: database.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "db error", path: "/tasks/" + uuid.NewString(), body: map[string]bool{"completed": false}, repoErr: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			counter := &taskCounter{}
			repo := &mockTaskRepo{
				setCompleted: func(ctx context.Context, userID, id uuid.UUID, completed bool) (*models.Task, error) {
					if tt.repoErr != nil {
						return nil, tt.repoErr
					}
					now := time.Now()
					return &models.Task{ID: id, UserID: userID, Completed: completed, CompletedAt: &now}, nil
				},
			}
			h := NewTaskHandler(repo, counter, nil)

			w := serve(t, taskRoutes(h), jsonRequest(http.MethodPatch, tt.path, tt.body), testUser())
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusOK && (len(counter.toggled) != 1 || !counter.toggled[0]) {
				t.Errorf("toggled metric = %v", counter.toggled)
			}
		})
	}
}

func TestTaskHandler_DeleteTask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		repoErr    error
		wantStatus int
	}{
		{name: "deleted", wantStatus: http.StatusNoContent},
		{name: "not found", repoErr: database.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "db error", repoErr: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := &mockTaskRepo{
				delete: func(ctx context.Context, userID, id uuid.UUID) error { return tt.repoErr },
			}
			h := NewTaskHandler(repo, nil, nil)

			w := serve(t, taskRoutes(h), jsonRequest(http.MethodDelete, "/tasks/"+uuid.NewString(), nil), testUser())
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
