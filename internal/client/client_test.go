package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benvon/lockin/internal/models"
	"github.com/benvon/lockin/internal/store"
	"github.com/google/uuid"
)

func writeData(t *testing.T, w http.ResponseWriter, status int, data any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC(),
	})
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   kind,
		"message": message,
	})
}

func newTestClient(t *testing.T, token string, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL, token, WithRateLimit(0))
}

func TestClient_SendsBearerToken(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "tok-123", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/api/v1/tasks" {
			t.Errorf("path = %s", r.URL.Path)
		}
		writeData(t, w, http.StatusOK, []*models.Task{{ID: uuid.New(), Title: "ship it"}})
	})

	tasks, err := c.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "ship it" {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestClient_NoTokenSendsNoAuthorization(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want empty", got)
		}
		writeData(t, w, http.StatusOK, map[string]string{
			"authorization_endpoint": "https://idp.example/auth",
			"client_id":              "lockin",
		})
	})

	lc, err := c.LoginConfig(context.Background())
	if err != nil {
		t.Fatalf("LoginConfig() error = %v", err)
	}
	if lc.AuthorizationEndpoint != "https://idp.example/auth" || lc.ClientID != "lockin" {
		t.Errorf("login config = %+v", lc)
	}
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		status       int
		body         string
		wantNotFound bool
		wantUnauth   bool
		wantType     string
	}{
		{name: "not found envelope", status: http.StatusNotFound, wantNotFound: true, wantType: "Not Found"},
		{name: "unauthorized", status: http.StatusUnauthorized, wantUnauth: true, wantType: "Unauthorized"},
		{name: "non json body", status: http.StatusBadGateway, body: "<html>bad gateway</html>", wantType: "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
				if tt.body != "" {
					w.WriteHeader(tt.status)
					_, _ = io.WriteString(w, tt.body)
					return
				}
				writeError(w, tt.status, http.StatusText(tt.status), "nope")
			})

			err := c.DeleteTask(context.Background(), uuid.New())
			if err == nil {
				t.Fatal("DeleteTask() error = nil")
			}
			if IsNotFound(err) != tt.wantNotFound {
				t.Errorf("IsNotFound = %v, want %v", IsNotFound(err), tt.wantNotFound)
			}
			if IsUnauthorized(err) != tt.wantUnauth {
				t.Errorf("IsUnauthorized = %v, want %v", IsUnauthorized(err), tt.wantUnauth)
			}
			apiErr, ok := err.(*APIError)
			if !ok {
				t.Fatalf("error type = %T", err)
			}
			if apiErr.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", apiErr.Type, tt.wantType)
			}
		})
	}
}

func TestClient_DeleteTaskNoContent(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/v1/tasks/"+id.String() {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := c.DeleteTask(context.Background(), id); err != nil {
		t.Errorf("DeleteTask() error = %v", err)
	}
}

func TestClient_RequestBodies(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	ended := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	goal := "finish the thesis"

	tests := []struct {
		name       string
		call       func(c *Client) error
		wantMethod string
		wantPath   string
		wantBody   map[string]any
		reply      any
	}{
		{
			name: "create task",
			call: func(c *Client) error {
				_, err := c.CreateTask(context.Background(), "read", "because")
				return err
			},
			wantMethod: http.MethodPost,
			wantPath:   "/api/v1/tasks",
			wantBody:   map[string]any{"title": "read", "motivation": "because"},
			reply:      models.Task{ID: id},
		},
		{
			name: "toggle task",
			call: func(c *Client) error {
				_, err := c.SetTaskCompleted(context.Background(), id, true)
				return err
			},
			wantMethod: http.MethodPatch,
			wantPath:   "/api/v1/tasks/" + id.String(),
			wantBody:   map[string]any{"completed": true},
			reply:      models.Task{ID: id, Completed: true},
		},
		{
			name: "upsert work log",
			call: func(c *Client) error {
				_, err := c.UpsertWorkLog(context.Background(), "2025-03-14", 6.5)
				return err
			},
			wantMethod: http.MethodPut,
			wantPath:   "/api/v1/work-logs/2025-03-14",
			wantBody:   map[string]any{"hours": 6.5},
			reply:      models.WorkLog{WorkDate: "2025-03-14", Hours: 6.5},
		},
		{
			name: "finish session",
			call: func(c *Client) error {
				_, err := c.FinishSession(context.Background(), id, ended, 42)
				return err
			},
			wantMethod: http.MethodPatch,
			wantPath:   "/api/v1/sessions/" + id.String(),
			wantBody:   map[string]any{"ended_at": "2025-03-14T10:00:00Z", "idle_seconds": float64(42)},
			reply:      models.FocusSession{ID: id},
		},
		{
			name: "update profile sends only set fields",
			call: func(c *Client) error {
				_, err := c.UpdateProfile(context.Background(), store.ProfileUpdate{MainGoal: &goal})
				return err
			},
			wantMethod: http.MethodPatch,
			wantPath:   "/api/v1/profile",
			wantBody:   map[string]any{"main_goal": goal},
			reply:      models.Profile{ID: id, MainGoal: &goal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
				if r.Method != tt.wantMethod || r.URL.Path != tt.wantPath {
					t.Errorf("request = %s %s, want %s %s", r.Method, r.URL.Path, tt.wantMethod, tt.wantPath)
				}
				var got map[string]any
				if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
					t.Errorf("decode body: %v", err)
					return
				}
				if len(got) != len(tt.wantBody) {
					t.Errorf("body = %v, want %v", got, tt.wantBody)
				}
				for k, v := range tt.wantBody {
					if got[k] != v {
						t.Errorf("body[%s] = %v, want %v", k, got[k], v)
					}
				}
				writeData(t, w, http.StatusOK, tt.reply)
			})
			if err := tt.call(c); err != nil {
				t.Errorf("call error = %v", err)
			}
		})
	}
}

func TestClient_Me(t *testing.T) {
	t.Parallel()

	t.Run("rejected credential", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, "expired", func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusUnauthorized, "Unauthorized", "token expired")
		})
		me, err := c.Me(context.Background())
		if err != nil || me != nil {
			t.Errorf("Me() = %v, %v; want nil, nil", me, err)
		}
	})

	t.Run("server error is returned", func(t *testing.T) {
		t.Parallel()
		c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusInternalServerError, "Internal Server Error", "")
		})
		if _, err := c.Me(context.Background()); err == nil {
			t.Error("Me() error = nil")
		}
	})

	t.Run("identity", func(t *testing.T) {
		t.Parallel()
		id := uuid.New()
		c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
			writeData(t, w, http.StatusOK, models.Me{
				User:    &models.User{ID: id, Email: "a@example.com"},
				Profile: &models.Profile{ID: id, Email: "a@example.com"},
			})
		})
		me, err := c.Me(context.Background())
		if err != nil {
			t.Fatalf("Me() error = %v", err)
		}
		if me.User.ID != id || me.Profile.Email != "a@example.com" {
			t.Errorf("me = %+v", me)
		}
	})
}

func TestClient_UploadBeat(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/beats" {
			t.Errorf("path = %s", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		defer func() { _ = file.Close() }()
		data, _ := io.ReadAll(file)
		if header.Filename != "focus.mp3" || string(data) != "ID3fake" {
			t.Errorf("upload = %s %q", header.Filename, data)
		}
		if ct := header.Header.Get("Content-Type"); ct != "audio/mpeg" {
			t.Errorf("part content type = %q", ct)
		}
		writeData(t, w, http.StatusCreated, map[string]string{"url": "http://localhost/blobs/beats/x.mp3"})
	})

	got, err := c.UploadBeat(context.Background(), "focus.mp3", "audio/mpeg", strings.NewReader("ID3fake"))
	if err != nil {
		t.Fatalf("UploadBeat() error = %v", err)
	}
	if got != "http://localhost/blobs/beats/x.mp3" {
		t.Errorf("url = %q", got)
	}
}

func TestClient_Hype(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "tok", func(w http.ResponseWriter, r *http.Request) {
		writeData(t, w, http.StatusOK, map[string]string{"text": "LOCK IN"})
	})
	got, err := c.Hype(context.Background())
	if err != nil || got != "LOCK IN" {
		t.Errorf("Hype() = %q, %v", got, err)
	}
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeData(t, w, http.StatusOK, []*models.Task{})
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, "tok", WithRateLimit(0.001))
	if _, err := c.ListTasks(context.Background()); err != nil {
		t.Fatalf("first call error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.ListTasks(ctx); err == nil {
		t.Error("second call should be refused by the limiter")
	}
}
