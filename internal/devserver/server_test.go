package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tasklync-cli/internal/model"
)

type reply struct {
	status int
	body   map[string]any
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) reply {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	out := reply{status: rec.Code, body: map[string]any{}}
	_ = json.Unmarshal(rec.Body.Bytes(), &out.body)
	return out
}

func login(t *testing.T, h http.Handler, email, password string) string {
	t.Helper()
	r := do(t, h, "POST", "/user/login", "", map[string]string{"email": email, "password": password})
	tok, _ := r.body["token"].(string)
	if r.status != http.StatusOK || tok == "" {
		t.Fatalf("login %s: %d %v", email, r.status, r.body)
	}
	return tok
}

func TestLogin(t *testing.T) {
	s := New()
	s.SeedDemo()
	h := s.Handler()

	r := do(t, h, "POST", "/user/login", "", map[string]string{"email": "ada@example.com", "password": "nope"})
	if r.status != http.StatusUnauthorized || r.body["message"] != "Invalid email or password" {
		t.Fatalf("bad password: %d %v", r.status, r.body)
	}
	// Email matching ignores case.
	login(t, h, "ADA@example.com", DemoPassword)
}

func TestAuthRequired(t *testing.T) {
	s := New()
	s.SeedDemo()
	h := s.Handler()

	if r := do(t, h, "GET", "/task", "", nil); r.status != http.StatusUnauthorized {
		t.Fatalf("status: %d", r.status)
	}
	if r := do(t, h, "GET", "/task", "bogus", nil); r.status != http.StatusUnauthorized {
		t.Fatalf("status: %d", r.status)
	}
}

func TestPendingUserSeesNothingUntilJoined(t *testing.T) {
	s := New()
	demo := s.SeedDemo()
	h := s.Handler()
	tok := login(t, h, "pat@example.com", DemoPassword)

	if tasks, _ := do(t, h, "GET", "/task", tok, nil).body["tasks"].([]any); len(tasks) != 0 {
		t.Fatalf("pending user sees %d tasks", len(tasks))
	}
	if r := do(t, h, "POST", "/project/join", tok, map[string]string{"code": "nope"}); r.status != http.StatusNotFound {
		t.Fatalf("bad code: %d %v", r.status, r.body)
	}
	if r := do(t, h, "POST", "/project/join", tok, map[string]string{"code": demo.JoinCode}); r.status != http.StatusOK {
		t.Fatalf("join: %d %v", r.status, r.body)
	}
	if tasks, _ := do(t, h, "GET", "/task", tok, nil).body["tasks"].([]any); len(tasks) != len(demo.TaskIDs) {
		t.Fatalf("member sees %d tasks", len(tasks))
	}
	user, _ := do(t, h, "GET", "/user/details/"+demo.PendingID, tok, nil).body["user"].(map[string]any)
	if user["role"] != string(model.RoleMember) {
		t.Fatalf("role after join: %v", user)
	}
}

func TestFailNextIsOneShot(t *testing.T) {
	s := New()
	demo := s.SeedDemo()
	h := s.Handler()
	tok := login(t, h, "ada@example.com", DemoPassword)
	id := demo.TaskIDs[0]

	s.FailNext("PUT", "/task/"+id, http.StatusInternalServerError, "")
	if r := do(t, h, "PUT", "/task/"+id, tok, map[string]string{"status": "done"}); r.status != http.StatusInternalServerError {
		t.Fatalf("injected failure: %d", r.status)
	}
	if st, _ := s.TaskStatus(id); st != model.StatusTodo {
		t.Fatalf("failed update changed status: %q", st)
	}
	if r := do(t, h, "PUT", "/task/"+id, tok, map[string]string{"status": "done"}); r.status != http.StatusOK {
		t.Fatalf("second update: %d %v", r.status, r.body)
	}
	if st, _ := s.TaskStatus(id); st != model.StatusDone {
		t.Fatalf("status: %q", st)
	}
	if r := do(t, h, "PUT", "/task/"+id, tok, map[string]string{"status": "archived"}); r.status != http.StatusBadRequest || r.body["message"] != "Invalid status" {
		t.Fatalf("invalid status: %d %v", r.status, r.body)
	}
}
