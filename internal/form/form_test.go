package form

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"tasklync-cli/internal/api"
	"tasklync-cli/internal/model"
	"tasklync-cli/internal/session"
	"tasklync-cli/internal/store"
	"tasklync-cli/internal/testutil"
	"tasklync-cli/internal/view"
)

func openKV(t *testing.T) *store.KV {
	t.Helper()
	kv, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "session.sqlite"))
	if err != nil {
		t.Fatalf("open kv: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestSubmit_MissingFieldSendsNothing(t *testing.T) {
	calls := 0
	f := New("x", []Field{{Name: "a", Label: "A", Required: true}}, "fail", func(context.Context, Values) (Result, error) {
		calls++
		return Result{}, nil
	})
	f.Set("a", "   ")
	_, err := f.Submit(context.Background())
	var mf *MissingFieldError
	if !errors.Is(err, ErrMissingField) || !errors.As(err, &mf) || mf.Field != "a" {
		t.Fatalf("expected missing field a, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("request sent despite missing field")
	}
	if f.Error() != "A is required" {
		t.Fatalf("error slot: %q", f.Error())
	}
}

func TestSubmit_ServerMessageVerbatimNoNavigation(t *testing.T) {
	f := New("x", nil, "Fallback text", func(context.Context, Values) (Result, error) {
		return Result{Next: "home"}, &api.APIError{Op: "op", Status: 400, Message: "Workspace name taken"}
	})
	res, err := f.Submit(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if res.Next != "" {
		t.Fatalf("failure must not navigate: %+v", res)
	}
	if f.Error() != "Workspace name taken" {
		t.Fatalf("error slot: %q", f.Error())
	}
	if _, ok := f.Result(); ok {
		t.Fatalf("no result expected")
	}
}

func TestSubmit_FallbackWhenNoMessage(t *testing.T) {
	f := New("x", nil, "Signup failed", func(context.Context, Values) (Result, error) {
		return Result{}, &api.APIError{Op: "signup", Status: 500}
	})
	_, _ = f.Submit(context.Background())
	if f.Error() != "Signup failed" {
		t.Fatalf("error slot: %q", f.Error())
	}
}

func TestStart_RefusesDoubleSubmit(t *testing.T) {
	f := New("x", nil, "", func(context.Context, Values) (Result, error) { return Result{}, nil })
	if _, err := f.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.Start(); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if _, err := f.Finish(context.Background(), Result{Next: "home"}, nil); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if f.Busy() {
		t.Fatalf("finish should clear busy")
	}
}

func TestEditWorkspace_WaitsForPrefetch(t *testing.T) {
	ctx := context.Background()
	fb := testutil.NewFakeBackend()
	fb.AddProject(model.Project{ID: "p1", Name: "Launch", CompanyName: "Example Co"})
	f := EditWorkspace(fb, "p1")

	if _, err := f.Submit(ctx); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if fb.Calls("UpdateProject") != 0 {
		t.Fatalf("submitted before load")
	}
	if err := f.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.Value(FieldName) != "Launch" || f.Value(FieldCompanyName) != "Example Co" {
		t.Fatalf("not pre-populated: %+v", f.Values())
	}
	f.Set(FieldName, "Launch 2")
	res, err := f.Submit(ctx)
	if err != nil || res.Next != string(view.Workspace) {
		t.Fatalf("submit: %+v %v", res, err)
	}
	if p, _ := fb.ProjectDetails(ctx, "p1"); p.Name != "Launch 2" {
		t.Fatalf("update not sent: %+v", p)
	}
}

func TestEditWorkspace_LoadFailureStaysNotReady(t *testing.T) {
	fb := testutil.NewFakeBackend()
	f := EditWorkspace(fb, "missing")
	if err := f.Load(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
	if f.Ready() || f.Error() != "Project not found" {
		t.Fatalf("ready=%v err=%q", f.Ready(), f.Error())
	}
}

func TestCreateWorkspace_PersistsCodeAndPromotesAdmin(t *testing.T) {
	ctx := context.Background()
	fb := testutil.NewFakeBackend()
	fb.AddUser(model.User{ID: "u1", Email: "a@example.com"}, "secret1")
	kv := openKV(t)
	sess := session.NewManager(fb, kv, nil)
	if _, err := sess.Login(ctx, "a@example.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	f := CreateWorkspace(fb, sess).WithStore(kv)
	f.Set(FieldName, "Ops")
	res, err := f.Submit(ctx)
	if err != nil || res.Next != string(view.Home) {
		t.Fatalf("submit: %+v %v", res, err)
	}
	p := res.Data.(model.Project)
	if code, _, _ := kv.Get(ctx, store.KeyJoinCode); code == "" || code != p.Code {
		t.Fatalf("join code not persisted: %q", code)
	}
	if sess.Role() != model.RoleAdmin {
		t.Fatalf("role: %q", sess.Role())
	}
}

func TestJoinWorkspace_PendingBecomesMember(t *testing.T) {
	ctx := context.Background()
	fb := testutil.NewFakeBackend()
	fb.AddUser(model.User{ID: "u1", Email: "a@example.com"}, "secret1")
	fb.AddProject(model.Project{ID: "p1", Name: "Launch", Code: "ALPHA123"})
	kv := openKV(t)
	sess := session.NewManager(fb, kv, nil)
	if _, err := sess.Login(ctx, "a@example.com", "secret1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	f := JoinWorkspace(fb, sess).WithStore(kv)
	f.Set(FieldCode, "nope")
	if _, err := f.Submit(ctx); err == nil || f.Error() != "Invalid workspace code" {
		t.Fatalf("bad code: err=%v slot=%q", err, f.Error())
	}
	f.Set(FieldCode, "alpha123")
	if _, err := f.Submit(ctx); err != nil {
		t.Fatalf("join: %v", err)
	}
	if f.Error() != "" {
		t.Fatalf("error slot should clear: %q", f.Error())
	}
	if id, _, _ := kv.Get(ctx, store.KeyProjectID); id != "p1" {
		t.Fatalf("project id: %q", id)
	}
	if sess.Role() != model.RoleMember {
		t.Fatalf("role: %q", sess.Role())
	}
}

func TestSetPassword_ClientChecksShowOwnText(t *testing.T) {
	fb := testutil.NewFakeBackend()
	sess := session.NewManager(fb, openKV(t), nil)
	f := SetPassword(sess, "u1")
	f.Set(FieldPassword, "abc")
	f.Set(FieldConfirm, "abc")
	if _, err := f.Submit(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if f.Error() != session.ErrPasswordTooShort.Error() {
		t.Fatalf("slot: %q", f.Error())
	}
}

func TestTaskInput(t *testing.T) {
	in, err := TaskInput("p1", Values{FieldTitle: " Write ", FieldAssigneeEmail: "x@example.com", FieldDueDate: "2025-03-01"})
	if err != nil {
		t.Fatalf("input: %v", err)
	}
	if in.Title != "Write" || in.Priority != model.PriorityMedium || in.AssignedTo != nil || *in.AssignedEmail != "x@example.com" || *in.DueDate != "2025-03-01" {
		t.Fatalf("unexpected: %+v", in)
	}
	if _, err := TaskInput("p1", Values{FieldTitle: "x", FieldDueDate: "soon"}); err == nil {
		t.Fatalf("expected due date error")
	}
}

func TestCreateTask_GoesToProjectView(t *testing.T) {
	fb := testutil.NewFakeBackend()
	fb.AddProject(model.Project{ID: "p1", Name: "Launch"})
	f := CreateTask(fb, model.Project{ID: "p1", Name: "Launch"})
	f.Set(FieldTitle, "Book venue")
	f.Set(FieldPriority, "high")
	res, err := f.Submit(context.Background())
	if err != nil || res.Next != "project-Launch" {
		t.Fatalf("submit: %+v %v", res, err)
	}
	created := res.Data.(api.CreatedTask)
	if created.Task.Priority != model.PriorityHigh {
		t.Fatalf("priority: %q", created.Task.Priority)
	}
}
