package mutate

import (
	"context"
	"errors"
	"testing"

	"tasklync-cli/internal/api"
	"tasklync-cli/internal/model"
	"tasklync-cli/internal/taskstore"
	"tasklync-cli/internal/testutil"
)

type recorder struct{ notices []Notice }

func (r *recorder) Notify(n Notice) { r.notices = append(r.notices, n) }

func setup(t *testing.T) (*testutil.FakeBackend, *taskstore.Store, *Tracker, *recorder) {
	t.Helper()
	fb := testutil.NewFakeBackend()
	fb.AddTask(model.Task{ID: "t1", Title: "Write FAQ", Status: model.StatusTodo, AssignedTo: &model.UserRef{ID: "u1"}})
	fb.AddTask(model.Task{ID: "t2", Title: "Book venue", Status: model.StatusInProgress, AssignedTo: &model.UserRef{ID: "u1"}})
	s := taskstore.New()
	if err := s.Load(context.Background(), fb, taskstore.ScopeMine, model.RoleMember, "u1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	rec := &recorder{}
	return fb, s, NewTracker(s, rec, nil), rec
}

func status(t *testing.T, s *taskstore.Store, id string) model.Status {
	t.Helper()
	got, ok := s.Get(id)
	if !ok {
		t.Fatalf("task %q missing", id)
	}
	return got.Status
}

func TestMove_RollbackRestoresPreviousColumn(t *testing.T) {
	fb, s, tr, rec := setup(t)
	fb.UpdateTaskErr = &api.APIError{Op: "update task", Status: 500}

	phase, err := tr.Move(context.Background(), fb, "t1", model.StatusDone)
	if phase != RolledBack {
		t.Fatalf("phase: got %v", phase)
	}
	var rb *RolledBackError
	if !errors.As(err, &rb) {
		t.Fatalf("expected RolledBackError, got %v", err)
	}
	if got := status(t, s, "t1"); got != model.StatusTodo {
		t.Fatalf("status after rollback: got %q", got)
	}
	if len(rec.notices) != 1 || rec.notices[0].Message != RollbackMessage {
		t.Fatalf("notices: %+v", rec.notices)
	}
}

func TestMove_CommitKeepsNewColumn(t *testing.T) {
	fb, s, tr, rec := setup(t)

	phase, err := tr.Move(context.Background(), fb, "t1", model.StatusDone)
	if err != nil || phase != Committed {
		t.Fatalf("phase=%v err=%v", phase, err)
	}
	if got := status(t, s, "t1"); got != model.StatusDone {
		t.Fatalf("status: got %q", got)
	}
	if len(rec.notices) != 0 {
		t.Fatalf("unexpected notice: %+v", rec.notices)
	}
	if srv, _ := fb.Task("t1"); srv.Status != model.StatusDone {
		t.Fatalf("server status: %q", srv.Status)
	}
}

func TestMove_SameColumnIsNoop(t *testing.T) {
	fb, s, tr, rec := setup(t)

	phase, err := tr.Move(context.Background(), fb, "t2", model.StatusInProgress)
	if err != nil || phase != Idle {
		t.Fatalf("phase=%v err=%v", phase, err)
	}
	if fb.Calls("UpdateTask") != 0 {
		t.Fatalf("expected zero network calls, got %d", fb.Calls("UpdateTask"))
	}
	if got := status(t, s, "t2"); got != model.StatusInProgress {
		t.Fatalf("status changed: %q", got)
	}
	if tr.InFlight("t2") || len(rec.notices) != 0 {
		t.Fatalf("no-op must not start an attempt")
	}
}

func TestBegin_AppliesBeforeNetwork(t *testing.T) {
	_, s, tr, _ := setup(t)
	a, ok, err := tr.Begin("t1", model.StatusInProgress)
	if err != nil || !ok {
		t.Fatalf("begin: ok=%v err=%v", ok, err)
	}
	if got := status(t, s, "t1"); got != model.StatusInProgress {
		t.Fatalf("cache not updated synchronously: %q", got)
	}
	if !tr.InFlight("t1") || a.From != model.StatusTodo {
		t.Fatalf("attempt: %+v", a)
	}
}

func TestSettle_StaleCompletionIsDiscarded(t *testing.T) {
	_, s, tr, rec := setup(t)

	first, _, _ := tr.Begin("t1", model.StatusInProgress)
	second, _, _ := tr.Begin("t1", model.StatusDone)
	if second.Seq <= first.Seq {
		t.Fatalf("sequence must increase: %d then %d", first.Seq, second.Seq)
	}

	// The older request fails after the newer one was issued: ignored.
	if got := tr.Settle(first, errors.New("boom")); got != Discarded {
		t.Fatalf("first: got %v", got)
	}
	if got := status(t, s, "t1"); got != model.StatusDone {
		t.Fatalf("stale failure must not roll back: %q", got)
	}
	if len(rec.notices) != 0 {
		t.Fatalf("stale failure must not notify")
	}

	if got := tr.Settle(second, nil); got != Committed {
		t.Fatalf("second: got %v", got)
	}
	if got := status(t, s, "t1"); got != model.StatusDone {
		t.Fatalf("final status: %q", got)
	}
	if tr.InFlight("t1") {
		t.Fatalf("nothing should be in flight")
	}
}

func TestSettle_RollbackUsesNewestSnapshot(t *testing.T) {
	_, s, tr, rec := setup(t)

	first, _, _ := tr.Begin("t1", model.StatusInProgress)
	second, _, _ := tr.Begin("t1", model.StatusDone)

	if got := tr.Settle(first, nil); got != Discarded {
		t.Fatalf("first: got %v", got)
	}
	if got := tr.Settle(second, errors.New("boom")); got != RolledBack {
		t.Fatalf("second: got %v", got)
	}
	// Snapshot before the newest attempt is the in-progress state.
	if got := status(t, s, "t1"); got != model.StatusInProgress {
		t.Fatalf("rollback target: got %q", got)
	}
	if len(rec.notices) != 1 || rec.notices[0].From != model.StatusInProgress || rec.notices[0].To != model.StatusDone {
		t.Fatalf("notice: %+v", rec.notices)
	}
}

func TestSettle_OtherTasksIndependent(t *testing.T) {
	_, s, tr, _ := setup(t)
	a1, _, _ := tr.Begin("t1", model.StatusDone)
	a2, _, _ := tr.Begin("t2", model.StatusTodo)
	if tr.Settle(a2, errors.New("boom")) != RolledBack {
		t.Fatalf("t2 should roll back")
	}
	if tr.Settle(a1, nil) != Committed {
		t.Fatalf("t1 should commit")
	}
	if status(t, s, "t1") != model.StatusDone || status(t, s, "t2") != model.StatusInProgress {
		t.Fatalf("unexpected statuses")
	}
}

func TestMove_ServerMessageInNotice(t *testing.T) {
	fb, _, tr, rec := setup(t)
	fb.UpdateTaskErr = &api.APIError{Op: "update task", Status: 400, Message: "Invalid status"}
	if _, err := tr.Move(context.Background(), fb, "t1", model.StatusDone); err == nil {
		t.Fatalf("expected error")
	}
	if rec.notices[0].Message != "Invalid status" {
		t.Fatalf("message: %q", rec.notices[0].Message)
	}
}

func TestBegin_Errors(t *testing.T) {
	_, _, tr, _ := setup(t)
	if _, _, err := tr.Begin("t1", "archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	var nf NotFoundError
	if _, _, err := tr.Begin("nope", model.StatusDone); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	fb, s, _, _ := setup(t)
	if err := DeleteTask(context.Background(), fb, s, "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := s.Get("t1"); ok {
		t.Fatalf("task still cached")
	}
	fb.DeleteTaskErr = errors.New("nope")
	if err := DeleteTask(context.Background(), fb, s, "t2"); err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := s.Get("t2"); !ok {
		t.Fatalf("failed delete must keep the task")
	}
}

// reload runs a full task load the way the TUI does: ticket, fetch, settle.
func reload(t *testing.T, fb *testutil.FakeBackend, s *taskstore.Store) {
	t.Helper()
	ticket := s.BeginLoad()
	scope, tasks, err := taskstore.Fetch(context.Background(), fb, taskstore.ScopeMine, model.RoleMember, "u1")
	if !s.Settle(ticket, scope, tasks, err) {
		t.Fatalf("reload not installed: %v", err)
	}
}

func TestReloadDuringMove_CommitKeepsTarget(t *testing.T) {
	fb, s, tr, rec := setup(t)

	a, _, _ := tr.Begin("t1", model.StatusDone)
	// The list arrives before the update: the server still says todo.
	reload(t, fb, s)
	if got := status(t, s, "t1"); got != model.StatusDone {
		t.Fatalf("reload dropped the pending move: %q", got)
	}

	if got := tr.Settle(a, Send(context.Background(), fb, a)); got != Committed {
		t.Fatalf("phase: %v", got)
	}
	if got := status(t, s, "t1"); got != model.StatusDone {
		t.Fatalf("status after commit: %q", got)
	}
	if srv, _ := fb.Task("t1"); srv.Status != model.StatusDone {
		t.Fatalf("server status: %q", srv.Status)
	}
	if len(rec.notices) != 0 {
		t.Fatalf("unexpected notice: %+v", rec.notices)
	}

	// Once settled, reloads show the server again.
	reload(t, fb, s)
	if got := status(t, s, "t1"); got != model.StatusDone {
		t.Fatalf("status after second reload: %q", got)
	}
}

func TestReloadDuringMove_RollbackRestoresSnapshot(t *testing.T) {
	fb, s, tr, rec := setup(t)
	fb.UpdateTaskErr = &api.APIError{Op: "update task", Status: 500}

	a, _, _ := tr.Begin("t1", model.StatusDone)
	reload(t, fb, s)
	if got := tr.Settle(a, Send(context.Background(), fb, a)); got != RolledBack {
		t.Fatalf("phase: %v", got)
	}
	if got := status(t, s, "t1"); got != model.StatusTodo {
		t.Fatalf("status after rollback: %q", got)
	}
	if len(rec.notices) != 1 || rec.notices[0].From != model.StatusTodo {
		t.Fatalf("notices: %+v", rec.notices)
	}
	reload(t, fb, s)
	if got := status(t, s, "t1"); got != model.StatusTodo {
		t.Fatalf("settled move must not overlay reloads: %q", got)
	}
}

func TestSettle_CommitReappliesTarget(t *testing.T) {
	_, s, tr, _ := setup(t)
	a, _, _ := tr.Begin("t1", model.StatusInProgress)
	s.SetStatus("t1", model.StatusTodo)
	if got := tr.Settle(a, nil); got != Committed {
		t.Fatalf("phase: %v", got)
	}
	if got := status(t, s, "t1"); got != model.StatusInProgress {
		t.Fatalf("commit should restore the confirmed status: %q", got)
	}
}

func TestReset_DiscardsPendingCompletions(t *testing.T) {
	_, s, tr, rec := setup(t)
	a, _, _ := tr.Begin("t1", model.StatusDone)
	tr.Reset()
	if tr.InFlight("t1") {
		t.Fatalf("reset should clear in-flight attempts")
	}
	if got := tr.Settle(a, errors.New("boom")); got != Discarded {
		t.Fatalf("phase: %v", got)
	}
	if got := status(t, s, "t1"); got != model.StatusDone {
		t.Fatalf("discarded completion changed the cache: %q", got)
	}
	if len(rec.notices) != 0 {
		t.Fatalf("unexpected notice")
	}
}

func TestSetNotifier(t *testing.T) {
	fb, _, tr, old := setup(t)
	fb.UpdateTaskErr = errors.New("boom")
	next := &recorder{}
	tr.SetNotifier(next)
	if _, err := tr.Move(context.Background(), fb, "t1", model.StatusDone); err == nil {
		t.Fatalf("expected error")
	}
	if len(old.notices) != 0 || len(next.notices) != 1 {
		t.Fatalf("old=%d new=%d", len(old.notices), len(next.notices))
	}
}
