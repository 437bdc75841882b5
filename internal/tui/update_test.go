package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"tasklync-cli/internal/api"
	"tasklync-cli/internal/app"
	"tasklync-cli/internal/config"
	"tasklync-cli/internal/model"
	"tasklync-cli/internal/store"
	"tasklync-cli/internal/taskstore"
	"tasklync-cli/internal/testutil"
	"tasklync-cli/internal/view"
)

var fixedNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func day(s string) *model.Day { d := model.Day(s); return &d }

func newTestState(t *testing.T) (*app.State, *testutil.FakeBackend) {
	t.Helper()
	fb := testutil.NewFakeBackend()
	fb.AddUser(model.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: model.RoleAdmin}, "secret1")
	fb.AddUser(model.User{ID: "u2", Name: "Milo", Email: "milo@example.com", Role: model.RoleMember}, "secret2")
	fb.AddProject(model.Project{ID: "p1", Name: "Launch", Code: "ALPHA123"})
	launch := &model.ProjectRef{ID: "p1", Name: "Launch"}
	fb.AddTask(model.Task{ID: "t1", Title: "Draft", Status: model.StatusTodo, DueDate: day("2025-03-01"), AssignedTo: &model.UserRef{ID: "u2"}, Project: launch})
	fb.AddTask(model.Task{ID: "t2", Title: "Venue", Status: model.StatusInProgress, DueDate: day("2025-03-12"), AssignedTo: &model.UserRef{ID: "u2"}, Project: launch})
	fb.AddTask(model.Task{ID: "t3", Title: "Date", Status: model.StatusDone, AssignedTo: &model.UserRef{ID: "u1"}, Project: launch})

	cfg := *config.Default()
	cfg.Dir = t.TempDir()
	st, err := app.Open(context.Background(), cfg, app.Options{
		Backend: fb,
		Now:     func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return st, fb
}

func signIn(t *testing.T, st *app.State, email, password string) {
	t.Helper()
	if _, err := st.Session.Login(context.Background(), email, password); err != nil {
		t.Fatalf("login: %v", err)
	}
}

// start builds the model and runs its initial loads.
func start(t *testing.T, st *app.State, tag view.Tag) appModel {
	t.Helper()
	st.Router.SetActiveView(tag)
	m := newAppModel(context.Background(), st)
	m.width, m.height = 120, 40
	return run(m, m.initCmd)
}

// run executes cmd and feeds the resulting app messages back through Update
// until nothing is left. Timer-driven messages (spinner, cursor blink) are
// dropped so the loop terminates.
func run(m appModel, cmd tea.Cmd) appModel {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case projectsMsg, dashboardMsg, tasksMsg, workspaceMsg, moveMsg, deleteMsg, formDoneMsg, formLoadedMsg:
			next, nc := m.Update(msg)
			m = next.(appModel)
			queue = append(queue, nc)
		}
	}
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(m appModel, k string) appModel {
	next, cmd := m.Update(keyMsg(k))
	return run(next.(appModel), cmd)
}

func TestLogin_SubmitLoadsDashboard(t *testing.T) {
	st, _ := newTestState(t)
	m := start(t, st, view.Home)
	if m.panel().Kind != view.KindLogin || m.form == nil || m.form.kind != formLogin {
		t.Fatalf("expected login form, panel=%q", m.panel().Kind)
	}
	m.form.inputs[0].SetValue("ada@example.com")
	m.form.inputs[1].SetValue("secret1")
	m = press(m, "enter")

	if m.form != nil {
		t.Fatalf("form should close after sign in: %q", m.form.f.Error())
	}
	if m.panel().Kind != view.KindHome {
		t.Fatalf("panel: %q", m.panel().Kind)
	}
	if m.dash == nil || m.dash.Summary.Greeting != "Good morning, Ada" {
		t.Fatalf("dashboard: %+v", m.dash)
	}
	if out := m.View(); !strings.Contains(out, "Good morning, Ada") {
		t.Fatalf("view missing greeting:\n%s", out)
	}
}

func TestLogin_FailureStaysOnForm(t *testing.T) {
	st, fb := newTestState(t)
	m := start(t, st, view.Home)
	m.form.inputs[0].SetValue("ada@example.com")
	m.form.inputs[1].SetValue("wrong")
	m = press(m, "enter")

	if m.form == nil || m.panel().Kind != view.KindLogin {
		t.Fatalf("failed login must stay on the form")
	}
	if m.form.f.Error() != "Invalid email or password" {
		t.Fatalf("error slot: %q", m.form.f.Error())
	}
	if fb.Calls("Login") != 1 {
		t.Fatalf("login calls: %d", fb.Calls("Login"))
	}
}

func TestLogin_MissingFieldSendsNothing(t *testing.T) {
	st, fb := newTestState(t)
	m := start(t, st, view.Home)
	m.form.inputs[0].SetValue("ada@example.com")
	m = press(m, "enter")
	if fb.Calls("Login") != 0 {
		t.Fatalf("request sent without password")
	}
	if m.form.f.Error() != "Password is required" {
		t.Fatalf("error slot: %q", m.form.f.Error())
	}
}

func TestSwitchToSignup(t *testing.T) {
	st, _ := newTestState(t)
	m := start(t, st, view.Home)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	m = run(next.(appModel), cmd)
	if m.form == nil || m.form.kind != formSignup {
		t.Fatalf("expected signup form")
	}
}

func TestRollbackModalBlocksInput(t *testing.T) {
	st, fb := newTestState(t)
	signIn(t, st, "ada@example.com", "secret1")
	m := start(t, st, view.Tasks)
	if !st.Tasks.Loaded() || st.Tasks.Len() != 3 {
		t.Fatalf("tasks not loaded: %d", st.Tasks.Len())
	}
	fb.UpdateTaskErr = &api.APIError{Op: "update task", Status: 500}

	m = press(m, "]")
	if got, _ := st.Tasks.Get("t1"); got.Status != model.StatusTodo {
		t.Fatalf("move should be rolled back: %q", got.Status)
	}
	if _, ok := m.notices.pending(); !ok {
		t.Fatalf("expected a pending notice")
	}
	if out := m.View(); !strings.Contains(out, "Move failed") || !strings.Contains(out, "Error updating task!") {
		t.Fatalf("modal missing:\n%s", out)
	}

	// Input other than the acknowledgement is swallowed.
	before := fb.Calls("UpdateTask")
	m = press(m, "]")
	if fb.Calls("UpdateTask") != before {
		t.Fatalf("move sent while the notice was open")
	}
	m = press(m, "enter")
	if _, ok := m.notices.pending(); ok {
		t.Fatalf("notice should be acknowledged")
	}
	if len(m.notices.history) != 1 {
		t.Fatalf("history: %+v", m.notices.history)
	}
}

func TestMoveCommits(t *testing.T) {
	st, fb := newTestState(t)
	signIn(t, st, "ada@example.com", "secret1")
	m := start(t, st, view.Tasks)
	m = press(m, "]")
	if got, _ := st.Tasks.Get("t1"); got.Status != model.StatusInProgress {
		t.Fatalf("cache: %q", got.Status)
	}
	if srv, _ := fb.Task("t1"); srv.Status != model.StatusInProgress {
		t.Fatalf("server: %q", srv.Status)
	}
	if st.Tracker.InFlight("t1") {
		t.Fatalf("still in flight")
	}
	if m.board.TaskID != "t1" {
		t.Fatalf("focus should follow the card: %+v", m.board)
	}
}

func TestReloadWhileMovePending(t *testing.T) {
	for _, tc := range []struct {
		name   string
		fail   bool
		want   model.Status
		notice bool
	}{
		{name: "commit", want: model.StatusInProgress},
		{name: "rollback", fail: true, want: model.StatusTodo, notice: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			st, fb := newTestState(t)
			signIn(t, st, "ada@example.com", "secret1")
			m := start(t, st, view.Tasks)

			next, moveCmd := m.Update(keyMsg("]"))
			m = next.(appModel)
			// The reload answers before the update does.
			m = press(m, "r")
			if got, _ := st.Tasks.Get("t1"); got.Status != model.StatusInProgress {
				t.Fatalf("reload overwrote the pending move: %q", got.Status)
			}
			if !st.Tracker.InFlight("t1") {
				t.Fatalf("move should still be in flight")
			}

			if tc.fail {
				fb.UpdateTaskErr = &api.APIError{Op: "update task", Status: 500}
			}
			m = run(m, moveCmd)
			if got, _ := st.Tasks.Get("t1"); got.Status != tc.want {
				t.Fatalf("cache: %q, want %q", got.Status, tc.want)
			}
			if srv, _ := fb.Task("t1"); srv.Status != tc.want {
				t.Fatalf("server: %q, want %q", srv.Status, tc.want)
			}
			if _, ok := m.notices.pending(); ok != tc.notice {
				t.Fatalf("notice pending=%v", ok)
			}
		})
	}
}

func TestStaleTaskLoadIsDropped(t *testing.T) {
	st, _ := newTestState(t)
	signIn(t, st, "ada@example.com", "secret1")
	st.Router.SetActiveView(view.Tasks)
	m := newAppModel(context.Background(), st)
	stale := m.initCmd

	// Leaving and re-entering issues a new ticket before the first load lands.
	m, fresh := m.enter()
	m = run(m, stale)
	if st.Tasks.Loaded() {
		t.Fatalf("stale result was installed")
	}
	m = run(m, fresh)
	if !st.Tasks.Loaded() {
		t.Fatalf("current result was dropped")
	}
	if m.loading {
		t.Fatalf("still loading")
	}
}

func TestNavHidesInsightsForMembers(t *testing.T) {
	labels := func(m appModel) string {
		var out []string
		for _, e := range m.navEntries() {
			out = append(out, e.Label)
		}
		return strings.Join(out, ",")
	}

	st, _ := newTestState(t)
	signIn(t, st, "milo@example.com", "secret2")
	m := start(t, st, view.Home)
	if got := labels(m); strings.Contains(got, "Reporting") || !strings.Contains(got, "Launch") {
		t.Fatalf("member nav: %s", got)
	}

	st2, _ := newTestState(t)
	signIn(t, st2, "ada@example.com", "secret1")
	m2 := start(t, st2, view.Home)
	if got := labels(m2); !strings.Contains(got, "Reporting") {
		t.Fatalf("admin nav: %s", got)
	}
}

func TestMemberScopeToggleIgnored(t *testing.T) {
	st, _ := newTestState(t)
	signIn(t, st, "milo@example.com", "secret2")
	m := start(t, st, view.Tasks)
	m = press(m, "s")
	if m.scope != taskstore.ScopeMine {
		t.Fatalf("member scope: %q", m.scope)
	}
	for _, task := range st.Tasks.Tasks() {
		if !task.AssignedToUser("u2") {
			t.Fatalf("member sees %s", task.ID)
		}
	}
}

func TestProjectManageDelete(t *testing.T) {
	st, fb := newTestState(t)
	signIn(t, st, "ada@example.com", "secret1")
	m := start(t, st, view.ProjectTag("Launch"))
	if !st.Tasks.Loaded() || st.Tasks.Len() != 3 {
		t.Fatalf("project tasks not loaded: %d", st.Tasks.Len())
	}

	// Delete needs manage mode.
	m = press(m, "x")
	if m.confirmDelete != "" {
		t.Fatalf("delete outside manage mode")
	}
	m = press(m, "m")
	m = press(m, "x")
	if m.confirmDelete != "t1" {
		t.Fatalf("confirm target: %q", m.confirmDelete)
	}
	if out := m.View(); !strings.Contains(out, "Delete task") {
		t.Fatalf("confirm modal missing:\n%s", out)
	}
	m = press(m, "y")
	if _, ok := fb.Task("t1"); ok {
		t.Fatalf("task not deleted on server")
	}
	if _, ok := st.Tasks.Get("t1"); ok {
		t.Fatalf("task still cached")
	}
	if st.Tasks.Len() != 2 {
		t.Fatalf("reload: %d", st.Tasks.Len())
	}
}

func TestProjectNotFound(t *testing.T) {
	st, _ := newTestState(t)
	signIn(t, st, "ada@example.com", "secret1")
	m := start(t, st, view.ProjectTag("Nope"))
	if out := m.View(); !strings.Contains(out, "Project not found: Nope") {
		t.Fatalf("view:\n%s", out)
	}
}

func TestWorkspaceShowsJoinCode(t *testing.T) {
	st, _ := newTestState(t)
	signIn(t, st, "ada@example.com", "secret1")
	if err := st.KV.Set(context.Background(), store.KeyProjectID, "p1", 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	m := start(t, st, view.Workspace)
	if m.workspace == nil || m.workspace.Code != "ALPHA123" {
		t.Fatalf("workspace: %+v", m.workspace)
	}
	if out := m.View(); !strings.Contains(out, "ALPHA123") {
		t.Fatalf("view:\n%s", out)
	}

	m = press(m, "e")
	if m.form == nil || m.form.kind != formEditWorkspace {
		t.Fatalf("edit form not opened")
	}
	if !m.form.f.Ready() || m.form.inputs[0].Value() != "Launch" {
		t.Fatalf("edit form not pre-populated: %q", m.form.inputs[0].Value())
	}
}

func TestPanelErrorBoundary(t *testing.T) {
	st, _ := newTestState(t)
	signIn(t, st, "ada@example.com", "secret1")
	m := start(t, st, view.Tasks)
	st.Tasks = nil
	out := m.renderPanel(view.Panel{Kind: view.KindTasks}, 60, 5)
	if !strings.Contains(out, "Something went wrong.") || !strings.Contains(out, "press r to try again") {
		t.Fatalf("boundary output:\n%s", out)
	}
}
