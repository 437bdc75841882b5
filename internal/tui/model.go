// Package tui is the interactive client: a bubbletea program over app.State.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"tasklync-cli/internal/app"
	"tasklync-cli/internal/form"
	"tasklync-cli/internal/model"
	"tasklync-cli/internal/mutate"
	"tasklync-cli/internal/perm"
	"tasklync-cli/internal/taskstore"
	"tasklync-cli/internal/view"
)

// Run starts the TUI on an initialised state.
func Run(ctx context.Context, st *app.State) error {
	applyThemePreference(st.Config.TUI.Theme)
	applyColorProfilePreference()
	_, err := tea.NewProgram(newAppModel(ctx, st), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

type focusArea int

const (
	focusNav focusArea = iota
	focusMain
)

type homeTab int

const (
	tabUpcoming homeTab = iota
	tabOverdue
	tabCompleted
)

// noticeQueue collects rollback notices. While it is non-empty the rollback
// modal is shown and input is blocked.
type noticeQueue struct {
	items   []mutate.Notice
	history []mutate.Notice
}

func (q *noticeQueue) Notify(n mutate.Notice) {
	q.items = append(q.items, n)
	q.history = append(q.history, n)
}

func (q *noticeQueue) pending() (mutate.Notice, bool) {
	if len(q.items) == 0 {
		return mutate.Notice{}, false
	}
	return q.items[0], true
}

func (q *noticeQueue) ack() {
	if len(q.items) > 0 {
		q.items = q.items[1:]
	}
}

type appModel struct {
	ctx context.Context
	st  *app.State

	width  int
	height int

	keys keyMap
	help help.Model
	spin spinner.Model

	focus  focusArea
	navIdx int

	// selecting shows the workspace selection panel (join or create).
	selecting bool
	form      *formState
	formSeq   int

	gen             int
	loading         bool
	loadErr         string
	projectsLoaded  bool
	projectsLoading bool

	dash      *app.Dashboard
	homeTab   homeTab
	workspace *model.Project

	scope   taskstore.Scope
	manage  bool
	board   boardSelection
	listIdx int

	notices       *noticeQueue
	confirmDelete string
	flash         string

	initCmd tea.Cmd
}

func newAppModel(ctx context.Context, st *app.State) appModel {
	q := &noticeQueue{}
	// Rollback notices surface as the blocking modal.
	st.SetNotifier(q)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := appModel{
		ctx:     ctx,
		st:      st,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spin:    sp,
		focus:   focusMain,
		scope:   taskstore.ScopeMine,
		notices: q,
	}
	if perm.Can(st.Session.Role(), perm.SeeAllTasks) {
		m.scope = taskstore.ScopeAll
	}
	var cmd tea.Cmd
	m, cmd = m.enter()
	m.initCmd = cmd
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.initCmd)
}

// panel is what to render: the router's answer, overridden by workspace
// selection for signed-in users.
func (m appModel) panel() view.Panel {
	p := m.st.Router.Current()
	switch p.Kind {
	case view.KindLogin, view.KindSetPassword:
		return p
	}
	if m.selecting {
		return view.Panel{Kind: view.KindSelectWorkspace}
	}
	return p
}

// enter mounts the current panel: it drops results still in flight for the
// previous one and starts the new panel's loads.
func (m appModel) enter() (appModel, tea.Cmd) {
	m.gen++
	m.loadErr = ""
	m.loading = false
	m.confirmDelete = ""
	p := m.panel()
	m.st.Log.Printf("tui view=%s panel=%s", m.st.Router.Active(), p.Kind)

	switch p.Kind {
	case view.KindLogin:
		m.st.Tasks.Reset()
		m.projectsLoaded = false
		m.dash, m.workspace = nil, nil
		if m.form == nil || (m.form.kind != formLogin && m.form.kind != formSignup) {
			return m.openForm(formLogin)
		}
		return m, nil
	case view.KindSetPassword:
		m.st.Tasks.Reset()
		if m.form == nil || m.form.kind != formSetPassword {
			return m.openForm(formSetPassword)
		}
		return m, nil
	case view.KindSelectWorkspace:
		m.st.Tasks.Reset()
		if m.form == nil || (m.form.kind != formJoin && m.form.kind != formCreateWorkspace) {
			return m.openForm(formJoin)
		}
		return m, nil
	}

	if m.form != nil && m.form.kind.onboarding() {
		m.form = nil
	}
	var cmds []tea.Cmd
	if !m.projectsLoaded && !m.projectsLoading {
		m.projectsLoading = true
		cmds = append(cmds, loadProjectsCmd(m.ctx, m.st.Backend))
	}

	cur := m.st.Session.Current()
	role := m.st.Session.Role()
	switch p.Kind {
	case view.KindHome:
		m.st.Tasks.Reset()
		m.loading = true
		cmds = append(cmds, loadDashboardCmd(m.ctx, m.st.Backend, m.gen))
	case view.KindTasks:
		m.loading = true
		cmds = append(cmds, loadTasksCmd(m.ctx, m.st.Backend, m.st.Tasks.BeginLoad(), m.scope, role, cur.UserID))
	case view.KindInbox:
		m.loading = true
		cmds = append(cmds, loadTasksCmd(m.ctx, m.st.Backend, m.st.Tasks.BeginLoad(), taskstore.ScopeMine, role, cur.UserID))
	case view.KindReporting:
		m.loading = true
		cmds = append(cmds, loadTasksCmd(m.ctx, m.st.Backend, m.st.Tasks.BeginLoad(), taskstore.ScopeAll, role, cur.UserID))
	case view.KindProject:
		m.st.Tasks.Reset()
		if proj, ok := m.st.ProjectByName(p.Project); ok {
			m.loading = true
			cmds = append(cmds, loadProjectTasksCmd(m.ctx, m.st.Backend, m.st.Tasks.BeginLoad(), proj.ID))
		} else if m.projectsLoading {
			// Re-entered once the project list arrives.
			m.loading = true
		}
	case view.KindWorkspace:
		m.st.Tasks.Reset()
		m.loading = true
		cmds = append(cmds, loadWorkspaceCmd(m.ctx, m.st, m.gen))
	default:
		m.st.Tasks.Reset()
	}
	if m.loading {
		cmds = append(cmds, m.spin.Tick)
	}
	return m, tea.Batch(cmds...)
}

// openForm replaces the current form. Edit forms start their prefetch.
func (m appModel) openForm(kind formKind) (appModel, tea.Cmd) {
	sess := m.st.Session
	var f *form.Form
	switch kind {
	case formLogin:
		f = form.Login(sess)
	case formSignup:
		f = form.Signup(sess)
	case formSetPassword:
		f = form.SetPassword(sess, "")
	case formJoin:
		f = form.JoinWorkspace(m.st.Backend, sess)
	case formCreateWorkspace:
		f = form.CreateWorkspace(m.st.Backend, sess)
	case formEditWorkspace:
		id := ""
		if m.workspace != nil {
			id = m.workspace.ID
		}
		f = form.EditWorkspace(m.st.Backend, id)
	case formCreateTask:
		proj, _ := m.st.ProjectByName(m.panel().Project)
		f = form.CreateTask(m.st.Backend, proj)
	default:
		m.form = nil
		return m, nil
	}
	m.formSeq++
	m.form = newFormState(kind, m.formSeq, f.WithStore(m.st.KV))
	cmds := []tea.Cmd{textinput.Blink}
	if !f.Ready() {
		cmds = append(cmds, loadFormCmd(m.ctx, f, m.formSeq))
	}
	return m, tea.Batch(cmds...)
}

// navEntries is the sidebar for the current role and project list.
func (m appModel) navEntries() []view.Entry {
	return view.Nav(m.st.Session.Role(), m.st.Projects())
}
