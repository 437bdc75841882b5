package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"tasklync-cli/internal/api"
	"tasklync-cli/internal/derive"
	"tasklync-cli/internal/form"
	"tasklync-cli/internal/mutate"
	"tasklync-cli/internal/perm"
	"tasklync-cli/internal/session"
	"tasklync-cli/internal/statusutil"
	"tasklync-cli/internal/taskstore"
	"tasklync-cli/internal/view"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case projectsMsg:
		m.projectsLoading = false
		if k := m.panel().Kind; k == view.KindLogin || k == view.KindSetPassword {
			return m, nil
		}
		if msg.err != nil {
			m.flash = api.Message(msg.err, "Failed to load projects")
			if m.panel().Kind == view.KindProject {
				m.loading = false
			}
			return m, nil
		}
		m.projectsLoaded = true
		m.st.SetProjects(msg.projects)
		if m.panel().Kind == view.KindProject && !m.st.Tasks.Loaded() {
			return m.enter()
		}
		return m, nil

	case dashboardMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.loadErr = api.Message(msg.err, "Failed to load dashboard")
			return m, nil
		}
		d := m.st.ApplyDashboard(msg.projects, msg.tasks)
		m.projectsLoaded = true
		m.dash = &d
		return m, nil

	case tasksMsg:
		if !m.st.Tasks.Current(msg.ticket) {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.loadErr = api.Message(msg.err, "Failed to load tasks")
			return m, nil
		}
		m.st.Tasks.Settle(msg.ticket, msg.scope, msg.tasks, nil)
		return m, nil

	case workspaceMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.loadErr = api.Message(msg.err, "Failed to load workspace")
			return m, nil
		}
		m.workspace = nil
		if msg.ok {
			p := msg.project
			m.workspace = &p
		}
		return m, nil

	case moveMsg:
		if m.st.Tracker.Settle(msg.attempt, msg.err) == mutate.Committed {
			m.flash = ""
		}
		return m, nil

	case deleteMsg:
		if msg.err != nil {
			m.flash = api.Message(msg.err, "Failed to delete task")
			return m, nil
		}
		m.st.Tasks.Remove(msg.taskID)
		if m.panel().Kind == view.KindProject {
			return m.enter()
		}
		return m, nil

	case formLoadedMsg:
		if m.form == nil || m.form.seq != msg.seq {
			return m, nil
		}
		if err := m.form.f.Apply(msg.values, msg.err); err == nil {
			m.form.fill()
		}
		return m, nil

	case formDoneMsg:
		if m.form == nil || m.form.seq != msg.seq {
			return m, nil
		}
		fs := m.form
		res, err := fs.f.Finish(m.ctx, msg.res, msg.err)
		if err != nil {
			return m, nil
		}
		return m.afterForm(fs.kind, res)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.form != nil {
		return m, m.form.update(msg)
	}
	return m, nil
}

// afterForm navigates after a successful submit.
func (m appModel) afterForm(kind formKind, res form.Result) (appModel, tea.Cmd) {
	m.form = nil
	m.flash = ""
	switch kind {
	case formLogin, formSignup, formJoin, formCreateWorkspace:
		m.projectsLoaded = false
		m.dash = nil
		m.scope = taskstore.ScopeMine
		if perm.Can(m.st.Session.Role(), perm.SeeAllTasks) {
			m.scope = taskstore.ScopeAll
		}
	}

	switch res.Next {
	case string(session.RouteSelectWorkspace):
		m.selecting = true
	case string(session.RouteLogin):
		// The password was replaced: sign in again with the new one.
		if err := m.st.Teardown(m.ctx); err != nil {
			m.st.Log.Printf("teardown: %v", err)
		}
		m.selecting = false
		m.flash = "Password updated. Sign in with your new password."
	case string(session.RouteSetPassword):
	case "", string(session.RouteHome):
		m.selecting = false
		m.st.Router.SetActiveView(view.Home)
	default:
		m.selecting = false
		m.st.Router.SetActiveView(view.Tag(res.Next))
	}

	if created, ok := res.Data.(api.CreatedTask); ok && created.Invite != nil {
		m.flash = "Invite token: " + created.Invite.Token
		if created.Invite.TempPassword != "" {
			m.flash += fmt.Sprintf(" (temporary password %s)", created.Invite.TempPassword)
		}
	}
	m.focus = focusMain
	return m.enter()
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	// A pending rollback notice swallows everything but its acknowledgement.
	if _, ok := m.notices.pending(); ok {
		switch msg.String() {
		case "enter", "esc", " ":
			m.notices.ack()
		}
		return m, nil
	}
	if m.confirmDelete != "" {
		switch msg.String() {
		case "enter", "y":
			id := m.confirmDelete
			m.confirmDelete = ""
			return m, deleteTaskCmd(m.ctx, m.st.Backend, id)
		case "esc", "n":
			m.confirmDelete = ""
		}
		return m, nil
	}
	if m.form != nil {
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusNav {
			m.focus = focusMain
		} else {
			m.focus = focusNav
		}
		return m, nil
	case key.Matches(msg, m.keys.Reload):
		m.flash = ""
		return m.enter()
	case key.Matches(msg, m.keys.Logout):
		if err := m.st.Teardown(m.ctx); err != nil {
			m.flash = err.Error()
		}
		m.selecting = false
		m.form = nil
		return m.enter()
	}

	if m.focus == focusNav {
		return m.handleNavKey(msg)
	}
	return m.handleMainKey(msg)
}

func (m appModel) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fs := m.form
	switch {
	case key.Matches(msg, m.keys.Back):
		if !fs.kind.onboarding() {
			m.form = nil
			return m, nil
		}
		if m.selecting {
			m.selecting = false
			m.form = nil
			return m.enter()
		}
		return m, nil
	case key.Matches(msg, m.keys.Switch):
		if next, ok := switchTarget(fs.kind); ok && !fs.f.Busy() {
			return m.openForm(next)
		}
		return m, nil
	case key.Matches(msg, m.keys.NextField):
		return m, fs.setFocus(fs.focus + 1)
	case key.Matches(msg, m.keys.PrevField):
		return m, fs.setFocus(fs.focus - 1)
	case key.Matches(msg, m.keys.Submit):
		fs.sync()
		vals, err := fs.f.Start()
		if err != nil {
			if errors.Is(err, form.ErrNotReady) {
				m.flash = "Still loading…"
			}
			return m, nil
		}
		return m, tea.Batch(submitFormCmd(m.ctx, fs.f, fs.seq, vals), m.spin.Tick)
	}
	return m, fs.update(msg)
}

func (m appModel) handleNavKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := m.navEntries()
	switch {
	case key.Matches(msg, m.keys.Up):
		m.navIdx = max(0, m.navIdx-1)
	case key.Matches(msg, m.keys.Down):
		m.navIdx = max(0, min(len(entries)-1, m.navIdx+1))
	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.Right):
		if m.navIdx >= 0 && m.navIdx < len(entries) {
			return m.activate(entries[m.navIdx])
		}
	}
	return m, nil
}

// activate opens a sidebar entry: a view, or the join/create forms.
func (m appModel) activate(e view.Entry) (appModel, tea.Cmd) {
	m.flash = ""
	m.focus = focusMain
	var kind formKind
	switch e.Action {
	case view.ActionJoin:
		kind = formJoin
	case view.ActionCreate:
		kind = formCreateWorkspace
	default:
		m.selecting = false
		m.form = nil
		m.manage = false
		m.board = boardSelection{}
		m.listIdx = 0
		m.st.Router.SetActiveView(e.Tag)
		return m.enter()
	}
	m.selecting = true
	m, formCmd := m.openForm(kind)
	m, enterCmd := m.enter()
	return m, tea.Batch(formCmd, enterCmd)
}

func (m appModel) handleMainKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	role := m.st.Session.Role()
	p := m.panel()
	switch p.Kind {
	case view.KindHome:
		switch {
		case key.Matches(msg, m.keys.Tab1):
			m.homeTab, m.listIdx = tabUpcoming, 0
		case key.Matches(msg, m.keys.Tab2):
			m.homeTab, m.listIdx = tabOverdue, 0
		case key.Matches(msg, m.keys.Tab3):
			m.homeTab, m.listIdx = tabCompleted, 0
		case key.Matches(msg, m.keys.Up):
			m.listIdx = max(0, m.listIdx-1)
		case key.Matches(msg, m.keys.Down):
			m.listIdx = max(0, min(len(m.homeList())-1, m.listIdx+1))
		}
		return m, nil

	case view.KindInbox:
		switch {
		case key.Matches(msg, m.keys.Up):
			m.listIdx = max(0, m.listIdx-1)
		case key.Matches(msg, m.keys.Down):
			m.listIdx++
		}
		return m, nil

	case view.KindWorkspace:
		if key.Matches(msg, m.keys.Edit) && m.workspace != nil && perm.Can(role, perm.EditProject) {
			return m.openForm(formEditWorkspace)
		}
		return m, nil

	case view.KindTasks, view.KindProject:
		b := buildBoard(m.st.Tasks.Tasks())
		switch {
		case key.Matches(msg, m.keys.Left):
			m.board = b.step(m.board, -1, 0)
		case key.Matches(msg, m.keys.Right):
			m.board = b.step(m.board, 1, 0)
		case key.Matches(msg, m.keys.Up):
			m.board = b.step(m.board, 0, -1)
		case key.Matches(msg, m.keys.Down):
			m.board = b.step(m.board, 0, 1)
		case key.Matches(msg, m.keys.MovePrev):
			return m.moveSelected(b, -1)
		case key.Matches(msg, m.keys.MoveNext):
			return m.moveSelected(b, 1)
		case key.Matches(msg, m.keys.Scope) && p.Kind == view.KindTasks && perm.Can(role, perm.SeeAllTasks):
			if m.scope == taskstore.ScopeAll {
				m.scope = taskstore.ScopeMine
			} else {
				m.scope = taskstore.ScopeAll
			}
			return m.enter()
		case key.Matches(msg, m.keys.Manage) && p.Kind == view.KindProject && perm.Can(role, perm.ManageTasks):
			m.manage = !m.manage
		case key.Matches(msg, m.keys.NewTask) && p.Kind == view.KindProject && m.manage && perm.Can(role, perm.ManageTasks):
			return m.openForm(formCreateTask)
		case key.Matches(msg, m.keys.Delete) && p.Kind == view.KindProject && m.manage && perm.Can(role, perm.ManageTasks):
			if t, ok := b.selected(m.board); ok {
				m.confirmDelete = t.ID
			}
		}
		return m, nil
	}
	return m, nil
}

// moveSelected starts an optimistic move of the focused card one column
// over. The card moves at once; the server's answer arrives as a moveMsg.
func (m appModel) moveSelected(b board, delta int) (appModel, tea.Cmd) {
	if !perm.Can(m.st.Session.Role(), perm.MoveTasks) {
		return m, nil
	}
	t, ok := b.selected(m.board)
	if !ok {
		return m, nil
	}
	to, ok := statusutil.Neighbor(derive.ColumnOf(t), delta)
	if !ok {
		return m, nil
	}
	a, started, err := m.st.Tracker.Begin(t.ID, to)
	if err != nil {
		m.flash = err.Error()
		return m, nil
	}
	if !started {
		return m, nil
	}
	m.board.TaskID = t.ID
	return m, sendMoveCmd(m.ctx, m.st.Backend, a)
}
