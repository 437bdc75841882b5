package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"tasklync-cli/internal/derive"
	"tasklync-cli/internal/model"
	"tasklync-cli/internal/mutate"
	"tasklync-cli/internal/perm"
	"tasklync-cli/internal/statusutil"
	"tasklync-cli/internal/taskstore"
	"tasklync-cli/internal/view"
)

const sidebarWidth = 24

func (m appModel) size() (int, int) {
	w, h := m.width, m.height
	if w <= 0 {
		w = 100
	}
	if h <= 0 {
		h = 30
	}
	return w, h
}

func (m appModel) View() string {
	w, h := m.size()
	if n, ok := m.notices.pending(); ok {
		return overlay(w, h, renderConfirmModal(w, "Move failed", noticeBody(n), "OK", ""))
	}
	if m.confirmDelete != "" {
		title := m.confirmDelete
		if t, ok := m.st.Tasks.Get(m.confirmDelete); ok {
			title = t.Title
		}
		return overlay(w, h, renderConfirmModal(w, "Delete task", fmt.Sprintf("Delete %q? This cannot be undone.", title), "Delete", "Cancel"))
	}

	p := m.panel()
	header := m.renderHeader(w, p)
	footer := m.renderFooter(w)
	bodyH := max(1, h-lipgloss.Height(header)-lipgloss.Height(footer))

	var body string
	switch {
	case p.Kind == view.KindLogin || p.Kind == view.KindSetPassword || p.Kind == view.KindSelectWorkspace:
		body = m.renderOnboarding(w, bodyH)
	case m.form != nil:
		body = overlay(w, bodyH, renderModalBox(w, m.form.f.Title, m.form.view(modalBodyWidth(w), m.spin.View())))
	default:
		side := m.renderSidebar(sidebarWidth, bodyH)
		mainW := max(20, w-sidebarWidth-1)
		body = lipgloss.JoinHorizontal(lipgloss.Top, side, " ", m.renderPanel(p, mainW, bodyH))
	}
	return strings.Join([]string{header, body, footer}, "\n")
}

func noticeBody(n mutate.Notice) string {
	title := strings.TrimSpace(n.Title)
	if title == "" {
		title = n.TaskID
	}
	return fmt.Sprintf("%s\n\n%q could not be moved to %s and is back in %s.",
		n.Message, title, statusutil.Label(n.To), statusutil.Label(n.From))
}

func (m appModel) renderHeader(w int, p view.Panel) string {
	cur := m.st.Session.Current()
	left := lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render("TaskLync")
	parts := []string{left}
	if cur.Authenticated() {
		parts = append(parts, emptyAsDash(cur.UserName), string(m.st.Session.Role()))
	}
	if p.Kind == view.KindProject {
		parts = append(parts, p.Project)
	} else {
		parts = append(parts, string(p.Kind))
	}
	line := strings.Join(parts, styleMuted().Render(" · "))
	if m.loading || (m.form != nil && m.form.f.Busy()) {
		line += " " + m.spin.View()
	}
	return normalizePane(line, w, 1)
}

func (m appModel) renderFooter(w int) string {
	var lines []string
	if m.flash != "" {
		lines = append(lines, truncateText(lipgloss.NewStyle().Foreground(colorAccent).Render(m.flash), w))
	}
	if m.form != nil {
		lines = append(lines, m.help.View(formKeys{k: m.keys}))
	} else {
		lines = append(lines, m.help.View(m.keys))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) renderSidebar(w, h int) string {
	active := m.st.Router.Active()
	var lines []string
	for i, e := range m.navEntries() {
		label := e.Label
		style := lipgloss.NewStyle()
		switch {
		case e.Action != "":
			label = "+ " + label
			style = styleMuted()
		case e.Tag == active:
			style = style.Bold(true).Foreground(colorAccent)
		}
		prefix := "  "
		if m.focus == focusNav && i == m.navIdx {
			prefix = "› "
			style = style.Foreground(colorSelectedFg).Background(colorSelectedBg)
		}
		lines = append(lines, style.Render(truncateText(prefix+label, w)))
	}
	return normalizePane(strings.Join(lines, "\n"), w, h)
}

// renderPanel renders p inside an error boundary: a panic in a panel shows
// a retry hint instead of taking the program down.
func (m appModel) renderPanel(p view.Panel, w, h int) (out string) {
	defer func() {
		if r := recover(); r != nil {
			m.st.Log.Printf("tui panel=%s panic: %v", p.Kind, r)
			out = normalizePane(styleError().Render("Something went wrong.")+"\n"+styleMuted().Render("press r to try again"), w, h)
		}
	}()
	var s string
	switch p.Kind {
	case view.KindHome:
		s = m.renderHome(w, h)
	case view.KindTasks:
		s = m.renderTasks(w, h)
	case view.KindInbox:
		s = m.renderInbox(w)
	case view.KindReporting:
		s = m.renderReporting(w)
	case view.KindPortfolios:
		s = renderPlaceholder("Portfolios", "Group projects to follow them together.")
	case view.KindGoals:
		s = renderPlaceholder("Goals", "Track the outcomes your projects work towards.")
	case view.KindWorkspace:
		s = m.renderWorkspace()
	case view.KindProject:
		s = m.renderProject(p.Project, w, h)
	}
	return normalizePane(s, w, h)
}

func (m appModel) loadingOrError(label string) string {
	if m.loadErr != "" {
		return styleError().Render(m.loadErr) + "\n" + styleMuted().Render("press r to try again")
	}
	return m.spin.View() + " " + label + "…"
}

func (m appModel) homeList() []model.Task {
	if m.dash == nil {
		return nil
	}
	switch m.homeTab {
	case tabOverdue:
		return m.dash.Overdue
	case tabCompleted:
		return m.dash.Done
	default:
		return m.dash.Upcoming
	}
}

func (m appModel) renderHome(w, h int) string {
	if m.dash == nil {
		return m.loadingOrError("Loading dashboard")
	}
	d := m.dash
	s := d.Summary
	lines := []string{
		styleTitle().Render(s.Greeting),
		styleMuted().Render(fmt.Sprintf("%d tasks · %d completed · %d pending · %d upcoming · %d overdue",
			s.Total, s.Completed, s.Pending, s.Upcoming, s.Overdue)),
		"",
	}
	tabs := []struct {
		tab   homeTab
		label string
		n     int
	}{
		{tabUpcoming, "[1] Upcoming", len(d.Upcoming)},
		{tabOverdue, "[2] Overdue", len(d.Overdue)},
		{tabCompleted, "[3] Completed", len(d.Done)},
	}
	var tabLine []string
	for _, t := range tabs {
		st := styleMuted()
		if t.tab == m.homeTab {
			st = lipgloss.NewStyle().Bold(true).Foreground(colorSelectedFg).Background(colorSelectedBg)
		}
		tabLine = append(tabLine, st.Render(fmt.Sprintf(" %s (%d) ", t.label, t.n)))
	}
	lines = append(lines, strings.Join(tabLine, " "), "")

	list := m.homeList()
	if len(list) == 0 {
		lines = append(lines, styleMuted().Render("Nothing here."))
	}
	now := m.st.Now()
	for i, t := range list {
		lines = append(lines, taskRow(t, now, w, m.focus == focusMain && i == m.listIdx))
	}

	lines = append(lines, "", styleTitle().Render("Projects"))
	if len(d.Projects) == 0 {
		lines = append(lines, styleMuted().Render("No projects yet. Join or create a workspace from the sidebar."))
	}
	for _, p := range d.Projects {
		line := "• " + p.Name
		if p.CompanyName != "" {
			line += styleMuted().Render("  " + p.CompanyName)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func taskRow(t model.Task, now time.Time, w int, selected bool) string {
	meta := []string{derive.ProjectLabel(t), statusutil.Label(derive.ColumnOf(t))}
	if d := derive.DueLabel(t, now); d != "" {
		meta = append(meta, d)
	}
	title := lipgloss.NewStyle().Render("• " + t.Title)
	if derive.IsOverdue(t, model.DayOf(now)) {
		title = lipgloss.NewStyle().Foreground(colorOverdue).Render("• " + t.Title)
	}
	row := title + styleMuted().Render("  "+strings.Join(meta, " · "))
	if selected {
		row = lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorSelectedFg).Render(truncateText("• "+t.Title+"  "+strings.Join(meta, " · "), w))
	}
	return truncateText(row, w)
}

func (m appModel) renderTasks(w, h int) string {
	title := "My Tasks"
	if m.st.Tasks.Scope() == taskstore.ScopeAll {
		title = "All Tasks"
	}
	head := styleTitle().Render(title)
	if perm.Can(m.st.Session.Role(), perm.SeeAllTasks) {
		head += styleMuted().Render("  s: mine/all")
	}
	if !m.st.Tasks.Loaded() {
		return head + "\n\n" + m.loadingOrError("Loading tasks")
	}
	return head + "\n\n" + m.renderBoardWithDetail(w, h-2)
}

// renderBoardWithDetail draws the board and, below it, the focused task.
func (m appModel) renderBoardWithDetail(w, h int) string {
	b := buildBoard(m.st.Tasks.Tasks())
	detailH := min(10, h/3)
	boardH := max(3, h-detailH-1)
	out := renderBoard(b, m.board, m.st.Tracker.InFlight, m.st.Now(), w, boardH)
	if t, ok := b.selected(m.board); ok && detailH > 0 {
		out += "\n" + normalizePane(renderDetail(t, m.st.Now(), w), w, detailH)
	}
	return out
}

func renderDetail(t model.Task, now time.Time, w int) string {
	lines := []string{styleTitle().Render(t.Title)}
	meta := []string{
		statusutil.Label(derive.ColumnOf(t)),
		string(statusutil.PriorityOrDefault(t.Priority)),
		derive.ProjectLabel(t),
	}
	if d, ok := t.Due(); ok {
		meta = append(meta, d.String()+" ("+derive.DueLabel(t, now)+")")
	}
	if t.AssignedTo != nil {
		meta = append(meta, "@"+emptyAsDash(t.AssignedTo.Name))
	}
	lines = append(lines, styleMuted().Render(strings.Join(meta, " · ")))
	if md := renderMarkdown(t.Description, w); md != "" {
		lines = append(lines, md)
	}
	return strings.Join(lines, "\n")
}

func (m appModel) renderInbox(w int) string {
	lines := []string{styleTitle().Render("Inbox"), ""}
	if !m.st.Tasks.Loaded() {
		return strings.Join(lines, "\n") + m.loadingOrError("Loading inbox")
	}
	tasks := m.st.Tasks.Tasks()
	now := m.st.Now()
	uid := m.st.Session.Current().UserID

	overdue := derive.Overdue(tasks, model.DayOf(now))
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(colorOverdue).Render(fmt.Sprintf("Overdue (%d)", len(overdue))))
	for _, t := range overdue {
		lines = append(lines, taskRow(t, now, w, false))
	}

	assigned := derive.Inbox(tasks, uid)
	lines = append(lines, "", styleTitle().Render(fmt.Sprintf("Assigned to you (%d)", len(assigned))))
	if len(assigned) == 0 {
		lines = append(lines, styleMuted().Render("Nothing assigned to you."))
	}
	for i, t := range assigned {
		lines = append(lines, taskRow(t, now, w, m.focus == focusMain && i == m.listIdx))
	}

	history := m.notices.history
	lines = append(lines, "", styleTitle().Render("Notifications"))
	if len(history) == 0 {
		lines = append(lines, styleMuted().Render("No notifications."))
	}
	for i := len(history) - 1; i >= 0; i-- {
		n := history[i]
		lines = append(lines, truncateText(styleError().Render("! ")+fmt.Sprintf("%s: %s", n.Title, n.Message), w))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) renderReporting(w int) string {
	lines := []string{styleTitle().Render("Reporting"), ""}
	if !perm.Can(m.st.Session.Role(), perm.ViewInsights) {
		return strings.Join(append(lines, styleMuted().Render("Reporting is available to workspace admins.")), "\n")
	}
	if !m.st.Tasks.Loaded() {
		return strings.Join(lines, "\n") + m.loadingOrError("Loading report")
	}
	r := derive.BuildReport(m.st.Tasks.Tasks(), m.st.Today())
	lines = append(lines,
		fmt.Sprintf("Total %d · Completed %d · Pending %d · ", r.Total, r.Completed, r.Pending)+
			lipgloss.NewStyle().Foreground(colorOverdue).Render(fmt.Sprintf("Overdue %d", r.Overdue)),
		"",
		styleTitle().Render("By status"))
	lines = append(lines, renderBars(r.ByStatus, w)...)
	lines = append(lines, "", styleTitle().Render("By priority"))
	lines = append(lines, renderBars(r.ByPriority, w)...)
	lines = append(lines, "", styleTitle().Render("By project"))
	if len(r.ByProject) == 0 {
		lines = append(lines, styleMuted().Render("No tasks yet."))
	}
	lines = append(lines, renderBars(r.ByProject, w)...)
	return strings.Join(lines, "\n")
}

// renderBars draws one horizontal bar per count, scaled to the largest.
func renderBars(counts []derive.Count, w int) []string {
	labelW, maxV := 0, 0
	for _, c := range counts {
		labelW = max(labelW, len([]rune(c.Label)))
		maxV = max(maxV, c.Value)
	}
	labelW = min(labelW, 20)
	barW := max(1, w-labelW-8)
	bar := lipgloss.NewStyle().Foreground(colorAccent)
	var out []string
	for _, c := range counts {
		n := 0
		if maxV > 0 {
			n = c.Value * barW / maxV
		}
		label := truncateText(c.Label, labelW)
		label += strings.Repeat(" ", max(0, labelW-len([]rune(label))))
		out = append(out, fmt.Sprintf("%s %s %d", label, bar.Render(strings.Repeat("█", n)), c.Value))
	}
	return out
}

func renderPlaceholder(title, blurb string) string {
	return styleTitle().Render(title) + "\n\n" + blurb + "\n" + styleMuted().Render("Coming soon.")
}

func (m appModel) renderWorkspace() string {
	lines := []string{styleTitle().Render("My Workspace"), ""}
	if m.loading || m.loadErr != "" {
		return strings.Join(lines, "\n") + m.loadingOrError("Loading workspace")
	}
	p := m.workspace
	if p == nil {
		lines = append(lines, "You have not joined a workspace yet.",
			styleMuted().Render("Use Join Workspace or Create Workspace in the sidebar."))
		return strings.Join(lines, "\n")
	}
	row := func(label, v string) string {
		return styleMuted().Render(fmt.Sprintf("%-10s", label)) + " " + emptyAsDash(v)
	}
	lines = append(lines,
		lipgloss.NewStyle().Bold(true).Render(p.Name),
		row("Company", p.CompanyName),
		row("Email", p.CompanyEmail),
		row("Address", p.CompanyAddress),
		"",
		row("Join code", lipgloss.NewStyle().Bold(true).Foreground(colorAccentFg).Background(colorAccent).Render(" "+emptyAsDash(p.Code)+" ")),
		styleMuted().Render("Share this code so teammates can join."),
	)
	if perm.Can(m.st.Session.Role(), perm.EditProject) {
		lines = append(lines, "", styleMuted().Render("e: edit workspace"))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) renderProject(name string, w, h int) string {
	proj, ok := m.st.ProjectByName(name)
	if !ok {
		if m.loading {
			return m.loadingOrError("Loading project")
		}
		return styleError().Render("Project not found: "+name) + "\n" + styleMuted().Render("press r to try again")
	}
	head := styleTitle().Render(proj.Name)
	if proj.CompanyName != "" {
		head += styleMuted().Render("  " + proj.CompanyName)
	}
	if perm.Can(m.st.Session.Role(), perm.ManageTasks) {
		if m.manage {
			head += "  " + lipgloss.NewStyle().Foreground(colorPriorityHi).Render("manage: n new · x delete · m done")
		} else {
			head += styleMuted().Render("  m: manage")
		}
	}
	if !m.st.Tasks.Loaded() {
		return head + "\n\n" + m.loadingOrError("Loading tasks")
	}
	return head + "\n\n" + m.renderBoardWithDetail(w, h-2)
}

func (m appModel) renderOnboarding(w, h int) string {
	if m.form == nil {
		return normalizePane(m.spin.View(), w, h)
	}
	kind := m.form.kind
	var hint []string
	switch kind {
	case formLogin:
		hint = append(hint, "ctrl+n: create an account")
	case formSignup:
		hint = append(hint, "ctrl+n: sign in instead")
	case formSetPassword:
		hint = append(hint, "Your account was created with a temporary password.")
	case formJoin:
		hint = append(hint, "Join with a code from your admin.", "ctrl+n: create a workspace instead   esc: skip for now")
	case formCreateWorkspace:
		hint = append(hint, "You will be the admin of the new workspace.", "ctrl+n: join with a code instead   esc: skip for now")
	}
	content := m.form.view(modalBodyWidth(w), m.spin.View())
	if len(hint) > 0 {
		content += "\n\n" + styleMuted().Render(strings.Join(hint, "\n"))
	}
	box := renderModalBox(w, formTitleFor(kind)+" · "+m.form.f.Title, content)
	return overlay(w, h, box)
}
