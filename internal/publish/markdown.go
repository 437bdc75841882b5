package publish

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"tasklync-cli/internal/derive"
	"tasklync-cli/internal/model"
	"tasklync-cli/internal/statusutil"
)

type RenderOptions struct {
	// Now is used for the relative due labels; zero means time.Now.
	Now time.Time
}

func (o RenderOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

func RenderTaskMarkdown(t model.Task, opt RenderOptions) (string, error) {
	if strings.TrimSpace(t.ID) == "" {
		return "", fmt.Errorf("missing task id")
	}

	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	writeLn("# " + strings.TrimSpace(t.Title))
	writeLn("")
	writeLn("## Meta")
	writeLn("")
	writeLn("- ID: " + t.ID)
	writeLn("- Project: " + derive.ProjectLabel(t))
	writeLn("- Status: " + statusutil.Label(derive.ColumnOf(t)))
	writeLn("- Priority: " + string(statusutil.PriorityOrDefault(t.Priority)))
	if t.AssignedTo != nil {
		who := strings.TrimSpace(t.AssignedTo.Name)
		if who == "" {
			who = strings.TrimSpace(t.AssignedTo.ID)
		}
		if who != "" {
			writeLn("- Assigned: " + who)
		}
	}
	if t.DueDate != nil && t.DueDate.String() != "" {
		writeLn("- Due: " + t.DueDate.String() + " (" + derive.DueLabel(t, opt.now()) + ")")
	}
	if t.CreatedAt != nil {
		writeLn("- Created: " + t.CreatedAt.UTC().Format(time.RFC3339))
	}

	if desc := strings.TrimSpace(t.Description); desc != "" {
		writeLn("")
		writeLn("## Description")
		writeLn("")
		writeLn(desc)
	}
	return buf.String(), nil
}

// RenderProjectIndexMarkdown lists tasks under their kanban column, linking
// each to its page under tasks/.
func RenderProjectIndexMarkdown(p model.Project, tasks []model.Task) (string, error) {
	if strings.TrimSpace(p.ID) == "" && strings.TrimSpace(p.Name) == "" {
		return "", fmt.Errorf("missing project")
	}

	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	title := strings.TrimSpace(p.Name)
	if title == "" {
		title = p.ID
	}
	writeLn("# " + title)
	writeLn("")

	if c := strings.TrimSpace(p.CompanyName); c != "" {
		writeLn("- Company: " + c)
	}
	if e := strings.TrimSpace(p.CompanyEmail); e != "" {
		writeLn("- Email: " + e)
	}
	if a := strings.TrimSpace(p.CompanyAddress); a != "" {
		writeLn("- Address: " + a)
	}
	if buf.Len() > len("# "+title+"\n\n") {
		writeLn("")
	}

	for _, col := range derive.Kanban(tasks) {
		writeLn(fmt.Sprintf("## %s (%d)", col.Label, len(col.Tasks)))
		writeLn("")
		if len(col.Tasks) == 0 {
			writeLn("_No tasks._")
			writeLn("")
			continue
		}
		for _, t := range col.Tasks {
			fmt.Fprintf(&buf, "- [%s](tasks/%s.md) (%s)\n", strings.TrimSpace(t.Title), t.ID, statusutil.PriorityOrDefault(t.Priority))
		}
		writeLn("")
	}
	return buf.String(), nil
}
