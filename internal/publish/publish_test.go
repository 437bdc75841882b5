package publish

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tasklync-cli/internal/model"
)

func TestRenderTaskMarkdown_IncludesMetaAndDescription(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	due := model.Day("2025-03-12")
	task := model.Task{
		ID:          "t1",
		Title:       "Book venue",
		Description: "Some **markdown**.",
		Status:      model.StatusInProgress,
		Priority:    model.PriorityHigh,
		DueDate:     &due,
		AssignedTo:  &model.UserRef{ID: "u2", Name: "Milo"},
		Project:     &model.ProjectRef{ID: "p1", Name: "Launch"},
	}

	md, err := RenderTaskMarkdown(task, RenderOptions{Now: now})
	if err != nil {
		t.Fatalf("RenderTaskMarkdown: %v", err)
	}
	for _, want := range []string{"# Book venue", "- Project: Launch", "- Priority: High", "- Assigned: Milo", "- Due: 2025-03-12 (due 2 days from now)", "## Description", "Some **markdown**."} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected %q, got:\n%s", want, md)
		}
	}
}

func TestRenderTaskMarkdown_MissingID(t *testing.T) {
	t.Parallel()
	if _, err := RenderTaskMarkdown(model.Task{Title: "x"}, RenderOptions{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWriteProject_WritesIndexAndTasks(t *testing.T) {
	t.Parallel()

	p := model.Project{ID: "p1", Name: "Launch", CompanyName: "Example Co"}
	tasks := []model.Task{
		{ID: "a", Title: "A", Status: model.StatusTodo},
		{ID: "b", Title: "B", Status: model.StatusDone},
	}

	to := t.TempDir()
	res, err := WriteProject(p, tasks, to, WriteOptions{Overwrite: true})
	if err != nil {
		t.Fatalf("WriteProject: %v", err)
	}
	if len(res.Written) != 3 {
		t.Fatalf("expected 3 written files; got %d (%v)", len(res.Written), res.Written)
	}
	index, err := os.ReadFile(filepath.Join(to, "projects", "p1", "index.md"))
	if err != nil {
		t.Fatalf("read index.md: %v", err)
	}
	if !strings.Contains(string(index), "- [A](tasks/a.md)") || !strings.Contains(string(index), "## In Progress (0)") {
		t.Fatalf("unexpected index:\n%s", index)
	}
	if _, err := os.Stat(filepath.Join(to, "projects", "p1", "tasks", "b.md")); err != nil {
		t.Fatalf("stat b.md: %v", err)
	}

	if _, err := WriteProject(p, tasks, to, WriteOptions{}); err == nil || !strings.Contains(err.Error(), "file exists") {
		t.Fatalf("expected file exists error, got %v", err)
	}
}
