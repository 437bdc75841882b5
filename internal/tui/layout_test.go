package tui

import (
	"strings"
	"testing"
	"time"

	xansi "github.com/charmbracelet/x/ansi"

	"tasklync-cli/internal/model"
)

func TestNormalizePane_ExactSize(t *testing.T) {
	got := normalizePane("short\nthis line is much too long", 10, 3)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("lines: %d", len(lines))
	}
	for i, ln := range lines {
		if w := xansi.StringWidth(ln); w != 10 {
			t.Fatalf("line %d width %d: %q", i, w, ln)
		}
	}
	if !strings.HasSuffix(lines[1], "…") {
		t.Fatalf("expected ellipsis: %q", lines[1])
	}
}

func TestEmptyAsDash(t *testing.T) {
	if emptyAsDash("  ") != "-" || emptyAsDash("x") != "x" {
		t.Fatalf("unexpected")
	}
}

func boardFixture() board {
	return buildBoard([]model.Task{
		{ID: "a", Title: "A", Status: model.StatusTodo},
		{ID: "b", Title: "B", Status: model.StatusTodo},
		{ID: "c", Title: "C", Status: model.StatusDone},
	})
}

func TestBoard_ClampFollowsTaskID(t *testing.T) {
	b := boardFixture()
	sel := b.clamp(boardSelection{TaskID: "c"})
	if sel.Col != 2 || sel.Item != 0 {
		t.Fatalf("selection: %+v", sel)
	}
	sel = b.clamp(boardSelection{Col: 9, Item: 9, TaskID: "gone"})
	if sel.Col != 2 || sel.TaskID != "c" {
		t.Fatalf("out of range selection: %+v", sel)
	}
}

func TestBoard_StepSkipsNothing(t *testing.T) {
	b := boardFixture()
	sel := b.step(boardSelection{}, 0, 1)
	if sel.TaskID != "b" {
		t.Fatalf("down: %+v", sel)
	}
	sel = b.step(sel, 0, 5)
	if sel.TaskID != "b" {
		t.Fatalf("down past end: %+v", sel)
	}
	sel = b.step(sel, 1, 0)
	if sel.Col != 1 || sel.Item != -1 {
		t.Fatalf("empty column: %+v", sel)
	}
	if _, ok := b.selected(sel); ok {
		t.Fatalf("empty column has no selection")
	}
	sel = b.step(sel, 1, 0)
	if got, ok := b.selected(sel); !ok || got.ID != "c" {
		t.Fatalf("done column: %+v %v", got, ok)
	}
}

func TestRenderBoard_MarksInFlight(t *testing.T) {
	b := boardFixture()
	out := renderBoard(b, boardSelection{}, func(id string) bool { return id == "a" }, time.Now(), 90, 12)
	if !strings.Contains(out, "saving…") {
		t.Fatalf("expected in-flight marker:\n%s", out)
	}
	for _, label := range []string{"Todo (2)", "Done (1)"} {
		if !strings.Contains(out, label) {
			t.Fatalf("missing column %q:\n%s", label, out)
		}
	}
}
