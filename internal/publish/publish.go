package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"tasklync-cli/internal/model"
)

type WriteOptions struct {
	Overwrite bool
	Render    RenderOptions
}

type WriteResult struct {
	Written []string `json:"written"`
}

func WriteTask(t model.Task, toDir string, opt WriteOptions) (WriteResult, error) {
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	md, err := RenderTaskMarkdown(t, opt.Render)
	if err != nil {
		return WriteResult{}, err
	}

	outDir := filepath.Join(toDir, "tasks")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return WriteResult{}, err
	}
	outPath := filepath.Join(outDir, t.ID+".md")
	if err := writeFile(outPath, []byte(md), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{outPath}}, nil
}

// WriteProject writes projects/<id>/index.md and one page per task.
func WriteProject(p model.Project, tasks []model.Task, toDir string, opt WriteOptions) (WriteResult, error) {
	if strings.TrimSpace(p.ID) == "" {
		return WriteResult{}, errors.New("missing project id")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)

	projectDir := filepath.Join(toDir, "projects", p.ID)
	tasksDir := filepath.Join(projectDir, "tasks")
	if err := os.MkdirAll(tasksDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	indexMD, err := RenderProjectIndexMarkdown(p, tasks)
	if err != nil {
		return WriteResult{}, err
	}
	indexPath := filepath.Join(projectDir, "index.md")
	if err := writeFile(indexPath, []byte(indexMD), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}

	// Stop on the first failing page.
	written := []string{indexPath}
	for _, t := range tasks {
		md, err := RenderTaskMarkdown(t, opt.Render)
		if err != nil {
			return WriteResult{}, err
		}
		path := filepath.Join(tasksDir, t.ID+".md")
		if err := writeFile(path, []byte(md), opt.Overwrite); err != nil {
			return WriteResult{}, err
		}
		written = append(written, path)
	}
	return WriteResult{Written: written}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
