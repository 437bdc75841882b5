package mutate

import (
	"context"
	"strings"

	"tasklync-cli/internal/api"
	"tasklync-cli/internal/taskstore"
)

// DeleteTask deletes on the server first, then drops the task from the cache.
// Deletes are not optimistic.
func DeleteTask(ctx context.Context, backend api.Backend, store *taskstore.Store, taskID string) error {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return NotFoundError{Kind: "task", ID: taskID}
	}
	if err := backend.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	store.Remove(taskID)
	return nil
}

// ReloadProject refreshes the cache with a project's tasks after an admin
// create or delete.
func ReloadProject(ctx context.Context, backend api.Backend, store *taskstore.Store, projectID string) error {
	return store.LoadProject(ctx, backend, projectID)
}
