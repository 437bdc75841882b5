// Package taskstore is the client's task list cache.
//
// The cache is only changed through the methods here. Loads are ticketed so a
// result arriving after a newer load (or after Reset) is dropped instead of
// clobbering fresher data.
package taskstore

import (
	"context"
	"fmt"
	"strings"

	"tasklync-cli/internal/api"
	"tasklync-cli/internal/derive"
	"tasklync-cli/internal/model"
	"tasklync-cli/internal/perm"
)

type Scope string

const (
	// ScopeMine is the tasks assigned to the current user.
	ScopeMine Scope = "mine"
	// ScopeAll is every task the backend returns for an admin's projects.
	ScopeAll Scope = "all"
)

// ParseScope accepts "mine" or "all"; empty means mine.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mine":
		return ScopeMine, nil
	case "all":
		return ScopeAll, nil
	default:
		return "", fmt.Errorf("invalid scope %q (want mine|all)", s)
	}
}

// Effective narrows scope by role: only admins get ScopeAll.
func Effective(scope Scope, role model.Role) Scope {
	if scope == ScopeAll && perm.Can(role, perm.SeeAllTasks) {
		return ScopeAll
	}
	return ScopeMine
}

// Ticket identifies one load. Only the newest ticket may settle.
type Ticket uint64

// Overlay reports a status that must win over fetched data for a task, such
// as the target of a move the server has not answered yet.
type Overlay func(taskID string) (model.Status, bool)

type Store struct {
	tasks   []model.Task
	loaded  bool
	issued  Ticket
	scope   Scope
	overlay Overlay
}

func New() *Store { return &Store{scope: ScopeMine} }

// Loaded reports whether any load has settled since the last Reset.
func (s *Store) Loaded() bool { return s.loaded }

func (s *Store) Scope() Scope { return s.scope }

// Tasks returns a deep copy of the cache in load order.
func (s *Store) Tasks() []model.Task {
	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	return out
}

func (s *Store) Len() int { return len(s.tasks) }

func (s *Store) Get(id string) (model.Task, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return model.Task{}, false
}

func (s *Store) indexOf(id string) int {
	id = strings.TrimSpace(id)
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// BeginLoad issues a ticket for a load about to start. Any earlier ticket is
// now stale.
func (s *Store) BeginLoad() Ticket {
	s.issued++
	return s.issued
}

// Current reports whether t is the newest ticket, i.e. its result would
// still be installed.
func (s *Store) Current(t Ticket) bool { return t == s.issued }

// Settle installs the result of load t. It returns false, leaving the cache
// alone, when t is stale or the load failed.
func (s *Store) Settle(t Ticket, scope Scope, tasks []model.Task, err error) bool {
	if t != s.issued || err != nil {
		return false
	}
	s.install(scope, tasks)
	return true
}

// SetOverlay installs the hook consulted on every load.
func (s *Store) SetOverlay(o Overlay) { s.overlay = o }

func (s *Store) install(scope Scope, tasks []model.Task) {
	s.tasks = make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		t = api.NormalizeTask(t).Clone()
		if s.overlay != nil {
			if st, ok := s.overlay(t.ID); ok {
				t.Status = st
			}
		}
		s.tasks = append(s.tasks, t)
	}
	s.scope = scope
	s.loaded = true
}

// Reset empties the cache and invalidates in-flight loads.
func (s *Store) Reset() {
	s.tasks = nil
	s.loaded = false
	s.issued++
}

// Fetch performs the network part of a load: the task list, narrowed to what
// role may see under scope. It does not touch the cache.
func Fetch(ctx context.Context, backend api.Backend, scope Scope, role model.Role, userID string) (Scope, []model.Task, error) {
	scope = Effective(scope, role)
	tasks, err := backend.ListTasks(ctx)
	if err != nil {
		return scope, nil, err
	}
	if scope == ScopeMine {
		return scope, derive.Scope(tasks, model.RoleMember, userID), nil
	}
	return scope, derive.Scope(tasks, role, userID), nil
}

// Load is BeginLoad + Fetch + Settle for callers with no concurrency of
// their own (the CLI).
func (s *Store) Load(ctx context.Context, backend api.Backend, scope Scope, role model.Role, userID string) error {
	ticket := s.BeginLoad()
	effective, tasks, err := Fetch(ctx, backend, scope, role, userID)
	if err != nil {
		return err
	}
	s.Settle(ticket, effective, tasks, nil)
	return nil
}

// LoadProject replaces the cache with one project's tasks (admin manage view).
func (s *Store) LoadProject(ctx context.Context, backend api.Backend, projectID string) error {
	ticket := s.BeginLoad()
	tasks, err := backend.ProjectTasks(ctx, projectID)
	if err != nil {
		return err
	}
	s.Settle(ticket, ScopeAll, tasks, nil)
	return nil
}

// SetStatus writes status onto a cached task and returns the task as it was.
func (s *Store) SetStatus(id string, status model.Status) (model.Task, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return model.Task{}, false
	}
	prev := s.tasks[i].Clone()
	s.tasks[i].Status = status
	return prev, true
}

// Restore puts snapshot back in place of the cached task with the same id.
func (s *Store) Restore(snapshot model.Task) bool {
	i := s.indexOf(snapshot.ID)
	if i < 0 {
		return false
	}
	s.tasks[i] = snapshot.Clone()
	return true
}

func (s *Store) Add(t model.Task) {
	s.tasks = append(s.tasks, api.NormalizeTask(t).Clone())
}

func (s *Store) Remove(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return true
}
