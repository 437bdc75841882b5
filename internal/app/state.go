// Package app wires the client together. State is created once per process
// and handed to every command and panel; nothing else keeps mutable
// session or view state.
package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"tasklync-cli/internal/api"
	"tasklync-cli/internal/config"
	"tasklync-cli/internal/debuglog"
	"tasklync-cli/internal/derive"
	"tasklync-cli/internal/model"
	"tasklync-cli/internal/mutate"
	"tasklync-cli/internal/session"
	"tasklync-cli/internal/store"
	"tasklync-cli/internal/taskstore"
	"tasklync-cli/internal/view"
)

type State struct {
	Config  config.Config
	Backend api.Backend
	KV      *store.KV
	Log     *debuglog.Logger

	Session *session.Manager
	Router  *view.Router
	Tasks   *taskstore.Store
	Tracker *mutate.Tracker

	projects []model.Project
	now      func() time.Time
}

// Options lets tests swap collaborators.
type Options struct {
	// Backend replaces the HTTP client built from Config.API.
	Backend api.Backend
	// Notifier receives rollback notices.
	Notifier mutate.Notifier
	Now      func() time.Time
}

// Open builds the state from cfg: debug log, session store, backend client,
// session manager, router, task cache and mutation tracker.
func Open(ctx context.Context, cfg config.Config, opts Options) (*State, error) {
	log, err := debuglog.Open(cfg.DebugLog)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDir(); err != nil {
		return nil, err
	}
	kv, err := store.Open(ctx, cfg.SessionDBPath())
	if err != nil {
		return nil, err
	}

	s := &State{Config: cfg, KV: kv, Log: log, now: opts.Now}
	if s.now == nil {
		s.now = time.Now
	}
	s.Backend = opts.Backend
	// The session is the token source; the client is built first and the
	// session closes the loop below.
	var tokens tokenSource
	if s.Backend == nil {
		s.Backend = api.New(cfg.API, &tokens, api.WithTimeout(cfg.Timeout), api.WithLogger(log))
	}
	s.Session = session.NewManager(s.Backend, kv, log)
	tokens.m = s.Session
	s.Router = view.NewRouter(s.Session)
	s.Tasks = taskstore.New()
	s.Tracker = mutate.NewTracker(s.Tasks, opts.Notifier, log)
	return s, nil
}

// Init restores the persisted session.
func (s *State) Init(ctx context.Context) error {
	return s.Session.Restore(ctx)
}

// Teardown logs out and forgets cached data and the active view.
func (s *State) Teardown(ctx context.Context) error {
	err := s.Session.Logout(ctx)
	s.Tasks.Reset()
	s.Tracker.Reset()
	s.projects = nil
	s.Router.SetActiveView(view.Home)
	return err
}

// SetNotifier routes rollback notices to n.
func (s *State) SetNotifier(n mutate.Notifier) { s.Tracker.SetNotifier(n) }

func (s *State) Close() error {
	err := s.KV.Close()
	if cerr := s.Log.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *State) Now() time.Time { return s.now() }

func (s *State) Today() model.Day { return model.DayOf(s.now()) }

// Projects is the last loaded project list.
func (s *State) Projects() []model.Project {
	out := make([]model.Project, len(s.projects))
	copy(out, s.projects)
	return out
}

// SetProjects installs a project list fetched elsewhere.
func (s *State) SetProjects(ps []model.Project) {
	s.projects = append([]model.Project(nil), ps...)
}

// LoadProjects refreshes the project cache.
func (s *State) LoadProjects(ctx context.Context) ([]model.Project, error) {
	ps, err := s.Backend.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	s.projects = ps
	return s.Projects(), nil
}

// ProjectByName finds a cached project by name, falling back to id.
func (s *State) ProjectByName(name string) (model.Project, bool) {
	name = strings.TrimSpace(name)
	for _, p := range s.projects {
		if p.Name == name {
			return p, true
		}
	}
	for _, p := range s.projects {
		if p.ID == name {
			return p, true
		}
	}
	return model.Project{}, false
}

// LoadTasks loads the task cache for scope under the current role.
func (s *State) LoadTasks(ctx context.Context, scope taskstore.Scope) error {
	if err := s.Session.Require(); err != nil {
		return err
	}
	cur := s.Session.Current()
	return s.Tasks.Load(ctx, s.Backend, scope, s.Session.Role(), cur.UserID)
}

// Dashboard is the home panel's data.
type Dashboard struct {
	Summary  derive.Summary  `json:"summary"`
	Projects []model.Project `json:"projects"`
	Upcoming []model.Task    `json:"upcoming"`
	Overdue  []model.Task    `json:"overdue"`
	Done     []model.Task    `json:"completed"`
}

// FetchDashboard loads projects and tasks in parallel. It only reads from
// the backend, so callers may run it off the update loop and install the
// result with ApplyDashboard.
func FetchDashboard(ctx context.Context, backend api.Backend) ([]model.Project, []model.Task, error) {
	var projects []model.Project
	var tasks []model.Task
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		projects, err = backend.ListProjects(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tasks, err = backend.ListTasks(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return projects, api.NormalizeTasks(tasks), nil
}

// ApplyDashboard installs fetched data and derives the home panel.
func (s *State) ApplyDashboard(projects []model.Project, tasks []model.Task) Dashboard {
	s.projects = projects
	cur := s.Session.Current()
	today := s.Today()
	return Dashboard{
		Summary:  derive.Summarize(cur.UserName, tasks, s.now()),
		Projects: s.Projects(),
		Upcoming: derive.Upcoming(tasks, today),
		Overdue:  derive.Overdue(tasks, today),
		Done:     derive.Completed(tasks),
	}
}

// LoadDashboard is FetchDashboard + ApplyDashboard.
func (s *State) LoadDashboard(ctx context.Context) (Dashboard, error) {
	if err := s.Session.Require(); err != nil {
		return Dashboard{}, err
	}
	projects, tasks, err := FetchDashboard(ctx, s.Backend)
	if err != nil {
		return Dashboard{}, err
	}
	return s.ApplyDashboard(projects, tasks), nil
}

// CurrentProject loads the last joined workspace, if one was remembered.
func (s *State) CurrentProject(ctx context.Context) (model.Project, bool, error) {
	id, ok, err := s.KV.Get(ctx, store.KeyProjectID)
	if err != nil || !ok {
		return model.Project{}, false, err
	}
	p, err := s.Backend.ProjectDetails(ctx, id)
	if err != nil {
		return model.Project{}, false, err
	}
	if p.ID == "" {
		p.ID = id
	}
	if p.Code == "" {
		if code, ok, _ := s.KV.Get(ctx, store.KeyJoinCode); ok {
			p.Code = code
		}
	}
	return p, true, nil
}

// tokenSource forwards to the session manager once it exists.
type tokenSource struct{ m *session.Manager }

func (t *tokenSource) Token() (*oauth2.Token, error) {
	if t.m == nil {
		return nil, errors.New("session not initialised")
	}
	return t.m.Token()
}
