// Package devserver is an in-memory TaskLync backend for local demos and tests.
//
// It implements the REST surface the client consumes. Nothing is persisted and
// there is no email delivery: invite tokens and temporary passwords are
// returned in the create-task response instead.
package devserver

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tasklync-cli/internal/model"
)

type user struct {
	id         string
	name       string
	email      string
	hash       []byte
	role       model.Role
	needsReset bool
}

type project struct {
	model.Project
	adminID string
	members map[string]bool
}

type task struct {
	id          string
	title       string
	description string
	status      model.Status
	priority    model.Priority
	dueDate     *model.Day
	assignedTo  string
	projectID   string
	createdAt   time.Time
}

type invite struct {
	token     string
	email     string
	userID    string
	projectID string
	accepted  bool
}

type failure struct {
	status  int
	message string
}

type Server struct {
	mu sync.Mutex

	users    map[string]*user
	byEmail  map[string]string
	tokens   map[string]string
	projects map[string]*project
	tasks    []*task
	invites  map[string]*invite
	failures map[string]failure

	now    func() time.Time
	engine *gin.Engine
}

func New() *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		users:    map[string]*user{},
		byEmail:  map[string]string{},
		tokens:   map[string]string{},
		projects: map[string]*project{},
		invites:  map[string]*invite{},
		failures: map[string]failure{},
		now:      time.Now,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// SetClock overrides the time source used for createdAt stamps.
func (s *Server) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailNext makes the next request matching method and path fail with status
// and message. An empty message yields a body without one.
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: message}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.injectFailures())

	r.POST("/user/login", s.handleLogin)
	r.POST("/user/signup", s.handleSignup)
	r.PUT("/user/:id", s.handleSetPassword)
	r.GET("/user/details/:id", s.handleUserDetails)
	r.GET("/invite/verify/:token", s.handleVerifyInvite)
	r.POST("/invite/accept/:token", s.handleAcceptInvite)

	authed := r.Group("/", s.requireAuth())
	authed.GET("/user/read", s.handleListUsers)
	authed.POST("/project/create", s.handleCreateProject)
	authed.PUT("/project/:id", s.handleUpdateProject)
	authed.GET("/project/get", s.handleListProjects)
	authed.GET("/project/details/:id", s.handleProjectDetails)
	authed.DELETE("/project/:id", s.handleDeleteProject)
	authed.POST("/project/join", s.handleJoinProject)
	authed.GET("/task", s.handleListTasks)
	authed.GET("/task/project/:id", s.handleProjectTasks)
	authed.POST("/task", s.handleCreateTask)
	authed.PUT("/task/:id", s.handleUpdateTask)
	authed.DELETE("/task/:id", s.handleDeleteTask)
	return r
}

func (s *Server) injectFailures() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Request.Method + " " + c.Request.URL.Path
		s.mu.Lock()
		f, ok := s.failures[key]
		if ok {
			delete(s.failures, key)
		}
		s.mu.Unlock()
		if !ok {
			c.Next()
			return
		}
		if f.message == "" {
			c.AbortWithStatusJSON(f.status, gin.H{})
			return
		}
		c.AbortWithStatusJSON(f.status, gin.H{"message": f.message})
	}
}

func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		s.mu.Lock()
		uid, ok := s.tokens[tok]
		s.mu.Unlock()
		if tok == "" || !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		c.Set("uid", uid)
		c.Next()
	}
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

// AddUser registers a user directly and returns its id.
func (s *Server) AddUser(name, email, password string, role model.Role) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(name, email, password, role, false)
}

func (s *Server) addUserLocked(name, email, password string, role model.Role, needsReset bool) string {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	u := &user{
		id:         uuid.NewString(),
		name:       name,
		email:      strings.ToLower(strings.TrimSpace(email)),
		hash:       hash,
		role:       role,
		needsReset: needsReset,
	}
	s.users[u.id] = u
	s.byEmail[u.email] = u.id
	return u.id
}

func (s *Server) issueTokenLocked(uid string) string {
	tok := uuid.NewString()
	s.tokens[tok] = uid
	return tok
}

func (u *user) wire() model.User {
	return model.User{ID: u.id, Name: u.name, Email: u.email, Role: u.role, NeedsPasswordReset: u.needsReset}
}

// --- users ---------------------------------------------------------------

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[s.byEmail[strings.ToLower(strings.TrimSpace(req.Email))]]
	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(req.Password)) != nil {
		fail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": s.issueTokenLocked(u.id), "user": u.wire()})
}

func (s *Server) handleSignup(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, "All fields are required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[strings.ToLower(strings.TrimSpace(req.Email))]; exists {
		fail(c, http.StatusConflict, "User already exists")
		return
	}
	uid := s.addUserLocked(req.Name, req.Email, req.Password, model.RolePending, false)
	c.JSON(http.StatusCreated, gin.H{"token": s.issueTokenLocked(uid), "user": s.users[uid].wire()})
}

func (s *Server) handleSetPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Password) < 6 {
		fail(c, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[c.Param("id")]
	if !ok {
		fail(c, http.StatusNotFound, "User not found")
		return
	}
	u.hash, _ = bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	u.needsReset = false
	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

func (s *Server) handleUserDetails(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[c.Param("id")]
	if !ok {
		fail(c, http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u.wire()})
}

func (s *Server) handleListUsers(c *gin.Context) {
	uid := c.GetString("uid")
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	for _, p := range s.projects {
		if !p.members[uid] {
			continue
		}
		for m := range p.members {
			seen[m] = true
		}
	}
	out := make([]model.User, 0, len(seen))
	for id := range seen {
		out = append(out, s.users[id].wire())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// --- invites -------------------------------------------------------------

func (s *Server) handleVerifyInvite(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invites[c.Param("token")]
	if !ok || inv.accepted {
		fail(c, http.StatusNotFound, "Invite is invalid or expired")
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": inv.email, "projectId": inv.projectID})
}

func (s *Server) handleAcceptInvite(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invites[c.Param("token")]
	if !ok || inv.accepted {
		fail(c, http.StatusNotFound, "Invite is invalid or expired")
		return
	}
	inv.accepted = true
	c.JSON(http.StatusOK, gin.H{"email": inv.email, "userId": inv.userID})
}
