package devserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tasklync-cli/internal/model"
	"tasklync-cli/internal/statusutil"
)

func (s *Server) wireTaskLocked(t *task) model.Task {
	out := model.Task{
		ID:          t.id,
		Title:       t.title,
		Description: t.description,
		Status:      t.status,
		Priority:    t.priority,
		DueDate:     t.dueDate,
	}
	created := t.createdAt
	out.CreatedAt = &created
	if u, ok := s.users[t.assignedTo]; ok {
		out.AssignedTo = &model.UserRef{ID: u.id, Name: u.name}
	}
	if p, ok := s.projects[t.projectID]; ok {
		out.Project = &model.ProjectRef{ID: p.ID, Name: p.Name}
	}
	return out
}

func (s *Server) visibleLocked(uid string, t *task) bool {
	if t.assignedTo == uid {
		return true
	}
	p, ok := s.projects[t.projectID]
	return ok && p.members[uid]
}

func (s *Server) findTaskLocked(id string) (*task, bool) {
	for _, t := range s.tasks {
		if t.id == id {
			return t, true
		}
	}
	return nil, false
}

func (s *Server) handleListTasks(c *gin.Context) {
	uid := c.GetString("uid")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, 0)
	for _, t := range s.tasks {
		if s.visibleLocked(uid, t) {
			out = append(out, s.wireTaskLocked(t))
		}
	}
	c.JSON(http.StatusOK, gin.H{"tasks": out})
}

func (s *Server) handleProjectTasks(c *gin.Context) {
	uid := c.GetString("uid")
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[c.Param("id")]
	if !ok || !p.members[uid] {
		fail(c, http.StatusNotFound, "Project not found")
		return
	}
	out := make([]model.Task, 0)
	for _, t := range s.tasks {
		if t.projectID == p.ID {
			out = append(out, s.wireTaskLocked(t))
		}
	}
	c.JSON(http.StatusOK, gin.H{"tasks": out})
}

func (s *Server) handleCreateTask(c *gin.Context) {
	uid := c.GetString("uid")
	var req struct {
		Title         string     `json:"title"`
		Description   string     `json:"description"`
		Project       string     `json:"project"`
		AssignedTo    *string    `json:"assignedTo"`
		AssignedEmail *string    `json:"assignedEmail"`
		Priority      string     `json:"priority"`
		DueDate       *model.Day `json:"dueDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		fail(c, http.StatusBadRequest, "Title is required")
		return
	}
	priority, err := statusutil.NormalizePriority(req.Priority)
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid priority")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[req.Project]
	if !ok {
		fail(c, http.StatusNotFound, "Project not found")
		return
	}
	if p.adminID != uid {
		fail(c, http.StatusForbidden, "Only the workspace admin can create tasks")
		return
	}

	t := &task{
		id:          uuid.NewString(),
		title:       strings.TrimSpace(req.Title),
		description: req.Description,
		status:      model.StatusTodo,
		priority:    priority,
		projectID:   p.ID,
		createdAt:   s.now().UTC(),
	}
	if req.DueDate != nil && *req.DueDate != "" {
		d := *req.DueDate
		t.dueDate = &d
	}

	resp := gin.H{}
	switch {
	case req.AssignedTo != nil && strings.TrimSpace(*req.AssignedTo) != "":
		if _, ok := s.users[*req.AssignedTo]; !ok {
			fail(c, http.StatusBadRequest, "Assignee not found")
			return
		}
		t.assignedTo = *req.AssignedTo
	case req.AssignedEmail != nil && strings.TrimSpace(*req.AssignedEmail) != "":
		email := strings.ToLower(strings.TrimSpace(*req.AssignedEmail))
		if id, exists := s.byEmail[email]; exists {
			t.assignedTo = id
			break
		}
		temp := strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
		newID := s.addUserLocked(strings.Split(email, "@")[0], email, temp, model.RoleMember, true)
		inv := &invite{token: uuid.NewString(), email: email, userID: newID, projectID: p.ID}
		s.invites[inv.token] = inv
		t.assignedTo = newID
		resp["invite"] = gin.H{"token": inv.token, "tempPassword": temp}
	}
	if t.assignedTo != "" {
		p.members[t.assignedTo] = true
	}

	s.tasks = append(s.tasks, t)
	resp["task"] = s.wireTaskLocked(t)
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	uid := c.GetString("uid")
	var req struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		Status      *string    `json:"status"`
		Priority    *string    `json:"priority"`
		DueDate     *model.Day `json:"dueDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.findTaskLocked(c.Param("id"))
	if !ok || !s.visibleLocked(uid, t) {
		fail(c, http.StatusNotFound, "Task not found")
		return
	}
	if req.Status != nil {
		st, err := statusutil.NormalizeStatus(*req.Status)
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid status")
			return
		}
		t.status = st
	}
	if req.Priority != nil {
		pr, err := statusutil.NormalizePriority(*req.Priority)
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid priority")
			return
		}
		t.priority = pr
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		t.title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		t.description = *req.Description
	}
	if req.DueDate != nil {
		d := *req.DueDate
		t.dueDate = &d
	}
	c.JSON(http.StatusOK, gin.H{"task": s.wireTaskLocked(t)})
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	uid := c.GetString("uid")
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.findTaskLocked(c.Param("id"))
	if !ok {
		fail(c, http.StatusNotFound, "Task not found")
		return
	}
	p, ok := s.projects[t.projectID]
	if !ok || p.adminID != uid {
		fail(c, http.StatusForbidden, "Only the workspace admin can delete tasks")
		return
	}
	kept := s.tasks[:0]
	for _, x := range s.tasks {
		if x.id != t.id {
			kept = append(kept, x)
		}
	}
	s.tasks = kept
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// TaskStatus reports the server-side status of a task (tests).
func (s *Server) TaskStatus(id string) (model.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.findTaskLocked(id)
	if !ok {
		return "", false
	}
	return t.status, true
}
