package devserver

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tasklync-cli/internal/model"
)

type projectBody struct {
	Name           string `json:"name"`
	CompanyName    string `json:"companyName"`
	CompanyEmail   string `json:"companyEmail"`
	CompanyAddress string `json:"companyAddress"`
}

func newJoinCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *Server) handleCreateProject(c *gin.Context) {
	uid := c.GetString("uid")
	var req projectBody
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		fail(c, http.StatusBadRequest, "Workspace name is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &project{
		Project: model.Project{
			ID:             uuid.NewString(),
			Name:           strings.TrimSpace(req.Name),
			CompanyName:    req.CompanyName,
			CompanyEmail:   req.CompanyEmail,
			CompanyAddress: req.CompanyAddress,
			Code:           newJoinCode(),
		},
		adminID: uid,
		members: map[string]bool{uid: true},
	}
	s.projects[p.ID] = p
	if u, ok := s.users[uid]; ok {
		u.role = model.RoleAdmin
	}
	c.JSON(http.StatusCreated, gin.H{"project": p.Project, "code": p.Code})
}

func (s *Server) handleUpdateProject(c *gin.Context) {
	uid := c.GetString("uid")
	var req projectBody
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[c.Param("id")]
	if !ok {
		fail(c, http.StatusNotFound, "Project not found")
		return
	}
	if p.adminID != uid {
		fail(c, http.StatusForbidden, "Only the workspace admin can edit it")
		return
	}
	if n := strings.TrimSpace(req.Name); n != "" {
		p.Name = n
	}
	p.CompanyName = req.CompanyName
	p.CompanyEmail = req.CompanyEmail
	p.CompanyAddress = req.CompanyAddress
	c.JSON(http.StatusOK, gin.H{"project": p.Project})
}

func (s *Server) handleListProjects(c *gin.Context) {
	uid := c.GetString("uid")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Project, 0)
	for _, p := range s.projects {
		if p.members[uid] {
			out = append(out, p.Project)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	c.JSON(http.StatusOK, gin.H{"projects": out})
}

func (s *Server) handleProjectDetails(c *gin.Context) {
	uid := c.GetString("uid")
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[c.Param("id")]
	if !ok || !p.members[uid] {
		fail(c, http.StatusNotFound, "Project not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": p.Project})
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	uid := c.GetString("uid")
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[c.Param("id")]
	if !ok {
		fail(c, http.StatusNotFound, "Project not found")
		return
	}
	if p.adminID != uid {
		fail(c, http.StatusForbidden, "Only the workspace admin can delete it")
		return
	}
	delete(s.projects, p.ID)
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.projectID != p.ID {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}

func (s *Server) handleJoinProject(c *gin.Context) {
	uid := c.GetString("uid")
	var req struct {
		Code string `json:"code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Code) == "" {
		fail(c, http.StatusBadRequest, "Workspace code is required")
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.Code != code {
			continue
		}
		p.members[uid] = true
		if u, ok := s.users[uid]; ok && u.role == model.RolePending {
			u.role = model.RoleMember
		}
		c.JSON(http.StatusOK, gin.H{"project": p.Project})
		return
	}
	fail(c, http.StatusNotFound, "Invalid workspace code")
}
