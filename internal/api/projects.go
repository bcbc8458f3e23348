package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/christopherklint97/timepulse/internal/service"
	"github.com/christopherklint97/timepulse/internal/timesheet"
)

type bulkDeleteRequest struct {
	ProjectIDs []int64 `json:"projectIds"`
}

type commentRequest struct {
	Content string `json:"content"`
}

func (s *Server) listProjects(c *gin.Context) {
	projects, err := s.svc.Projects(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if projects == nil {
		projects = []timesheet.ProjectSummary{}
	}
	c.JSON(http.StatusOK, projects)
}

func (s *Server) getProject(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := s.svc.Project(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) createProject(c *gin.Context) {
	actor, ok := s.userID(c)
	if !ok {
		return
	}
	var in service.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid project: "+err.Error())
		return
	}
	p, err := s.svc.CreateProject(c.Request.Context(), actor, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) updateProject(c *gin.Context) {
	actor, ok := s.userID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var patch timesheet.ProjectPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid project: "+err.Error())
		return
	}
	p, err := s.svc.UpdateProject(c.Request.Context(), actor, id, patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) deleteProject(c *gin.Context) {
	actor, ok := s.userID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := s.svc.DeleteProject(c.Request.Context(), actor, id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Project successfully deleted"})
}

func (s *Server) bulkDeleteProjects(c *gin.Context) {
	actor, ok := s.userID(c)
	if !ok {
		return
	}
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request: "+err.Error())
		return
	}
	n, err := s.svc.BulkDeleteProjects(c.Request.Context(), actor, req.ProjectIDs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Successfully deleted %d projects", n),
		"deleted": n,
	})
}

func (s *Server) listWorkOrders(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	wos, err := s.svc.WorkOrders(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, wos)
}

func (s *Server) listEvents(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	events, err := s.svc.Events(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (s *Server) addComment(c *gin.Context) {
	actor, ok := s.userID(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid comment: "+err.Error())
		return
	}
	ev, err := s.svc.Comment(c.Request.Context(), actor, id, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}
