package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorlink-app/tutorlink-api/internal/service"
	appErrors "github.com/tutorlink-app/tutorlink-api/pkg/errors"
	"github.com/tutorlink-app/tutorlink-api/pkg/response"
)

// RosterHandler exposes student request and roster endpoints.
type RosterHandler struct {
	roster *service.RosterService
}

// NewRosterHandler constructs RosterHandler.
func NewRosterHandler(roster *service.RosterService) *RosterHandler {
	return &RosterHandler{roster: roster}
}

// CreateRequest godoc
// @Summary Submit a join request to a teacher
// @Tags Roster
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateRequestRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /requests [post]
func (h *RosterHandler) CreateRequest(c *gin.Context) {
	var req service.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.roster.CreateRequest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// ListPending godoc
// @Summary List pending join requests for a teacher
// @Tags Roster
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/requests [get]
func (h *RosterHandler) ListPending(c *gin.Context) {
	requests, err := h.roster.ListPending(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Accept godoc
// @Summary Accept a join request
// @Tags Roster
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/accept [post]
func (h *RosterHandler) Accept(c *gin.Context) {
	if err := h.roster.Accept(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Ignore godoc
// @Summary Ignore a join request
// @Tags Roster
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 204
// @Router /requests/{id}/ignore [post]
func (h *RosterHandler) Ignore(c *gin.Context) {
	if err := h.roster.Ignore(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListStudents godoc
// @Summary List the teacher's roster with notes and booking history
// @Tags Roster
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/students [get]
func (h *RosterHandler) ListStudents(c *gin.Context) {
	entries, err := h.roster.ListStudents(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// AddNote godoc
// @Summary Attach a note to a roster link
// @Tags Roster
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Roster link ID"
// @Param payload body service.AddNoteRequest true "Note payload"
// @Success 201 {object} response.Envelope
// @Router /roster/{id}/notes [post]
func (h *RosterHandler) AddNote(c *gin.Context) {
	var req service.AddNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	note, err := h.roster.AddNote(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, note)
}

// RemoveStudent godoc
// @Summary Remove a student from the roster
// @Tags Roster
// @Produce json
// @Security BearerAuth
// @Param id path string true "Roster link ID"
// @Success 204
// @Router /roster/{id} [delete]
func (h *RosterHandler) RemoveStudent(c *gin.Context) {
	if err := h.roster.RemoveStudent(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
