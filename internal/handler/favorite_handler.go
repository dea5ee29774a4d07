package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorlink-app/tutorlink-api/internal/service"
	appErrors "github.com/tutorlink-app/tutorlink-api/pkg/errors"
	"github.com/tutorlink-app/tutorlink-api/pkg/response"
)

// FavoriteHandler exposes favorite teacher endpoints.
type FavoriteHandler struct {
	favorites *service.FavoriteService
}

// NewFavoriteHandler constructs FavoriteHandler.
func NewFavoriteHandler(favorites *service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites}
}

// List godoc
// @Summary List a student's favorite teachers
// @Tags Favorites
// @Produce json
// @Security BearerAuth
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/favorites [get]
func (h *FavoriteHandler) List(c *gin.Context) {
	favorites, err := h.favorites.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, favorites, nil)
}

// Add godoc
// @Summary Add a teacher to favorites
// @Tags Favorites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.AddFavoriteRequest true "Favorite payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /favorites [post]
func (h *FavoriteHandler) Add(c *gin.Context) {
	var req service.AddFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	favorite, err := h.favorites.Add(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, favorite)
}

// Remove godoc
// @Summary Remove a favorite
// @Tags Favorites
// @Produce json
// @Security BearerAuth
// @Param id path string true "Favorite ID"
// @Success 204
// @Router /favorites/{id} [delete]
func (h *FavoriteHandler) Remove(c *gin.Context) {
	if err := h.favorites.Remove(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
