package handler

import (
	"errors"
	"net/http"

	"fleetops/internal/service"
	"fleetops/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// actorFrom rebuilds the caller identity from the values RequireRole placed
// on the context.
func actorFrom(c *gin.Context) service.Actor {
	actor := service.Actor{
		Role:  c.GetString("userRole"),
		Name:  c.GetString("userName"),
		Email: c.GetString("userEmail"),
	}
	if id, err := uuid.Parse(c.GetString("userID")); err == nil {
		actor.UserID = id
	}
	if id, err := uuid.Parse(c.GetString("orgID")); err == nil {
		actor.OrgID = id
	}
	return actor
}

// writeServiceError maps domain errors onto HTTP statuses
func writeServiceError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, vErr.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	case errors.Is(err, service.ErrStorageUnavailable):
		c.JSON(http.StatusServiceUnavailable, response.Error(http.StatusServiceUnavailable, "storage temporarily unavailable"))
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	}
}
