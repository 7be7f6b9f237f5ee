package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/windy-novel-api/internal/service"
)

// envelope is the uniform response body for every endpoint
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func respondCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, Message: message, Data: data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Success: false, Message: message})
}

// respondServiceError maps typed service errors onto HTTP status codes
func respondServiceError(c *gin.Context, err error) {
	switch {
	case service.IsValidation(err):
		respondError(c, http.StatusBadRequest, err.Error())
	case service.IsPermission(err):
		respondError(c, http.StatusForbidden, err.Error())
	case service.IsNotFound(err):
		respondError(c, http.StatusNotFound, err.Error())
	case service.IsDuplicate(err):
		respondError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSlugExhausted):
		respondError(c, http.StatusConflict, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "something went wrong")
	}
}
