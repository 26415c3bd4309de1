package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"presence-chat/internal/validation"
)

// respondValidation writes the full list of field violations as a 422.
func respondValidation(c *gin.Context, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verr.Fields})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "validation failed"})
}
