package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calybre/wayfarer/game/rules"
)

// writeGameError maps rules-engine errors onto HTTP responses.
// Illegal moves are client mistakes, bad state means the client's view of
// the world is stale and it should refetch before retrying.
func writeGameError(c *gin.Context, err error) {
	switch {
	case rules.IsIllegalMove(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case rules.IsBadState(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
