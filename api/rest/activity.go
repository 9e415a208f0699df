package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/calybre/wayfarer/cache"
	"github.com/calybre/wayfarer/game/rules"
)

// ActivityHandler exposes the turn-based activities a character can take.
// Every endpoint returns the records the activity produced.
type ActivityHandler struct {
	db    *gorm.DB
	svc   *rules.Service
	cache cache.Cache
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(db *gorm.DB, svc *rules.Service, c cache.Cache) *ActivityHandler {
	return &ActivityHandler{db: db, svc: svc, cache: c}
}

// own verifies ownership of the named character; writes the error response
// and returns false on failure.
func (h *ActivityHandler) own(c *gin.Context, name string) bool {
	return loadOwnedCharacter(c, h.db, name) != nil
}

// finish invalidates the character's cached snapshot and writes the records.
func (h *ActivityHandler) finish(c *gin.Context, name string, records []rules.Record) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, snapshotKey(name))
	if records == nil {
		records = []rules.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

type doJobRequest struct {
	CardUUID string `json:"card_uuid" binding:"required"`
}

// DoJob handles POST /api/characters/:name/do-job.
func (h *ActivityHandler) DoJob(c *gin.Context) {
	name := c.Param("name")
	if !h.own(c, name) {
		return
	}
	var req doJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	records, err := h.svc.DoJob(c.Request.Context(), name, req.CardUUID)
	if err != nil {
		writeGameError(c, err)
		return
	}
	h.finish(c, name, records)
}

type performActionRequest struct {
	ActionUUID string `json:"action_uuid" binding:"required"`
}

// PerformAction handles POST /api/characters/:name/perform-action.
func (h *ActivityHandler) PerformAction(c *gin.Context) {
	name := c.Param("name")
	if !h.own(c, name) {
		return
	}
	var req performActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	records, err := h.svc.PerformAction(c.Request.Context(), name, req.ActionUUID)
	if err != nil {
		writeGameError(c, err)
		return
	}
	h.finish(c, name, records)
}

// Camp handles POST /api/characters/:name/camp.
func (h *ActivityHandler) Camp(c *gin.Context) {
	name := c.Param("name")
	if !h.own(c, name) {
		return
	}
	records, err := h.svc.Camp(c.Request.Context(), name)
	if err != nil {
		writeGameError(c, err)
		return
	}
	h.finish(c, name, records)
}

type travelRequest struct {
	Hex string `json:"hex" binding:"required"`
}

// Travel handles POST /api/characters/:name/travel.
func (h *ActivityHandler) Travel(c *gin.Context) {
	name := c.Param("name")
	if !h.own(c, name) {
		return
	}
	var req travelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	records, err := h.svc.Travel(c.Request.Context(), name, req.Hex)
	if err != nil {
		writeGameError(c, err)
		return
	}
	h.finish(c, name, records)
}

// EndTurn handles POST /api/characters/:name/end-turn.
func (h *ActivityHandler) EndTurn(c *gin.Context) {
	name := c.Param("name")
	if !h.own(c, name) {
		return
	}
	records, err := h.svc.EndTurn(c.Request.Context(), name)
	if err != nil {
		writeGameError(c, err)
		return
	}
	h.finish(c, name, records)
}

// ResolveEncounter handles POST /api/characters/:name/resolve-encounter.
// The body is the client's claimed outcome, replayed and validated server
// side.
func (h *ActivityHandler) ResolveEncounter(c *gin.Context) {
	name := c.Param("name")
	if !h.own(c, name) {
		return
	}
	var commands rules.EncounterCommands
	if err := c.ShouldBindJSON(&commands); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	records, err := h.svc.ResolveEncounter(c.Request.Context(), name, commands)
	if err != nil {
		writeGameError(c, err)
		return
	}
	h.finish(c, name, records)
}
