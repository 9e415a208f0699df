package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/calybre/wayfarer/cache"
	"github.com/calybre/wayfarer/game/feed"
	"github.com/calybre/wayfarer/game/rules"
	mw "github.com/calybre/wayfarer/middleware"
	"github.com/calybre/wayfarer/model"
)

const maxCharacters = 3

// snapshotTTL bounds how stale a cached character snapshot can get. Writes
// invalidate eagerly, the TTL is a backstop.
const snapshotTTL = 10 * time.Second

func snapshotKey(name string) string { return "snap:" + name }

// CharacterHandler handles character REST endpoints.
type CharacterHandler struct {
	db    *gorm.DB
	svc   *rules.Service
	feed  *feed.Feed
	cache cache.Cache
}

// NewCharacterHandler creates a new CharacterHandler.
func NewCharacterHandler(db *gorm.DB, svc *rules.Service, f *feed.Feed, c cache.Cache) *CharacterHandler {
	return &CharacterHandler{db: db, svc: svc, feed: f, cache: c}
}

// List handles GET /api/characters.
func (h *CharacterHandler) List(c *gin.Context) {
	playerUUID := mw.GetPlayerUUID(c)
	var chars []model.Character
	if err := h.db.Where("player_uuid = ?", playerUUID).Find(&chars).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	type charInfo struct {
		UUID    string `json:"uuid"`
		Name    string `json:"name"`
		JobName string `json:"job_name"`
		Health  int    `json:"health"`
		Coins   int    `json:"coins"`
	}
	result := make([]charInfo, 0, len(chars))
	for _, ch := range chars {
		result = append(result, charInfo{
			UUID:    ch.UUID,
			Name:    ch.Name,
			JobName: ch.JobName,
			Health:  ch.Health,
			Coins:   ch.Coins,
		})
	}
	c.JSON(http.StatusOK, gin.H{"characters": result})
}

type createCharacterRequest struct {
	Name     string `json:"name"     binding:"required,min=1,max=32"`
	JobName  string `json:"job_name" binding:"required"`
	Location string `json:"location"`
}

// Create handles POST /api/characters. Location may be a hex name or
// "random".
func (h *CharacterHandler) Create(c *gin.Context) {
	playerUUID := mw.GetPlayerUUID(c)

	var req createCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Max characters check (use Find instead of Count: sqlite Count support is limited)
	var existing []model.Character
	if err := h.db.Select("id").Where("player_uuid = ?", playerUUID).Find(&existing).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if len(existing) >= maxCharacters {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max characters reached"})
		return
	}

	location := req.Location
	if location == "" {
		location = "random"
	}
	chUUID, err := h.svc.AddCharacter(c.Request.Context(), req.Name, playerUUID, req.JobName, location)
	if err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "character name already taken"})
			return
		}
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"uuid": chUUID, "name": req.Name})
}

// loadOwned fetches a character by name and verifies the caller owns it.
// Writes the error response itself and returns nil on failure.
func (h *CharacterHandler) loadOwned(c *gin.Context, name string) *model.Character {
	return loadOwnedCharacter(c, h.db, name)
}

func loadOwnedCharacter(c *gin.Context, db *gorm.DB, name string) *model.Character {
	var ch model.Character
	err := db.Where("name = ?", name).First(&ch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
		return nil
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil
	}
	if ch.PlayerUUID != mw.GetPlayerUUID(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your character"})
		return nil
	}
	return &ch
}

// Get handles GET /api/characters/:name. Snapshots are cached briefly
// since clients poll this between actions.
func (h *CharacterHandler) Get(c *gin.Context) {
	name := c.Param("name")

	ch := h.loadOwned(c, name)
	if ch == nil {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if cached, err := h.cache.Get(ctx, snapshotKey(name)); err == nil && cached != "" {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
		return
	}

	data, err := json.Marshal(ch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	_ = h.cache.Set(ctx, snapshotKey(name), string(data), snapshotTTL)
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// Records handles GET /api/characters/:name/records?limit=N.
// Returns the character's recent records, newest first.
func (h *CharacterHandler) Records(c *gin.Context) {
	name := c.Param("name")

	ch := h.loadOwned(c, name)
	if ch == nil {
		return
	}

	limit := 50
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := h.feed.History(c.Request.Context(), ch.UUID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}
