package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/calybre/wayfarer/model"
	"github.com/calybre/wayfarer/store"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	db     *gorm.DB
	mgr    *store.Manager
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(db *gorm.DB, mgr *store.Manager, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, mgr: mgr, logger: logger}
}

// CreateGame seeds a new game world from a full setup definition.
// POST /api/admin/games
func (h *AdminHandler) CreateGame(c *gin.Context) {
	var setup store.GameSetup
	if err := c.ShouldBindJSON(&setup); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if setup.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "game name is required"})
		return
	}

	gameUUID, err := h.mgr.CreateGame(c.Request.Context(), setup)
	if err != nil {
		h.logger.Error("create game failed", zap.String("name", setup.Name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create game failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"uuid": gameUUID, "name": setup.Name})
}

// Metrics returns basic world counts.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	var chars []model.Character
	if err := h.db.Select("id").Find(&chars).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	var hexes []model.Hex
	if err := h.db.Select("id").Find(&hexes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"characters": len(chars),
		"hexes":      len(hexes),
	})
}

// BanAccount disables an account by username.
// POST /api/admin/accounts/:username/ban
func (h *AdminHandler) BanAccount(c *gin.Context) {
	username := c.Param("username")
	res := h.db.Model(&model.Account{}).Where("username = ?", username).Update("status", 0)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// WARNING: if adminKey is empty all admin endpoints are disabled (503) so the
// server cannot be accidentally deployed without protection. Set a non-empty
// server.admin_key in config to enable admin routes.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
