package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/calybre/wayfarer/model"
)

// BoardHandler exposes read-only views of the hex map.
type BoardHandler struct {
	db *gorm.DB
}

// NewBoardHandler creates a new BoardHandler.
func NewBoardHandler(db *gorm.DB) *BoardHandler {
	return &BoardHandler{db: db}
}

type hexView struct {
	Name    string `json:"name"`
	Terrain string `json:"terrain"`
	Country string `json:"country"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Z       int    `json:"z"`
	Danger  int    `json:"danger"`
}

func hexToView(h model.Hex) hexView {
	return hexView{
		Name:    h.Name,
		Terrain: h.Terrain,
		Country: h.Country,
		X:       h.X,
		Y:       h.Y,
		Z:       h.Z,
		Danger:  h.Danger,
	}
}

// Hexes handles GET /api/board/hexes.
// Optional ?country= filter.
func (h *BoardHandler) Hexes(c *gin.Context) {
	q := h.db.Order("name")
	if country := c.Query("country"); country != "" {
		q = q.Where("country = ?", country)
	}
	var hexes []model.Hex
	if err := q.Find(&hexes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	views := make([]hexView, 0, len(hexes))
	for _, hx := range hexes {
		views = append(views, hexToView(hx))
	}
	c.JSON(http.StatusOK, gin.H{"hexes": views})
}

// Hex handles GET /api/board/hexes/:name.
func (h *BoardHandler) Hex(c *gin.Context) {
	var hx model.Hex
	err := h.db.Where("name = ?", c.Param("name")).First(&hx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "hex not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, hexToView(hx))
}

// Tokens handles GET /api/board/tokens.
// Returns entity positions so clients can render the map.
func (h *BoardHandler) Tokens(c *gin.Context) {
	var tokens []model.Token
	if err := h.db.Find(&tokens).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	type tokenView struct {
		EntityUUID string `json:"entity_uuid"`
		Location   string `json:"location"`
	}
	views := make([]tokenView, 0, len(tokens))
	for _, t := range tokens {
		views = append(views, tokenView{EntityUUID: t.EntityUUID, Location: t.Location})
	}
	c.JSON(http.StatusOK, gin.H{"tokens": views})
}
