package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/calybre/wayfarer/game/rules"
	"github.com/calybre/wayfarer/model"
)

// GameSetup is the full definition of a new game: configuration lists, card
// decks, jobs, the board and any initial gadgets.
type GameSetup struct {
	Name      string            `json:"name"`
	Skills    []string          `json:"skills"`
	Resources []string          `json:"resources"`
	Zodiacs   []string          `json:"zodiacs"`
	Decks     []DeckSetup       `json:"decks"`
	Jobs      []rules.Job       `json:"jobs"`
	Countries []CountrySetup    `json:"countries"`
	Hexes     []rules.Hex       `json:"hexes"`
	Gadgets   []rules.Gadget    `json:"gadgets"`
}

type DeckSetup struct {
	Name  string               `json:"name"`
	Cards []rules.TemplateCard `json:"cards"`
}

type CountrySetup struct {
	Name      string   `json:"name"`
	Resources []string `json:"resources"`
}

// CreateGame seeds a fresh game in one transaction and returns its uuid.
func (m *Manager) CreateGame(ctx context.Context, setup GameSetup) (string, error) {
	gameUUID := uuid.NewString()
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		game := model.Game{UUID: gameUUID, Name: setup.Name}
		var err error
		if game.Skills, err = toJSON(setup.Skills); err != nil {
			return err
		}
		if game.Resources, err = toJSON(setup.Resources); err != nil {
			return err
		}
		if game.Zodiacs, err = toJSON(setup.Zodiacs); err != nil {
			return err
		}
		if err := tx.Create(&game).Error; err != nil {
			return err
		}

		for _, d := range setup.Decks {
			row := model.TemplateDeck{Name: d.Name}
			if row.Cards, err = toJSON(d.Cards); err != nil {
				return err
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		for _, j := range setup.Jobs {
			row := model.Job{
				UUID:     j.UUID,
				Name:     j.Name,
				Type:     string(j.Type),
				Rank:     j.Rank,
				DeckName: j.DeckName,
			}
			if row.UUID == "" {
				row.UUID = uuid.NewString()
			}
			if row.Promotions, err = toJSON(j.Promotions); err != nil {
				return err
			}
			if row.BaseSkills, err = toJSON(j.BaseSkills); err != nil {
				return err
			}
			if row.EncounterDistances, err = toJSON(j.EncounterDistances); err != nil {
				return err
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		for _, c := range setup.Countries {
			row := model.Country{Name: c.Name}
			if row.Resources, err = toJSON(c.Resources); err != nil {
				return err
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		for _, h := range setup.Hexes {
			row := model.Hex{
				Name:    h.Name,
				Terrain: h.Terrain,
				Country: h.Country,
				X:       h.X,
				Y:       h.Y,
				Z:       h.Z,
				Danger:  h.Danger,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}

		for _, g := range setup.Gadgets {
			if g.UUID == "" {
				g.UUID = uuid.NewString()
			}
			if err := (&txStore{db: tx}).InsertGadget(ctx, g); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return gameUUID, nil
}
