package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/calybre/wayfarer/game/board"
	"github.com/calybre/wayfarer/game/rules"
	"github.com/calybre/wayfarer/model"
)

// Manager opens transactional scopes over the database, handing the rules
// engine a tx-bound store and board pair. Writes made through either roll
// back together with the transaction.
type Manager struct {
	db  *gorm.DB
	log *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewManager(db *gorm.DB, log *zap.Logger, rng *rand.Rand) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{db: db, log: log, rng: rng}
}

// Transact implements rules.Transactor.
func (m *Manager) Transact(ctx context.Context, fn func(rules.Store, rules.Board) error) error {
	m.mu.Lock()
	seed := m.rng.Int63()
	m.mu.Unlock()
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txStore{db: tx}, board.New(tx, rand.New(rand.NewSource(seed))))
	})
}

// DB exposes the underlying handle for non-rules reads (api snapshots).
func (m *Manager) DB() *gorm.DB { return m.db }

// txStore implements rules.Store over one gorm transaction.
type txStore struct {
	db *gorm.DB
}

func (s *txStore) Game(ctx context.Context) (*rules.Game, error) {
	var row model.Game
	if err := s.db.WithContext(ctx).First(&row).Error; err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	g := &rules.Game{UUID: row.UUID, Name: row.Name}
	if err := fromJSON(row.Skills, &g.Skills); err != nil {
		return nil, err
	}
	if err := fromJSON(row.Resources, &g.Resources); err != nil {
		return nil, err
	}
	if err := fromJSON(row.Zodiacs, &g.Zodiacs); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *txStore) Job(ctx context.Context, name string) (*rules.Job, error) {
	var row model.Job
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &rules.BadStateError{Msg: "no such job: " + name}
		}
		return nil, fmt.Errorf("load job %s: %w", name, err)
	}
	return jobFromModel(row)
}

func (s *txStore) Jobs(ctx context.Context) ([]*rules.Job, error) {
	var jobRows []model.Job
	if err := s.db.WithContext(ctx).Order("name").Find(&jobRows).Error; err != nil {
		return nil, fmt.Errorf("load jobs: %w", err)
	}
	jobs := make([]*rules.Job, 0, len(jobRows))
	for _, row := range jobRows {
		j, err := jobFromModel(row)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

func jobFromModel(row model.Job) (*rules.Job, error) {
	j := &rules.Job{
		UUID:     row.UUID,
		Name:     row.Name,
		Type:     rules.JobType(row.Type),
		Rank:     row.Rank,
		DeckName: row.DeckName,
	}
	if err := fromJSON(row.Promotions, &j.Promotions); err != nil {
		return nil, err
	}
	if err := fromJSON(row.BaseSkills, &j.BaseSkills); err != nil {
		return nil, err
	}
	if err := fromJSON(row.EncounterDistances, &j.EncounterDistances); err != nil {
		return nil, err
	}
	if len(j.EncounterDistances) == 0 {
		j.EncounterDistances = []int{1, 2}
	}
	return j, nil
}

func (s *txStore) DeckCards(ctx context.Context, deckName string) ([]rules.TemplateCard, error) {
	var row model.TemplateDeck
	if err := s.db.WithContext(ctx).Where("name = ?", deckName).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &rules.BadStateError{Msg: "no such deck: " + deckName}
		}
		return nil, fmt.Errorf("load deck %s: %w", deckName, err)
	}
	var cards []rules.TemplateCard
	if err := fromJSON(row.Cards, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (s *txStore) HexDeck(ctx context.Context, terrain string) ([]rules.TemplateCard, error) {
	var row model.HexDeckState
	err := s.db.WithContext(ctx).Where("terrain = ?", terrain).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load hex deck %s: %w", terrain, err)
	}
	var cards []rules.TemplateCard
	if err := fromJSON(row.Cards, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (s *txStore) SaveHexDeck(ctx context.Context, terrain string, cards []rules.TemplateCard) error {
	blob, err := toJSON(cards)
	if err != nil {
		return err
	}
	var row model.HexDeckState
	err = s.db.WithContext(ctx).Where("terrain = ?", terrain).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).Create(&model.HexDeckState{Terrain: terrain, Cards: blob}).Error
	}
	if err != nil {
		return fmt.Errorf("load hex deck %s: %w", terrain, err)
	}
	row.Cards = blob
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *txStore) VisibleGadgets(ctx context.Context, entityUUID string) ([]rules.Gadget, error) {
	var gadgetRows []model.Gadget
	if err := s.db.WithContext(ctx).Order("id").Find(&gadgetRows).Error; err != nil {
		return nil, fmt.Errorf("load gadgets: %w", err)
	}
	gadgets := make([]rules.Gadget, 0, len(gadgetRows))
	for _, row := range gadgetRows {
		g := rules.Gadget{UUID: row.UUID, Name: row.Name, EntityUUID: row.EntityUUID}
		if err := fromJSON(row.Overlays, &g.Overlays); err != nil {
			return nil, err
		}
		if err := fromJSON(row.Triggers, &g.Triggers); err != nil {
			return nil, err
		}
		gadgets = append(gadgets, g)
	}
	return gadgets, nil
}

func (s *txStore) InsertGadget(ctx context.Context, g rules.Gadget) error {
	row := model.Gadget{UUID: g.UUID, Name: g.Name, EntityUUID: g.EntityUUID}
	var err error
	if row.Overlays, err = toJSON(g.Overlays); err != nil {
		return err
	}
	if row.Triggers, err = toJSON(g.Triggers); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *txStore) Character(ctx context.Context, name string) (*rules.Character, error) {
	var row model.Character
	if err := s.db.WithContext(ctx).Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &rules.BadStateError{Msg: "no such character: " + name}
		}
		return nil, fmt.Errorf("load character %s: %w", name, err)
	}
	return characterFromModel(row)
}

func (s *txStore) CharacterByUUID(ctx context.Context, uuid string) (*rules.Character, error) {
	var row model.Character
	if err := s.db.WithContext(ctx).Where("uuid = ?", uuid).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &rules.BadStateError{Msg: "no such character: " + uuid}
		}
		return nil, fmt.Errorf("load character %s: %w", uuid, err)
	}
	return characterFromModel(row)
}

func (s *txStore) SaveCharacter(ctx context.Context, ch *rules.Character) error {
	row, err := characterToModel(ch)
	if err != nil {
		return err
	}
	var existing model.Character
	err = s.db.WithContext(ctx).Where("uuid = ?", ch.UUID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).Create(row).Error
	}
	if err != nil {
		return fmt.Errorf("load character %s: %w", ch.UUID, err)
	}
	row.ID = existing.ID
	row.CreatedAt = existing.CreatedAt
	return s.db.WithContext(ctx).Save(row).Error
}

func (s *txStore) InsertRecords(ctx context.Context, recs []rules.Record) error {
	if len(recs) == 0 {
		return nil
	}
	rows := make([]model.Record, 0, len(recs))
	for _, r := range recs {
		comments, err := toJSON(r.Comments)
		if err != nil {
			return err
		}
		rows = append(rows, model.Record{
			UUID:       r.UUID,
			EntityUUID: r.EntityUUID,
			Type:       string(r.Type),
			Subtype:    r.Subtype,
			OldAmount:  r.OldAmount,
			NewAmount:  r.NewAmount,
			OldText:    r.OldText,
			NewText:    r.NewText,
			Comments:   comments,
		})
	}
	return s.db.WithContext(ctx).Create(&rows).Error
}

func toJSON(v interface{}) ([]byte, error) {
	blob, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	return blob, nil
}

func fromJSON(blob []byte, out interface{}) error {
	if len(blob) == 0 {
		return nil
	}
	if err := json.Unmarshal(blob, out); err != nil {
		return fmt.Errorf("unmarshal %T: %w", out, err)
	}
	return nil
}
