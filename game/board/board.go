package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"gorm.io/gorm"

	"github.com/calybre/wayfarer/game/rules"
	"github.com/calybre/wayfarer/model"
)

// Board implements rules.Board over one gorm handle (usually a
// transaction). Hex distances use cube coordinates.
type Board struct {
	db  *gorm.DB
	rng *rand.Rand
}

func New(db *gorm.DB, rng *rand.Rand) *Board {
	return &Board{db: db, rng: rng}
}

func (b *Board) Hex(ctx context.Context, name string) (rules.Hex, error) {
	var row model.Hex
	if err := b.db.WithContext(ctx).Where("name = ?", name).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rules.Hex{}, &rules.BadStateError{Msg: "no such hex: " + name}
		}
		return rules.Hex{}, fmt.Errorf("load hex %s: %w", name, err)
	}
	return hexFromModel(row), nil
}

func (b *Board) Distance(ctx context.Context, a, c string) (int, error) {
	ha, err := b.Hex(ctx, a)
	if err != nil {
		return 0, err
	}
	hc, err := b.Hex(ctx, c)
	if err != nil {
		return 0, err
	}
	return cube{ha.X, ha.Y, ha.Z}.distance(cube{hc.X, hc.Y, hc.Z}), nil
}

func (b *Board) TokenHex(ctx context.Context, entityUUID string) (rules.Hex, error) {
	var tok model.Token
	if err := b.db.WithContext(ctx).Where("entity_uuid = ?", entityUUID).First(&tok).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rules.Hex{}, &rules.BadStateError{Msg: "entity has no token: " + entityUUID}
		}
		return rules.Hex{}, fmt.Errorf("load token %s: %w", entityUUID, err)
	}
	return b.Hex(ctx, tok.Location)
}

func (b *Board) CreateToken(ctx context.Context, entityUUID, hexName string) error {
	if _, err := b.Hex(ctx, hexName); err != nil {
		return err
	}
	return b.db.WithContext(ctx).Create(&model.Token{EntityUUID: entityUUID, Location: hexName}).Error
}

// FindEntityNeighbors returns the hexes within [minDist, maxDist] of the
// entity's token, nearest first with coordinate tiebreaks so the order is
// stable.
func (b *Board) FindEntityNeighbors(ctx context.Context, entityUUID string, minDist, maxDist int) ([]rules.Hex, error) {
	origin, err := b.TokenHex(ctx, entityUUID)
	if err != nil {
		var bad *rules.BadStateError
		if errors.As(err, &bad) {
			return nil, nil
		}
		return nil, err
	}
	start := cube{origin.X, origin.Y, origin.Z}

	var hexRows []model.Hex
	if err := b.db.WithContext(ctx).Find(&hexRows).Error; err != nil {
		return nil, fmt.Errorf("load hexes: %w", err)
	}

	type scored struct {
		dist int
		hex  rules.Hex
	}
	var found []scored
	for _, row := range hexRows {
		d := start.distance(cube{row.X, row.Y, row.Z})
		if d >= minDist && d <= maxDist {
			found = append(found, scored{d, hexFromModel(row)})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].dist != found[j].dist {
			return found[i].dist < found[j].dist
		}
		if found[i].hex.X != found[j].hex.X {
			return found[i].hex.X < found[j].hex.X
		}
		if found[i].hex.Y != found[j].hex.Y {
			return found[i].hex.Y < found[j].hex.Y
		}
		return found[i].hex.Z < found[j].hex.Z
	})
	out := make([]rules.Hex, len(found))
	for i, f := range found {
		out[i] = f.hex
	}
	return out, nil
}

func (b *Board) MoveToken(ctx context.Context, entityUUID, hexName string, adjacentOnly bool) error {
	var tok model.Token
	if err := b.db.WithContext(ctx).Where("entity_uuid = ?", entityUUID).First(&tok).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &rules.BadStateError{Msg: "entity has no token: " + entityUUID}
		}
		return fmt.Errorf("load token %s: %w", entityUUID, err)
	}
	dest, err := b.Hex(ctx, hexName)
	if err != nil {
		return err
	}
	if adjacentOnly {
		dist, err := b.Distance(ctx, tok.Location, hexName)
		if err != nil {
			return err
		}
		if dist != 1 {
			return &rules.IllegalMoveError{Msg: fmt.Sprintf("hex %s is not adjacent to %s", dest.Name, tok.Location)}
		}
	}
	tok.Location = dest.Name
	return b.db.WithContext(ctx).Save(&tok).Error
}

// BestRoutes traces a straight cube line from start to each end, returning
// the hex names along each route (start excluded).
func (b *Board) BestRoutes(ctx context.Context, start string, ends []string) (map[string][]string, error) {
	sh, err := b.Hex(ctx, start)
	if err != nil {
		return nil, err
	}
	startCube := cube{sh.X, sh.Y, sh.Z}

	routes := make(map[string][]string, len(ends))
	for _, end := range ends {
		eh, err := b.Hex(ctx, end)
		if err != nil {
			return nil, err
		}
		var names []string
		for _, c := range linedraw(startCube, cube{eh.X, eh.Y, eh.Z}) {
			var row model.Hex
			err := b.db.WithContext(ctx).Where("x = ? AND y = ? AND z = ?", c.x, c.y, c.z).First(&row).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("load hex at %v: %w", c, err)
			}
			names = append(names, row.Name)
		}
		if len(names) > 0 && names[0] == start {
			names = names[1:]
		}
		routes[eh.Name] = names
	}
	return routes, nil
}

func (b *Board) RandomHex(ctx context.Context) (rules.Hex, error) {
	var hexRows []model.Hex
	if err := b.db.WithContext(ctx).Find(&hexRows).Error; err != nil {
		return rules.Hex{}, fmt.Errorf("load hexes: %w", err)
	}
	if len(hexRows) == 0 {
		return rules.Hex{}, &rules.BadStateError{Msg: "the board has no hexes"}
	}
	return hexFromModel(hexRows[b.rng.Intn(len(hexRows))]), nil
}

func hexFromModel(row model.Hex) rules.Hex {
	return rules.Hex{
		Name:    row.Name,
		Terrain: row.Terrain,
		Country: row.Country,
		X:       row.X,
		Y:       row.Y,
		Z:       row.Z,
		Danger:  row.Danger,
	}
}

// WildCountry marks hexes outside any nation; its resource deck is mostly
// empty draws.
const WildCountry = "Wild"

// DrawResourceCard pops the resource deck of the hex's country, rebuilding
// and reshuffling it when exhausted.
func (b *Board) DrawResourceCard(ctx context.Context, hexName string) (rules.ResourceCard, error) {
	hx, err := b.Hex(ctx, hexName)
	if err != nil {
		return rules.ResourceCard{}, err
	}

	var state model.ResourceDeckState
	var cards []rules.ResourceCard
	err = b.db.WithContext(ctx).Where("country = ?", hx.Country).First(&state).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		state = model.ResourceDeckState{Country: hx.Country}
	case err != nil:
		return rules.ResourceCard{}, fmt.Errorf("load resource deck %s: %w", hx.Country, err)
	default:
		if err := json.Unmarshal(state.Cards, &cards); err != nil {
			return rules.ResourceCard{}, fmt.Errorf("unmarshal resource deck %s: %w", hx.Country, err)
		}
	}

	if len(cards) == 0 {
		if cards, err = b.makeResourceDeck(ctx, hx.Country); err != nil {
			return rules.ResourceCard{}, err
		}
	}
	draw := cards[0]
	cards = cards[1:]

	blob, err := json.Marshal(cards)
	if err != nil {
		return rules.ResourceCard{}, fmt.Errorf("marshal resource deck %s: %w", hx.Country, err)
	}
	state.Cards = blob
	if state.ID == 0 {
		if err := b.db.WithContext(ctx).Create(&state).Error; err != nil {
			return rules.ResourceCard{}, err
		}
	} else if err := b.db.WithContext(ctx).Save(&state).Error; err != nil {
		return rules.ResourceCard{}, err
	}
	return draw, nil
}

// makeResourceDeck builds a country's resource deck: wild country is mostly
// nothing, a nation is rich in its first resource, common in its second and
// scarce in the rest.
func (b *Board) makeResourceDeck(ctx context.Context, country string) ([]rules.ResourceCard, error) {
	var gameRow model.Game
	if err := b.db.WithContext(ctx).First(&gameRow).Error; err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	var allResources []string
	if err := json.Unmarshal(gameRow.Resources, &allResources); err != nil {
		return nil, fmt.Errorf("unmarshal game resources: %w", err)
	}

	nothing := rules.ResourceCard{Name: "Nothing"}
	var cards []rules.ResourceCard
	if country == WildCountry {
		for i := 0; i < 20; i++ {
			cards = append(cards, nothing)
		}
		for _, rs := range allResources {
			cards = append(cards, rules.ResourceCard{Name: rs, Resource: rs, Value: 1})
		}
	} else {
		var countryRow model.Country
		if err := b.db.WithContext(ctx).Where("name = ?", country).First(&countryRow).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &rules.BadStateError{Msg: "no such country: " + country}
			}
			return nil, fmt.Errorf("load country %s: %w", country, err)
		}
		var countryResources []string
		if err := json.Unmarshal(countryRow.Resources, &countryResources); err != nil {
			return nil, fmt.Errorf("unmarshal country resources: %w", err)
		}
		rich, common := "", ""
		if len(countryResources) > 0 {
			rich = countryResources[0]
		}
		if len(countryResources) > 1 {
			common = countryResources[1]
		}

		for i := 0; i < 8; i++ {
			cards = append(cards, nothing)
		}
		for _, rs := range allResources {
			switch rs {
			case rich:
				for i := 0; i < 2; i++ {
					cards = append(cards, rules.ResourceCard{Name: rs + " x2", Resource: rs, Value: 2})
				}
				for i := 0; i < 4; i++ {
					cards = append(cards, rules.ResourceCard{Name: rs, Resource: rs, Value: 1})
				}
			case common:
				for i := 0; i < 3; i++ {
					cards = append(cards, rules.ResourceCard{Name: rs, Resource: rs, Value: 1})
				}
			default:
				cards = append(cards, rules.ResourceCard{Name: rs, Resource: rs, Value: 1})
			}
		}
	}

	b.rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	drop := len(cards)/10 + 1
	if drop > len(cards) {
		drop = len(cards)
	}
	return cards[:len(cards)-drop], nil
}
