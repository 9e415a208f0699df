package rules

import (
	"context"
	"math/rand"
	"sort"
	"testing"
)

// In-memory Store and Board fakes. Tests build a small fixed world (a line
// of hexes east of the origin plus a swampy neighbor) and drive the engine
// through a Context with a seeded rng.

type fakeStore struct {
	game     *Game
	jobs     map[string]*Job
	decks    map[string][]TemplateCard
	gadgets  []Gadget
	hexDecks map[string][]TemplateCard
	chars    map[string]*Character
	records  []Record
	saved    []string
}

func (s *fakeStore) Game(ctx context.Context) (*Game, error) { return s.game, nil }

func (s *fakeStore) Job(ctx context.Context, name string) (*Job, error) {
	job, ok := s.jobs[name]
	if !ok {
		return nil, badStatef("no such job: %s", name)
	}
	return job, nil
}

func (s *fakeStore) Jobs(ctx context.Context) ([]*Job, error) {
	names := make([]string, 0, len(s.jobs))
	for n := range s.jobs {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]*Job, 0, len(names))
	for _, n := range names {
		out = append(out, s.jobs[n])
	}
	return out, nil
}

func (s *fakeStore) DeckCards(ctx context.Context, deckName string) ([]TemplateCard, error) {
	cards, ok := s.decks[deckName]
	if !ok {
		return nil, badStatef("no such deck: %s", deckName)
	}
	return cards, nil
}

func (s *fakeStore) VisibleGadgets(ctx context.Context, entityUUID string) ([]Gadget, error) {
	out := make([]Gadget, len(s.gadgets))
	copy(out, s.gadgets)
	return out, nil
}

func (s *fakeStore) InsertGadget(ctx context.Context, g Gadget) error {
	s.gadgets = append(s.gadgets, g)
	return nil
}

func (s *fakeStore) HexDeck(ctx context.Context, terrain string) ([]TemplateCard, error) {
	return s.hexDecks[terrain], nil
}

func (s *fakeStore) SaveHexDeck(ctx context.Context, terrain string, cards []TemplateCard) error {
	if s.hexDecks == nil {
		s.hexDecks = make(map[string][]TemplateCard)
	}
	s.hexDecks[terrain] = cards
	return nil
}

func (s *fakeStore) Character(ctx context.Context, name string) (*Character, error) {
	for _, ch := range s.chars {
		if ch.Name == name {
			return ch, nil
		}
	}
	return nil, badStatef("no such character: %s", name)
}

func (s *fakeStore) CharacterByUUID(ctx context.Context, uuid string) (*Character, error) {
	ch, ok := s.chars[uuid]
	if !ok {
		return nil, badStatef("no such character: %s", uuid)
	}
	return ch, nil
}

func (s *fakeStore) SaveCharacter(ctx context.Context, ch *Character) error {
	if s.chars == nil {
		s.chars = make(map[string]*Character)
	}
	s.chars[ch.UUID] = ch
	s.saved = append(s.saved, ch.UUID)
	return nil
}

func (s *fakeStore) InsertRecords(ctx context.Context, recs []Record) error {
	s.records = append(s.records, recs...)
	return nil
}

type fakeBoard struct {
	hexes  map[string]Hex
	tokens map[string]string
	draws  []ResourceCard
}

func (b *fakeBoard) Hex(ctx context.Context, name string) (Hex, error) {
	hx, ok := b.hexes[name]
	if !ok {
		return Hex{}, badStatef("no such hex: %s", name)
	}
	return hx, nil
}

func cubeDist(a, c Hex) int {
	abs := func(v int) int {
		if v < 0 {
			return -v
		}
		return v
	}
	return (abs(a.X-c.X) + abs(a.Y-c.Y) + abs(a.Z-c.Z)) / 2
}

func (b *fakeBoard) Distance(ctx context.Context, a, c string) (int, error) {
	ha, err := b.Hex(ctx, a)
	if err != nil {
		return 0, err
	}
	hc, err := b.Hex(ctx, c)
	if err != nil {
		return 0, err
	}
	return cubeDist(ha, hc), nil
}

func (b *fakeBoard) TokenHex(ctx context.Context, entityUUID string) (Hex, error) {
	loc, ok := b.tokens[entityUUID]
	if !ok {
		return Hex{}, &BadStateError{Msg: "entity has no token: " + entityUUID}
	}
	return b.Hex(ctx, loc)
}

func (b *fakeBoard) CreateToken(ctx context.Context, entityUUID, hexName string) error {
	if _, err := b.Hex(ctx, hexName); err != nil {
		return err
	}
	if b.tokens == nil {
		b.tokens = make(map[string]string)
	}
	b.tokens[entityUUID] = hexName
	return nil
}

func (b *fakeBoard) FindEntityNeighbors(ctx context.Context, entityUUID string, minDist, maxDist int) ([]Hex, error) {
	origin, err := b.TokenHex(ctx, entityUUID)
	if err != nil {
		if IsBadState(err) {
			return nil, nil
		}
		return nil, err
	}
	var found []Hex
	for _, hx := range b.hexes {
		d := cubeDist(origin, hx)
		if d >= minDist && d <= maxDist {
			found = append(found, hx)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		di, dj := cubeDist(origin, found[i]), cubeDist(origin, found[j])
		if di != dj {
			return di < dj
		}
		return found[i].Name < found[j].Name
	})
	return found, nil
}

func (b *fakeBoard) MoveToken(ctx context.Context, entityUUID, hexName string, adjacentOnly bool) error {
	cur, ok := b.tokens[entityUUID]
	if !ok {
		return &BadStateError{Msg: "entity has no token: " + entityUUID}
	}
	dest, err := b.Hex(ctx, hexName)
	if err != nil {
		return err
	}
	if adjacentOnly {
		dist, err := b.Distance(ctx, cur, hexName)
		if err != nil {
			return err
		}
		if dist != 1 {
			return illegalMovef("hex %s is not adjacent to %s", dest.Name, cur)
		}
	}
	b.tokens[entityUUID] = dest.Name
	return nil
}

func (b *fakeBoard) BestRoutes(ctx context.Context, start string, ends []string) (map[string][]string, error) {
	return map[string][]string{}, nil
}

func (b *fakeBoard) DrawResourceCard(ctx context.Context, hexName string) (ResourceCard, error) {
	if len(b.draws) == 0 {
		return ResourceCard{Name: "Nothing"}, nil
	}
	draw := b.draws[0]
	b.draws = b.draws[1:]
	return draw, nil
}

func (b *fakeBoard) RandomHex(ctx context.Context) (Hex, error) {
	names := make([]string, 0, len(b.hexes))
	for n := range b.hexes {
		names = append(names, n)
	}
	sort.Strings(names)
	return b.hexes[names[0]], nil
}

// newTestWorld builds the shared fixture: four jobs along one promotion
// ladder, one job deck, and a board with the origin, one western neighbor,
// a swamp neighbor and a straight line of hexes running east to distance 8.
func newTestWorld() (*fakeStore, *fakeBoard) {
	store := &fakeStore{
		game: &Game{
			UUID:      "game-1",
			Name:      "test game",
			Skills:    []string{"Archery", "Leadership", "Riding", "Swimming", "Tracking"},
			Resources: []string{"Timber", "Wine"},
			Zodiacs:   []string{"Crane", "Fox", "Ox"},
		},
		jobs: map[string]*Job{
			"Farmhand": {
				UUID: "job-0", Name: "Farmhand", Type: JobLackey, Rank: 0,
				Promotions: []string{"Scout"}, DeckName: "ScoutDeck",
				BaseSkills: []string{"Riding"}, EncounterDistances: []int{0},
			},
			"Scout": {
				UUID: "job-1", Name: "Scout", Type: JobSolo, Rank: 1,
				Promotions: []string{"Pathfinder"}, DeckName: "ScoutDeck",
				BaseSkills: []string{"Riding", "Archery"}, EncounterDistances: []int{0},
			},
			"Pathfinder": {
				UUID: "job-2", Name: "Pathfinder", Type: JobCaptain, Rank: 2,
				Promotions: []string{"Warlord"}, DeckName: "ScoutDeck",
				BaseSkills: []string{"Tracking", "Leadership"}, EncounterDistances: []int{0},
			},
			"Warlord": {
				UUID: "job-3", Name: "Warlord", Type: JobKing, Rank: 3,
				DeckName: "ScoutDeck", BaseSkills: []string{"Leadership"},
				EncounterDistances: []int{0},
			},
		},
		decks: map[string][]TemplateCard{
			"ScoutDeck": {
				{
					Name: "Patrol", Desc: "A routine patrol.", Kind: CardChallenge,
					Challenge: &Challenge{Skills: []string{"Tracking"}},
					Copies:    12,
				},
			},
			"Swamp": {
				{
					Name: "Mire", Desc: "Sucking mud.", Kind: CardChallenge,
					Challenge: &Challenge{Skills: []string{"Swimming"}},
					Copies:    12,
				},
			},
		},
		chars: make(map[string]*Character),
	}

	hexes := map[string]Hex{
		"origin": {Name: "origin", Terrain: "Plains", Country: "Bravado", X: 0, Y: 0, Z: 0},
		"west1":  {Name: "west1", Terrain: "Plains", Country: "Bravado", X: -1, Y: 1, Z: 0},
		"swamp":  {Name: "swamp", Terrain: "Swamp", Country: "Wild", X: 0, Y: 1, Z: -1, Danger: 3},
	}
	for d := 1; d <= 8; d++ {
		name := "east" + string(rune('0'+d))
		hexes[name] = Hex{Name: name, Terrain: "Plains", Country: "Bravado", X: d, Y: -d, Z: 0}
	}
	board := &fakeBoard{hexes: hexes, tokens: make(map[string]string)}
	return store, board
}

func newTestContext(t *testing.T, store *fakeStore, board *fakeBoard) *Context {
	t.Helper()
	return NewContext(context.Background(), store, board, nil, rand.New(rand.NewSource(7)))
}

// newTestCharacter registers a fresh Scout standing on the origin with
// default stats.
func newTestCharacter(t *testing.T, store *fakeStore, board *fakeBoard, name string) *Character {
	t.Helper()
	ch := &Character{
		UUID:           "char-" + name,
		Name:           name,
		PlayerUUID:     "player-" + name,
		JobName:        "Scout",
		Health:         20,
		Reputation:     3,
		Luck:           5,
		Speed:          3,
		RemainingTurns: 20,
		Resources:      make(map[string]int),
		SkillXP:        make(map[string]int),
		TurnFlags:      make(map[TurnFlag]bool),
	}
	store.chars[ch.UUID] = ch
	if err := board.CreateToken(context.Background(), ch.UUID, "origin"); err != nil {
		t.Fatalf("create token: %v", err)
	}
	return ch
}

func recordsOfType(recs []Record, typ EffectType) []Record {
	var out []Record
	for _, r := range recs {
		if r.Type == typ {
			out = append(out, r)
		}
	}
	return out
}
