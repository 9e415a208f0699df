package rules

import (
	"context"
	"math/rand"

	"go.uber.org/zap"
)

// Store is the persistence collaborator, scoped to one transaction. Writes
// made through it commit only if the surrounding Transact callback returns
// nil.
type Store interface {
	Game(ctx context.Context) (*Game, error)
	Job(ctx context.Context, name string) (*Job, error)
	Jobs(ctx context.Context) ([]*Job, error)
	// DeckCards returns the raw template cards of the named deck, with
	// their Copies counts intact.
	DeckCards(ctx context.Context, deckName string) ([]TemplateCard, error)
	// VisibleGadgets returns all gadgets whose attachments can apply to the
	// entity: every gadget is returned, private attachments are filtered by
	// the resolver against the owning entity.
	VisibleGadgets(ctx context.Context, entityUUID string) ([]Gadget, error)
	InsertGadget(ctx context.Context, g Gadget) error
	// HexDeck returns the remaining cards of a terrain deck; SaveHexDeck
	// persists the remainder after draws.
	HexDeck(ctx context.Context, terrain string) ([]TemplateCard, error)
	SaveHexDeck(ctx context.Context, terrain string, cards []TemplateCard) error
	Character(ctx context.Context, name string) (*Character, error)
	CharacterByUUID(ctx context.Context, uuid string) (*Character, error)
	SaveCharacter(ctx context.Context, ch *Character) error
	InsertRecords(ctx context.Context, recs []Record) error
}

// Board is the hex-board collaborator. Distances are cube-coordinate hex
// distances; neighbor lists are sorted ascending by distance.
type Board interface {
	Distance(ctx context.Context, a, b string) (int, error)
	FindEntityNeighbors(ctx context.Context, entityUUID string, minDist, maxDist int) ([]Hex, error)
	MoveToken(ctx context.Context, entityUUID, hexName string, adjacentOnly bool) error
	BestRoutes(ctx context.Context, start string, ends []string) (map[string][]string, error)
	DrawResourceCard(ctx context.Context, hexName string) (ResourceCard, error)
	RandomHex(ctx context.Context) (Hex, error)
	TokenHex(ctx context.Context, entityUUID string) (Hex, error)
	Hex(ctx context.Context, name string) (Hex, error)
	CreateToken(ctx context.Context, entityUUID, hexName string) error
}

// Transactor opens one transactional scope per rules operation. fn's writes
// are committed if it returns nil and rolled back otherwise.
type Transactor interface {
	Transact(ctx context.Context, fn func(Store, Board) error) error
}

type gadgetKey struct {
	typ     string
	subtype string
}

// Context carries the per-operation state of one rules transaction: the
// tx-scoped collaborators plus the gadget memo caches and the recursion
// guard for overlay evaluation. It is not safe for concurrent use; every
// operation builds a fresh one.
type Context struct {
	ctx   context.Context
	store Store
	board Board
	log   *zap.Logger
	rng   *rand.Rand

	overlays map[string]map[gadgetKey][]Overlay
	triggers map[string]map[gadgetKey][]Trigger
	inUse    map[string]bool
}

// NewContext builds the per-operation context. rng drives every random
// decision of the operation; tests pass a seeded source.
func NewContext(ctx context.Context, store Store, board Board, log *zap.Logger, rng *rand.Rand) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	return &Context{
		ctx:      ctx,
		store:    store,
		board:    board,
		log:      log,
		rng:      rng,
		overlays: make(map[string]map[gadgetKey][]Overlay),
		triggers: make(map[string]map[gadgetKey][]Trigger),
		inUse:    make(map[string]bool),
	}
}

// InvalidateGadgets drops the memoized gadget view of an entity. Called
// whenever gadgets are added or removed mid-transaction.
func (ec *Context) InvalidateGadgets(entityUUID string) {
	delete(ec.overlays, entityUUID)
	delete(ec.triggers, entityUUID)
}
