package rules

import (
	"context"
	"math/rand"
	"sync"

	"go.uber.org/zap"
)

// Service exposes the player-facing operations. Every operation runs inside
// one store transaction: load the character, mutate through the engine,
// save, insert records; any rules error rolls the whole thing back.
type Service struct {
	tx  Transactor
	log *zap.Logger

	mu   sync.Mutex
	rng  *rand.Rand
	sink RecordSink
}

// RecordSink receives the records of each committed operation, for fan-out
// to connected clients. Publish runs after commit; failures are logged, not
// returned.
type RecordSink interface {
	Publish(ctx context.Context, characterUUID string, records []Record)
}

func NewService(tx Transactor, log *zap.Logger, rng *rand.Rand) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{tx: tx, log: log, rng: rng}
}

// SetRecordSink attaches a post-commit record publisher.
func (s *Service) SetRecordSink(sink RecordSink) { s.sink = sink }

// newRNG derives a per-operation rng so concurrent operations don't race on
// the service's source, while a seeded service stays deterministic.
func (s *Service) newRNG() *rand.Rand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rand.New(rand.NewSource(s.rng.Int63()))
}

type opFunc func(ec *Context, ch *Character, records *[]Record) error

func (s *Service) run(ctx context.Context, characterName string, fn opFunc) ([]Record, error) {
	var records []Record
	var chUUID string
	err := s.tx.Transact(ctx, func(store Store, board Board) error {
		records = records[:0]
		ec := NewContext(ctx, store, board, s.log, s.newRNG())
		ch, err := store.Character(ctx, characterName)
		if err != nil {
			return err
		}
		chUUID = ch.UUID
		if err := fn(ec, ch, &records); err != nil {
			return err
		}
		if err := store.SaveCharacter(ctx, ch); err != nil {
			return err
		}
		return store.InsertRecords(ctx, records)
	})
	if err != nil {
		return nil, err
	}
	if s.sink != nil && len(records) > 0 {
		s.sink.Publish(ctx, chUUID, records)
	}
	return records, nil
}

// DoJob spends the turn's activity on a tableau card. The character must be
// standing on the card's hex.
func (s *Service) DoJob(ctx context.Context, characterName, cardUUID string) ([]Record, error) {
	return s.run(ctx, characterName, func(ec *Context, ch *Character, records *[]Record) error {
		if err := requireNoEncounter(ec, ch); err != nil {
			return err
		}
		if ch.CheckSetFlag(FlagActed) {
			return badStatef("you have already acted this turn")
		}

		idx := -1
		for i, t := range ch.Tableau {
			if t.Card.UUID == cardUUID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return badStatef("no such card in tableau: %s", cardUUID)
		}
		card := ch.Tableau[idx]
		ch.Tableau = append(ch.Tableau[:idx], ch.Tableau[idx+1:]...)

		loc, err := ec.board.TokenHex(ec.ctx, ch.UUID)
		if err != nil {
			return err
		}
		if card.Location != loc.Name {
			return illegalMovef("you must be in hex %s for that encounter", card.Location)
		}
		ch.Queued = append(ch.Queued, card.Card)
		return ec.IntraTurn(ch)
	})
}

// PerformAction executes a gadget-provided action: filters gate it, costs
// are enforced, effects apply.
func (s *Service) PerformAction(ctx context.Context, characterName, actionUUID string) ([]Record, error) {
	return s.run(ctx, characterName, func(ec *Context, ch *Character, records *[]Record) error {
		if err := requireNoEncounter(ec, ch); err != nil {
			return err
		}
		action, err := ec.ActionByUUID(ch.UUID, actionUUID)
		if err != nil {
			return err
		}
		if err := ec.CheckFilters(ch, action.Filters); err != nil {
			return err
		}
		if err := ec.Apply(ch, action.Costs, action.Effects, true, records); err != nil {
			return err
		}
		return ec.IntraTurn(ch)
	})
}

// Camp spends the turn resting: one draw from the camp deck.
func (s *Service) Camp(ctx context.Context, characterName string) ([]Record, error) {
	return s.run(ctx, characterName, func(ec *Context, ch *Character, records *[]Record) error {
		if err := requireNoEncounter(ec, ch); err != nil {
			return err
		}
		if ch.CheckSetFlag(FlagActed) {
			return badStatef("you have already acted this turn")
		}
		if len(ch.CampDeck) == 0 {
			var err error
			if ch.CampDeck, err = ec.LoadDeck(CampDeckName); err != nil {
				return err
			}
			if len(ch.CampDeck) == 0 {
				return badStatef("camp deck is empty")
			}
		}
		tmpl := ch.CampDeck[0]
		ch.CampDeck = ch.CampDeck[1:]
		card, err := ec.ReifyCard(ch, tmpl, nil, 1, ContextCamp)
		if err != nil {
			return err
		}
		ch.Queued = append(ch.Queued, card)
		return ec.IntraTurn(ch)
	})
}

// Travel moves one adjacent hex, costing one speed. The first move of a
// turn that turns up trouble queues a travel encounter; later moves this
// turn are safe.
func (s *Service) Travel(ctx context.Context, characterName, hexName string) ([]Record, error) {
	return s.run(ctx, characterName, func(ec *Context, ch *Character, records *[]Record) error {
		if err := requireNoEncounter(ec, ch); err != nil {
			return err
		}
		if ch.Speed <= 0 {
			return illegalMovef("you have no remaining speed")
		}
		if err := ec.board.MoveToken(ec.ctx, ch.UUID, hexName, true); err != nil {
			return err
		}
		// the move and the speed spent are ordinary turn state, not records
		ch.Speed--

		effects, err := ec.RunTriggers(ch, TriggerEnterHex, hexName)
		if err != nil {
			return err
		}
		if err := ec.Apply(ch, nil, effects, false, records); err != nil {
			return err
		}

		if !ch.TurnFlags[FlagHadTravelEncounter] {
			card, err := ec.drawTravelCard(ch, hexName)
			if err != nil {
				return err
			}
			if card != nil {
				ch.Queued = append(ch.Queued, *card)
				ch.TurnFlags[FlagHadTravelEncounter] = true
			}
		}
		return ec.IntraTurn(ch)
	})
}

// EndTurn finishes the turn, or surfaces the next queued encounter standing
// in the way of finishing it.
func (s *Service) EndTurn(ctx context.Context, characterName string) ([]Record, error) {
	return s.run(ctx, characterName, func(ec *Context, ch *Character, records *[]Record) error {
		if err := requireNoEncounter(ec, ch); err != nil {
			return err
		}
		return ec.EndTurn(ch, records)
	})
}

// ResolveEncounter replays the submitted commands against the active
// encounter and applies the result.
func (s *Service) ResolveEncounter(ctx context.Context, characterName string, commands EncounterCommands) ([]Record, error) {
	return s.run(ctx, characterName, func(ec *Context, ch *Character, records *[]Record) error {
		active, err := ec.EncounterCheck(ch)
		if err != nil {
			return err
		}
		if !active {
			return badStatef("no encounter is currently active")
		}
		enc := ch.Encounter
		ch.Encounter = nil
		costs, effects, err := ec.PerformCommands(ch, enc, commands)
		if err != nil {
			return err
		}
		if err := ec.Apply(ch, costs, effects, true, records); err != nil {
			return err
		}
		return ec.IntraTurn(ch)
	})
}

// AddCharacter creates a character, drops their token on the board
// ("random" picks a random hex) and starts their first season.
func (s *Service) AddCharacter(ctx context.Context, name, playerUUID, jobName, location string) (string, error) {
	var chUUID string
	var records []Record
	err := s.tx.Transact(ctx, func(store Store, board Board) error {
		records = records[:0]
		ec := NewContext(ctx, store, board, s.log, s.newRNG())
		ch, err := ec.CreateCharacter(name, playerUUID, jobName)
		if err != nil {
			return err
		}
		chUUID = ch.UUID
		if location == "random" {
			hx, err := board.RandomHex(ctx)
			if err != nil {
				return err
			}
			location = hx.Name
		}
		if err := board.CreateToken(ctx, ch.UUID, location); err != nil {
			return err
		}
		if err := ec.StartSeason(ch, &records); err != nil {
			return err
		}
		if err := store.SaveCharacter(ctx, ch); err != nil {
			return err
		}
		return store.InsertRecords(ctx, records)
	})
	if err != nil {
		return "", err
	}
	if s.sink != nil && len(records) > 0 {
		s.sink.Publish(ctx, chUUID, records)
	}
	return chUUID, nil
}

func requireNoEncounter(ec *Context, ch *Character) error {
	active, err := ec.EncounterCheck(ch)
	if err != nil {
		return err
	}
	if active {
		return badStatef("an encounter is currently active")
	}
	return nil
}

// Deck names the engine draws from on its own.
const (
	TravelDeckName = "Travel"
	CampDeckName   = "Camp"
)

// drawTravelCard pops the character's travel deck. Nothing happens on most
// draws; a danger card only bites if the hex is at least that dangerous.
func (ec *Context) drawTravelCard(ch *Character, location string) (*FullCard, error) {
	if len(ch.TravelDeck) == 0 {
		var err error
		if ch.TravelDeck, err = ec.makeTravelDeck(); err != nil {
			return nil, err
		}
	}
	card := ch.TravelDeck[0]
	ch.TravelDeck = ch.TravelDeck[1:]

	switch card.Kind {
	case TravelNothing:
		return nil, nil
	case TravelDanger:
		hx, err := ec.board.Hex(ec.ctx, location)
		if err != nil {
			return nil, err
		}
		if hx.Danger >= card.Danger {
			return ec.drawHexCard(ch, hx)
		}
		return nil, nil
	case TravelSpecial:
		hx, err := ec.board.Hex(ec.ctx, location)
		if err != nil {
			return nil, err
		}
		full, err := ec.ReifyCard(ch, *card.Special, nil, hx.Danger, ContextTravel)
		if err != nil {
			return nil, err
		}
		return &full, nil
	default:
		panic("unknown travel card kind: " + string(card.Kind))
	}
}

func (ec *Context) makeTravelDeck() ([]TravelCard, error) {
	specials, err := ec.LoadDeck(TravelDeckName)
	if err != nil {
		return nil, err
	}
	var cards []TravelCard
	for i := 0; i < 14; i++ {
		cards = append(cards, TravelCard{Kind: TravelNothing})
	}
	for danger := 1; danger <= 5; danger++ {
		for i := 0; i < 3; i++ {
			cards = append(cards, TravelCard{Kind: TravelDanger, Danger: danger})
		}
	}
	for i := 0; i < 2 && i < len(specials); i++ {
		sp := specials[i]
		cards = append(cards, TravelCard{Kind: TravelSpecial, Special: &sp})
	}
	return shuffleDiscard(ec.rng, cards), nil
}

// drawHexCard draws from the terrain deck of the hex, persisting the
// remainder so the deck runs down across characters.
func (ec *Context) drawHexCard(ch *Character, hx Hex) (*FullCard, error) {
	deck, err := ec.store.HexDeck(ec.ctx, hx.Terrain)
	if err != nil {
		return nil, err
	}
	if len(deck) == 0 {
		if deck, err = ec.LoadDeck(hx.Terrain); err != nil {
			return nil, err
		}
		if len(deck) == 0 {
			return nil, badStatef("terrain deck %s is empty", hx.Terrain)
		}
	}
	tmpl := deck[0]
	if err := ec.store.SaveHexDeck(ec.ctx, hx.Terrain, deck[1:]); err != nil {
		return nil, err
	}
	full, err := ec.ReifyCard(ch, tmpl, nil, hx.Danger, ContextTravel)
	if err != nil {
		return nil, err
	}
	return &full, nil
}
