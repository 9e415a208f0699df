package rules

import (
	"math/rand"
)

// Card reification: turning a probabilistic TemplateCard into a concrete
// FullCard with pinned skills, target numbers and outcomes, and turning a
// FullCard into a rolled Encounter.

// shuffleDiscard shuffles the cards and drops len/10+1 of them, so a player
// tracking the deck can never be certain what remains.
func shuffleDiscard[T any](rng *rand.Rand, cards []T) []T {
	ret := make([]T, len(cards))
	copy(ret, cards)
	rng.Shuffle(len(ret), func(i, j int) { ret[i], ret[j] = ret[j], ret[i] })
	drop := len(ret)/10 + 1
	if drop > len(ret) {
		drop = len(ret)
	}
	return ret[:len(ret)-drop]
}

// LoadDeck expands a named template deck to per-copy cards and shuffles it.
func (ec *Context) LoadDeck(name string) ([]TemplateCard, error) {
	templates, err := ec.store.DeckCards(ec.ctx, name)
	if err != nil {
		return nil, err
	}
	var cards []TemplateCard
	for _, c := range templates {
		copies := c.Copies
		if copies <= 0 {
			copies = 1
		}
		for i := 0; i < copies; i++ {
			cards = append(cards, c)
		}
	}
	return shuffleDiscard(ec.rng, cards), nil
}

// ReifyCard pins a template down to one concrete card. For challenges this
// draws three checks from a skill bag built of the challenge's skills padded
// with the job's base skills; the third check also mixes in every skill in
// the game, so roughly half the time it lands on something unusual.
func (ec *Context) ReifyCard(ch *Character, tmpl TemplateCard, baseSkills []string, difficulty int, ctxType ContextType) (FullCard, error) {
	game, err := ec.store.Game(ec.ctx)
	if err != nil {
		return FullCard{}, err
	}

	card := FullCard{
		UUID:        newUUID(),
		Name:        tmpl.Name,
		Desc:        tmpl.Desc,
		Kind:        tmpl.Kind,
		Context:     ctxType,
		Annotations: tmpl.Annotations,
	}

	switch tmpl.Kind {
	case CardChoice:
		card.Choices = tmpl.Choices
	case CardSpecial:
		card.Special = tmpl.Special
	case CardChallenge:
		challenge := tmpl.Challenge
		if challenge == nil {
			panic("challenge card without challenge payload: " + tmpl.Name)
		}
		var core []string
		core = append(core, challenge.Skills...)
		core = append(core, baseSkills...)
		core = append(core, baseSkills...)
		if len(core) > 6 {
			core = core[:6]
		}
		var skillBag []string
		for i := 0; i < 6; i++ {
			skillBag = append(skillBag, core...)
		}

		rewardBag := makeRewardBag(challenge)
		penaltyBag := makePenaltyBag(challenge, ctxType)
		if challenge.Difficulty > 0 {
			difficulty = challenge.Difficulty
		}
		wideBag := append(append([]string{}, skillBag...), game.Skills...)
		card.Checks = []EncounterCheck{
			ec.makeCheck(difficulty, skillBag, rewardBag, penaltyBag),
			ec.makeCheck(difficulty, skillBag, rewardBag, penaltyBag),
			ec.makeCheck(difficulty, wideBag, rewardBag, penaltyBag),
		}
	default:
		panic("unknown card kind: " + string(tmpl.Kind))
	}

	if !tmpl.Unsigned && len(game.Zodiacs) >= 2 {
		signs := append([]string{}, game.Zodiacs...)
		ec.rng.Shuffle(len(signs), func(i, j int) { signs[i], signs[j] = signs[j], signs[i] })
		card.Signs = signs[:2]
	}
	return card, nil
}

func (ec *Context) makeCheck(difficulty int, skillBag []string, rewardBag, penaltyBag []Outcome) EncounterCheck {
	tn := difficulty*2 + 1
	fuzzed := []int{tn, tn, tn, tn, tn + 1, tn + 1, tn - 1, tn - 1, tn + 2, tn - 2, tn + 3, tn - 3}
	// a target number of 0 or 1 is an automatic success, which is lame
	var ok []int
	for _, v := range fuzzed {
		if v >= 2 {
			ok = append(ok, v)
		}
	}
	tn = ok[ec.rng.Intn(len(ok))]
	return EncounterCheck{
		Skill:        skillBag[ec.rng.Intn(len(skillBag))],
		TargetNumber: tn,
		Reward:       rewardBag[ec.rng.Intn(len(rewardBag))],
		Penalty:      penaltyBag[ec.rng.Intn(len(penaltyBag))],
	}
}

// Bags rather than decks, for more hot/cold variance between cards.
func makeRewardBag(challenge *Challenge) []Outcome {
	var bag []Outcome
	for i := 0; i < 4; i++ {
		bag = append(bag, OutcomeGainCoins, OutcomeGainReputation)
	}
	for i := 0; i < 4; i++ {
		bag = append(bag, challenge.Rewards...)
	}
	bag = append(bag,
		OutcomeGainResources,
		OutcomeGainHealing,
		OutcomeGainXP,
		OutcomeGainSpeed,
		OutcomeNothing,
	)
	return bag
}

func makePenaltyBag(challenge *Challenge, ctxType ContextType) []Outcome {
	var bag []Outcome
	if ctxType == ContextTravel {
		for i := 0; i < 8; i++ {
			bag = append(bag, OutcomeLoseSpeed)
		}
		for i := 0; i < 4; i++ {
			bag = append(bag, OutcomeDamage)
		}
	} else {
		for i := 0; i < 12; i++ {
			bag = append(bag, OutcomeDamage)
		}
	}
	for i := 0; i < 6; i++ {
		bag = append(bag, challenge.Penalties...)
	}
	bag = append(bag,
		OutcomeNothing,
		OutcomeLoseReputation,
		OutcomeLoseResources,
		OutcomeLoseCoins,
		OutcomeTransport,
		OutcomeLoseLeadership,
	)
	return bag
}

// MakeEncounter promotes a card into the active encounter, rolling its dice.
// Special cards are actualized against current character state first. Each
// challenge check rolls 1d8 plus skill rank; a reliable skill rerolls a low
// die once, with both rolls kept in the sequence and the better one
// counting.
func (ec *Context) MakeEncounter(ch *Character, card FullCard) (*Encounter, error) {
	if card.Kind == CardSpecial {
		var err error
		card, err = ec.actualizeSpecialCard(ch, card)
		if err != nil {
			return nil, err
		}
	}

	var rolls [][]int
	switch card.Kind {
	case CardChallenge:
		for _, chk := range card.Checks {
			bonus, err := ec.SkillRank(ch, chk.Skill, false)
			if err != nil {
				return nil, err
			}
			reliable, err := ec.ReliableSkill(ch, chk.Skill)
			if err != nil {
				return nil, err
			}
			die := ec.rng.Intn(8) + 1
			seq := []int{die + bonus}
			if die <= reliable {
				die = ec.rng.Intn(8) + 1
				seq = append(seq, die+bonus)
			}
			rolls = append(rolls, seq)
		}
	case CardChoice:
		if card.Choices == nil {
			panic("choice card without choices payload: " + card.Name)
		}
		if card.Choices.IsRandom {
			n := len(card.Choices.List)
			for i := 0; i < card.Choices.MaxChoices; i++ {
				rolls = append(rolls, []int{ec.rng.Intn(n) + 1})
			}
		}
	default:
		panic("unknown card kind: " + string(card.Kind))
	}

	return &Encounter{Card: card, Rolls: rolls}, nil
}
