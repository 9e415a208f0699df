package rules

import (
	"fmt"
	"strconv"
)

// System-generated cards: encounters the engine queues on its own rather
// than drawing from a deck.

const (
	SpecialTrade      = "trade"
	SpecialLeadership = "leadership"

	AnnotationLeadershipDifficulty = "leadership_difficulty"
	AnnotationVictory              = "victory"
)

// queueBadReputationCheck queues a leadership challenge when reputation has
// hit zero, at most once per turn.
func (ec *Context) queueBadReputationCheck(ch *Character) {
	if ch.Reputation > 0 {
		return
	}
	if ch.CheckSetFlag(FlagBadRepChecked) {
		return
	}
	ch.Queued = append(ch.Queued, FullCard{
		UUID: newUUID(),
		Name: "Bad Reputation",
		Desc: "Automatic job check at zero reputation.",
		Kind: CardChoice,
		Choices: &Choices{
			MinChoices: 1,
			MaxChoices: 1,
			List: []Choice{
				{Effects: []Effect{{Type: EffectLeadership, Amount: -1}}},
			},
		},
	})
}

// queueDiscardResources forces the character to discard down to the job's
// inventory cap at end of turn.
func (ec *Context) queueDiscardResources(ch *Character) error {
	max, err := ec.MaxResources(ch)
	if err != nil {
		return err
	}
	total := 0
	for _, cnt := range ch.Resources {
		total += cnt
	}
	overage := total - max
	if overage <= 0 {
		return nil
	}

	var list []Choice
	for _, rs := range sortedKeys(ch.Resources) {
		cnt := ch.Resources[rs]
		if cnt <= 0 {
			continue
		}
		list = append(list, Choice{
			Name:       rs,
			MaxChoices: cnt,
			Costs:      []Effect{{Type: EffectModifyResources, Subtype: rs, Amount: -1}},
		})
	}
	ch.Queued = append(ch.Queued, FullCard{
		UUID: newUUID(),
		Name: "Discard Resources",
		Desc: fmt.Sprintf("You must discard to %d resources.", max),
		Kind: CardChoice,
		Choices: &Choices{
			MinChoices: overage,
			MaxChoices: overage,
			List:       list,
		},
	})
	return nil
}

// makePromoCard offers a title benefit for being promoted out of jobName.
// The first option is bare xp, the rest grant a reliable-skill title for one
// of the old job's base skills.
func (ec *Context) makePromoCard(jobName string) (FullCard, error) {
	job, err := ec.store.Job(ec.ctx, jobName)
	if err != nil {
		return FullCard{}, err
	}

	titleName := "Veteran " + jobName
	list := []Choice{
		{Effects: []Effect{
			{Type: EffectAddTitle, Title: &Title{Name: titleName}},
			{Type: EffectModifyXP, Amount: 10},
		}},
	}
	for _, sk := range job.BaseSkills {
		list = append(list, Choice{
			Name: sk,
			Effects: []Effect{{
				Type: EffectAddTitle,
				Title: &Title{
					Name: titleName,
					Overlays: []Overlay{{
						Type:      OverlayReliableSkill,
						Subtype:   sk,
						Amount:    1,
						IsPrivate: true,
					}},
				},
			}},
		})
	}

	return FullCard{
		UUID: newUUID(),
		Name: "Job Promotion",
		Desc: fmt.Sprintf("Select a benefit for being promoted from %s.", jobName),
		Kind: CardChoice,
		Choices: &Choices{
			MinChoices: 0,
			MaxChoices: 1,
			List:       list,
		},
	}, nil
}

// makeAssignXPCard lets the player place unassigned xp on any one skill.
func makeAssignXPCard(ec *Context, amount int) (FullCard, error) {
	game, err := ec.store.Game(ec.ctx)
	if err != nil {
		return FullCard{}, err
	}
	list := make([]Choice, 0, len(game.Skills))
	for _, sk := range game.Skills {
		list = append(list, Choice{
			Name:    sk,
			Effects: []Effect{{Type: EffectModifyXP, Subtype: sk, Amount: amount}},
		})
	}
	return FullCard{
		UUID: newUUID(),
		Name: "Assign XP",
		Desc: fmt.Sprintf("Assign %d xp", amount),
		Kind: CardChoice,
		Choices: &Choices{
			MinChoices: 0,
			MaxChoices: 1,
			List:       list,
		},
	}, nil
}

// actualizeSpecialCard fills in a special card against the character's
// state at the moment it becomes the active encounter, not when it was
// queued or drawn.
func (ec *Context) actualizeSpecialCard(ch *Character, card FullCard) (FullCard, error) {
	switch card.Special {
	case SpecialTrade:
		return ec.actualizeTradeCard(ch, card)
	case SpecialLeadership:
		return ec.actualizeLeadershipCard(ch, card)
	default:
		panic("unknown special card type: " + card.Special)
	}
}

func (ec *Context) actualizeTradeCard(ch *Character, card FullCard) (FullCard, error) {
	game, err := ec.store.Game(ec.ctx)
	if err != nil {
		return FullCard{}, err
	}
	total := 0
	var list []Choice
	for _, rs := range game.Resources {
		cnt := ch.Resources[rs]
		if cnt <= 0 {
			continue
		}
		total += cnt
		price, err := ec.TradePrice(ch, rs)
		if err != nil {
			return FullCard{}, err
		}
		list = append(list, Choice{
			Name:       rs,
			MaxChoices: cnt,
			Costs:      []Effect{{Type: EffectModifyResources, Subtype: rs, Amount: -1}},
			Effects:    []Effect{{Type: EffectModifyCoins, Amount: price}},
		})
	}
	card.Kind = CardChoice
	card.Special = ""
	card.Choices = &Choices{
		MinChoices: 0,
		MaxChoices: total,
		Costs:      []Effect{{Type: EffectModifyActivity, Amount: -1}},
		List:       list,
	}
	return card, nil
}

func (ec *Context) actualizeLeadershipCard(ch *Character, card FullCard) (FullCard, error) {
	difficulty := 0
	if s, ok := card.Annotations[AnnotationLeadershipDifficulty]; ok {
		v, err := strconv.Atoi(s)
		if err != nil {
			return FullCard{}, badStatef("bad leadership difficulty annotation: %s", s)
		}
		difficulty = v
	}
	targetNumber := 4 - difficulty
	rolls := 1 + ch.Reputation/4

	// with a single die a run of successes is impossible, so widen the check
	if rolls == 1 {
		targetNumber++
		rolls++
	}

	card.Kind = CardChallenge
	card.Special = ""
	card.Checks = make([]EncounterCheck, rolls)
	for i := range card.Checks {
		card.Checks[i] = EncounterCheck{
			Skill:        "Leadership",
			TargetNumber: targetNumber,
			Reward:       OutcomeVictory,
			Penalty:      OutcomeNothing,
		}
	}
	if card.Annotations == nil {
		card.Annotations = map[string]string{}
	} else {
		ann := make(map[string]string, len(card.Annotations)+1)
		for k, v := range card.Annotations {
			ann[k] = v
		}
		card.Annotations = ann
	}
	card.Annotations[AnnotationVictory] = SpecialLeadership
	return card, nil
}
