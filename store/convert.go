package store

import (
	"github.com/calybre/wayfarer/game/rules"
	"github.com/calybre/wayfarer/model"
)

func characterFromModel(row model.Character) (*rules.Character, error) {
	ch := &rules.Character{
		UUID:           row.UUID,
		Name:           row.Name,
		PlayerUUID:     row.PlayerUUID,
		JobName:        row.JobName,
		Health:         row.Health,
		Coins:          row.Coins,
		Reputation:     row.Reputation,
		Luck:           row.Luck,
		Speed:          row.Speed,
		RemainingTurns: row.RemainingTurns,
	}
	if err := fromJSON(row.Resources, &ch.Resources); err != nil {
		return nil, err
	}
	if err := fromJSON(row.SkillXP, &ch.SkillXP); err != nil {
		return nil, err
	}
	if err := fromJSON(row.TurnFlags, &ch.TurnFlags); err != nil {
		return nil, err
	}
	if err := fromJSON(row.Tableau, &ch.Tableau); err != nil {
		return nil, err
	}
	if err := fromJSON(row.Encounter, &ch.Encounter); err != nil {
		return nil, err
	}
	if err := fromJSON(row.Queued, &ch.Queued); err != nil {
		return nil, err
	}
	if err := fromJSON(row.JobDeck, &ch.JobDeck); err != nil {
		return nil, err
	}
	if err := fromJSON(row.TravelDeck, &ch.TravelDeck); err != nil {
		return nil, err
	}
	if err := fromJSON(row.CampDeck, &ch.CampDeck); err != nil {
		return nil, err
	}
	if ch.Resources == nil {
		ch.Resources = make(map[string]int)
	}
	if ch.SkillXP == nil {
		ch.SkillXP = make(map[string]int)
	}
	if ch.TurnFlags == nil {
		ch.TurnFlags = make(map[rules.TurnFlag]bool)
	}
	return ch, nil
}

func characterToModel(ch *rules.Character) (*model.Character, error) {
	row := &model.Character{
		UUID:           ch.UUID,
		Name:           ch.Name,
		PlayerUUID:     ch.PlayerUUID,
		JobName:        ch.JobName,
		Health:         ch.Health,
		Coins:          ch.Coins,
		Reputation:     ch.Reputation,
		Luck:           ch.Luck,
		Speed:          ch.Speed,
		RemainingTurns: ch.RemainingTurns,
	}
	var err error
	if row.Resources, err = toJSON(ch.Resources); err != nil {
		return nil, err
	}
	if row.SkillXP, err = toJSON(ch.SkillXP); err != nil {
		return nil, err
	}
	if row.TurnFlags, err = toJSON(ch.TurnFlags); err != nil {
		return nil, err
	}
	if row.Tableau, err = toJSON(ch.Tableau); err != nil {
		return nil, err
	}
	if row.Encounter, err = toJSON(ch.Encounter); err != nil {
		return nil, err
	}
	if row.Queued, err = toJSON(ch.Queued); err != nil {
		return nil, err
	}
	if row.JobDeck, err = toJSON(ch.JobDeck); err != nil {
		return nil, err
	}
	if row.TravelDeck, err = toJSON(ch.TravelDeck); err != nil {
		return nil, err
	}
	if row.CampDeck, err = toJSON(ch.CampDeck); err != nil {
		return nil, err
	}
	return row, nil
}
