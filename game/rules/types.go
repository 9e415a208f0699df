package rules

// EffectType tags one declarative state mutation.
type EffectType string

const (
	EffectModifyCoins      EffectType = "modify_coins"
	EffectModifyXP         EffectType = "modify_xp"
	EffectModifyReputation EffectType = "modify_reputation"
	EffectModifyHealth     EffectType = "modify_health"
	EffectModifyResources  EffectType = "modify_resources"
	EffectModifyTurns      EffectType = "modify_turns"
	EffectModifySpeed      EffectType = "modify_speed"
	EffectModifyActivity   EffectType = "modify_activity"
	EffectModifyLuck       EffectType = "modify_luck"
	EffectAddTitle         EffectType = "add_title"
	EffectQueueEncounter   EffectType = "queue_encounter"
	EffectModifyLocation   EffectType = "modify_location"
	EffectModifyJob        EffectType = "modify_job"
	// Complex effects that expand into others.
	EffectLeadership EffectType = "leadership"
	EffectTransport  EffectType = "transport"
)

// Effect is a single declarative mutation. The payload field used depends on
// Type: Amount for numeric effects, Str for location/job names, Card for
// queue-encounter, Title for add-title. Subtype carries a skill or resource
// name where it applies; empty subtype on a subtyped effect type selects the
// "meta" behavior (free xp, resource draw/discard).
type Effect struct {
	Type       EffectType    `json:"type"`
	Subtype    string        `json:"subtype,omitempty"`
	Amount     int           `json:"amount,omitempty"`
	IsAbsolute bool          `json:"is_absolute,omitempty"`
	Str        string        `json:"str,omitempty"`
	Card       *TemplateCard `json:"card,omitempty"`
	Title      *Title        `json:"title,omitempty"`
	TargetUUID string        `json:"target_uuid,omitempty"` // empty = current character
	Comment    string        `json:"comment,omitempty"`
}

// Outcome is the semantic reward/penalty tag a check resolves to before
// being converted into concrete Effects.
type Outcome string

const (
	OutcomeNothing        Outcome = "nothing"
	OutcomeGainCoins      Outcome = "gain_coins"
	OutcomeGainXP         Outcome = "gain_xp"
	OutcomeGainReputation Outcome = "gain_reputation"
	OutcomeGainHealing    Outcome = "gain_healing"
	OutcomeGainResources  Outcome = "gain_resources"
	OutcomeGainTurns      Outcome = "gain_turns"
	OutcomeGainSpeed      Outcome = "gain_speed"
	OutcomeVictory        Outcome = "victory"
	OutcomeLoseCoins      Outcome = "lose_coins"
	OutcomeLoseReputation Outcome = "lose_reputation"
	OutcomeDamage         Outcome = "damage"
	OutcomeLoseResources  Outcome = "lose_resources"
	OutcomeLoseLeadership Outcome = "lose_leadership"
	OutcomeTransport      Outcome = "transport"
	OutcomeLoseTurns      Outcome = "lose_turns"
	OutcomeLoseSpeed      Outcome = "lose_speed"
)

// FilterType selects the predicate kind of a Filter.
type FilterType string

const (
	FilterSkillGte  FilterType = "skill_gte"
	FilterNearHex   FilterType = "near_hex"
	FilterNearToken FilterType = "near_token"
	FilterInCountry FilterType = "in_country"
)

// Filter is a predicate over the current character/board state. Reverse
// negates the condition.
type Filter struct {
	Type       FilterType `json:"type"`
	Reverse    bool       `json:"reverse,omitempty"`
	Skill      string     `json:"skill,omitempty"`
	Value      int        `json:"value,omitempty"`
	Hex        string     `json:"hex,omitempty"`
	EntityUUID string     `json:"entity_uuid,omitempty"`
	Distance   int        `json:"distance,omitempty"`
	Country    string     `json:"country,omitempty"`
}

// OverlayType names the derived value an Overlay adjusts.
type OverlayType string

const (
	OverlayInitTableauAge OverlayType = "init_tableau_age"
	OverlayInitTurns      OverlayType = "init_turns"
	OverlayMaxHealth      OverlayType = "max_health"
	OverlayMaxLuck        OverlayType = "max_luck"
	OverlayMaxTableauSize OverlayType = "max_tableau_size"
	OverlaySkillRank      OverlayType = "skill_rank"
	OverlayReliableSkill  OverlayType = "reliable_skill"
	OverlayInitSpeed      OverlayType = "init_speed"
	OverlayMaxResources   OverlayType = "max_resources"
	OverlayInitReputation OverlayType = "init_reputation"
	OverlayTradePrice     OverlayType = "trade_price"
)

// Overlay is a persistent numeric modifier attached to an entity via a
// gadget. Subtype is a skill or resource name for the subtyped types.
type Overlay struct {
	UUID      string      `json:"uuid"`
	Type      OverlayType `json:"type"`
	Subtype   string      `json:"subtype,omitempty"`
	Amount    int         `json:"amount"`
	IsPrivate bool        `json:"is_private,omitempty"`
	Filters   []Filter    `json:"filters,omitempty"`
}

// TriggerType names the event that fires a Trigger.
type TriggerType string

const (
	TriggerAction    TriggerType = "action"
	TriggerEnterHex  TriggerType = "enter_hex"
	TriggerStartTurn TriggerType = "start_turn"
	TriggerEndTurn   TriggerType = "end_turn"
)

// Trigger is an event-conditioned bundle of effects.
type Trigger struct {
	UUID      string      `json:"uuid"`
	Name      string      `json:"name,omitempty"`
	Type      TriggerType `json:"type"`
	Subtype   string      `json:"subtype,omitempty"`
	IsPrivate bool        `json:"is_private,omitempty"`
	Filters   []Filter    `json:"filters,omitempty"`
	Costs     []Effect    `json:"costs,omitempty"`
	Effects   []Effect    `json:"effects,omitempty"`
}

// Gadget bundles overlays and triggers and attaches them to an entity.
// Action triggers double as the player-facing "perform action" entries.
type Gadget struct {
	UUID       string    `json:"uuid"`
	Name       string    `json:"name"`
	EntityUUID string    `json:"entity_uuid"`
	Overlays   []Overlay `json:"overlays,omitempty"`
	Triggers   []Trigger `json:"triggers,omitempty"`
}

// Title is the external shape of a gadget granted to a character by an
// add-title effect.
type Title struct {
	Name     string    `json:"name"`
	Overlays []Overlay `json:"overlays,omitempty"`
	Triggers []Trigger `json:"triggers,omitempty"`
}

// CardKind discriminates card payloads.
type CardKind string

const (
	CardChallenge CardKind = "challenge"
	CardChoice    CardKind = "choice"
	CardSpecial   CardKind = "special"
)

// ContextType describes where an encounter card came from; it skews reward
// and penalty distributions during reification.
type ContextType string

const (
	ContextJob    ContextType = "job"
	ContextTravel ContextType = "travel"
	ContextCamp   ContextType = "camp"
	ContextAction ContextType = "action"
)

// Challenge is the probabilistic description on a challenge template.
type Challenge struct {
	Skills     []string  `json:"skills"`
	Rewards    []Outcome `json:"rewards,omitempty"`
	Penalties  []Outcome `json:"penalties,omitempty"`
	Difficulty int       `json:"difficulty,omitempty"` // >0 overrides the deck difficulty
}

// Choice is one selectable option inside a Choices payload. Costs and
// Effects apply once per time the choice is selected.
type Choice struct {
	Name       string   `json:"name,omitempty"`
	MinChoices int      `json:"min_choices,omitempty"`
	MaxChoices int      `json:"max_choices,omitempty"` // <=0 means 1
	Costs      []Effect `json:"costs,omitempty"`
	Effects    []Effect `json:"effects,omitempty"`
}

// MaxTimes returns the per-choice selection cap; unset defaults to 1.
func (c Choice) MaxTimes() int {
	if c.MaxChoices <= 0 {
		return 1
	}
	return c.MaxChoices
}

// Choices is the payload of a choice card.
type Choices struct {
	MinChoices int      `json:"min_choices"`
	MaxChoices int      `json:"max_choices"`
	IsRandom   bool     `json:"is_random,omitempty"`
	Costs      []Effect `json:"costs,omitempty"`
	Effects    []Effect `json:"effects,omitempty"`
	List       []Choice `json:"list"`
}

// TemplateCard is the static, probabilistic description of an encounter.
// Exactly one of Challenge/Choices/Special is set, per Kind.
type TemplateCard struct {
	Name        string            `json:"name"`
	Desc        string            `json:"desc"`
	Kind        CardKind          `json:"kind"`
	Challenge   *Challenge        `json:"challenge,omitempty"`
	Choices     *Choices          `json:"choices,omitempty"`
	Special     string            `json:"special,omitempty"`
	Copies      int               `json:"copies,omitempty"`
	Unsigned    bool              `json:"unsigned,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// EncounterCheck is one concrete skill check on a reified challenge card.
type EncounterCheck struct {
	Skill        string  `json:"skill"`
	TargetNumber int     `json:"target_number"`
	Reward       Outcome `json:"reward"`
	Penalty      Outcome `json:"penalty"`
}

// FullCard is a concretized TemplateCard. Checks is set for challenges,
// Choices for choice cards; Special holds an unresolved special tag that is
// actualized when the card becomes the active encounter.
type FullCard struct {
	UUID        string            `json:"uuid"`
	Name        string            `json:"name"`
	Desc        string            `json:"desc"`
	Kind        CardKind          `json:"kind"`
	Checks      []EncounterCheck  `json:"checks,omitempty"`
	Choices     *Choices          `json:"choices,omitempty"`
	Special     string            `json:"special,omitempty"`
	Signs       []string          `json:"signs,omitempty"`
	Context     ContextType       `json:"context,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
}

// TableauCard is a FullCard sitting in the character's tableau.
type TableauCard struct {
	Card     FullCard `json:"card"`
	Age      int      `json:"age"`
	Location string   `json:"location"`
}

// Encounter is the active, die-rolled instantiation of a card. Rolls holds
// one roll sequence per check; the last element of each sequence is the
// effective roll (a reliable-skill reroll appends rather than replaces).
type Encounter struct {
	Card  FullCard `json:"card"`
	Rolls [][]int  `json:"rolls"`
}

// EffectiveRolls returns the kept roll of each sequence. A reliable-skill
// reroll is a floor, not a replacement, so the best entry wins.
func (e *Encounter) EffectiveRolls() []int {
	out := make([]int, len(e.Rolls))
	for i, seq := range e.Rolls {
		for _, r := range seq {
			if r > out[i] {
				out[i] = r
			}
		}
	}
	return out
}

// TravelCardKind discriminates entries of the travel deck.
type TravelCardKind string

const (
	TravelNothing TravelCardKind = "nothing"
	TravelDanger  TravelCardKind = "danger"
	TravelSpecial TravelCardKind = "special"
)

// TravelCard is one entry of the per-character travel deck.
type TravelCard struct {
	Kind    TravelCardKind `json:"kind"`
	Danger  int            `json:"danger,omitempty"`
	Special *TemplateCard  `json:"special,omitempty"`
}

// TurnFlag marks a once-per-turn event on the character.
type TurnFlag string

const (
	FlagActed              TurnFlag = "acted"
	FlagHadTravelEncounter TurnFlag = "had_travel_encounter"
	FlagBadRepChecked      TurnFlag = "bad_rep_checked"
	FlagRanEndTurnTriggers TurnFlag = "ran_end_turn_triggers"
)

// JobType affects base speed and resource limits.
type JobType string

const (
	JobLackey  JobType = "lackey"
	JobSolo    JobType = "solo"
	JobCaptain JobType = "captain"
	JobKing    JobType = "king"
)

// Job is a character occupation.
type Job struct {
	UUID               string   `json:"uuid"`
	Name               string   `json:"name"`
	Type               JobType  `json:"type"`
	Rank               int      `json:"rank"`
	Promotions         []string `json:"promotions,omitempty"`
	DeckName           string   `json:"deck_name"`
	BaseSkills         []string `json:"base_skills"`
	EncounterDistances []int    `json:"encounter_distances"`
}

// Character is the full mutable game state of one player character. It is
// mutated only through the effect engine inside a store transaction.
type Character struct {
	UUID           string
	Name           string
	PlayerUUID     string
	JobName        string
	Health         int
	Coins          int
	Reputation     int
	Luck           int
	Speed          int
	RemainingTurns int
	Resources      map[string]int
	SkillXP        map[string]int
	TurnFlags      map[TurnFlag]bool
	Tableau        []TableauCard
	Encounter      *Encounter
	Queued         []FullCard
	JobDeck        []TemplateCard
	TravelDeck     []TravelCard
	CampDeck       []TemplateCard
}

// CheckSetFlag sets the flag and reports whether it was already set.
func (ch *Character) CheckSetFlag(flag TurnFlag) bool {
	prev := ch.TurnFlags[flag]
	ch.TurnFlags[flag] = true
	return prev
}

// Record is one immutable audit row describing a settled field mutation.
// Numeric mutations fill OldAmount/NewAmount; job and location changes fill
// OldText/NewText.
type Record struct {
	UUID       string     `json:"uuid"`
	EntityUUID string     `json:"entity_uuid"`
	Type       EffectType `json:"type"`
	Subtype    string     `json:"subtype,omitempty"`
	OldAmount  int        `json:"old_amount,omitempty"`
	NewAmount  int        `json:"new_amount,omitempty"`
	OldText    string     `json:"old_text,omitempty"`
	NewText    string     `json:"new_text,omitempty"`
	Comments   []string   `json:"comments,omitempty"`
}

// EncounterCommands is the client-submitted derived outcome of the active
// encounter. The server replays Adjusts/Transfers/Flee against its own
// stored rolls and rejects the call if LuckSpent or Rolls disagree.
type EncounterCommands struct {
	EncounterUUID string      `json:"encounter_uuid"`
	Adjusts       []int       `json:"adjusts,omitempty"`
	Transfers     [][2]int    `json:"transfers,omitempty"`
	Flee          bool        `json:"flee,omitempty"`
	LuckSpent     int         `json:"luck_spent"`
	Rolls         []int       `json:"rolls,omitempty"`
	Choices       map[int]int `json:"choices,omitempty"`
}

// Game holds the fixed per-game configuration lists.
type Game struct {
	UUID      string
	Name      string
	Skills    []string
	Resources []string
	Zodiacs   []string
}

// Hex is one board cell as seen by the rules engine.
type Hex struct {
	Name    string
	Terrain string
	Country string
	X, Y, Z int
	Danger  int
}

// ResourceCard is one draw from a board resource deck. Value 0 means the
// draw yielded nothing.
type ResourceCard struct {
	Name     string
	Resource string
	Value    int
}

func clamp(v int, min, max *int) int {
	if min != nil && v < *min {
		v = *min
	}
	if max != nil && v > *max {
		v = *max
	}
	return v
}

func intPtr(v int) *int { return &v }
