package game

import "slices"

// PendingKind tags the single outstanding interrupt.
type PendingKind int

const (
	PendingRevealHazards PendingKind = iota
	PendingTargetPlayer
	PendingTrashCard
	PendingScout
	PendingPowerAllocation
	PendingMissionReward
	PendingMissionRewardChoice
	PendingMoveOther
)

var pendingKindNames = []string{
	"reveal_hazards_ack", "target_player", "trash_card", "draw_3_keep_1",
	"power_allocation", "mission_reward", "mission_reward_choice", "move_other_player",
}

func (k PendingKind) String() string               { return enumName(pendingKindNames, int(k)) }
func (k PendingKind) MarshalText() ([]byte, error) { return enumText(pendingKindNames, int(k), "pending kind") }
func (k *PendingKind) UnmarshalText(b []byte) error {
	v, err := parseEnum(pendingKindNames, b, "pending kind")
	*k = PendingKind(v)
	return err
}

// PendingAction is an interrupt waiting for a Choice. At most one exists;
// chained interrupts replace it in sequence. Resume carries the suspended
// effect frames, innermost first.
type PendingAction struct {
	Kind   PendingKind `json:"kind"`
	Player int         `json:"player"`
	Source string      `json:"source"`

	Amount     int      `json:"amount,omitempty"`
	Candidates []int    `json:"candidates,omitempty"`
	Targets    []string `json:"targets,omitempty"`
	Target     string   `json:"target,omitempty"`
	Options    []Reward `json:"options,omitempty"`
	Reward     *Reward  `json:"reward,omitempty"`
	MissionID  int      `json:"mission_id,omitempty"`
	MissionKey string   `json:"mission_key,omitempty"`
	ChainMove  bool     `json:"chain_move,omitempty"`

	Resume []EffectFrame `json:"resume,omitempty"`
}

func (pa *PendingAction) clone() *PendingAction {
	if pa == nil {
		return nil
	}
	c := *pa
	c.Candidates = slices.Clone(pa.Candidates)
	c.Targets = slices.Clone(pa.Targets)
	c.Options = slices.Clone(pa.Options)
	if pa.Reward != nil {
		r := *pa.Reward
		c.Reward = &r
	}
	c.Resume = cloneFrames(pa.Resume)
	return &c
}

// validateChoice checks the choice shape against the pending kind without
// touching state.
func (e *Engine) validateChoice(pa *PendingAction, ch *Choice) error {
	if ch == nil {
		return ErrInvalidChoice
	}
	switch pa.Kind {
	case PendingRevealHazards:
		if !ch.Ack {
			return ErrInvalidChoice
		}
	case PendingTargetPlayer:
		if !slices.Contains(pa.Targets, ch.Target) {
			return ErrInvalidTarget
		}
	case PendingTrashCard, PendingScout:
		if !slices.Contains(pa.Candidates, ch.CardID) {
			return ErrCardNotFound
		}
	case PendingPowerAllocation:
		if ch.Allocation == nil || ch.Allocation.hasNegative() || ch.Allocation.Total() != pa.Amount {
			return ErrInvalidAllocation
		}
	case PendingMissionReward:
		if ch.System == nil || !ch.System.Valid() {
			return ErrInvalidSystem
		}
	case PendingMissionRewardChoice:
		if ch.Option == nil || *ch.Option < 0 || *ch.Option >= len(pa.Options) {
			return ErrInvalidChoice
		}
	case PendingMoveOther:
		if ch.Direction != 1 && ch.Direction != -1 {
			return ErrInvalidDirection
		}
		target, _ := e.state.PlayerByID(pa.Target)
		if target == nil {
			return ErrInvalidTarget
		}
		if loc := target.Location + ch.Direction; loc < 1 || loc > LocationCount {
			return ErrOffTrack
		}
	default:
		return ErrInvalidChoice
	}
	return nil
}

func (e *Engine) resolvePending(a GameAction) error {
	pa := e.state.Pending
	if pa == nil {
		return ErrNoPendingAction
	}
	if err := e.validateChoice(pa, a.Choice); err != nil {
		return err
	}
	ch := a.Choice
	p := e.state.Players[pa.Player]
	e.state.Pending = nil

	switch pa.Kind {
	case PendingRevealHazards:
		e.logInfo("%s acknowledges revealed hazards", p.Name)
		e.enterAction()
		return nil

	case PendingTargetPlayer:
		_, target := e.state.PlayerByID(ch.Target)
		e.giveHazard(pa.Player, target, pa.Source)
		if pa.ChainMove {
			e.state.Pending = &PendingAction{
				Kind:   PendingMoveOther,
				Player: pa.Player,
				Source: pa.Source,
				Target: ch.Target,
				Resume: pa.Resume,
			}
			return nil
		}

	case PendingTrashCard:
		c := removeCard(&p.Hand, ch.CardID)
		e.logAction("%s trashes %s", p.Name, e.cardDef(c).Name)

	case PendingScout:
		for _, id := range pa.Candidates {
			c := removeCard(&p.Deck, id)
			if c == nil {
				continue
			}
			if id == ch.CardID {
				p.Hand = append(p.Hand, c)
			} else {
				p.Discard = append(p.Discard, c)
			}
		}
		e.logAction("%s keeps one of %d scouted cards", p.Name, len(pa.Candidates))

	case PendingPowerAllocation:
		e.allocatePower(p, *ch.Allocation, pa.Source)

	case PendingMissionReward:
		e.applyReward(pa.Player, pa.MissionID, pa.MissionKey, *pa.Reward, *ch.System)

	case PendingMissionRewardChoice:
		r := pa.Options[*ch.Option]
		if r.NeedsSystem() {
			e.state.Pending = &PendingAction{
				Kind:       PendingMissionReward,
				Player:     pa.Player,
				Source:     pa.Source,
				Reward:     &r,
				MissionID:  pa.MissionID,
				MissionKey: pa.MissionKey,
				Resume:     pa.Resume,
			}
			return nil
		}
		e.applyReward(pa.Player, pa.MissionID, pa.MissionKey, r, SystemWeapons)

	case PendingMoveOther:
		target, _ := e.state.PlayerByID(pa.Target)
		e.moveTo(target, target.Location+ch.Direction)
		e.logAction("%s pushes %s to location %d", p.Name, target.Name, target.Location)
	}

	e.runFrames(pa.Resume)
	return nil
}
