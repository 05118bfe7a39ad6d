package game

import "fmt"

// ActionKind tags a GameAction.
type ActionKind int

const (
	ActionPlayCard ActionKind = iota
	ActionInstallCard
	ActionActivateSystem
	ActionMove
	ActionCompleteMission
	ActionBuyCard
	ActionBuyAndInstall
	ActionEndTurn
	ActionClearHazard
	ActionRevealStack
	ActionResolvePending
	ActionRestartTurn
	ActionUndo
)

var actionKindNames = []string{
	"play_card", "install_card", "activate_system", "move", "complete_mission",
	"buy_card", "buy_and_install", "end_turn", "clear_hazard", "reveal_market_stack",
	"resolve_pending", "restart_turn", "undo",
}

func (k ActionKind) String() string               { return enumName(actionKindNames, int(k)) }
func (k ActionKind) MarshalText() ([]byte, error) { return enumText(actionKindNames, int(k), "action") }
func (k *ActionKind) UnmarshalText(b []byte) error {
	v, err := parseEnum(actionKindNames, b, "action")
	*k = ActionKind(v)
	return err
}

// GameAction is the closed command record accepted by Engine.Dispatch.
// Only the fields relevant to Kind are read.
type GameAction struct {
	Kind     ActionKind `json:"kind"`
	PlayerID string     `json:"player_id,omitempty"`

	CardID     int         `json:"card_id,omitempty"`
	Allocation *PowerState `json:"allocation,omitempty"`
	System     *System     `json:"system,omitempty"`
	Ability    int         `json:"ability,omitempty"`
	Target     string      `json:"target,omitempty"`
	Direction  int         `json:"direction,omitempty"`
	Station    int         `json:"station,omitempty"`
	Stack      int         `json:"stack,omitempty"`
	CardIndex  *int        `json:"card_index,omitempty"`
	HazardID   int         `json:"hazard_id,omitempty"`
	Choice     *Choice     `json:"choice,omitempty"`
}

func (a GameAction) String() string {
	switch a.Kind {
	case ActionPlayCard, ActionInstallCard:
		return fmt.Sprintf("%s #%d", a.Kind, a.CardID)
	case ActionMove:
		return fmt.Sprintf("move %+d", a.Direction)
	case ActionBuyCard, ActionBuyAndInstall, ActionRevealStack:
		return fmt.Sprintf("%s station %d stack %d", a.Kind, a.Station, a.Stack)
	case ActionClearHazard:
		return fmt.Sprintf("clear_hazard #%d", a.HazardID)
	}
	return a.Kind.String()
}

// Choice answers the outstanding pending action. The required field depends
// on the pending kind.
type Choice struct {
	Ack        bool        `json:"ack,omitempty"`
	Target     string      `json:"target,omitempty"`
	CardID     int         `json:"card_id,omitempty"`
	Allocation *PowerState `json:"allocation,omitempty"`
	System     *System     `json:"system,omitempty"`
	Option     *int        `json:"option,omitempty"`
	Direction  int         `json:"direction,omitempty"`
}

// --- Constructors ---

func PlayCard(cardID int, alloc *PowerState) GameAction {
	return GameAction{Kind: ActionPlayCard, CardID: cardID, Allocation: alloc}
}

func InstallCard(cardID int, sys System) GameAction {
	return GameAction{Kind: ActionInstallCard, CardID: cardID, System: &sys}
}

func ActivateSystem(sys System, ability int, target string) GameAction {
	return GameAction{Kind: ActionActivateSystem, System: &sys, Ability: ability, Target: target}
}

func Move(direction int) GameAction {
	return GameAction{Kind: ActionMove, Direction: direction}
}

func CompleteMission() GameAction {
	return GameAction{Kind: ActionCompleteMission}
}

func BuyCard(station, stack int) GameAction {
	return GameAction{Kind: ActionBuyCard, Station: station, Stack: stack}
}

func BuyAndInstall(station, stack int, sys System) GameAction {
	return GameAction{Kind: ActionBuyAndInstall, Station: station, Stack: stack, System: &sys}
}

func EndTurn() GameAction {
	return GameAction{Kind: ActionEndTurn}
}

func ClearHazard(hazardID int) GameAction {
	return GameAction{Kind: ActionClearHazard, HazardID: hazardID}
}

func RevealStack(station, stack int) GameAction {
	return GameAction{Kind: ActionRevealStack, Station: station, Stack: stack}
}

func Resolve(choice Choice) GameAction {
	return GameAction{Kind: ActionResolvePending, Choice: &choice}
}

func RestartTurn() GameAction {
	return GameAction{Kind: ActionRestartTurn}
}

func Undo() GameAction {
	return GameAction{Kind: ActionUndo}
}

// Option returns a pointer for Choice.Option and GameAction.CardIndex.
func Option(i int) *int {
	return &i
}
