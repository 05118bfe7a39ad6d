package game

import "errors"

// Precondition failures. Dispatch reports them as false and leaves the state
// untouched; Engine.LastError returns the most recent one.
var (
	ErrGameOver            = errors.New("game is over")
	ErrWrongPhase          = errors.New("action not allowed in this phase")
	ErrNotYourTurn         = errors.New("not this player's turn")
	ErrPendingAction       = errors.New("a pending action must be resolved first")
	ErrNoPendingAction     = errors.New("no pending action to resolve")
	ErrInvalidChoice       = errors.New("choice does not match the pending action")
	ErrUnknownAction       = errors.New("unknown action kind")
	ErrCardNotFound        = errors.New("card not found")
	ErrCardNotPlayable     = errors.New("card cannot be played")
	ErrPlayLimit           = errors.New("play limit reached")
	ErrInvalidAllocation   = errors.New("power allocation does not match the card")
	ErrNotInstallable      = errors.New("card cannot be installed")
	ErrInvalidSystem       = errors.New("invalid system")
	ErrInvalidAbility      = errors.New("invalid system ability")
	ErrAbilityUsed         = errors.New("ability already used this turn")
	ErrInsufficientPower   = errors.New("insufficient power")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrInsufficientCards   = errors.New("not enough cards to discard")
	ErrInvalidDirection    = errors.New("invalid move direction")
	ErrOffTrack            = errors.New("move would leave the track")
	ErrRestricted          = errors.New("blocked by an active hazard")
	ErrNoMission           = errors.New("no mission at this location")
	ErrMissionHidden       = errors.New("mission is not revealed")
	ErrNothingToReveal     = errors.New("nothing to reveal")
	ErrInvalidTarget       = errors.New("invalid target player")
	ErrNoTarget            = errors.New("no other player to target")
	ErrInvalidStation      = errors.New("invalid station")
	ErrInvalidStack        = errors.New("invalid market stack")
	ErrNotAtStation        = errors.New("player is not at this station")
	ErrStackHidden         = errors.New("market stack is not revealed")
	ErrStackEmpty          = errors.New("market stack is empty")
	ErrAlreadyRevealed     = errors.New("market stack is already revealed")
	ErrRevealLimit         = errors.New("already revealed a stack of this tier this turn")
	ErrNotHazard           = errors.New("card is not a hazard")
	ErrUndoUnavailable     = errors.New("undo is not available")
)
