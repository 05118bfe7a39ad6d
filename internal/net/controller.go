package net

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/peterkuimelis/starwake/internal/game"
)

// Local commands handled by the console itself.
const (
	CmdAction = "action"
	CmdHelp   = "help"
	CmdState  = "state"
	CmdLog    = "log"
	CmdQuit   = "quit"
)

// Command is one parsed console line.
type Command struct {
	Verb   string
	Action game.GameAction // set when Verb is CmdAction
}

// ErrEmptyCommand is returned for a blank line.
var ErrEmptyCommand = errors.New("empty command")

// Help lists the console commands.
const Help = `Actions:
  play <card> [alloc]             play a card, e.g. play 12 weapons=1,engines=1
  install <card> <system>         install a card from hand
  activate <system> <n> [player]  use a system ability (n from 1)
  move <+|->                      move along the track
  complete                        complete the mission here
  buy <station> <stack>           buy the top card of a stack
  buyinstall <station> <stack> <system>
  reveal <station> <stack>        reveal a market stack
  clear <hazard>                  clear a hazard from hand
  end | undo | restart
Pending choices:
  ack | target <player> | pick <card> | alloc <alloc>
  system <system> | option <n> | push <+|->
Other:
  state | log | help | quit`

// ParseCommand turns one console line into a Command. Card and hazard
// arguments are instance ids; station, stack, ability and option numbers
// are 1-based.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrEmptyCommand
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]

	switch verb {
	case "help", "?":
		return Command{Verb: CmdHelp}, nil
	case "state", "s":
		return Command{Verb: CmdState}, nil
	case "log":
		return Command{Verb: CmdLog}, nil
	case "quit", "exit", "q":
		return Command{Verb: CmdQuit}, nil
	}

	a, err := parseAction(verb, args)
	if err != nil {
		return Command{}, err
	}
	return Command{Verb: CmdAction, Action: a}, nil
}

func parseAction(verb string, args []string) (game.GameAction, error) {
	switch verb {
	case "play", "p":
		if err := arity(verb, args, 1, 2); err != nil {
			return game.GameAction{}, err
		}
		id, err := parseID(args[0])
		if err != nil {
			return game.GameAction{}, err
		}
		var alloc *game.PowerState
		if len(args) == 2 {
			ps, err := ParseAllocation(args[1])
			if err != nil {
				return game.GameAction{}, err
			}
			alloc = &ps
		}
		return game.PlayCard(id, alloc), nil

	case "install":
		if err := arity(verb, args, 2, 2); err != nil {
			return game.GameAction{}, err
		}
		id, err := parseID(args[0])
		if err != nil {
			return game.GameAction{}, err
		}
		sys, err := parseSystem(args[1])
		if err != nil {
			return game.GameAction{}, err
		}
		return game.InstallCard(id, sys), nil

	case "activate", "act":
		if err := arity(verb, args, 2, 3); err != nil {
			return game.GameAction{}, err
		}
		sys, err := parseSystem(args[0])
		if err != nil {
			return game.GameAction{}, err
		}
		n, err := parseOrdinal(args[1])
		if err != nil {
			return game.GameAction{}, err
		}
		target := ""
		if len(args) == 3 {
			target = args[2]
		}
		return game.ActivateSystem(sys, n, target), nil

	case "move", "m":
		if err := arity(verb, args, 1, 1); err != nil {
			return game.GameAction{}, err
		}
		dir, err := parseDirection(args[0])
		if err != nil {
			return game.GameAction{}, err
		}
		return game.Move(dir), nil

	case "complete":
		return game.CompleteMission(), nil

	case "buy", "buyinstall", "reveal":
		want := 2
		if verb == "buyinstall" {
			want = 3
		}
		if err := arity(verb, args, want, want); err != nil {
			return game.GameAction{}, err
		}
		station, err := strconv.Atoi(args[0])
		if err != nil {
			return game.GameAction{}, fmt.Errorf("station %q: not a number", args[0])
		}
		stack, err := parseOrdinal(args[1])
		if err != nil {
			return game.GameAction{}, err
		}
		switch verb {
		case "buy":
			return game.BuyCard(station, stack), nil
		case "reveal":
			return game.RevealStack(station, stack), nil
		}
		sys, err := parseSystem(args[2])
		if err != nil {
			return game.GameAction{}, err
		}
		return game.BuyAndInstall(station, stack, sys), nil

	case "clear":
		if err := arity(verb, args, 1, 1); err != nil {
			return game.GameAction{}, err
		}
		id, err := parseID(args[0])
		if err != nil {
			return game.GameAction{}, err
		}
		return game.ClearHazard(id), nil

	case "end", "e":
		return game.EndTurn(), nil
	case "undo", "u":
		return game.Undo(), nil
	case "restart":
		return game.RestartTurn(), nil
	}

	ch, err := parseChoice(verb, args)
	if err != nil {
		return game.GameAction{}, err
	}
	return game.Resolve(ch), nil
}

func parseChoice(verb string, args []string) (game.Choice, error) {
	switch verb {
	case "ack", "ok":
		return game.Choice{Ack: true}, nil
	case "target":
		if err := arity(verb, args, 1, 1); err != nil {
			return game.Choice{}, err
		}
		return game.Choice{Target: args[0]}, nil
	case "pick", "trash", "keep":
		if err := arity(verb, args, 1, 1); err != nil {
			return game.Choice{}, err
		}
		id, err := parseID(args[0])
		if err != nil {
			return game.Choice{}, err
		}
		return game.Choice{CardID: id}, nil
	case "alloc":
		if err := arity(verb, args, 1, 1); err != nil {
			return game.Choice{}, err
		}
		ps, err := ParseAllocation(args[0])
		if err != nil {
			return game.Choice{}, err
		}
		return game.Choice{Allocation: &ps}, nil
	case "system":
		if err := arity(verb, args, 1, 1); err != nil {
			return game.Choice{}, err
		}
		sys, err := parseSystem(args[0])
		if err != nil {
			return game.Choice{}, err
		}
		return game.Choice{System: &sys}, nil
	case "option":
		if err := arity(verb, args, 1, 1); err != nil {
			return game.Choice{}, err
		}
		n, err := parseOrdinal(args[0])
		if err != nil {
			return game.Choice{}, err
		}
		return game.Choice{Option: game.Option(n)}, nil
	case "push":
		if err := arity(verb, args, 1, 1); err != nil {
			return game.Choice{}, err
		}
		dir, err := parseDirection(args[0])
		if err != nil {
			return game.Choice{}, err
		}
		return game.Choice{Direction: dir}, nil
	}
	return game.Choice{}, fmt.Errorf("unknown command %q (try help)", verb)
}

// ParseAllocation parses "weapons=1,engines=2". Systems may be abbreviated
// to their first letter.
func ParseAllocation(s string) (game.PowerState, error) {
	var ps game.PowerState
	for part := range strings.SplitSeq(s, ",") {
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			return game.PowerState{}, fmt.Errorf("allocation %q: want system=n", part)
		}
		sys, err := parseSystem(name)
		if err != nil {
			return game.PowerState{}, err
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return game.PowerState{}, fmt.Errorf("allocation %q: bad amount", part)
		}
		ps.Set(sys, ps.Get(sys)+n)
	}
	return ps, nil
}

var systemShort = map[string]game.System{
	"w": game.SystemWeapons,
	"c": game.SystemComputers,
	"e": game.SystemEngines,
	"l": game.SystemLogistics,
}

func parseSystem(s string) (game.System, error) {
	s = strings.ToLower(s)
	if sys, ok := systemShort[s]; ok {
		return sys, nil
	}
	return game.ParseSystem(s)
}

func parseDirection(s string) (int, error) {
	switch strings.ToLower(s) {
	case "+", "+1", "1", "f", "fwd", "forward":
		return 1, nil
	case "-", "-1", "b", "back":
		return -1, nil
	}
	return 0, fmt.Errorf("direction %q: want + or -", s)
}

func parseID(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("id %q: want a card number", s)
	}
	return n, nil
}

// parseOrdinal converts a 1-based number to a 0-based index.
func parseOrdinal(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%q: want a number from 1", s)
	}
	return n - 1, nil
}

func arity(verb string, args []string, lo, hi int) error {
	if len(args) < lo || len(args) > hi {
		if lo == hi {
			return fmt.Errorf("%s takes %d argument(s)", verb, lo)
		}
		return fmt.Errorf("%s takes %d-%d arguments", verb, lo, hi)
	}
	return nil
}
