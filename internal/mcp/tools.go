package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/peterkuimelis/starwake/internal/game"
	"github.com/peterkuimelis/starwake/internal/net"
)

var (
	errNoChoice    = errors.New("set one of ack, target, card_id, allocation, system, option or direction")
	errManyChoices = errors.New("set only one resolve_pending argument")
	errOption      = errors.New("option is 1-based")
)

// RegisterTools adds the game tools for seat to the MCP server.
func RegisterTools(s *server.MCPServer, seat *Seat) {
	s.AddTool(getStateTool(), seat.handleGetState)
	s.AddTool(dispatchActionTool(), seat.handleDispatchAction)
	s.AddTool(resolvePendingTool(), seat.handleResolvePending)
	s.AddTool(waitForTurnTool(), seat.handleWaitForTurn)
}

// --- Tool definitions ---

func getStateTool() mcp.Tool {
	return mcp.NewTool("get_state",
		mcp.WithDescription("Get the board as this seat sees it, plus log lines appended since the last call. Read-only."),
	)
}

func dispatchActionTool() mcp.Tool {
	return mcp.NewTool("dispatch_action",
		mcp.WithDescription("Take a turn action. The command uses console syntax:\n"+net.Help),
		mcp.WithString("command", mcp.Required(), mcp.Description("One action, e.g. 'play 12 weapons=1', 'move +', 'buy 1 2', 'end'")),
	)
}

func resolvePendingTool() mcp.Tool {
	return mcp.NewTool("resolve_pending",
		mcp.WithDescription("Answer the pending decision. Set exactly one argument, matching the pending kind: "+
			"ack for reveal_hazards_ack, target for target_player, card_id for trash_card and draw_3_keep_1, "+
			"allocation for power_allocation, system for mission_reward, option for mission_reward_choice, "+
			"direction for move_other_player."),
		mcp.WithBoolean("ack", mcp.Description("Acknowledge revealed hazards")),
		mcp.WithString("target", mcp.Description("Player id to target")),
		mcp.WithNumber("card_id", mcp.Description("Card instance id from the pending candidates")),
		mcp.WithString("allocation", mcp.Description("Power split, e.g. 'weapons=1,engines=2'")),
		mcp.WithString("system", mcp.Description("weapons, computers, engines or logistics")),
		mcp.WithNumber("option", mcp.Description("1-based reward option")),
		mcp.WithNumber("direction", mcp.Description("1 to push forward, -1 to push back")),
	)
}

func waitForTurnTool() mcp.Tool {
	return mcp.NewTool("wait_for_turn",
		mcp.WithDescription("Block until this seat must act or the game ends. Returns the new state and the events that happened meanwhile."),
		mcp.WithNumber("timeout_seconds", mcp.Description("Give up after this many seconds (default and max 300)")),
	)
}

// --- Tool handlers ---

func (s *Seat) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(respondJSON(s.respond())), nil
}

func (s *Seat) handleDispatchAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cmd, err := net.ParseCommand(request.GetString("command", ""))
	if err != nil {
		return mcp.NewToolResultErrorf("Invalid command: %v", err), nil
	}
	if cmd.Verb != net.CmdAction {
		return mcp.NewToolResultErrorf("'%s' is a console command. Use get_state to read the board.", cmd.Verb), nil
	}

	status := s.peek()
	if status.GameOver {
		return mcp.NewToolResultError("The game is over."), nil
	}
	if !status.YourMove {
		return mcp.NewToolResultErrorf("Not your move: waiting for %s. Use wait_for_turn.", net.WaitingOn(status.State)), nil
	}
	if status.State.Pending != nil && cmd.Action.Kind != game.ActionUndo && cmd.Action.Kind != game.ActionRestartTurn &&
		cmd.Action.Kind != game.ActionResolvePending {
		return mcp.NewToolResultErrorf("A %s decision is pending. Use resolve_pending.", status.State.Pending.Kind), nil
	}
	return s.apply(ctx, cmd.Action)
}

func (s *Seat) handleResolvePending(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := s.peek()
	pending := status.State.Pending
	if pending == nil {
		return mcp.NewToolResultError("No pending decision."), nil
	}
	if pending.Player != status.State.You {
		return mcp.NewToolResultErrorf("Waiting for %s to resolve %s.", pending.Player, pending.Kind), nil
	}

	ch, err := choiceFromArgs(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.apply(ctx, game.Resolve(ch))
}

func (s *Seat) handleWaitForTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	timeout := time.Duration(request.GetInt("timeout_seconds", 0)) * time.Second
	return mcp.NewToolResultText(respondJSON(s.waitForTurn(ctx, timeout))), nil
}

// apply dispatches a, reporting an engine rejection as a tool error that
// still carries the state.
func (s *Seat) apply(ctx context.Context, a game.GameAction) (*mcp.CallToolResult, error) {
	resp, err := s.dispatch(ctx, a)
	if err != nil {
		return mcp.NewToolResultErrorf("Action not delivered: %v", err), nil
	}
	if resp.Rejected != "" {
		return mcp.NewToolResultError(respondJSON(resp)), nil
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

// choiceFromArgs builds a Choice from the one resolve_pending argument set.
func choiceFromArgs(request mcp.CallToolRequest) (game.Choice, error) {
	args := request.GetArguments()
	var (
		ch  game.Choice
		set []string
	)
	if _, ok := args["ack"]; ok {
		ch.Ack = request.GetBool("ack", false)
		set = append(set, "ack")
	}
	if _, ok := args["target"]; ok {
		ch.Target = request.GetString("target", "")
		set = append(set, "target")
	}
	if _, ok := args["card_id"]; ok {
		ch.CardID = request.GetInt("card_id", 0)
		set = append(set, "card_id")
	}
	if _, ok := args["allocation"]; ok {
		ps, err := net.ParseAllocation(request.GetString("allocation", ""))
		if err != nil {
			return game.Choice{}, err
		}
		ch.Allocation = &ps
		set = append(set, "allocation")
	}
	if _, ok := args["system"]; ok {
		sys, err := game.ParseSystem(request.GetString("system", ""))
		if err != nil {
			return game.Choice{}, err
		}
		ch.System = &sys
		set = append(set, "system")
	}
	if _, ok := args["option"]; ok {
		n := request.GetInt("option", 0)
		if n < 1 {
			return game.Choice{}, errOption
		}
		ch.Option = game.Option(n - 1)
		set = append(set, "option")
	}
	if _, ok := args["direction"]; ok {
		ch.Direction = request.GetInt("direction", 0)
		set = append(set, "direction")
	}

	switch len(set) {
	case 0:
		return game.Choice{}, errNoChoice
	case 1:
		return ch, nil
	}
	return game.Choice{}, errManyChoices
}
