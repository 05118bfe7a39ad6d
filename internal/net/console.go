package net

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/peterkuimelis/starwake/internal/game"
	"github.com/peterkuimelis/starwake/internal/log"
	starsync "github.com/peterkuimelis/starwake/internal/sync"
)

// Console is the terminal seat for a human player. Wire its Notify and
// GameOver methods into the session options, then call Run.
type Console struct {
	out     io.Writer
	changes chan struct{}
	over    chan starsync.GameOverSummary
	seenLog int
}

// NewConsole creates a console writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{
		out:     out,
		changes: make(chan struct{}, 1),
		over:    make(chan starsync.GameOverSummary, 1),
	}
}

// Notify marks the view stale. It never blocks.
func (c *Console) Notify(starsync.Envelope) {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

// GameOver queues the final summary for display.
func (c *Console) GameOver(summary starsync.GameOverSummary) {
	select {
	case c.over <- summary:
	default:
	}
}

// Run reads commands from in until quit, EOF, game over or ctx ends.
func (c *Console) Run(ctx context.Context, s *starsync.Session, in io.Reader) error {
	_, err := c.serve(ctx, s, scanLines(ctx, in), false)
	return err
}

// HotSeat shares one terminal between several local seats. Each turn goes
// to the seat host says the game is waiting on.
func (c *Console) HotSeat(ctx context.Context, host *starsync.Session, seats map[string]*starsync.Session, in io.Reader) error {
	lines := scanLines(ctx, in)
	for {
		var next string
		host.View(func(e *game.Engine) {
			next = WaitingOn(BuildStateView(e, "", 0))
		})
		s, ok := seats[next]
		if !ok {
			return fmt.Errorf("no local seat for %s", next)
		}
		fmt.Fprintf(c.out, "\n──── %s to act ────\n", next)
		handedOff, err := c.serve(ctx, s, lines, true)
		if err != nil || !handedOff {
			return err
		}
	}
}

func scanLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// serve runs the command loop for one seat. With handoff set it also
// returns, reporting true, once the seat no longer has to act.
func (c *Console) serve(ctx context.Context, s *starsync.Session, lines <-chan string, handoff bool) (bool, error) {
	c.refresh(s, true)
	for {
		c.prompt(s)
		select {
		case <-ctx.Done():
			return false, nil
		case summary := <-c.over:
			c.refresh(s, false)
			renderGameOver(c.out, summary)
			return false, nil
		case <-c.changes:
			c.refresh(s, false)
		case line, ok := <-lines:
			if !ok {
				return false, nil
			}
			quit, err := c.exec(ctx, s, line)
			if err != nil || quit {
				return false, err
			}
			if handoff && !mustAct(c.view(s, 0)) {
				return true, nil
			}
		}
	}
}

// exec runs one line. Only transport failures are returned as errors.
func (c *Console) exec(ctx context.Context, s *starsync.Session, line string) (bool, error) {
	cmd, err := ParseCommand(line)
	if errors.Is(err, ErrEmptyCommand) {
		return false, nil
	}
	if err != nil {
		fmt.Fprintln(c.out, err)
		return false, nil
	}

	switch cmd.Verb {
	case CmdQuit:
		return true, nil
	case CmdHelp:
		fmt.Fprintln(c.out, Help)
	case CmdState:
		renderState(c.out, c.view(s, 0))
	case CmdLog:
		sv := c.view(s, 20)
		for _, e := range sv.Log {
			fmt.Fprintln(c.out, log.FormatEntry(e))
		}
	case CmdAction:
		rejected, err := s.Apply(ctx, cmd.Action)
		if err != nil {
			return false, err
		}
		if rejected != nil {
			fmt.Fprintf(c.out, "rejected: %v\n", rejected)
			return false, nil
		}
		c.refresh(s, true)
	}
	return false, nil
}

func (c *Console) view(s *starsync.Session, logTail int) *StateView {
	var sv *StateView
	s.View(func(e *game.Engine) {
		sv = BuildStateView(e, s.PeerID(), logTail)
	})
	return sv
}

// refresh prints log entries not yet shown and, when the player must act or
// force is set, the board.
func (c *Console) refresh(s *starsync.Session, force bool) {
	var (
		entries []log.Entry
		sv      *StateView
	)
	s.View(func(e *game.Engine) {
		gs := e.Export()
		if c.seenLog > len(gs.Log) {
			// A snapshot replaced the log; show only what follows.
			c.seenLog = len(gs.Log)
		}
		entries = slices.Clone(gs.Log[c.seenLog:])
		c.seenLog = len(gs.Log)
		sv = BuildStateView(e, s.PeerID(), 0)
	})
	for _, e := range entries {
		fmt.Fprintln(c.out, log.FormatEntry(e))
	}
	if force || mustAct(sv) {
		renderState(c.out, sv)
	}
}

func (c *Console) prompt(s *starsync.Session) {
	sv := c.view(s, 0)
	if mustAct(sv) {
		fmt.Fprint(c.out, "> ")
	}
}

// mustAct reports whether the viewer is the one the game is waiting on.
func mustAct(sv *StateView) bool {
	return !sv.GameOver && WaitingOn(sv) == sv.You
}

// WaitingOn returns the player who must act next: the owner of the pending
// decision, else the current player.
func WaitingOn(sv *StateView) string {
	if sv.Pending != nil {
		return sv.Pending.Player
	}
	return sv.Current
}

func renderState(w io.Writer, sv *StateView) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "╔══════════════════════════════════════════════════════╗")

	fmt.Fprint(w, "║  Track: ")
	for _, lv := range sv.Track {
		fmt.Fprintf(w, "%d%s ", lv.Location, formatMission(lv.Mission))
	}
	fmt.Fprintln(w)
	for _, st := range sv.Market {
		fmt.Fprintf(w, "║  Station %d (tier %d @%d): ", st.Station, st.Tier, st.Location)
		for _, stack := range st.Stacks {
			fmt.Fprintf(w, "%d%s ", stack.Index+1, formatStack(stack))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "║──────────────────────────────────────────────────────")

	for _, p := range sv.Players {
		marker := " "
		if p.ID == sv.Current {
			marker = "*"
		}
		fmt.Fprintf(w, "║ %s%s (%s) @%d  Fame: %d  Credits: %d  Hazards: %d\n",
			marker, p.Name, p.Captain, p.Location, p.Fame, p.Credits, p.Hazards)
		fmt.Fprintf(w, "║    Power: %s  Moves: %d  Plays: %d  Hand: %d  Deck: %d  Discard: %d\n",
			formatPower(p.Power), p.Moves, p.PlaysLeft, p.HandCount, p.DeckCount, p.DiscardCount)
		if len(p.Installations) > 0 || len(p.Gear) > 0 {
			fmt.Fprint(w, "║    Installed:")
			for _, s := range game.Systems {
				if c, ok := p.Installations[s.String()]; ok {
					fmt.Fprintf(w, " %s=%s", s, c.Name)
				}
				if g, ok := p.Gear[s.String()]; ok {
					fmt.Fprintf(w, " %s=[%s]", s, g)
				}
			}
			fmt.Fprintln(w)
		}
	}
	fmt.Fprintln(w, "╚══════════════════════════════════════════════════════╝")

	turnInfo := fmt.Sprintf("Turn %d | %s", sv.Turn, sv.Phase)
	if sv.IsYourTurn {
		turnInfo += " | Your turn"
	} else {
		turnInfo += " | Waiting for " + sv.Current
	}
	if sv.CanUndo {
		turnInfo += " | undo available"
	}
	fmt.Fprintln(w, turnInfo)

	for _, p := range sv.Players {
		if p.ID != sv.You || len(p.Hand) == 0 {
			continue
		}
		fmt.Fprint(w, "\nHand: ")
		for _, c := range p.Hand {
			fmt.Fprintf(w, "[#%d] %s  ", c.ID, c.Name)
		}
		fmt.Fprintln(w)
	}

	if pv := sv.Pending; pv != nil {
		renderPending(w, pv)
	}
}

func renderPending(w io.Writer, pv *PendingView) {
	fmt.Fprintf(w, "\nPending %s for %s (%s)", pv.Kind, pv.Player, pv.Source)
	if pv.Amount > 0 {
		fmt.Fprintf(w, ": allocate %d", pv.Amount)
	}
	fmt.Fprintln(w)
	for _, c := range pv.Candidates {
		fmt.Fprintf(w, "  #%d %s\n", c.ID, c.Name)
	}
	if len(pv.Targets) > 0 {
		fmt.Fprintf(w, "  targets: %s\n", strings.Join(pv.Targets, ", "))
	}
	for i, o := range pv.Options {
		fmt.Fprintf(w, "  %d) %s\n", i+1, o)
	}
}

func renderGameOver(w io.Writer, summary starsync.GameOverSummary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════")
	fmt.Fprintln(w, "          GAME OVER")
	fmt.Fprintln(w, "═══════════════════════════════════")
	fmt.Fprintf(w, "Winner: %s\n", summary.WinnerName)
	for _, st := range summary.Stats {
		fmt.Fprintf(w, "%d. %-12s fame %3d  hazards %d  missions %d  credits %d\n",
			st.Rank, st.Name, st.Fame, st.Hazards, st.Missions, st.Credits)
	}
	fmt.Fprintln(w, "═══════════════════════════════════")
}

func formatMission(mv *MissionView) string {
	switch {
	case mv == nil:
		return "[ ]"
	case !mv.Revealed:
		return "[?]"
	case mv.Requires == nil:
		return "[" + mv.Name + "]"
	}
	return fmt.Sprintf("[%s %s +%d]", mv.Name, formatPower(*mv.Requires), mv.Fame)
}

func formatStack(sv StackView) string {
	switch {
	case sv.Count == 0:
		return "[ ]"
	case !sv.Revealed || sv.Top == nil:
		return fmt.Sprintf("[?x%d]", sv.Count)
	}
	return fmt.Sprintf("[%s $%d x%d]", sv.Top.Name, sv.Top.Cost, sv.Count)
}

func formatPower(p game.PowerState) string {
	return fmt.Sprintf("W%d C%d E%d L%d", p.Weapons, p.Computers, p.Engines, p.Logistics)
}
