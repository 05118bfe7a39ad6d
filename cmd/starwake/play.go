package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/peterkuimelis/starwake/internal/game"
	"github.com/peterkuimelis/starwake/internal/net"
	starsync "github.com/peterkuimelis/starwake/internal/sync"
)

// tableFlags describe the game every participant builds locally. The host's
// first snapshot replaces whatever the others built, so only the seating
// has to agree.
type tableFlags struct {
	game    string
	players []string
	seed    int64
	relay   string
}

func (f *tableFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.game, "game", "", "game id (host: generated when empty)")
	cmd.Flags().StringSliceVar(&f.players, "players", nil,
		`seating in turn order as id:name[:captain], e.g. "p1:Ada:navigator,p2:Bo:raider"`)
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "shuffle seed (0 for random)")
	cmd.Flags().StringVar(&f.relay, "relay", "", "relay websocket URL (overrides STARWAKE_RELAY_URL)")
	_ = cmd.MarkFlagRequired("players")
}

// parsePlayers reads id:name[:captain] specs. The captain defaults to
// vanguard.
func parsePlayers(specs []string) ([]game.PlayerSpec, error) {
	players := make([]game.PlayerSpec, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) < 2 || len(parts) > 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("player %q: want id:name[:captain]", spec)
		}
		ps := game.PlayerSpec{ID: parts[0], Name: parts[1], Captain: game.CaptainVanguard}
		if len(parts) == 3 {
			c, err := game.ParseCaptain(parts[2])
			if err != nil {
				return nil, fmt.Errorf("player %s: %w", ps.ID, err)
			}
			ps.Captain = c
		}
		players = append(players, ps)
	}
	return players, nil
}

func (a *app) newEngine(f *tableFlags) (*game.Engine, error) {
	players, err := parsePlayers(f.players)
	if err != nil {
		return nil, err
	}
	cfg := game.Config{GameID: f.game, Players: players, Seed: f.seed}
	if a.cfg.CatalogPath != "" {
		cat, err := game.LoadCatalog(afero.NewOsFs(), a.cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		cfg.Catalog = cat
	}
	return game.NewEngine(cfg)
}

func (a *app) sessionOptions(peerID string, host bool) starsync.Options {
	return starsync.Options{
		PeerID:          peerID,
		Host:            host,
		ResyncInterval:  a.cfg.ResyncInterval,
		DesyncThreshold: a.cfg.DesyncThreshold,
		Logger:          a.log.With("peer", peerID),
	}
}

// runSession pumps peer messages until ctx ends.
func (a *app) runSession(ctx context.Context, s *starsync.Session) {
	if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.log.Error("sync stopped", "peer", s.PeerID(), "error", err)
	}
}

// connect builds the engine and dials the relay for seat.
func (a *app) connect(ctx context.Context, f *tableFlags, seat string) (*game.Engine, *net.Client, error) {
	e, err := a.newEngine(f)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := seatIndex(e, seat); !ok {
		return nil, nil, fmt.Errorf("player %q is not seated in this game", seat)
	}
	relay := f.relay
	if relay == "" {
		relay = a.cfg.RelayURL
	}
	client, err := net.Dial(ctx, relay, e.GameID(), seat)
	if err != nil {
		return nil, nil, err
	}
	a.log.Info("connected to relay", "relay", relay, "game", e.GameID(), "peer", seat)
	return e, client, nil
}

func seatIndex(e *game.Engine, id string) (int, bool) {
	for i, p := range e.Export().Players {
		if p.ID == id {
			return i, true
		}
	}
	return -1, false
}

func newHostCmd(a *app) *cobra.Command {
	var f tableFlags
	var seat string
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Create a game and play its authoritative seat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.play(cmd, &f, seat, true)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&seat, "player", "", "your player id (defaults to the first seat)")
	return cmd
}

func newJoinCmd(a *app) *cobra.Command {
	var f tableFlags
	var seat string
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join a game through the relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.play(cmd, &f, seat, false)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&seat, "player", "", "your player id")
	_ = cmd.MarkFlagRequired("player")
	_ = cmd.MarkFlagRequired("game")
	return cmd
}

// play runs one networked seat on the terminal.
func (a *app) play(cmd *cobra.Command, f *tableFlags, seat string, host bool) error {
	if seat == "" && len(f.players) > 0 {
		seat, _, _ = strings.Cut(f.players[0], ":")
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, client, err := a.connect(ctx, f, seat)
	if err != nil {
		return err
	}
	defer client.Close()

	console := net.NewConsole(cmd.OutOrStdout())
	opts := a.sessionOptions(seat, host)
	opts.OnChange = console.Notify
	opts.OnGameOver = console.GameOver
	session := starsync.NewSession(e, client, opts)
	go a.runSession(ctx, session)

	if host {
		fmt.Fprintf(cmd.OutOrStdout(), "Hosting game %s. Others join with --game %s\n", e.GameID(), e.GameID())
		if err := session.Start(ctx); err != nil {
			return fmt.Errorf("send first snapshot: %w", err)
		}
	}
	return console.Run(ctx, session, cmd.InOrStdin())
}

func newLocalCmd(a *app) *cobra.Command {
	var f tableFlags
	cmd := &cobra.Command{
		Use:   "local",
		Short: "Play every seat from one terminal",
		Long: `Play a hot-seat game. Every seat runs its own engine on an in-process
message bus with the first seat as host, so the game is synchronized exactly
as it is over the relay.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.hotSeat(ctx, &f, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) hotSeat(ctx context.Context, f *tableFlags, in io.Reader, out io.Writer) error {
	players, err := parsePlayers(f.players)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	bus := starsync.NewWatermillBus()
	defer bus.Close()

	console := net.NewConsole(out)
	seats := make(map[string]*starsync.Session, len(players))
	var host *starsync.Session
	for i, p := range players {
		e, err := a.newEngine(f)
		if err != nil {
			return err
		}
		f.game = e.GameID()
		tr, err := bus.Join(ctx, p.ID)
		if err != nil {
			return err
		}
		opts := a.sessionOptions(p.ID, i == 0)
		opts.OnChange = console.Notify
		opts.OnGameOver = console.GameOver
		s := starsync.NewSession(e, tr, opts)
		go a.runSession(ctx, s)
		seats[p.ID] = s
		if i == 0 {
			host = s
		}
	}
	if err := host.Start(ctx); err != nil {
		return fmt.Errorf("send first snapshot: %w", err)
	}
	return console.HotSeat(ctx, host, seats, in)
}
