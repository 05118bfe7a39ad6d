package main

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/peterkuimelis/starwake/internal/mcp"
	starsync "github.com/peterkuimelis/starwake/internal/sync"
)

func newMCPCmd(a *app) *cobra.Command {
	var f tableFlags
	var seat string
	var host bool
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve a seat as MCP tools on stdio",
		Long: `Connect a seat to the relay and expose it to an MCP client over stdio.
The tools are get_state, dispatch_action, resolve_pending and wait_for_turn.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, client, err := a.connect(ctx, &f, seat)
			if err != nil {
				return err
			}
			defer client.Close()

			seatTools := mcp.NewSeat()
			opts := a.sessionOptions(seat, host)
			opts.OnChange = seatTools.Notify
			opts.OnGameOver = seatTools.GameOver
			session := starsync.NewSession(e, client, opts)
			seatTools.Bind(session)
			go a.runSession(ctx, session)
			if host {
				if err := session.Start(ctx); err != nil {
					return fmt.Errorf("send first snapshot: %w", err)
				}
			}

			s := server.NewMCPServer("starwake", version)
			mcp.RegisterTools(s, seatTools)
			return server.ServeStdio(s)
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&seat, "player", "", "player id this seat plays")
	cmd.Flags().BoolVar(&host, "host", false, "act as the authoritative host")
	_ = cmd.MarkFlagRequired("player")
	_ = cmd.MarkFlagRequired("game")
	return cmd
}
