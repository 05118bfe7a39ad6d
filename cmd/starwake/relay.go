package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/peterkuimelis/starwake/internal/net"
	"github.com/peterkuimelis/starwake/internal/store"
)

func newRelayCmd(a *app) *cobra.Command {
	var listen, dbPath string
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run the websocket relay",
		Long: `Run the relay that forwards sync messages between the participants of
each game. The latest host snapshot per game is kept in SQLite and replayed
to anyone who joins later.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen == "" {
				listen = a.cfg.ListenAddr
			}
			if dbPath == "" {
				dbPath = a.cfg.DBPath
			}

			st, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			a.log.Info("checkpoint store ready", "path", dbPath)
			return net.Serve(ctx, listen, net.NewHub(st, a.log))
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides STARWAKE_LISTEN_ADDR)")
	cmd.Flags().StringVar(&dbPath, "db", "", "checkpoint database path (overrides STARWAKE_DB_PATH)")
	return cmd
}

func newCheckpointsCmd(a *app) *cobra.Command {
	var dbPath string
	var drop []string
	cmd := &cobra.Command{
		Use:   "checkpoints",
		Short: "List or delete the relay's saved games",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dbPath == "" {
				dbPath = a.cfg.DBPath
			}
			st, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			for _, id := range drop {
				if err := st.Delete(ctx, id); err != nil {
					return err
				}
				a.log.Info("checkpoint deleted", "game", id)
			}
			ids, err := st.Games(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range ids {
				cp, err := st.Latest(ctx, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s  turn %-3d  by %-10s  %s\n",
					cp.GameID, cp.Turn, cp.SavedBy, cp.UpdatedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "checkpoint database path (overrides STARWAKE_DB_PATH)")
	cmd.Flags().StringSliceVar(&drop, "delete", nil, "game ids to delete before listing")
	return cmd
}
