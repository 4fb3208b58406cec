package cli

import (
	"os"
	"os/signal"
	"syscall"

	"bachbot/internal/dashboard"

	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bot := a.bot()
			srv, err := dashboard.New(bot.Store(), bot, a.logPath(), a.logger)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Start(ctx, a.v.GetString("addr"))
		},
	}
	cmd.Flags().String("addr", "0.0.0.0:5000", "listen address (env BACHBOT_ADDR)")
	a.bind(cmd.Flags(), "addr")
	return cmd
}
