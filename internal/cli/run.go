package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bachbot/internal/publisher"
	"bachbot/internal/scheduler"
	"bachbot/internal/util"

	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Test the connection, then post one random work",
		Long: `Run the bot once: verify the Mastodon credentials and, if that works,
post a randomly chosen BWV number.

Exit status is 0 when a post was made or when credentials are not configured
yet, and 1 when the instance could not be reached or rejected the request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.bot().Run(cmd.Context())
			switch {
			case res.Posted:
				return nil
			case res.Kind() == publisher.KindCredentials:
				fmt.Fprintln(a.stdout, "Please configure your Mastodon credentials in "+a.configPath())
				return nil
			default:
				return res.Err
			}
		},
	}
}

func (a *app) invoker() (*scheduler.Invoker, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate bachbot executable: %w", err)
	}
	// The child logs to the console only: its output is captured and written
	// to the log file by this process.
	command := []string{exe, "run", "--config", a.configPath(), "--log-file="}
	return scheduler.NewInvoker(command, "", a.logger), nil
}

func newInvokeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "invoke",
		Short: "Run the bot once in a child process and log its exit status",
		Long: `Start "bachbot run" as a child process, capture its output, and log start,
completion, or failure with timestamps. Meant to be called from cron or a
systemd timer; it keeps no record of previous runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := a.invoker()
			if err != nil {
				return err
			}
			return scheduler.Run(cmd.Context(), "", inv, false, a.logger)
		},
	}
}

func newScheduleCmd(a *app) *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Invoke the bot on a cron schedule until interrupted",
		Long: `Keep running and invoke the bot on every tick of a cron expression, for
hosts without an external scheduler. The expression comes from --cron or,
if unset, from schedule.cron_spec in the config file.

Examples:

  bachbot schedule --cron "0 9 * * *"
  bachbot schedule --cron "@daily" --now`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := a.v.GetString("cron")
			if spec == "" {
				cfg, err := a.store().Load()
				if err != nil {
					return err
				}
				spec = cfg.CronSpec()
			}
			if spec == "" {
				return fmt.Errorf("no cron spec: pass --cron or set schedule.cron_spec in %s", a.configPath())
			}
			inv, err := a.invoker()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return scheduler.Run(ctx, spec, inv, runNow, a.logger)
		},
	}
	cmd.Flags().String("cron", "", "cron expression, e.g. \"0 9 * * *\" (env BACHBOT_CRON)")
	cmd.Flags().BoolVar(&runNow, "now", false, "also invoke once immediately")
	a.bind(cmd.Flags(), "cron")
	return cmd
}

func newPreviewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Print a composed post without publishing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			post, err := a.bot().Preview()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "BWV Number: %d\n", post.Entry.ID)
			fmt.Fprintf(a.stdout, "YouTube URL: %s\n", post.URL)
			fmt.Fprintf(a.stdout, "Post Text:\n%s\n", post.Text)
			return nil
		},
	}
}

func newTestConnectionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "test-connection",
		Short: "Check the configured Mastodon credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ident, err := a.bot().TestConnection(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s Connected to Mastodon as: @%s\n", util.GreenBold("OK"), ident.Username)
			return nil
		},
	}
}
