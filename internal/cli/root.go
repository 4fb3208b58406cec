package cli

import (
	"context"
	"io"
	"log"
	"os"
	"strings"

	"bachbot/internal/config"
	"bachbot/internal/logfile"
	"bachbot/internal/publisher"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "config.json"
	defaultLogPath    = "bach_bot.log"
)

type app struct {
	v       *viper.Viper
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	logger  *log.Logger
	logSink io.WriteCloser
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(os.Stdin, os.Stdout, os.Stderr)
}

func NewRootCommandWithIO(in io.Reader, out, errOut io.Writer) *cobra.Command {
	return newRootCommand(in, out, errOut)
}

// Execute runs the command tree against the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func newRootCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	return newApp(in, out, errOut).command()
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	v := viper.New()
	v.SetEnvPrefix("BACHBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return &app{v: v, stdin: in, stdout: out, stderr: errOut}
}

func (a *app) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bachbot",
		Short:         "Post a random Bach work to Mastodon",
		Long:          "bachbot posts a randomly chosen BWV number with a YouTube search link to a Mastodon account, and serves a small dashboard to configure and trigger it.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.setupLogging()
		},
	}
	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	cmd.PersistentFlags().String("config", defaultConfigPath, "path to the JSON config file (env BACHBOT_CONFIG)")
	cmd.PersistentFlags().String("log-file", defaultLogPath, "log file to append to, empty for console only (env BACHBOT_LOG_FILE)")
	a.bind(cmd.PersistentFlags(), "config", "log-file")

	cmd.AddCommand(
		newRunCmd(a),
		newInvokeCmd(a),
		newScheduleCmd(a),
		newServeCmd(a),
		newPreviewCmd(a),
		newTestConnectionCmd(a),
		newSetupCmd(a),
	)
	for _, sub := range cmd.Commands() {
		a.closeLogsAfter(sub)
	}
	return cmd
}

// closeLogsAfter releases the log file once c returns, whether or not it
// failed. Cobra skips PersistentPostRun after an error.
func (a *app) closeLogsAfter(c *cobra.Command) {
	run := c.RunE
	if run == nil {
		return
	}
	c.RunE = func(cmd *cobra.Command, args []string) error {
		defer a.closeLogging()
		return run(cmd, args)
	}
}

// bind makes the named flags visible to viper under the same keys, so
// BACHBOT_* environment variables can stand in for them.
func (a *app) bind(fs *pflag.FlagSet, names ...string) {
	for _, name := range names {
		_ = a.v.BindPFlag(name, fs.Lookup(name))
	}
}

func (a *app) configPath() string { return a.v.GetString("config") }

func (a *app) logPath() string { return a.v.GetString("log-file") }

func (a *app) setupLogging() {
	w := a.stdout
	if path := a.logPath(); path != "" {
		a.logSink = logfile.Open(path)
		w = io.MultiWriter(a.stdout, a.logSink)
	}
	a.logger = log.New(w, "", log.LstdFlags)
	log.SetFlags(log.LstdFlags)
	log.SetOutput(w)
}

func (a *app) closeLogging() {
	if a.logSink != nil {
		a.logSink.Close()
		a.logSink = nil
		log.SetOutput(a.stdout)
	}
}

func (a *app) store() *config.Store {
	return config.NewStore(a.configPath(), a.logger)
}

func (a *app) bot() *publisher.Bot {
	return publisher.NewBot(a.store(), nil, a.logger)
}
