package scheduler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"bachbot/internal/metrics"
	"bachbot/internal/util"

	"github.com/robfig/cron/v3"
)

const scheduleTagText = "[SCHEDULE]"

const timestampLayout = "2006-01-02 15:04:05"

// Outcome describes one child run.
type Outcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Started  time.Time
	Duration time.Duration
	// Err is set when the child could not be started or waited on. A non-zero
	// exit alone leaves it nil.
	Err error
}

func (o Outcome) OK() bool { return o.Err == nil && o.ExitCode == 0 }

// Job is anything the cron loop can fire.
type Job interface {
	Invoke(ctx context.Context) Outcome
}

// Invoker runs the bot once in a child process and logs how it went. It
// keeps no state between runs.
type Invoker struct {
	Command []string
	Dir     string
	Env     []string
	Logger  *log.Logger
}

func NewInvoker(command []string, dir string, logger *log.Logger) *Invoker {
	if logger == nil {
		logger = log.Default()
	}
	return &Invoker{Command: command, Dir: dir, Logger: logger}
}

func stamp(t time.Time) string {
	return util.Gray("[" + t.Format(timestampLayout) + "]")
}

func (inv *Invoker) Invoke(ctx context.Context) Outcome {
	logger := inv.Logger
	if logger == nil {
		logger = log.Default()
	}
	out := Outcome{Started: time.Now()}
	if len(inv.Command) == 0 {
		out.Err = errors.New("no command configured")
		out.ExitCode = -1
		logger.Printf("%s %s Error running Bach Bot: %v", stamp(out.Started), util.RedBold("!!! ERROR"), out.Err)
		metrics.InvocationsTotal.WithLabelValues("error").Inc()
		return out
	}

	logger.Printf("%s Running Bach Bot...", stamp(out.Started))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, inv.Command[0], inv.Command[1:]...)
	cmd.Dir = inv.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}

	err := cmd.Run()
	out.Duration = time.Since(out.Started)
	out.Stdout = stdout.String()
	out.Stderr = stderr.String()
	metrics.InvocationDuration.Observe(out.Duration.Seconds())

	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
		logger.Printf("%s %s with return code %s", stamp(time.Now()),
			util.RedBold("Bach Bot failed"), util.Yellow(strconv.Itoa(out.ExitCode)))
		// The child logs to stdout, so the reason for the failure is usually
		// there rather than on stderr.
		if s := strings.TrimRight(out.Stdout, "\n"); s != "" {
			logger.Printf("Output: %s", s)
		}
		if s := strings.TrimRight(out.Stderr, "\n"); s != "" {
			logger.Printf("Error: %s", s)
		}
		metrics.InvocationsTotal.WithLabelValues("failed").Inc()
	case err != nil:
		out.Err = err
		out.ExitCode = -1
		logger.Printf("%s %s Error running Bach Bot: %v", stamp(time.Now()), util.RedBold("!!! ERROR"), err)
		metrics.InvocationsTotal.WithLabelValues("error").Inc()
	default:
		logger.Printf("%s %s %s", stamp(time.Now()), util.GreenBold("Bach Bot completed successfully"),
			util.Gray(fmt.Sprintf("(took %s)", out.Duration.Round(time.Millisecond))))
		logger.Printf("Output: %s", strings.TrimRight(out.Stdout, "\n"))
		metrics.InvocationsTotal.WithLabelValues("success").Inc()
	}
	return out
}

// Run invokes job once when cronSpec is empty. Otherwise it fires job on
// every tick of cronSpec until ctx is done; a tick is skipped while the
// previous run is still going.
func Run(ctx context.Context, cronSpec string, job Job, runAtStart bool, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}
	schedulerTagColored := util.YellowBold(scheduleTagText)

	if strings.TrimSpace(cronSpec) == "" {
		logger.Println(util.BlueBold("--- Single Run Mode ---"))
		if out := job.Invoke(ctx); !out.OK() {
			if out.Err != nil {
				return out.Err
			}
			return fmt.Errorf("bot exited with code %d", out.ExitCode)
		}
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(cronSpec, func() {
		runStartTime := time.Now()
		dayWithSuffix := strconv.Itoa(runStartTime.Day()) + util.GetOrdinalSuffix(runStartTime.Day())
		logger.Printf("%s ----- Scheduled Run Starting (%s %s %d at %s) -----",
			schedulerTagColored, dayWithSuffix, runStartTime.Month().String(), runStartTime.Year(), runStartTime.Format("15:04"))
		out := job.Invoke(ctx)
		logger.Printf("%s ----- Scheduled Run Finished (%s, Duration: %s) -----",
			schedulerTagColored,
			util.Iif(out.OK(), util.Green("ok"), util.Red("failed")),
			time.Since(runStartTime).Round(time.Millisecond))
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", cronSpec, err)
	}

	logger.Println(util.BlueBold("--- Scheduler Mode ---"))
	logger.Printf("%s Cron Spec: %s.", schedulerTagColored, util.Yellow(cronSpec))
	if runAtStart {
		logger.Printf("%s Performing initial run...", schedulerTagColored)
		job.Invoke(ctx)
	}

	c.Start()
	if entries := c.Entries(); len(entries) > 0 {
		logger.Printf("%s Scheduler active. Next run at %s.", schedulerTagColored, entries[0].Next.Format(timestampLayout))
	}
	<-ctx.Done()
	<-c.Stop().Done()
	logger.Printf("%s Scheduler stopped.", schedulerTagColored)
	return nil
}
