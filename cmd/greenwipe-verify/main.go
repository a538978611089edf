package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MK-codes365/greenwipe/internal/client"
	"github.com/MK-codes365/greenwipe/internal/poller"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	exitAnchored  = 0
	exitFailed    = 1
	exitUsage     = 2
	exitNotFound  = 3
	exitTimedOut  = 4
	exitCancelled = 130
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("greenwipe-verify", flag.ContinueOnError)
	fs.SetOutput(stderr)

	server := fs.StringP("server", "s", "http://localhost:8000", "GreenWipe server URL")
	token := fs.String("token", "", "Bearer token sent with every request")
	interval := fs.Duration("interval", poller.DefaultConfig().Interval, "Re-verification interval while anchoring")
	maxWait := fs.Duration("max-wait", poller.DefaultConfig().MaxWait, "Give up when anchoring is not confirmed within this time")
	maxErrors := fs.Int("max-errors", poller.DefaultConfig().MaxConsecutiveErrors, "Consecutive verification errors before giving up")
	timeout := fs.Duration("request-timeout", 10*time.Second, "Timeout of each HTTP request")
	verbose := fs.BoolP("verbose", "v", false, "Log requests and retries")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: greenwipe-verify [flags] CERTIFICATE_ID\n\n")
		fmt.Fprintf(stderr, "Verifies a wipe certificate and waits until it is anchored.\n\nFlags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitAnchored
		}
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}
	id := fs.Arg(0)

	logger := newLogger(stderr, *verbose)
	defer logger.Sync()

	api := client.New(*server, *timeout)
	if *token != "" {
		api.SetToken(*token)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := poller.New(api, poller.Config{
		Interval:             *interval,
		MaxWait:              *maxWait,
		MaxConsecutiveErrors: *maxErrors,
	}, printer(stdout), logger)

	outcome, err := p.Run(ctx, id)
	if outcome == nil {
		fmt.Fprintf(stderr, "cancelled: %v\n", err)
		return exitCancelled
	}
	return exitCode(outcome.State)
}

func exitCode(state poller.State) int {
	switch state {
	case poller.FoundAnchored:
		return exitAnchored
	case poller.NotFound:
		return exitNotFound
	case poller.TimedOut:
		return exitTimedOut
	default:
		return exitFailed
	}
}

func printer(w io.Writer) poller.Observer {
	return func(t poller.Transition) {
		line := t.State.String()
		if t.Message != "" {
			line += ": " + t.Message
		}
		if t.State == poller.FoundAnchored && t.Certificate != nil && t.Certificate.TransactionID != nil {
			line += fmt.Sprintf(" (transaction %s)", *t.Certificate.TransactionID)
		}
		fmt.Fprintln(w, line)
	}
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), level))
}
