// Command tally imports bank exports into profiles and reports on them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"tally/internal/cli"
	"tally/internal/log"
)

const usage = `usage: tally <command> [flags]

commands:
  import   -profile P -source S     fetch S and merge it into P
  summary  -profile P               totals, date range and monthly rollup
  export   -profile P [filters]     write the matching rows as CSV
  defs     import|list -profile P   manage custom summary definitions
  hours    -profile P [-entity E] [-reason R]
  check    -file F                  inspect a file without storing it
`

var errUsage = errors.New("invalid usage")

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(log.ComponentCLI)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, logger, os.Args[1], os.Args[2:], os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	default:
		logger.Error("Command failed", "command", os.Args[1], log.FieldError, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *log.Logger, name string, args []string, out io.Writer) error {
	if name == "check" {
		return runCheck(args, out)
	}
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}

	cfg := cli.LoadAndValidateConfig(logger)
	app, err := cli.NewApp(ctx, logger, cfg, cli.OperatorSources)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			logger.Warn("Failed to release resources", log.FieldError, cerr)
		}
	}()

	return cmd(ctx, app.Service, args, out)
}
