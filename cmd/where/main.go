package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/where/internal/client"
	"github.com/danmuck/where/internal/config"
	"github.com/danmuck/where/internal/logging"
	"github.com/danmuck/where/internal/ui"
	"github.com/spf13/pflag"
)

func main() {
	logging.ConfigureRuntime("where")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "where: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("where", pflag.ContinueOnError)
	generate := flags.BoolP("generate-config", "c", false, "write a default "+config.FileName+" and exit")
	path := flags.String("config", "", "read this config file instead of searching the default locations")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if *generate {
		written, err := config.GenerateDefault(config.Locations())
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "where: Generated default configuration file at %s. Please edit it and run 'where' again.\n", written)
		return nil
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		return err
	}

	res, err := client.Run(ctx, client.New(), cfg.Targets(), cfg.Defaults())
	if err != nil {
		return err
	}
	return ui.Render(stdout, res.Sessions, ui.Options{
		IncludeInactive: cfg.Global.IncludeInactive,
		Source:          cfg.Global.Source,
	})
}

func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg, err := config.Discover(config.Locations())
	var nf *config.NotFoundError
	if errors.As(err, &nf) {
		return config.Config{}, fmt.Errorf("%w\nPass -c to generate a default config file.", err)
	}
	return cfg, err
}
