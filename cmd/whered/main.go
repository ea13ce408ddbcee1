package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/where/internal/logging"
	"github.com/danmuck/where/internal/protocol"
	"github.com/danmuck/where/internal/responder"
	"github.com/danmuck/where/internal/sessions"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

const service = "whered"

var defaultListen = fmt.Sprintf("0.0.0.0:%d", protocol.DefaultPort)

func main() {
	logging.ConfigureRuntime(service)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", service, err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet(service, pflag.ContinueOnError)
	listen := flags.StringP("listen-addr", "l", defaultListen, "UDP address to answer probes on")
	utmpPath := flags.String("utmp", sessions.DefaultPath, "utmp file listing login sessions")
	adminAddr := flags.String("admin-addr", "", "serve /health and /metrics over HTTP on this address")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	srv, err := responder.Listen(*listen, sessions.NewUtmp(*utmpPath))
	if err != nil {
		return err
	}
	defer srv.Close()

	if addr, ok := srv.Addr().(*net.UDPAddr); ok {
		log.Info().Msgf("Now listening on %s port %d/udp", addr.IP, addr.Port)
	}

	if *adminAddr != "" {
		admin := responder.NewAdmin(service, srv.Addr().String())
		go func() {
			if err := admin.Serve(ctx, *adminAddr); err != nil {
				log.Error().Err(err).Str("addr", *adminAddr).Msg("admin server stopped")
			}
		}()
		log.Info().Str("addr", *adminAddr).Msg("admin endpoints enabled")
	}

	return srv.Serve(ctx)
}
