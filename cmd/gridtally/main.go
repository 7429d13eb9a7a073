package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gridtally/gridtally/pkg/common"
	"github.com/gridtally/gridtally/pkg/grid"
	"github.com/gridtally/gridtally/pkg/log"
	"github.com/gridtally/gridtally/pkg/metering"
	"github.com/gridtally/gridtally/pkg/report"
	"github.com/gridtally/gridtally/pkg/summary"

	"github.com/levenlabs/go-lflag"
)

func main() {
	// init packages
	client := common.ConfiguredHTTPClient()
	m := metering.Configured(client)
	g := grid.Configured(client)
	s := summary.Configured(m, g)

	// parse flags
	lflag.Configure()

	// lflag automatically sets llog's level, but we need to set the slog level
	if err := log.ConfigureFromLLog(); err != nil {
		panic(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	log.Ctx(ctx).DebugContext(ctx, "starting", slog.String("version", common.Version()))

	res, err := s.Summarize(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "summarize failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := report.NewWriter(os.Stdout).Write(res); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to print report", slog.Any("error", err))
		os.Exit(1)
	}
}
