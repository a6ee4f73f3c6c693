package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/avstrong/resortslots/internal/booking"
	"github.com/avstrong/resortslots/internal/config"
	"github.com/avstrong/resortslots/internal/gateway"
	"github.com/avstrong/resortslots/internal/idgen/random"
	"github.com/avstrong/resortslots/internal/logger"
	"github.com/avstrong/resortslots/internal/storage/memory"
	"github.com/avstrong/resortslots/internal/tracing"
	"github.com/avstrong/resortslots/internal/transport/web"
)

func Run(conf *config.Config, l *logger.Logger) error {
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGHUP,
	)
	defer cancel()

	shutdownTracing, err := tracing.Setup(conf.ServiceName, conf.JaegerEndpoint)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	resortNow := func() time.Time {
		return time.Now().In(conf.Location)
	}

	gw := gateway.New(gateway.Conf{
		L:          l,
		BaseURL:    conf.APIURL,
		Timeout:    conf.GatewayTimeout,
		MaxRetries: conf.GatewayMaxRetries,
		Backoff:    conf.GatewayBackoff,
	})

	bookManager := booking.New(l, gw)

	storage := memory.New(memory.Config{L: l, TTL: conf.PickerTTL})
	go storage.RunJanitor(ctx, min(conf.PickerTTL, time.Minute))

	webConf := web.Conf{
		L:                 l,
		ServerLogger:      l.StdLog(),
		Host:              conf.Host,
		Port:              conf.Port,
		ReadHeaderTimeout: conf.ReadHeaderTimeout,
		RequestTimeout:    conf.GatewayTimeout * time.Duration(conf.GatewayMaxRetries+1),
		LivenessEndpoint:  conf.LivenessEndpoint,
		Now:               resortNow,
	}

	srv, err := web.New(ctx, webConf, bookManager, gw, storage, random.New())
	if err != nil {
		return fmt.Errorf("init http server: %w", err)
	}

	//nolint:contextcheck
	go func() {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*4) //nolint:gomnd
		defer cancel()

		if err := srv.Srv().Shutdown(ctx); err != nil {
			l.LogErrorf("Failed to stop http server: %v", err.Error())
		}
	}()

	l.LogInfo("Application is running on %v:%v, resort API at %v...", webConf.Host, webConf.Port, conf.APIURL)

	if err := srv.Srv().ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		l.LogErrorf("Failed to run http server: %v", err.Error())

		cancel()
	}

	tctx, tcancel := context.WithTimeout(context.Background(), time.Second*4) //nolint:gomnd
	defer tcancel()

	if err := shutdownTracing(tctx); err != nil {
		l.LogErrorf("Failed to flush traces: %v", err.Error())
	}

	l.LogInfo("Application stopped gracefully")

	return nil
}
