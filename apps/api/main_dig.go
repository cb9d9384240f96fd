package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"

	dig_container "github.com/trezcool/masomo-certs/apps/api/di/dig"
	echoapi "github.com/trezcool/masomo-certs/apps/api/echo"
	"github.com/trezcool/masomo-certs/core"
	"github.com/trezcool/masomo-certs/core/certificate"
	logsvc "github.com/trezcool/masomo-certs/services/logger"
)

func startWithDig() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		storageLoggerParam dig_container.StorageLoggerParam,
		certSvc *certificate.Service,
		closeStore dig_container.StoreCloser,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

		storageLogger := storageLoggerParam.Logger
		defer func() {
			if err := closeStore(); err != nil {
				storageLogger.Error(fmt.Sprintf("failed to close local storage: %v", err), err)
			}
		}()
		defer closeLogger(apiLogger)
		defer apiLogger.Info("Application stopped")

		if conf.Storage.MaxAge > 0 {
			removed, err := certSvc.Prune(context.Background(), conf.Storage.MaxAge)
			if err != nil {
				storageLogger.Error(fmt.Sprintf("pruning local storage: %v", err), err)
			} else if removed > 0 {
				storageLogger.Info(fmt.Sprintf("%d stale local storage entries removed", removed))
			}
		}

		// =========================================================================
		// Start Debug Service
		//
		// /debug/vars - Added to the default mux by importing the expvar package.

		if conf.Server.DebugAddress != "" {
			// Expose important info under /debug/vars.
			expvar.NewString("build").Set(conf.Build)
			expvar.NewString("env").Set(conf.Env)
			expvar.NewString("storage").Set(conf.Storage.Engine)

			go func() {
				if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
					apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
				}
			}()
		}

		// =========================================================================
		// Start API Service

		go func() {
			apiLogger.Info(fmt.Sprintf("API listening on %s", conf.Server.Address))
			server.Start()
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			apiLogger.Error(fmt.Sprintf("server error: %v", err), err)

		case sig := <-server.ShutdownSignal():
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			// asking listener to shut down and shed load
			if err := server.Shutdown(ctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					apiLogger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
		}
	}))
}

// closeLogger flushes pending reports of loggers that buffer them.
func closeLogger(logger core.Logger) {
	if l, ok := logger.(*logsvc.RollbarLogger); ok {
		l.Close()
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
