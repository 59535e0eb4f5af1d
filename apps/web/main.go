package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/jmoiron/sqlx"
	"go.uber.org/dig"

	"github.com/simplesis/simplesis/apps/web/di/dig"
	"github.com/simplesis/simplesis/apps/web/echo"
	"github.com/simplesis/simplesis/core"
)

type appParams struct {
	dig.In

	Conf     *core.Config
	Logger   core.Logger
	DBLogger core.Logger `name:"dbLogger"`
	DB       *sqlx.DB
	Server   *echoweb.Server
}

func main() {
	c := dig_container.New()

	must(c.Invoke(func(p appParams) {
		logger := p.Logger

		// =========================================================================
		// Initialize App

		logger.Info(fmt.Sprintf("Application initializing : version %q", p.Conf.Build))
		core.ParseEmailTemplates(p.Conf, logger)

		defer func() {
			if err := p.DB.Close(); err != nil {
				p.DBLogger.Fatal("Failed to close", err)
			}
		}()
		defer logger.Info("Application stopped")

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(p.Conf.Build)
		expvar.NewString("env").Set(p.Conf.Env)

		go func() {
			if err := http.ListenAndServe(p.Conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Start Web Service

		go p.Server.Start()

		// =========================================================================
		// Shutdown

		select {
		case err := <-p.Server.Errors():
			logger.Fatal(fmt.Sprintf("server error: %v", err), err)

		case sig := <-p.Server.ShutdownSignal():
			logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), p.Conf.Server.ShutdownTimeout)
			defer cancel()

			// asking listener to shut down and shed load
			if err := p.Server.Shutdown(ctx); err != nil {
				logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = p.Server.Close(); err != nil {
					logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
