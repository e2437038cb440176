package main

import (
	"log"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/sluicelabs/sluice/internal/api"
	"github.com/sluicelabs/sluice/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dispatcher over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			return err
		}

		d, store, err := newDispatcher(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		stager, err := newStager(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		router := chi.NewMux()
		router.Use(middleware.Logger)
		router.Use(middleware.Recoverer)

		humaAPI := humachi.New(router, huma.DefaultConfig("Sluice", "1.0.0"))
		api.Register(humaAPI, &api.Services{
			Dispatcher: d,
			Builder:    newBuilder(cfg, store),
			Stager:     stager,
		})

		addr := ":" + cfg.ServerPort
		log.Printf("sluice API listening on %s", addr)
		return http.ListenAndServe(addr, router)
	},
}
