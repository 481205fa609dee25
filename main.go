package main

import (
	"log"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"quoter/collections"
	"quoter/commands"
	"quoter/config"
	"quoter/handlers"
	"quoter/obs"
	"quoter/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel)
	if _, err := cfg.RequireGeminiKey(); err != nil {
		logger.Warn().Err(err).Msg("PDF extraction disabled until GEMINI_API_KEY is set")
	}

	app := pocketbase.New()
	app.RootCmd.AddCommand(commands.NewQuoteCommand(cfg, logger))

	deps := handlers.QuoteDeps{
		Config:    cfg,
		Extractor: services.NewGeminiExtractor(cfg, logger),
		Log:       logger,
	}

	// Create collections on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		quotes := se.Router.Group("/quotes")
		quotes.BindFunc(handlers.RequestLogger(logger))

		// ── Table producers ──────────────────────────────────────
		quotes.POST("/extract", handlers.HandleQuoteExtract(app, deps))
		quotes.GET("/manual", handlers.HandleQuoteManual())

		// ── Generation ───────────────────────────────────────────
		quotes.POST("/generate", handlers.HandleQuoteGenerate(app, deps))

		// ── Artifacts ────────────────────────────────────────────
		quotes.GET("/{id}/pdf", handlers.HandleQuoteDownload(app, deps, "pdf"))
		quotes.GET("/{id}/excel", handlers.HandleQuoteDownload(app, deps, "excel"))
		quotes.GET("/{id}/preview", handlers.HandleQuotePreview(app, deps))

		se.Router.GET("/", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/quotes/manual")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
