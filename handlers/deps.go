package handlers

import (
	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog"

	"quoter/config"
	"quoter/services"
)

// QuoteDeps carries what the quote handlers need besides the app.
type QuoteDeps struct {
	Config    *config.Config
	Extractor services.Extractor
	Log       zerolog.Logger
}

// errorBody is the JSON shape of every failed quote response.
type errorBody struct {
	Error  string `json:"error"`
	Fields any    `json:"fields,omitempty"`
}

// requestLog returns the logger RequestLogger attached to the request, or
// the fallback when the handler runs without the middleware.
func requestLog(e *core.RequestEvent, fallback zerolog.Logger, handler string) zerolog.Logger {
	l := fallback
	if ctxLog := zerolog.Ctx(e.Request.Context()); ctxLog.GetLevel() != zerolog.Disabled {
		l = *ctxLog
	}
	return l.With().Str("handler", handler).Logger()
}
