package handlers

import (
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries the id the request was logged under.
const RequestIDHeader = "X-Request-ID"

// RequestLogger logs every quote route request once it has been handled and
// stores a request-scoped logger in the request context. A caller-supplied
// X-Request-ID is kept, otherwise a new one is generated and echoed back.
func RequestLogger(log zerolog.Logger) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		start := time.Now()
		id := e.Request.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		e.Response.Header().Set(RequestIDHeader, id)

		reqLog := log.With().
			Str("request_id", id).
			Str("method", e.Request.Method).
			Str("path", e.Request.URL.Path).
			Logger()
		e.Request = e.Request.WithContext(reqLog.WithContext(e.Request.Context()))

		err := e.Next()

		ev := reqLog.Info()
		if err != nil {
			ev = reqLog.Warn().Err(err)
		}
		ev.Int("status", e.Status()).Dur("elapsed", time.Since(start)).Msg("request")
		return err
	}
}
