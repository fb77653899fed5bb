package api

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"text2phenotype.com/sdoh/logger"
	"text2phenotype.com/sdoh/utils"
)

var defaultLogger = logger.NewLogger("API")

// endpointLoggerFields identifies a request by its route pattern, never its
// URL, which carries the bearer token.
type endpointLoggerFields struct {
	Method string `json:"method"`
	Route  string `json:"route"`
}

const RequestInfoFieldsKey = "request_info"

func makeRequestLogger(base zerolog.Logger, request *http.Request) zerolog.Logger {
	fields := endpointLoggerFields{
		Method: request.Method,
		Route:  request.Pattern,
	}
	ctx := base.With().Interface(RequestInfoFieldsKey, fields)
	if token := request.PathValue("token"); token != "" {
		ctx = ctx.Str("token_hash", utils.HashToken(token))
	}
	return ctx.Logger()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestLogging logs one line per request after the handler returns.
func withRequestLogging(base zerolog.Logger, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler(recorder, r)
		requestLogger := makeRequestLogger(base, r)
		event := requestLogger.Info()
		if recorder.status >= http.StatusInternalServerError {
			event = requestLogger.Error()
		}
		event.Int("status", recorder.status).
			Dur("duration", time.Since(started)).
			Msg("Handled request")
	}
}
