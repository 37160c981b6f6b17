package wshost

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// tokenParam is the query parameter browsers use to authenticate the
// websocket upgrade.
const tokenParam = "token"

// redactingLogFormatter keeps the websocket token out of the request log.
type redactingLogFormatter struct {
	base middleware.LogFormatter
}

func (f *redactingLogFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return f.base.NewLogEntry(redactRequestForLogging(r))
}

// redactRequestForLogging returns r unchanged unless its query carries a
// token, in which case a copy with the token masked is logged instead.
func redactRequestForLogging(r *http.Request) *http.Request {
	if r == nil || r.URL == nil || r.URL.RawQuery == "" {
		return r
	}
	q := r.URL.Query()
	if !q.Has(tokenParam) {
		return r
	}
	q.Set(tokenParam, "[REDACTED]")

	masked := r.Clone(r.Context())
	masked.URL.RawQuery = q.Encode()
	masked.RequestURI = masked.URL.RequestURI()
	return masked
}
