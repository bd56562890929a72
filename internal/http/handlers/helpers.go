package handlers

import (
	"encoding/json"
	"time"

	"github.com/valyala/fasthttp"
)

// writeJSON serializes v as the response body. Marshal failures surface
// as a generic server error; payloads are built from our own types so
// this should not happen.
func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.SetBodyString("failed to encode response")
		return
	}
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

// clientError sends a 400 with a descriptive message.
func clientError(ctx *fasthttp.RequestCtx, msg string) {
	writeJSON(ctx, fasthttp.StatusBadRequest, map[string]string{"error": msg})
}

// serverError sends a generic 500; backend details stay in the logs.
func serverError(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// timestampLayouts are accepted for start_date/end_date parameters, in
// order of preference: full ISO-8601, offset-less, date only.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}
