// Package response implements content-negotiated rendering: a JSON envelope
// {success, ...} for application/json (the default), or a single line of
// text for text/plain.
package response

import (
	"encoding/json"
	"net/http"
	"strings"
)

// StatusCoder is implemented by payloads that carry their own HTTP status
// and success flag (error payloads report false).
type StatusCoder interface {
	StatusCode() int
	Success() bool
}

// SingleLiner is implemented by payloads that can render as one line of text.
type SingleLiner interface {
	SingleLine() string
}

// Format is the negotiated rendering format.
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

// Negotiate inspects the Accept header and returns the format to render in.
// The first entry that is exactly "text/plain" or "application/json" wins;
// parameters and quality values are not parsed, and JSON is the default
// when neither appears.
func Negotiate(r *http.Request) Format {
	accept := r.Header.Get("Accept")
	for _, part := range strings.Split(accept, ",") {
		switch strings.TrimSpace(part) {
		case "text/plain":
			return FormatText
		case "application/json":
			return FormatJSON
		}
	}
	return FormatJSON
}

// Write renders payload per the negotiated format and writes it to w.
// payload must implement StatusCoder; for text/plain it must additionally
// implement SingleLiner (payloads that don't fall back to an empty line).
func Write(w http.ResponseWriter, r *http.Request, payload StatusCoder) {
	status := payload.StatusCode()
	if status == 0 {
		status = http.StatusOK
	}

	if wa, ok := payload.(interface{ WWWAuthenticate() string }); ok {
		if v := wa.WWWAuthenticate(); v != "" {
			w.Header().Set("WWW-Authenticate", v)
		}
	}

	switch Negotiate(r) {
	case FormatText:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		if sl, ok := payload.(SingleLiner); ok {
			w.Write([]byte(sl.SingleLine()))
		}
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		body, err := flattenWithSuccess(payload.Success(), payload)
		if err != nil {
			// Marshalling a well-formed payload should never fail; if it does
			// there is nothing more useful to tell the client.
			return
		}
		w.Write(body)
	}
}

// flattenWithSuccess marshals data to a JSON object and injects a "success"
// field alongside its other top-level fields, matching the original
// {success: bool, ...payload} envelope shape.
func flattenWithSuccess(success bool, data any) ([]byte, error) {
	fields, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(fields, &m); err != nil {
		// data didn't marshal to an object (e.g. it's nil); envelope alone.
		m = map[string]json.RawMessage{}
	}
	successRaw, _ := json.Marshal(success)
	m["success"] = successRaw
	return json.Marshal(m)
}
