package cerr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cmdwarden/cmdwarden/pkg/clog"
)

type httpError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// ExtractToHTTPResponse renders the handler outcome captured by the chi
// middleware as a JSON response and records errors on the request context
// for the log line.
func ExtractToHTTPResponse(ctx context.Context, rw http.ResponseWriter, response *responseReceiver) {
	if response.err == nil {
		writeJSON(ctx, rw, response.response)
		return
	}
	if errors.Is(response.err, context.Canceled) {
		writeJSONError(ctx, rw, NewError(Canceled, "connection closed", response.err))
		return
	}

	clog.AddError(ctx, response.err)
	var cErr *Error
	if errors.As(response.err, &cErr) {
		if cErr.Stack != "" {
			clog.AddStack(ctx, cErr.Stack)
		}
		writeJSONError(ctx, rw, cErr)
		return
	}
	writeJSONError(ctx, rw, NewError(Unknown, "unknown error", response.err))
}

func writeJSON(ctx context.Context, rw http.ResponseWriter, response any) {
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(response); err != nil {
		writeJSONError(ctx, rw, NewError(Internal, "server error", err))
		return
	}
	if _, err := rw.Write(buf.Bytes()); err != nil {
		clog.AddError(ctx, NewError(Internal, "server error", err))
	}
}

func writeJSONError(ctx context.Context, rw http.ResponseWriter, origErr *Error) {
	rw.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.WriteHeader(origErr.Code.HTTPCode())
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(httpError{Code: origErr.Code.String(), Message: origErr.Msg, Details: origErr.Details}); err != nil {
		buf = bytes.NewBufferString(`{"code":"Internal","message":"server error"}`)
		origErr.Err = errors.Join(origErr.Err, err)
		clog.AddError(ctx, origErr)
	}
	if _, err := rw.Write(buf.Bytes()); err != nil {
		origErr.Err = errors.Join(origErr.Err, err)
		clog.AddError(ctx, origErr)
	}
}
