/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Seednode/flamesbox/flames"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const (
	maxBodySize int64 = 64 << 10
	qrSize      int   = 320
)

// nameRequest holds the raw request fields so that non-string names can be
// told apart from absent ones.
type nameRequest struct {
	Name1 json.RawMessage `json:"name1"`
	Name2 json.RawMessage `json:"name2"`
	Trace json.RawMessage `json:"trace"`
}

var traceOn = json.RawMessage("true")

type calculateResponse struct {
	flames.Reading
	Eliminated []flames.Key `json:"eliminated,omitempty"`
}

func nameField(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return "", errInvalidNames
	}

	return name, nil
}

func (n nameRequest) names() (string, string, error) {
	name1, err := nameField(n.Name1)
	if err != nil {
		return "", "", err
	}

	name2, err := nameField(n.Name2)
	if err != nil {
		return "", "", err
	}

	return name1, name2, nil
}

func (n nameRequest) trace() bool {
	return bytes.Equal(n.Trace, traceOn)
}

// decodeNames reads a calculation request off the body. A body that is empty
// or not a JSON object counts as one with no names in it.
func decodeNames(w http.ResponseWriter, r *http.Request) (nameRequest, error) {
	var req nameRequest

	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req)

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return nameRequest{}, err
	case err != nil:
		return nameRequest{}, nil
	}

	return req, nil
}

func invalidInput(err error) errorBody {
	return errorBody{Error: fmt.Sprintf("Invalid input, %s.", err)}
}

func calculate(name1, name2 string, trace bool) calculateResponse {
	result := flames.Compute(name1, name2)

	resp := calculateResponse{Reading: flames.Describe(result)}
	if trace {
		_, resp.Eliminated = flames.Eliminate(result.Count)
	}

	return resp
}

func writeCalculation(cfg *Config, w http.ResponseWriter, r *http.Request, req nameRequest) (int, error) {
	startTime := time.Now()

	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)
	corsHeaders(cfg, w, r)

	name1, name2, err := req.names()
	if err != nil {
		logf(cfg, "CALC: [%s] Rejected request from %s: %v", requestID, realIP(r), err)

		return writeError(cfg, w, http.StatusBadRequest, invalidInput(err))
	}

	resp := calculate(name1, name2, req.trace())

	written, err := writeJSON(cfg, w, http.StatusOK, resp)
	if err != nil {
		return written, err
	}

	logf(cfg, "CALC: [%s] %s with %d letters left (%s) to %s in %s",
		requestID,
		resp.Meaning,
		resp.Count,
		humanReadableSize(int64(written)),
		realIP(r),
		time.Since(startTime).Round(time.Microsecond),
	)

	return written, nil
}

func serveCalculatePost(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		req, err := decodeNames(w, r)
		if err != nil {
			corsHeaders(cfg, w, r)

			_, err = writeError(cfg, w, http.StatusRequestEntityTooLarge, errorBody{
				Error: fmt.Sprintf("Request body must be at most %s.", humanReadableSize(maxBodySize)),
			})
			if err != nil {
				errs <- err
			}

			return
		}

		if _, err := writeCalculation(cfg, w, r, req); err != nil {
			errs <- err
		}
	}
}

func serveCalculateGet(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		query := r.URL.Query()

		var req nameRequest
		if trace := query.Get("trace"); trace == "true" || trace == "1" {
			req.Trace = traceOn
		}
		for _, field := range []struct {
			key string
			raw *json.RawMessage
		}{
			{"name1", &req.Name1},
			{"name2", &req.Name2},
		} {
			if !query.Has(field.key) {
				continue
			}

			raw, err := json.Marshal(query.Get(field.key))
			if err != nil {
				errs <- err

				return
			}
			*field.raw = raw
		}

		if _, err := writeCalculation(cfg, w, r, req); err != nil {
			errs <- err
		}
	}
}

// shareURL points at the frontend with both names filled in.
func shareURL(cfg *Config, r *http.Request, name1, name2 string) string {
	scheme := cfg.scheme()
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	query := url.Values{}
	query.Set("name1", name1)
	query.Set("name2", name2)

	u := url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     cfg.prefix + "/",
		RawQuery: query.Encode(),
	}

	return u.String()
}

func serveQR(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		query := r.URL.Query()

		png, err := qrcode.Encode(shareURL(cfg, r, query.Get("name1"), query.Get("name2")), qrcode.Medium, qrSize)
		if err != nil {
			errs <- fmt.Errorf("qr generation failed: %w", err)

			_, _ = writeError(cfg, w, http.StatusInternalServerError, errorBody{
				Error: "QR code generation failed",
			})

			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", fmt.Sprint(len(png)))
		corsHeaders(cfg, w, r)
		securityHeaders(cfg, w)

		written, err := w.Write(png)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: QR code (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// registerAPI sets up routes so that:
//   - $path/calculate (POST) → JSON body {name1, name2}
//   - $path/calculate (GET)  → same, from query parameters
//   - $path/ws               → WebSocket for results while typing
//   - $path/qr               → PNG QR code linking to a pre-filled page
func registerAPI(cfg *Config, path string, mux *httprouter.Router, errs chan<- error) {
	mux.POST(cfg.prefix+path+"/calculate", serveCalculatePost(cfg, errs))
	mux.GET(cfg.prefix+path+"/calculate", serveCalculateGet(cfg, errs))

	mux.GET(cfg.prefix+path+"/ws", serveWS(cfg, errs))

	mux.GET(cfg.prefix+path+"/qr", serveQR(cfg, errs))
}
