/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

const (
	logDate string        = `2006-01-02T15:04:05.000-07:00`
	timeout time.Duration = 10 * time.Second
)

func securityHeaders(cfg *Config, w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Permissions-Policy", "geolocation=(), midi=(), sync-xhr=(), microphone=(), camera=(), magnetometer=(), gyroscope=(), fullscreen=(), payment=()")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:")

	if cfg.scheme() == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
}

// allowedOrigin reports the value for Access-Control-Allow-Origin, if any.
func allowedOrigin(cfg *Config, origin string) (string, bool) {
	if slices.Contains(cfg.origins, "*") {
		return "*", true
	}
	if origin == "" {
		return "", false
	}
	if slices.Contains(cfg.origins, strings.TrimSuffix(origin, "/")) {
		return origin, true
	}
	return "", false
}

func corsHeaders(cfg *Config, w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Vary", "Origin")

	origin, ok := allowedOrigin(cfg, r.Header.Get("Origin"))
	if !ok {
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", origin)
}

// servePreflight answers OPTIONS requests for any registered path.
// httprouter has already filled in the Allow header.
func servePreflight(cfg *Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Access-Control-Request-Method") != "" {
			corsHeaders(cfg, w, r)
			w.Header().Set("Access-Control-Allow-Methods", w.Header().Get("Allow"))
			if headers := r.Header.Get("Access-Control-Request-Headers"); headers != "" {
				w.Header().Set("Access-Control-Allow-Headers", headers)
			}
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func realIP(r *http.Request) string {
	host, port, _ := net.SplitHostPort(r.RemoteAddr)
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	}
	if net.ParseIP(host) != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return host + ":" + port
	}
	return host
}

func writeText(cfg *Config, w http.ResponseWriter, r *http.Request, page, body string, cache bool) (int, error) {
	startTime := time.Now()

	if cache {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	securityHeaders(cfg, w)
	w.WriteHeader(http.StatusOK)

	written, err := w.Write([]byte(body))
	if err != nil {
		return written, err
	}

	logf(cfg, "SERVE: %s (%s) to %s in %s",
		page,
		humanReadableSize(int64(written)),
		realIP(r),
		time.Since(startTime).Round(time.Microsecond),
	)

	return written, nil
}

func serveHealthCheck(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if _, err := writeText(cfg, w, r, "Health check", "Ok\n", false); err != nil {
			errs <- err
		}
	}
}

func serveVersion(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if _, err := writeText(cfg, w, r, "Version page", "flamesbox v"+releaseVersion+"\n", false); err != nil {
			errs <- err
		}
	}
}

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data := `User-agent: *
Disallow: /api/

User-agent: Amazonbot
Disallow: /

User-agent: Applebot-Extended
Disallow: /

User-agent: Bytespider
Disallow: /

User-agent: CCBot
Disallow: /

User-agent: ClaudeBot
Disallow: /

User-agent: Google-Extended
Disallow: /

User-agent: GPTBot
Disallow: /

User-agent: meta-externalagent
Disallow: /`

		if _, err := writeText(cfg, w, r, "Robots", data, true); err != nil {
			errs <- err
		}
	}
}

func newRouter(cfg *Config, errs chan<- error) (*httprouter.Router, error) {
	frontend, err := frontendFS(cfg)
	if err != nil {
		return nil, err
	}

	mux := httprouter.New()

	mux.PanicHandler = servePanic(cfg)
	mux.GlobalOPTIONS = servePreflight(cfg)
	mux.MethodNotAllowed = serveMethodNotAllowed(cfg, errs)
	mux.NotFound = serveFallback(cfg, frontend, errs)

	mux.GET(cfg.prefix+"/", serveFrontend(cfg, frontend, errs))

	mux.GET(cfg.prefix+"/favicons/*favicon", serveFavicons(cfg, errs))

	mux.GET(cfg.prefix+"/healthz", serveHealthCheck(cfg, errs))

	mux.GET(cfg.prefix+"/robots.txt", serveRobots(cfg, errs))

	mux.GET(cfg.prefix+"/version", serveVersion(cfg, errs))

	if cfg.profile {
		registerProfileHandlers(cfg, mux)
	}

	registerAPI(cfg, "/api", mux, errs)

	return mux, nil
}

func ServePage(ctx context.Context, cfg *Config) error {
	var err error

	timeZone := os.Getenv("TZ")
	if timeZone != "" {
		time.Local, err = time.LoadLocation(timeZone)
		if err != nil {
			return err
		}
	}

	logf(cfg, "START: flamesbox v%s", releaseVersion)

	errs := make(chan error, 64)
	go logErrors(errs)

	mux, err := newRouter(cfg, errs)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           mux,
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       timeout,
		ReadHeaderTimeout: timeout,
		WriteTimeout:      timeout,
	}

	serveErr := make(chan error, 1)

	go func() {
		logf(cfg, "SERVE: Listening on %s://%s%s/", cfg.scheme(), srv.Addr, cfg.prefix)

		var err error
		if cfg.tlsKey != "" && cfg.tlsCert != "" {
			err = srv.ListenAndServeTLS(cfg.tlsCert, cfg.tlsKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("serve %s: %w", srv.Addr, err)
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logf(cfg, "STOP: Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
