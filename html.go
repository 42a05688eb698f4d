/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

const (
	indexFile = "index.html"
)

//go:embed all:frontend
var embeddedFrontend embed.FS

func frontendFS(cfg *Config) (fs.FS, error) {
	if cfg.staticDir != "" {
		return os.DirFS(cfg.staticDir), nil
	}

	return fs.Sub(embeddedFrontend, "frontend")
}

// readFrontend returns the named file, or index.html when no such file exists
// so the frontend can handle its own routes.
func readFrontend(frontend fs.FS, name string) (string, []byte, error) {
	if name != "" && name != indexFile {
		data, err := fs.ReadFile(frontend, name)
		if err == nil {
			return name, data, nil
		}
	}

	data, err := fs.ReadFile(frontend, indexFile)

	return indexFile, data, err
}

func writeFrontend(cfg *Config, frontend fs.FS, w http.ResponseWriter, r *http.Request, name string) (int, error) {
	startTime := time.Now()

	name, data, err := readFrontend(frontend, name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusOK)

		return w.Write([]byte(newPage("flamesbox", "Frontend build not found. Run frontend build (npm run build)")))
	case err != nil:
		return 0, err
	}

	if name == indexFile {
		w.Header().Set("Cache-Control", "no-cache")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
	}
	w.Header().Set("Content-Type", contentType(name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	securityHeaders(cfg, w)
	w.WriteHeader(http.StatusOK)

	written, err := w.Write(data)
	if err != nil {
		return written, err
	}

	logf(cfg, "SERVE: Frontend file %s (%s) to %s in %s",
		name,
		humanReadableSize(int64(written)),
		realIP(r),
		time.Since(startTime).Round(time.Microsecond),
	)

	return written, nil
}

func serveFrontend(cfg *Config, frontend fs.FS, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if _, err := writeFrontend(cfg, frontend, w, r, indexFile); err != nil {
			errs <- err
		}
	}
}

// serveFallback handles every request the router has no route for. Frontend
// paths get the matching file or index.html; everything else is a JSON 404.
func serveFallback(cfg *Config, frontend fs.FS, errs chan<- error) http.HandlerFunc {
	notFound := serveNotFound(cfg, errs)

	return func(w http.ResponseWriter, r *http.Request) {
		path, ok := strings.CutPrefix(r.URL.Path, cfg.prefix+"/")

		switch {
		case !ok,
			r.Method != http.MethodGet && r.Method != http.MethodHead,
			path == "api", strings.HasPrefix(path, "api/"):
			notFound(w, r)

			return
		}

		if _, err := writeFrontend(cfg, frontend, w, r, path); err != nil {
			errs <- err
		}
	}
}
