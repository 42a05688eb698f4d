/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log"
	"net/http"
	"strings"
	"time"
)

var (
	errInvalidNames = errors.New("names must be strings")
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

// logErrors drains errs until it is closed.
func logErrors(errs <-chan error) {
	for err := range errs {
		log.Printf("%s | ERROR: %v", time.Now().Format(logDate), err)
	}
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(getFavicon())
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body{height:100%;margin:0;display:flex;align-items:center;justify-content:center;font-family:sans-serif;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", html.EscapeString(title)))
	htmlBody.WriteString(fmt.Sprintf("<body><h3>%s</h3></body></html>", html.EscapeString(body)))

	return htmlBody.String()
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any) (int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	return w.Write(data)
}

func writeError(cfg *Config, w http.ResponseWriter, status int, body errorBody) (int, error) {
	return writeJSON(cfg, w, status, body)
}

func serveNotFound(cfg *Config, errs chan<- error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := writeError(cfg, w, http.StatusNotFound, errorBody{
			Error:   "Route not found",
			Message: "🥺 Love got lost. Use the calculator at " + cfg.prefix + "/",
		})
		if err != nil {
			errs <- err
		}
	}
}

func serveMethodNotAllowed(cfg *Config, errs chan<- error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := writeError(cfg, w, http.StatusMethodNotAllowed, errorBody{
			Error: "Method not allowed",
		})
		if err != nil {
			errs <- err
		}
	}
}

func servePanic(cfg *Config) func(http.ResponseWriter, *http.Request, any) {
	return func(w http.ResponseWriter, r *http.Request, i any) {
		log.Printf("%s | PANIC: %s %s: %v", time.Now().Format(logDate), r.Method, r.URL.Path, i)

		_, _ = writeError(cfg, w, http.StatusInternalServerError, errorBody{
			Error:   "Server error",
			Message: "😵 Something went wrong. Try again later.",
		})
	}
}
