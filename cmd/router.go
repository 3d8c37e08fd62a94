package main

import (
	"net/http"

	"github.com/angeloszaimis/supabase-keepalive/internal/handler"
)

func setupRouter(pingHandler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/ping", pingHandler)
	mux.HandleFunc("GET /{$}", handler.Liveness)

	return mux
}
