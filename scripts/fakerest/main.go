// Fakerest is a stand-in for a project's PostgREST gateway, used to try the
// keepalive service locally without a real database project.
//
// Usage:
//
//	go run ./scripts/fakerest -port 8081 -key local-anon-key
//	SUPABASE_PROJECTS_JSON='[{"name":"local","url":"http://localhost:8081","anon_key":"local-anon-key"}]' go run ./cmd
//	curl -X POST localhost:8080/ping
//
// It answers GET /rest/v1/{table} with a single row when the apikey and
// Authorization headers carry the expected key, and 401 otherwise. -status and
// -delay simulate a rejecting or hanging project.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
)

func main() {
	port := flag.Int("port", 8081, "port to listen on")
	key := flag.String("key", "local-anon-key", "anon key the gateway accepts")
	status := flag.Int("status", http.StatusOK, "status to answer authorized reads with")
	delay := flag.Duration("delay", 0, "delay before answering")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/v1/{table}", func(w http.ResponseWriter, r *http.Request) {
		log.Info("read",
			slog.String("table", r.PathValue("table")),
			slog.String("query", r.URL.RawQuery),
			slog.String("from", r.RemoteAddr))

		if *delay > 0 {
			select {
			case <-time.After(*delay):
			case <-r.Context().Done():
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")

		if r.Header.Get("apikey") != *key || r.Header.Get("Authorization") != "Bearer "+*key {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Invalid API key"})
			return
		}

		w.WriteHeader(*status)
		if *status >= 200 && *status < 300 {
			json.NewEncoder(w).Encode([]map[string]int{{"id": 1}})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"message": http.StatusText(*status)})
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Info("starting fake gateway", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("server failed", slog.Any("err", err))
		os.Exit(1)
	}
}
