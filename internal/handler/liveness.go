package handler

import "net/http"

// Liveness reports that the process is up. It does not look at the project
// list, so a broken configuration never fails the platform's probes.
func Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
