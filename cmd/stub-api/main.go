// Command stub-api fakes the external automation backend for local
// development. It accepts batch send requests and reports every one as
// queued, so the dispatcher can be exercised without touching real
// TikTok or Instagram sessions.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

type sendMessageRequest struct {
	Usernames       []string `json:"usernames"`
	TemplateCode    string   `json:"template_code"`
	SessionFilePath *string  `json:"session_file_path"`
	MessageID       int64    `json:"message_id"`
}

func main() {
	port := os.Getenv("STUB_PORT")
	if port == "" {
		port = "8000"
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /api/v1/{platform}/send_message", func(w http.ResponseWriter, r *http.Request) {
		platform := r.PathValue("platform")
		if platform != "tiktok" && platform != "instagram" {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown platform: " + platform})
			return
		}

		var req sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
		if len(req.Usernames) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "usernames is empty"})
			return
		}

		// FAIL_SENDS=1 simulates an expired session so the error path of
		// the dispatcher can be tested end to end.
		if os.Getenv("FAIL_SENDS") == "1" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "session expired"})
			return
		}

		log.Printf("[stub] %s batch %d: %d usernames, template %s",
			platform, req.MessageID, len(req.Usernames), req.TemplateCode)
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "queued",
			"count":      len(req.Usernames),
			"message_id": req.MessageID,
		})
	})

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      logMiddleware(mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 70 * time.Second,
	}

	go func() {
		log.Printf("Automation stub listening on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Stub server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
	log.Println("Stub stopped")
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s (%s)", r.Method, r.URL.Path, time.Since(start).Round(time.Millisecond))
	})
}
