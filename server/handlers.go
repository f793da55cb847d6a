package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"
)

// Handlers holds the dependencies the HTTP endpoints need.
type Handlers struct {
	db      *sql.DB
	started time.Time
}

func NewHandlers(db *sql.DB) *Handlers {
	return &Handlers{db: db, started: time.Now()}
}

// HandleHealthz responds to liveness probe requests by checking database connectivity.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probe requests: ready means the database
// answers and the schema has been applied.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"database", func() error { return h.db.PingContext(r.Context()) }},
		{"schema", func() error {
			var one int
			return h.db.QueryRowContext(r.Context(), "SELECT 1 FROM seen LIMIT 1").Scan(&one)
		}},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil && err != sql.ErrNoRows {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status": "not_ready",
				"check":  check.name,
				"error":  err.Error(),
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// HandleStatus reports uptime and small table counts for a quick glance.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status := struct {
		UptimeSeconds        float64 `json:"uptime_seconds"`
		SeenUsers            int     `json:"seen_users"`
		PendingNotifications int     `json:"pending_notifications"`
		CachedLocations      int     `json:"cached_locations"`
	}{
		UptimeSeconds: time.Since(h.started).Seconds(),
	}

	ctx := r.Context()
	_ = h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM seen").Scan(&status.SeenUsers)
	_ = h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notifications").Scan(&status.PendingNotifications)
	_ = h.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM locations").Scan(&status.CachedLocations)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}
