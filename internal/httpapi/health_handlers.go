package httpapi

import (
	"net/http"
	"time"
)

type HealthHandler struct {
	Backend string
	Started time.Time
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"database": h.Backend,
		"uptime_s": int(time.Since(h.Started).Seconds()),
	})
}
