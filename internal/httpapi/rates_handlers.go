package httpapi

import (
	"net/http"

	"goldrates-engine/internal/store"
)

type RatesHandler struct {
	Rates store.RateStore
}

// List returns stored rates, optionally filtered by ?company=.
func (h RatesHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Rates.ListRates(r.Context(), queryParam(r, "company"))
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	if rows == nil {
		rows = []store.RateRow{}
	}
	WriteJSON(w, http.StatusOK, rows)
}
