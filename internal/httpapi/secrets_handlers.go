package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	"goldrates-engine/internal/config"
	"goldrates-engine/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setPasswordReq struct {
	Password string `json:"password"`
}

func (h SecretsHandler) account(w http.ResponseWriter, r *http.Request) (string, bool) {
	cfg, _ := h.CfgVal.Load().(config.Config)
	if cfg.Database.PasswordKeyringAccount == "" {
		WriteError(w, r, http.StatusConflict, "no_account", "database.password_keyring_account is not set")
		return "", false
	}
	return cfg.Database.PasswordKeyringAccount, true
}

// SetDatabasePassword stores the password in the OS keyring. It takes effect
// the next time the engine opens its database.
func (h SecretsHandler) SetDatabasePassword(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.account(w, r)
	if !ok {
		return
	}
	var req setPasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "expected {\"password\": \"...\"}")
		return
	}
	if err := secrets.SetDatabasePassword(acct, req.Password); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keyring_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SecretsHandler) DeleteDatabasePassword(w http.ResponseWriter, r *http.Request) {
	acct, ok := h.account(w, r)
	if !ok {
		return
	}
	if err := secrets.DeleteDatabasePassword(acct); err != nil && !errors.Is(err, secrets.ErrNotFound) {
		WriteError(w, r, http.StatusBadRequest, "keyring_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
