package httpapi

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"talent-pipeline/internal/config"
	"talent-pipeline/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setPortalPasswordReq struct {
	Password string `json:"password"`
}

func (h SecretsHandler) SetPortalPassword(w http.ResponseWriter, r *http.Request) {
	var req setPortalPasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	if err := secrets.SetPortalPassword(secrets.PortalKeyringAccount(cfg), req.Password); err != nil {
		WriteError(w, r, http.StatusBadRequest, "secret_rejected", "failed to store password: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SecretsHandler) DeletePortalPassword(w http.ResponseWriter, r *http.Request) {
	cfg := h.CfgVal.Load().(config.Config)
	if err := secrets.DeletePortalPassword(secrets.PortalKeyringAccount(cfg)); err != nil {
		WriteError(w, r, http.StatusBadRequest, "secret_rejected", "failed to delete password: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
