// Package api is the thin HTTP transport over the memory service.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/threadline-ai/recall/internal/api/validate"
	"github.com/threadline-ai/recall/internal/model"
	"github.com/threadline-ai/recall/internal/service"
)

// MemoryHandler handles turn storage, retrieval and sweep requests.
type MemoryHandler struct {
	svc *service.MemoryService
}

func NewMemoryHandler(svc *service.MemoryService) *MemoryHandler {
	return &MemoryHandler{svc: svc}
}

// StoreTurn handles POST /api/tenants/{tenantId}/users/{userId}/turns
func (h *MemoryHandler) StoreTurn(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tenant, user := vars["tenantId"], vars["userId"]

	var req struct {
		Content    string                 `json:"content"`
		Role       string                 `json:"role"`
		Timestamp  *time.Time             `json:"timestamp,omitempty"`
		MemoryType string                 `json:"memoryType,omitempty"`
		Metadata   map[string]interface{} `json:"metadata,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := firstErr(
		validate.TenantID(tenant),
		validate.UserID(user),
		validate.Content(req.Content),
		validate.Role(req.Role),
	); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	storeReq := service.StoreTurnRequest{
		TenantID:   tenant,
		UserID:     user,
		Content:    req.Content,
		Role:       model.Role(req.Role),
		MemoryType: req.MemoryType,
		Metadata:   req.Metadata,
	}
	if req.Timestamp != nil {
		storeReq.Timestamp = *req.Timestamp
	}

	res, err := h.svc.StoreTurn(r.Context(), storeReq)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

// Retrieve handles POST /api/tenants/{tenantId}/users/{userId}/retrieve
func (h *MemoryHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tenant, user := vars["tenantId"], vars["userId"]

	var req struct {
		Query string `json:"query"`
		Limit int    `json:"limit,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := firstErr(validate.TenantID(tenant), validate.UserID(user)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := validate.Limit(req.Limit, 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.svc.RetrieveContext(r.Context(), tenant, user, req.Query, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// History handles GET /api/tenants/{tenantId}/users/{userId}/history
//
// The includeExpired query flag widens the read to expired records for
// rank audits; default history excludes them.
func (h *MemoryHandler) History(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tenant, user := vars["tenantId"], vars["userId"]

	if err := firstErr(validate.TenantID(tenant), validate.UserID(user)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	window, err := validate.Window(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}
	if limit, err = validate.Limit(limit, 100); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	includeExpired := false
	if raw := r.URL.Query().Get("includeExpired"); raw != "" {
		if includeExpired, err = strconv.ParseBool(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid includeExpired")
			return
		}
	}

	records, err := h.svc.GetRecentHistory(r.Context(), tenant, user, window, limit, includeExpired)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
		"window":  window.String(),
	})
}

// Sweep handles POST /api/tenants/{tenantId}/sweep
func (h *MemoryHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	tenant := mux.Vars(r)["tenantId"]
	if err := validate.TenantID(tenant); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.RunTierSweep(r.Context(), tenant)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Sweeps handles GET /api/tenants/{tenantId}/sweeps
func (h *MemoryHandler) Sweeps(w http.ResponseWriter, r *http.Request) {
	tenant := mux.Vars(r)["tenantId"]
	if err := validate.TenantID(tenant); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		if limit, err = validate.Limit(n, 20); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	res, err := h.svc.RecentSweeps(r.Context(), tenant, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sweeps": res,
		"count":  len(res),
	})
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
