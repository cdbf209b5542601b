package handlers

import (
	"log/slog"
	"net/http"

	"github.com/whwh2000/translator-robot/internal/language"
	"github.com/whwh2000/translator-robot/internal/tutor"
)

type CatalogHandler struct {
	tutor *tutor.Service
}

func NewCatalogHandler(svc *tutor.Service) *CatalogHandler {
	return &CatalogHandler{tutor: svc}
}

type modeView struct {
	ID   language.Mode `json:"id"`
	Name string        `json:"name"`
}

// Languages lists the target languages and conversation modes.
func (h *CatalogHandler) Languages(w http.ResponseWriter, r *http.Request) {
	modes := make([]modeView, 0, 2)
	for _, m := range language.Modes() {
		modes = append(modes, modeView{ID: m, Name: m.DisplayName()})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"languages": language.All(),
		"default":   language.Default(),
		"modes":     modes,
	})
}

// Models lists models reachable with the configured provider keys.
func (h *CatalogHandler) Models(w http.ResponseWriter, r *http.Request) {
	models, err := h.tutor.Models(r.Context())
	if err != nil {
		slog.Error("list models failed", "error", err)
		writeError(w, http.StatusBadGateway, "AI Error: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": models})
}
