package handlers

import (
	"net/http"
	"strings"

	"github.com/whwh2000/translator-robot/internal/language"
	"github.com/whwh2000/translator-robot/internal/tutor"
)

type SpeechHandler struct {
	tutor *tutor.Service
}

func NewSpeechHandler(svc *tutor.Service) *SpeechHandler {
	return &SpeechHandler{tutor: svc}
}

type speakRequest struct {
	Translation bool `json:"translation"`
	Line        int  `json:"line"`
}

// Speak plays the user's translation or one reply line of a session.
// It answers 204 when cleaning leaves nothing to say.
func (h *SpeechHandler) Speak(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req speakRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.tutor.Speak(r.Context(), id, tutor.Target{Translation: req.Translation, Line: req.Line})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeAudio(w, r, res)
}

type speakTextRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// SpeakText cleans and synthesizes arbitrary text without a session.
// An empty language means English.
func (h *SpeechHandler) SpeakText(w http.ResponseWriter, r *http.Request) {
	var req speakTextRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text required")
		return
	}
	lang, ok := language.Lookup(req.Language)
	if !ok {
		// Unknown names are spoken with the fallback voice, unfiltered.
		lang = language.Language{Name: req.Language, Code: language.CodeFor(req.Language)}
	}

	res, err := h.tutor.SpeakText(r.Context(), req.Text, lang)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeAudio(w, r, res)
}
