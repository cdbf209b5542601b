package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/whwh2000/translator-robot/internal/multimodal/tts"
	"github.com/whwh2000/translator-robot/internal/session"
	"github.com/whwh2000/translator-robot/internal/tutor"
)

// maxBodyBytes matches the transcription upload limit.
const maxBodyBytes = 25 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeServiceError maps tutor errors onto HTTP statuses. External call
// failures keep their "AI Error" / "Voice Error" prefix for the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, tutor.ErrNothingToSay):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, tutor.ErrNoInput), errors.Is(err, tutor.ErrNoSuchLine):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tutor.ErrAI), errors.Is(err, tutor.ErrVoice):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}

// writeAudio sends the synthesized clip, or with ?format=html an embeddable
// player carrying the clip as a data URI.
func writeAudio(w http.ResponseWriter, r *http.Request, res *tts.SynthesisResult) {
	if strings.EqualFold(r.URL.Query().Get("format"), "html") {
		mt := res.ContentType
		if mt == "audio/mpeg" {
			mt = "audio/mp3"
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`<audio controls src="data:` + mt + `;base64,` +
			base64.StdEncoding.EncodeToString(res.Audio) +
			`" style="width: 100%; height: 35px;"></audio>`))
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(res.Audio)
}
