package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/whwh2000/translator-robot/internal/language"
	"github.com/whwh2000/translator-robot/internal/session"
	"github.com/whwh2000/translator-robot/internal/tutor"
)

type SessionHandler struct {
	tutor *tutor.Service
}

func NewSessionHandler(svc *tutor.Service) *SessionHandler {
	return &SessionHandler{tutor: svc}
}

// sessionView is a session plus the reply split for display.
type sessionView struct {
	*session.Session
	ModeName string   `json:"mode_name"`
	Lines    []string `json:"lines"`
}

func viewOf(s *session.Session) sessionView {
	lines := s.Lines()
	if lines == nil {
		lines = []string{}
	}
	return sessionView{Session: s, ModeName: s.Mode.DisplayName(), Lines: lines}
}

type settingsRequest struct {
	Language string `json:"language"`
	Mode     string `json:"mode"`
}

// parse resolves the requested language and mode. Empty fields stay zero.
func (req settingsRequest) parse() (tutor.Settings, error) {
	var st tutor.Settings
	if strings.TrimSpace(req.Language) != "" {
		l, err := language.Parse(req.Language)
		if err != nil {
			return st, err
		}
		st.Language = l
	}
	if strings.TrimSpace(req.Mode) != "" {
		m, err := language.ParseMode(req.Mode)
		if err != nil {
			return st, err
		}
		st.Mode = m
	}
	return st, nil
}

// Create starts a session. The body is optional; defaults apply.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	st, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := h.tutor.Create(r.Context(), st.Language, st.Mode)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	sess, err := h.tutor.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (h *SessionHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	var req settingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := h.tutor.UpdateSettings(r.Context(), id, st)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// Input accepts typed text as JSON, a multipart form with "text" and an
// "audio" file, or a raw audio body with the text in ?text=.
func (h *SessionHandler) Input(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	in, err := readInput(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.tutor.Submit(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if res.Lines == nil {
		res.Lines = []string{}
	}
	writeJSON(w, http.StatusOK, res)
}

func readInput(w http.ResponseWriter, r *http.Request) (tutor.Input, error) {
	var in tutor.Input
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mt == "application/json" || mt == "":
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return in, errors.New("invalid request body")
		}
		in.Text = req.Text

	case mt == "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return in, errors.New("invalid multipart form")
		}
		in.Text = r.FormValue("text")
		file, header, err := r.FormFile("audio")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			return in, errors.New("invalid audio file")
		default:
			defer file.Close()
			if in.Audio, err = io.ReadAll(file); err != nil {
				return in, errors.New("failed to read audio")
			}
			in.ContentType = header.Header.Get("Content-Type")
		}

	case strings.HasPrefix(mt, "audio/") || strings.HasPrefix(mt, "video/") || mt == "application/octet-stream":
		audio, err := io.ReadAll(r.Body)
		if err != nil {
			return in, errors.New("failed to read audio")
		}
		in.Audio = audio
		in.ContentType = mt
		in.Text = r.URL.Query().Get("text")

	default:
		return in, errors.New("unsupported content type " + mt)
	}
	return in, nil
}

func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	sess, err := h.tutor.Clear(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// Delete is the deep cache clear.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	if err := h.tutor.DeepClear(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	exchanges, err := h.tutor.History(r.Context(), id, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if exchanges == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"exchanges": []struct{}{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"exchanges": exchanges})
}
