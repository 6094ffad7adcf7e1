package handler

import (
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/S0tham/Sofida/internal/model"
)

// voice messages are short clips; 10 MB is far beyond anything legitimate
const maxAudioBytes = 10 << 20

type voiceResponse struct {
	Transcript string             `json:"transcript"`
	Reply      string             `json:"reply"`
	ReplyAudio string             `json:"reply_audio,omitempty"`
	State      *model.PublicState `json:"state"`
}

// handleVoice accepts raw audio, transcribes it, runs it through chat and
// answers with the transcript and reply text. With ?speak=1 the reply is
// also synthesized and returned as base64 MP3. Synthesis failures degrade
// to a text-only reply.
func (h *Handler) handleVoice(w http.ResponseWriter, r *http.Request) {
	if h.stt == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "voice support disabled"})
		return
	}

	audio, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "unreadable audio body"})
		return
	}
	if len(audio) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "empty audio body"})
		return
	}

	transcript, err := h.stt.Transcribe(r.Context(), audio)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if transcript == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "no speech recognized"})
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	reply, err := h.manager.Chat(r.Context(), sessionID, transcript)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := voiceResponse{Transcript: transcript, Reply: reply}
	if speak, _ := strconv.ParseBool(r.URL.Query().Get("speak")); speak && h.tts != nil {
		if replyAudio, err := h.tts.Synthesize(r.Context(), reply); err != nil {
			slog.Warn("reply synthesis failed", "error", err)
		} else {
			resp.ReplyAudio = base64.StdEncoding.EncodeToString(replyAudio)
		}
	}
	if state, err := h.manager.State(sessionID); err == nil {
		resp.State = state
	}
	writeJSON(w, http.StatusOK, resp)
}
