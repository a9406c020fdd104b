package httpapi

import (
	"cmp"
	"net/http"
	"strconv"
	"strings"

	"github.com/deanmartian/livets-stemme/internal/model"
	"github.com/deanmartian/livets-stemme/internal/voice"
	"github.com/gorilla/mux"
)

const (
	MsgCloneInputRequired  = "Lydfiler og stemmenavn er påkrevd"
	MsgSampleNotEligible   = "Lydkvalitet ikke egnet for stemmekloning"
	MsgSpeechInputRequired = "Tekst og stemme-ID er påkrevd"

	SpeechDurationHeader = "X-Speech-Duration"

	_defaultVoiceDescription = "Stemme opprettet fra Livets Stemme"
)

type ineligibleSampleBody struct {
	Error           string   `json:"error"`
	Recommendations []string `json:"recommendations"`
}

type voicesResponse struct {
	Voices []model.VoiceCloneResult `json:"voices"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// handleCloneVoice screens only the first sample, the rest are sent along
// as is.
func (a *API) handleCloneVoice(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r); err != nil {
		a.log(r).Warnf("%s: voice clone request rejected", err)
		writeError(w, http.StatusBadRequest, MsgCloneInputRequired)
		return
	}
	files := r.MultipartForm.File["audioFiles"]
	name := strings.TrimSpace(r.FormValue("voiceName"))
	if len(files) == 0 || name == "" {
		writeError(w, http.StatusBadRequest, MsgCloneInputRequired)
		return
	}

	samples := make([][]byte, 0, len(files))
	for _, fh := range files {
		data, err := readFile(fh)
		if err != nil {
			a.log(r).Errorf("%s: voice cloning failed", err)
			writeError(w, http.StatusInternalServerError, voice.MsgCloneFailed)
			return
		}
		samples = append(samples, data)
	}

	analysis := voice.AnalyzeAudio(samples[0], files[0].Filename)
	if !analysis.IsEligible {
		writeJSON(w, http.StatusBadRequest, ineligibleSampleBody{
			Error:           MsgSampleNotEligible,
			Recommendations: analysis.Recommendations,
		})
		return
	}

	description := cmp.Or(strings.TrimSpace(r.FormValue("description")), _defaultVoiceDescription)
	result, err := a.services.Voice.CreateClone(r.Context(), samples, name, description)
	if err != nil {
		a.log(r).Errorf("%s: voice cloning failed", err)
		writeError(w, http.StatusInternalServerError, voice.MsgCloneFailed)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleListVoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, voicesResponse{Voices: a.services.Voice.ListVoices(r.Context())})
}

func (a *API) handleVoiceStatus(w http.ResponseWriter, r *http.Request) {
	result, err := a.services.Voice.VoiceStatus(r.Context(), mux.Vars(r)["voiceId"])
	if err != nil {
		a.log(r).Errorf("%s: voice status check failed", err)
		writeError(w, http.StatusInternalServerError, voice.MsgStatusFailed)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleDeleteVoice(w http.ResponseWriter, r *http.Request) {
	if err := a.services.Voice.DeleteVoice(r.Context(), mux.Vars(r)["voiceId"]); err != nil {
		a.log(r).Errorf("%s: voice deletion failed", err)
		writeError(w, http.StatusInternalServerError, voice.MsgDeleteFailed)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

type speechRequest struct {
	Text            string  `json:"text"`
	VoiceID         string  `json:"voiceId"`
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarityBoost"`
	Style           float64 `json:"style"`
}

func (a *API) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req speechRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.log(r).Errorf("%s: speech generation failed", err)
		writeError(w, http.StatusInternalServerError, voice.MsgSpeechFailed)
		return
	}
	if strings.TrimSpace(req.Text) == "" || req.VoiceID == "" {
		writeError(w, http.StatusBadRequest, MsgSpeechInputRequired)
		return
	}

	speech, err := a.services.Voice.GenerateSpeech(r.Context(), req.Text, req.VoiceID, voice.SpeechOptions{
		Stability:       req.Stability,
		SimilarityBoost: req.SimilarityBoost,
		Style:           req.Style,
	})
	if err != nil {
		a.log(r).Errorf("%s: speech generation failed", err)
		writeError(w, http.StatusInternalServerError, voice.MsgSpeechFailed)
		return
	}

	w.Header().Set("Content-Type", speech.ContentType)
	w.Header().Set(SpeechDurationHeader, strconv.FormatFloat(speech.Duration, 'f', 1, 64))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(speech.Audio)
}
