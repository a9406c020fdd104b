package httpapi

import (
	"net/http"
	"strings"

	"github.com/deanmartian/livets-stemme/internal/model"
)

const (
	MsgCategoryRequired      = "Kategori er påkrevd"
	MsgCategoryParamRequired = "Kategori parameter er påkrevd"
	MsgContentRequired       = "Innhold er påkrevd"
	MsgTopicRequired         = "Emne er påkrevd"
	MsgAudioRequired         = "Lydfil er påkrevd"

	MsgPromptsFailed    = "Kunne ikke hente historieforslag"
	MsgAnalyzeFailed    = "Kunne ikke analysere historien"
	MsgInterviewFailed  = "Kunne ikke fortsette intervjuet"
	MsgTitlesFailed     = "Kunne ikke foreslå titler"
	MsgTranscribeFailed = "Kunne ikke transkribere lydopptaket."
)

type storyPromptsRequest struct {
	Category string                    `json:"category"`
	Context  model.ConversationContext `json:"context"`
}

type storyPromptsResponse struct {
	Prompts []model.StoryPrompt `json:"prompts"`
}

func (a *API) handleStoryPrompts(w http.ResponseWriter, r *http.Request) {
	var req storyPromptsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.log(r).Errorf("%s: ai story prompts failed", err)
		writeError(w, http.StatusInternalServerError, MsgPromptsFailed)
		return
	}
	if req.Category == "" {
		writeError(w, http.StatusBadRequest, MsgCategoryRequired)
		return
	}

	prompts := a.services.Story.GeneratePrompts(r.Context(), req.Category, req.Context)
	writeJSON(w, http.StatusOK, storyPromptsResponse{Prompts: prompts})
}

func (a *API) handleStoryPromptsQuery(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		writeError(w, http.StatusBadRequest, MsgCategoryParamRequired)
		return
	}

	prompts := a.services.Story.GeneratePrompts(r.Context(), category, model.ConversationContext{})
	writeJSON(w, http.StatusOK, storyPromptsResponse{Prompts: prompts})
}

type analyzeRequest struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Transcript string `json:"transcript"`
}

func (a *API) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.log(r).Errorf("%s: story analysis failed", err)
		writeError(w, http.StatusInternalServerError, MsgAnalyzeFailed)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, MsgContentRequired)
		return
	}

	writeJSON(w, http.StatusOK, a.services.Story.AnalyzeStory(r.Context(), req.Title, req.Content, req.Transcript))
}

type interviewRequest struct {
	Topic     string                    `json:"topic"`
	Responses []string                  `json:"responses"`
	Context   model.ConversationContext `json:"context"`
}

func (a *API) handleInterview(w http.ResponseWriter, r *http.Request) {
	var req interviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.log(r).Errorf("%s: interview turn failed", err)
		writeError(w, http.StatusInternalServerError, MsgInterviewFailed)
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		writeError(w, http.StatusBadRequest, MsgTopicRequired)
		return
	}

	writeJSON(w, http.StatusOK, a.services.Story.ConductInterview(r.Context(), req.Topic, req.Responses, req.Context))
}

type titlesRequest struct {
	Content string `json:"content"`
}

type titlesResponse struct {
	Titles []string `json:"titles"`
}

func (a *API) handleTitles(w http.ResponseWriter, r *http.Request) {
	var req titlesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.log(r).Errorf("%s: title suggestions failed", err)
		writeError(w, http.StatusInternalServerError, MsgTitlesFailed)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, MsgContentRequired)
		return
	}

	writeJSON(w, http.StatusOK, titlesResponse{Titles: a.services.Story.SuggestTitles(r.Context(), req.Content)})
}

type transcribeResponse struct {
	Text string `json:"text"`
}

func (a *API) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r); err != nil {
		a.log(r).Warnf("%s: transcription request rejected", err)
		writeError(w, http.StatusBadRequest, MsgAudioRequired)
		return
	}
	files := r.MultipartForm.File["audio"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, MsgAudioRequired)
		return
	}

	audio, err := readFile(files[0])
	if err != nil {
		a.log(r).Errorf("%s: transcription failed", err)
		writeError(w, http.StatusInternalServerError, MsgTranscribeFailed)
		return
	}

	text, err := a.services.Story.Transcribe(r.Context(), audio, files[0].Filename)
	if err != nil {
		a.log(r).Errorf("%s: transcription failed", err)
		writeError(w, http.StatusInternalServerError, MsgTranscribeFailed)
		return
	}

	writeJSON(w, http.StatusOK, transcribeResponse{Text: text})
}
