package story

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deanmartian/livets-stemme/internal/config"
	"github.com/deanmartian/livets-stemme/internal/logger"
	"github.com/deanmartian/livets-stemme/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOpenAI struct {
	reply      string
	status     int
	lastChat   map[string]any
	transcript string
}

func (f *fakeOpenAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
		return
	}
	switch r.URL.Path {
	case "/v1/chat/completions":
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &f.lastChat)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": f.reply}},
			},
		})
	case "/v1/audio/transcriptions":
		_ = json.NewEncoder(w).Encode(map[string]string{"text": f.transcript})
	default:
		http.NotFound(w, r)
	}
}

func newTestAssistant(t *testing.T, fake *fakeOpenAI) *Assistant {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.OpenAIConfig{
		BaseURL:           srv.URL + "/v1",
		ChatModel:         "gpt-4",
		RequestsPerMinute: 6000,
		Timeout:           5 * time.Second,
	}
	return NewAssistant(cfg, "sk-test", logger.NewNopLogger())
}

func newUnconfiguredAssistant() *Assistant {
	return NewAssistant(config.OpenAIConfig{RequestsPerMinute: 60}, "", logger.NewNopLogger())
}

func TestGeneratePromptsWithoutKeyUsesFallback(t *testing.T) {
	a := newUnconfiguredAssistant()

	prompts := a.GeneratePrompts(context.Background(), CategoryChildhood, model.ConversationContext{})
	require.Len(t, prompts, 2)
	assert.Equal(t, "childhood-1", prompts[0].ID)
	assert.Equal(t, CategoryChildhood, prompts[0].Category)
	assert.True(t, prompts[0].AgeAppropriate)

	assert.Len(t, a.GeneratePrompts(context.Background(), CategoryFamily, model.ConversationContext{}), 1)
	assert.Empty(t, a.GeneratePrompts(context.Background(), "Ukjent kategori", model.ConversationContext{}))
}

func TestGeneratePromptsMapsModelReply(t *testing.T) {
	fake := &fakeOpenAI{reply: "```json\n" + `[
		{"question": "Hvor gikk du på skole?", "followUp": ["Hvem var læreren?"], "cultural": true},
		{"question": "Hva lekte dere?"}
	]` + "\n```"}
	a := newTestAssistant(t, fake)

	prompts := a.GeneratePrompts(context.Background(), CategoryChildhood, model.ConversationContext{BirthYear: 1942, Region: "Vestlandet"})
	require.Len(t, prompts, 2)

	assert.Equal(t, CategoryChildhood+"-0", prompts[0].ID)
	assert.Equal(t, []string{"Hvem var læreren?"}, prompts[0].FollowUp)
	assert.True(t, prompts[0].Cultural)
	assert.Equal(t, []string{}, prompts[1].FollowUp)
	assert.False(t, prompts[1].Cultural)

	assert.Equal(t, "gpt-4", fake.lastChat["model"])
	assert.InDelta(t, 0.7, fake.lastChat["temperature"], 0.001)
	assert.EqualValues(t, 1500, fake.lastChat["max_tokens"])
}

func TestGeneratePromptsFallsBackOnBadReply(t *testing.T) {
	a := newTestAssistant(t, &fakeOpenAI{reply: "Beklager, jeg kan ikke svare med JSON."})

	prompts := a.GeneratePrompts(context.Background(), CategoryFamily, model.ConversationContext{})
	require.Len(t, prompts, 1)
	assert.Equal(t, "family-1", prompts[0].ID)
}

func TestGeneratePromptsFallsBackOnAPIError(t *testing.T) {
	a := newTestAssistant(t, &fakeOpenAI{status: http.StatusInternalServerError})

	prompts := a.GeneratePrompts(context.Background(), CategoryChildhood, model.ConversationContext{})
	assert.Len(t, prompts, 2)
}

func TestPromptsUserMessage(t *testing.T) {
	msg := promptsUserMessage(CategoryWork, model.ConversationContext{})
	assert.Contains(t, msg, `kategorien "Jobb & Prestasjoner"`)
	assert.Contains(t, msg, "- Alder: ukjent")
	assert.Contains(t, msg, "- Region: Norge")
	assert.Contains(t, msg, "- Interesser: ukjent")
	assert.NotContains(t, msg, "Relevante stikkord")

	msg = promptsUserMessage(CategoryWork, model.ConversationContext{
		UserAge:   82,
		BirthYear: 1942,
		Region:    "Nord-Norge",
		Interests: []string{"fiske", "sang"},
	})
	assert.Contains(t, msg, "- Alder: 82")
	assert.Contains(t, msg, "- Interesser: fiske, sang")
	assert.Contains(t, msg, "okkupasjon")
	assert.Contains(t, msg, "rasjonering")
	assert.Contains(t, msg, "nordlys")
}

func TestAnalyzeStory(t *testing.T) {
	a := newUnconfiguredAssistant()
	assert.Equal(t, fallbackAnalysis(), a.AnalyzeStory(context.Background(), "t", "c", ""))

	fake := &fakeOpenAI{reply: `{"themes":["krig"],"mood":"alvorlig","suggestions":["Mer om stedet"],"culturalRelevance":0.9,"clarity":0.6,"emotionalDepth":0.8}`}
	a = newTestAssistant(t, fake)
	analysis := a.AnalyzeStory(context.Background(), "Sommeren 1944", "Vi gjemte oss i fjøset.", "")
	assert.Equal(t, []string{"krig"}, analysis.Themes)
	assert.Equal(t, "alvorlig", analysis.Mood)
	assert.InDelta(t, 0.9, analysis.CulturalRelevance, 0.0001)
	assert.InDelta(t, 0.5, fake.lastChat["temperature"], 0.001)
}

func TestConductInterview(t *testing.T) {
	fake := &fakeOpenAI{reply: `{"nextQuestion":"Hvem var med deg?","encouragement":"Så fint!","isComplete":false}`}
	a := newTestAssistant(t, fake)

	turn := a.ConductInterview(context.Background(), "Bryllupet", []string{"Det regnet", "Vi danset"}, model.ConversationContext{})
	assert.Equal(t, "Hvem var med deg?", turn.NextQuestion)

	messages := fake.lastChat["messages"].([]any)
	user := messages[1].(map[string]any)["content"].(string)
	assert.Contains(t, user, "Svar 1: Det regnet\nSvar 2: Vi danset")

	fake.reply = `{"encouragement":"Takk"}`
	assert.Equal(t, fallbackInterviewTurn(), a.ConductInterview(context.Background(), "Bryllupet", nil, model.ConversationContext{}))
}

func TestSuggestTitles(t *testing.T) {
	assert.Equal(t, []string{}, newUnconfiguredAssistant().SuggestTitles(context.Background(), "tekst"))

	fake := &fakeOpenAI{reply: `["Sommeren på stølen", "Bestefars båt"]`}
	a := newTestAssistant(t, fake)
	assert.Equal(t, []string{"Sommeren på stølen", "Bestefars båt"}, a.SuggestTitles(context.Background(), "Det var en gang"))

	fake.reply = "ikke json"
	assert.Equal(t, []string{}, a.SuggestTitles(context.Background(), "Det var en gang"))
}

func TestTranscribe(t *testing.T) {
	_, err := newUnconfiguredAssistant().Transcribe(context.Background(), []byte("x"), "a.wav")
	assert.ErrorIs(t, err, ErrNotConfigured)

	a := newTestAssistant(t, &fakeOpenAI{transcript: "Jeg vokste opp i Bodø."})
	text, err := a.Transcribe(context.Background(), []byte("RIFF...."), "opptak.wav")
	require.NoError(t, err)
	assert.Equal(t, "Jeg vokste opp i Bodø.", text)
}

func TestPeriodsForBirthYear(t *testing.T) {
	assert.Nil(t, PeriodsForBirthYear(0))

	names := func(ps []HistoricalPeriod) []string {
		out := make([]string, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}
	assert.Equal(t, []string{"wartime", "reconstruction", "welfare"}, names(PeriodsForBirthYear(1935)))
	assert.Equal(t, []string{"welfare", "oil"}, names(PeriodsForBirthYear(1965)))
}

func TestRegionHints(t *testing.T) {
	assert.Equal(t, []string{"fjorder", "regn", "sjø"}, RegionHints("Vestlandet"))
	assert.Equal(t, []string{"skog", "innsjøer", "Østfold"}, RegionHints("Østlandet"))
	assert.Nil(t, RegionHints("Trøndelag"))
	assert.Nil(t, RegionHints(""))
}
