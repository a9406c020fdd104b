package story

import (
	"context"
	"fmt"
	"strings"

	"github.com/deanmartian/livets-stemme/internal/model"
)

const _analysisSystem = `Du er en ekspert på norske livshistorier og kulturell kontekst. Analyser historien og gi konstruktive, varme tilbakemeldinger.

Fokuser på:
- Kulturelle temaer og referanser til norsk historie/samfunn
- Emosjonell dybde og autensitet
- Klarhet i fortellingen
- Forslag til utdyping uten å være påtrengende

Vær alltid oppmuntrende og respektfull overfor eldre menneskers opplevelser.`

const _interviewSystem = `Du er en varm, tålmodig intervjuer som hjelper eldre nordmenn med å utdype sine historier.

Regler:
- Bruk varmt, støttende språk
- Still oppfølgingsspørsmål basert på det de har sagt
- Vis ekte interesse og empati
- Unngå for personlige eller traumatiske spørsmål
- Oppmuntre til detaljer om følelser, stedet, menneskene involvert
- Respekter hvis de ikke vil snakke om noe
- Bruk norske uttrykk og kulturelle referanser

Mål: Hjelpe dem å skape en full, rik historie de kan være stolte av.`

const _titlesSystem = `Du lager minnerike, varme titler for eldre nordmenns livshistorier.

Tittlene skal være:
- Korte og lett å huske
- Personlige og følelsesmessige
- Beskrivende uten å avsløre alt
- Passende for familiedeling
- På naturlig norsk`

const _titleExcerptRunes = 500

func (a *Assistant) AnalyzeStory(ctx context.Context, title, content, transcript string) model.StoryAnalysis {
	if !a.Configured() {
		return fallbackAnalysis()
	}

	var user strings.Builder
	user.WriteString("Analyser denne historien:\n\n")
	fmt.Fprintf(&user, "Tittel: %s\n", title)
	fmt.Fprintf(&user, "Innhold: %s\n", content)
	if transcript != "" {
		fmt.Fprintf(&user, "Transkripsjon: %s\n", transcript)
	}
	user.WriteString("\nGi analyse som JSON med: themes[], mood, suggestions[], culturalRelevance (0-1), clarity (0-1), emotionalDepth (0-1)")

	reply, err := a.complete(ctx, chatRequest{
		system:      _analysisSystem,
		user:        user.String(),
		temperature: 0.5,
		maxTokens:   1000,
	})
	if err != nil {
		a.logger.Errorf("%s: story analysis failed", err)
		return fallbackAnalysis()
	}

	var analysis model.StoryAnalysis
	if err := decodeReply(reply, &analysis); err != nil {
		a.logger.Errorf("%s: story analysis failed", err)
		return fallbackAnalysis()
	}
	return analysis
}

func (a *Assistant) ConductInterview(ctx context.Context, topic string, responses []string, _ model.ConversationContext) model.InterviewTurn {
	if !a.Configured() {
		return fallbackInterviewTurn()
	}

	history := make([]string, 0, len(responses))
	for i, r := range responses {
		history = append(history, fmt.Sprintf("Svar %d: %s", i+1, r))
	}
	user := fmt.Sprintf("Emne: %s\n\nSamtalehistorikk:\n%s\n\nLag neste spørsmål for å hjelpe dem utdype historien.\nFormat som JSON: { nextQuestion, encouragement, isComplete }",
		topic, strings.Join(history, "\n"))

	reply, err := a.complete(ctx, chatRequest{
		system:      _interviewSystem,
		user:        user,
		temperature: 0.8,
		maxTokens:   300,
	})
	if err != nil {
		a.logger.Errorf("%s: story interview failed", err)
		return fallbackInterviewTurn()
	}

	var turn model.InterviewTurn
	if err := decodeReply(reply, &turn); err != nil {
		a.logger.Errorf("%s: story interview failed", err)
		return fallbackInterviewTurn()
	}
	if turn.NextQuestion == "" {
		a.logger.Warnf("story interview reply without a question")
		return fallbackInterviewTurn()
	}
	return turn
}

// SuggestTitles returns an empty list, never nil, when nothing can be
// suggested.
func (a *Assistant) SuggestTitles(ctx context.Context, content string) []string {
	if !a.Configured() {
		return []string{}
	}

	excerpt := []rune(content)
	if len(excerpt) > _titleExcerptRunes {
		excerpt = excerpt[:_titleExcerptRunes]
	}
	user := fmt.Sprintf("Foreslå 5 alternative titler for denne historien:\n\n%s...\n\nReturner som JSON array av strings.", string(excerpt))

	reply, err := a.complete(ctx, chatRequest{
		system:      _titlesSystem,
		user:        user,
		temperature: 0.7,
		maxTokens:   200,
	})
	if err != nil {
		a.logger.Errorf("%s: title suggestion failed", err)
		return []string{}
	}

	var titles []string
	if err := decodeReply(reply, &titles); err != nil {
		a.logger.Errorf("%s: title suggestion failed", err)
		return []string{}
	}
	if titles == nil {
		return []string{}
	}
	return titles
}
