package story

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/deanmartian/livets-stemme/internal/model"
	"github.com/samber/lo"
)

const _promptsSystem = `Du er en vennlig norsk historieassistent som hjelper eldre mennesker (65+) med å dele sine livshistorier.

Du skal lage milde, respektfulle spørsmål som:
- Er kulturelt relevante for Norge
- Passer for personer født mellom 1930-1960
- Tar hensyn til norsk historie (krig, gjenoppbygging, velferdssamfunn)
- Er varme og personlige, ikke invaderende
- Bruker enkelt, hverdagslig norsk språk
- Fokuserer på positive minner og verdifulle opplevelser

Kategorier: Barndom & Oppvekst, Familie & Forhold, Jobb & Prestasjoner, Eventyr & Reiser, Tradisjoner & Verdier`

const _unknown = "ukjent"

type generatedPrompt struct {
	Question string   `json:"question"`
	FollowUp []string `json:"followUp"`
	Cultural bool     `json:"cultural"`
}

func orUnknown(n int) string {
	if n <= 0 {
		return _unknown
	}
	return strconv.Itoa(n)
}

func promptsUserMessage(category string, c model.ConversationContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lag 5 historieforslag for kategorien %q.\n\n", category)
	b.WriteString("Kontekst om brukeren:\n")
	fmt.Fprintf(&b, "- Alder: %s\n", orUnknown(c.UserAge))
	fmt.Fprintf(&b, "- Fødselsår: %s\n", orUnknown(c.BirthYear))
	fmt.Fprintf(&b, "- Region: %s\n", lo.Ternary(c.Region == "", "Norge", c.Region))
	fmt.Fprintf(&b, "- Interesser: %s\n", lo.Ternary(len(c.Interests) == 0, _unknown, strings.Join(c.Interests, ", ")))

	if periods := PeriodsForBirthYear(c.BirthYear); len(periods) > 0 {
		keywords := lo.FlatMap(periods, func(p HistoricalPeriod, _ int) []string { return p.Keywords })
		fmt.Fprintf(&b, "- Relevante stikkord: %s\n", strings.Join(keywords, ", "))
	}
	if memories := ChildhoodMemories(c.BirthYear); len(memories) > 0 {
		fmt.Fprintf(&b, "- Typiske barndomsminner: %s\n", strings.Join(memories, ", "))
	}
	if hints := RegionHints(c.Region); len(hints) > 0 {
		fmt.Fprintf(&b, "- Regionale minner: %s\n", strings.Join(hints, ", "))
	}

	b.WriteString("\nFormat som JSON array med: question, followUp (array), cultural (boolean)")
	return b.String()
}

// GeneratePrompts never fails: without a model reply it serves the fallback
// table for the category.
func (a *Assistant) GeneratePrompts(ctx context.Context, category string, c model.ConversationContext) []model.StoryPrompt {
	if !a.Configured() {
		return FallbackPrompts(category)
	}

	content, err := a.complete(ctx, chatRequest{
		system:      _promptsSystem,
		user:        promptsUserMessage(category, c),
		temperature: 0.7,
		maxTokens:   1500,
	})
	if err != nil {
		a.logger.Errorf("%s: ai prompt generation failed", err)
		return FallbackPrompts(category)
	}

	var generated []generatedPrompt
	if err := decodeReply(content, &generated); err != nil {
		a.logger.Errorf("%s: ai prompt generation failed", err)
		return FallbackPrompts(category)
	}

	prompts := make([]model.StoryPrompt, 0, len(generated))
	for i, g := range generated {
		if strings.TrimSpace(g.Question) == "" {
			continue
		}
		prompts = append(prompts, model.StoryPrompt{
			ID:             fmt.Sprintf("%s-%d", category, i),
			Category:       category,
			Question:       g.Question,
			FollowUp:       lo.Ternary(g.FollowUp == nil, []string{}, g.FollowUp),
			Cultural:       g.Cultural,
			AgeAppropriate: true,
		})
	}
	return prompts
}
