package story

import "github.com/deanmartian/livets-stemme/internal/model"

const (
	CategoryChildhood  = "Barndom & Oppvekst"
	CategoryFamily     = "Familie & Forhold"
	CategoryWork       = "Jobb & Prestasjoner"
	CategoryAdventure  = "Eventyr & Reiser"
	CategoryTraditions = "Tradisjoner & Verdier"
)

type fallbackPrompt struct {
	id       string
	question string
	followUp []string
	cultural bool
}

var _fallbackPrompts = map[string][]fallbackPrompt{
	CategoryChildhood: {
		{
			id:       "childhood-1",
			question: "Fortell om huset eller leiligheten du vokste opp i. Hvordan så det ut, og hvilket rom var ditt favorittsted?",
			followUp: []string{"Hvilke lukter husker du fra hjemmet?", "Hadde dere noen spesielle familietradisjoner?"},
			cultural: true,
		},
		{
			id:       "childhood-2",
			question: "Hvordan var det å gå på skole da du var liten? Hvem var din favorittlærer?",
			followUp: []string{"Hva lærte du utenfor skolen?", "Hvordan kom du deg til skolen?"},
			cultural: true,
		},
	},
	CategoryFamily: {
		{
			id:       "family-1",
			question: "Fortell om hvordan du møtte din kjære. Hvor var dere, og hva var ditt første inntrykk?",
			followUp: []string{"Når skjønte du at dette var \"den rette\"?", "Hvordan fant dere sammen?"},
		},
	},
}

// FallbackPrompts returns the built-in prompts for a category, or an empty
// list for categories without any.
func FallbackPrompts(category string) []model.StoryPrompt {
	table := _fallbackPrompts[category]
	prompts := make([]model.StoryPrompt, 0, len(table))
	for _, p := range table {
		prompts = append(prompts, model.StoryPrompt{
			ID:             p.id,
			Category:       category,
			Question:       p.question,
			FollowUp:       append([]string(nil), p.followUp...),
			Cultural:       p.cultural,
			AgeAppropriate: true,
		})
	}
	return prompts
}

func fallbackAnalysis() model.StoryAnalysis {
	return model.StoryAnalysis{
		Themes:            []string{"familie", "minner"},
		Mood:              "nostalgisk",
		Suggestions:       []string{"Legg til mer om følelsene dine i situasjonen"},
		CulturalRelevance: 0.7,
		Clarity:           0.8,
		EmotionalDepth:    0.7,
	}
}

func fallbackInterviewTurn() model.InterviewTurn {
	return model.InterviewTurn{
		NextQuestion:  "Kan du fortelle mer om hvordan du følte deg i den situasjonen?",
		Encouragement: "Det høres ut som en viktig opplevelse. Takk for at du deler den med oss.",
		IsComplete:    false,
	}
}
