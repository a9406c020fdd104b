package model

type StoryPrompt struct {
	ID             string   `json:"id"`
	Category       string   `json:"category"`
	Question       string   `json:"question"`
	FollowUp       []string `json:"followUp"`
	Cultural       bool     `json:"cultural"`
	AgeAppropriate bool     `json:"ageAppropriate"`
}

type StoryAnalysis struct {
	Themes            []string `json:"themes"`
	Mood              string   `json:"mood"`
	Suggestions       []string `json:"suggestions"`
	CulturalRelevance float64  `json:"culturalRelevance"`
	Clarity           float64  `json:"clarity"`
	EmotionalDepth    float64  `json:"emotionalDepth"`
}

// ConversationContext is optional background about the storyteller. Zero
// values mean "unknown".
type ConversationContext struct {
	UserAge         int      `json:"userAge,omitempty"`
	BirthYear       int      `json:"birthYear,omitempty"`
	Region          string   `json:"region,omitempty"`
	Interests       []string `json:"interests,omitempty"`
	PreviousStories []string `json:"previousStories,omitempty"`
}

type InterviewTurn struct {
	NextQuestion  string `json:"nextQuestion"`
	Encouragement string `json:"encouragement"`
	IsComplete    bool   `json:"isComplete"`
}
