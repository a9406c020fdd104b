package model

type VoiceStatus string

const (
	VoiceReady      VoiceStatus = "ready"
	VoiceProcessing VoiceStatus = "processing"
	VoiceFailed     VoiceStatus = "failed"
)

type VoiceCloneResult struct {
	VoiceID    string      `json:"voiceId"`
	Name       string      `json:"name"`
	Status     VoiceStatus `json:"status"`
	Similarity float64     `json:"similarity"`
	Stability  float64     `json:"stability"`
}

type AudioQuality string

const (
	QualityExcellent AudioQuality = "excellent"
	QualityGood      AudioQuality = "good"
	QualityPoor      AudioQuality = "poor"
)

type AudioAnalysis struct {
	IsEligible      bool         `json:"isEligible"`
	Quality         AudioQuality `json:"quality"`
	Duration        float64      `json:"duration"` // seconds
	Recommendations []string     `json:"recommendations"`
}

type SpeechResult struct {
	Audio       []byte  `json:"-"`
	ContentType string  `json:"contentType"`
	Duration    float64 `json:"duration"` // estimated seconds
}
