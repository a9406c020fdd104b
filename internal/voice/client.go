// Package voice talks to ElevenLabs for voice cloning and speech synthesis
// and screens uploaded samples before they are sent for cloning.
package voice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/deanmartian/livets-stemme/internal/codec"
	"github.com/deanmartian/livets-stemme/internal/config"
	"github.com/deanmartian/livets-stemme/internal/logger"
	"github.com/deanmartian/livets-stemme/internal/model"
	"github.com/samber/lo"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

const (
	_voicesURL       = "/v1/voices"
	_voiceURL        = "/v1/voices/{voiceId}"
	_addVoiceURL     = "/v1/voices/add"
	_textToSpeechURL = "/v1/text-to-speech/{voiceId}"

	_apiKeyHeader    = "xi-api-key"
	_clonedCategory  = "cloned"
	_audioMPEG       = "audio/mpeg"
	_sampleMediaType = "audio/wav"
)

// Norwegian messages shown to the user when the matching operation fails.
const (
	MsgCloneFailed  = "Stemmekloning feilet. Prøv igjen med bedre lydkvalitet."
	MsgSpeechFailed = "Stemmegenerering feilet. Sjekk at stemmen er klar for bruk."
	MsgStatusFailed = "Kunne ikke sjekke stemmestatus."
	MsgDeleteFailed = "Kunne ikke slette stemme."
)

var (
	ErrNotConfigured = errors.New("elevenlabs api key not configured")
	ErrNoSamples     = errors.New("no audio samples")
)

// SpeechOptions override the default voice settings. Zero values keep the
// defaults.
type SpeechOptions struct {
	Stability       float64
	SimilarityBoost float64
	Style           float64
}

const (
	_defaultStability       = 0.5
	_defaultSimilarityBoost = 0.8
	_defaultStyle           = 0.2
)

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type addVoiceResponse struct {
	VoiceID string `json:"voice_id"`
}

type voiceResponse struct {
	VoiceID  string `json:"voice_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type voicesResponse struct {
	Voices []voiceResponse `json:"voices"`
}

type errorResponse struct {
	Detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"detail"`
}

func (e *errorResponse) String() string {
	if e == nil || e.Detail.Message == "" {
		return "unknown error"
	}
	return e.Detail.Status + ": " + e.Detail.Message
}

type Client struct {
	c       *resty.Client
	cfg     config.ElevenLabsConfig
	limiter ratelimit.Limiter

	configured bool

	logger logger.Logger
}

func NewClient(cfg config.ElevenLabsConfig, apiKey string, logger logger.Logger) *Client {
	client := codec.WithSonic(resty.New().
		SetLogger(logger).
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader(_apiKeyHeader, apiKey))

	if apiKey == "" {
		logger.Warnf("elevenlabs api key is empty, voice features are disabled")
	}

	return &Client{
		c:          client,
		cfg:        cfg,
		limiter:    ratelimit.New(cfg.RequestsPerMinute, ratelimit.Per(time.Minute)),
		configured: apiKey != "",
		logger:     logger,
	}
}

func (c *Client) Configured() bool {
	return c.configured
}

func (c *Client) Close() error {
	return c.c.Close()
}

// request waits for the per-minute limiter. Callers that went away while
// waiting get the context error instead of a request.
func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	c.limiter.Take()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.c.R().
		SetError(&errorResponse{}).
		SetContext(ctx), nil
}

func (c *Client) responseError(resp *resty.Response, what string) error {
	c.logger.Debugf("got response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())
	if resp.IsError() {
		if e, ok := resp.Error().(*errorResponse); ok {
			return fmt.Errorf("%s: %s request error (%d)", e, what, resp.StatusCode())
		}
		return fmt.Errorf("%s request error: %s", what, resp.Status())
	}
	return nil
}

// CreateClone uploads the samples as sample_<i>.wav and returns the new
// voice, which ElevenLabs reports as still processing.
func (c *Client) CreateClone(ctx context.Context, samples [][]byte, name, description string) (model.VoiceCloneResult, error) {
	if !c.configured {
		return model.VoiceCloneResult{}, ErrNotConfigured
	}
	if len(samples) == 0 {
		return model.VoiceCloneResult{}, ErrNoSamples
	}

	req, err := c.request(ctx)
	if err != nil {
		return model.VoiceCloneResult{}, err
	}
	req.SetMultipartFormData(map[string]string{
		"name":        name,
		"description": description,
	}).SetResult(&addVoiceResponse{})
	for i, sample := range samples {
		req.SetMultipartField("files", fmt.Sprintf("sample_%d.wav", i), _sampleMediaType, bytes.NewReader(sample))
	}

	resp, err := req.Post(_addVoiceURL)
	if err != nil {
		return model.VoiceCloneResult{}, fmt.Errorf("%w: can't send voice clone request", err)
	}
	defer resp.Body.Close()

	if err := c.responseError(resp, "voice clone"); err != nil {
		return model.VoiceCloneResult{}, err
	}

	return model.VoiceCloneResult{
		VoiceID:    resp.Result().(*addVoiceResponse).VoiceID,
		Name:       name,
		Status:     model.VoiceProcessing,
		Similarity: 0.75,
		Stability:  0.5,
	}, nil
}

func speechSettings(opts SpeechOptions) voiceSettings {
	return voiceSettings{
		Stability:       lo.Ternary(opts.Stability > 0, opts.Stability, _defaultStability),
		SimilarityBoost: lo.Ternary(opts.SimilarityBoost > 0, opts.SimilarityBoost, _defaultSimilarityBoost),
		Style:           lo.Ternary(opts.Style > 0, opts.Style, _defaultStyle),
		UseSpeakerBoost: true,
	}
}

// EstimateSpeechDuration is a rough guess of 0.1s per character, never under
// one second.
func EstimateSpeechDuration(text string) float64 {
	return math.Max(float64(len(text))*0.1, 1)
}

func (c *Client) GenerateSpeech(ctx context.Context, text, voiceID string, opts SpeechOptions) (model.SpeechResult, error) {
	if !c.configured {
		return model.SpeechResult{}, ErrNotConfigured
	}

	text = PreprocessNorwegianText(text)
	req, err := c.request(ctx)
	if err != nil {
		return model.SpeechResult{}, err
	}
	resp, err := req.
		SetPathParam("voiceId", voiceID).
		SetHeader("Accept", _audioMPEG).
		SetBody(speechRequest{
			Text:          text,
			ModelID:       c.cfg.ModelID,
			VoiceSettings: speechSettings(opts),
		}).
		Post(_textToSpeechURL)
	if err != nil {
		return model.SpeechResult{}, fmt.Errorf("%w: can't send text to speech request", err)
	}
	defer resp.Body.Close()

	if err := c.responseError(resp, "text to speech"); err != nil {
		return model.SpeechResult{}, err
	}

	audio := resp.Bytes()
	if len(audio) == 0 {
		return model.SpeechResult{}, errors.New("text to speech returned no audio")
	}

	return model.SpeechResult{
		Audio:       audio,
		ContentType: _audioMPEG,
		Duration:    EstimateSpeechDuration(text),
	}, nil
}

func (c *Client) VoiceStatus(ctx context.Context, voiceID string) (model.VoiceCloneResult, error) {
	if !c.configured {
		return model.VoiceCloneResult{}, ErrNotConfigured
	}

	req, err := c.request(ctx)
	if err != nil {
		return model.VoiceCloneResult{}, err
	}
	resp, err := req.
		SetPathParam("voiceId", voiceID).
		SetResult(&voiceResponse{}).
		Get(_voiceURL)
	if err != nil {
		return model.VoiceCloneResult{}, fmt.Errorf("%w: can't send voice status request", err)
	}
	defer resp.Body.Close()

	if err := c.responseError(resp, "voice status"); err != nil {
		return model.VoiceCloneResult{}, err
	}

	v := resp.Result().(*voiceResponse)
	return model.VoiceCloneResult{
		VoiceID:    v.VoiceID,
		Name:       v.Name,
		Status:     model.VoiceReady,
		Similarity: 0.85,
		Stability:  0.5,
	}, nil
}

// ListVoices returns the cloned voices of the account. It never fails: an
// unconfigured client or an API error yields an empty list.
func (c *Client) ListVoices(ctx context.Context) []model.VoiceCloneResult {
	if !c.configured {
		return []model.VoiceCloneResult{}
	}

	req, err := c.request(ctx)
	if err != nil {
		c.logger.Errorf("%s: can't list voices", err)
		return []model.VoiceCloneResult{}
	}
	resp, err := req.
		SetResult(&voicesResponse{}).
		Get(_voicesURL)
	if err != nil {
		c.logger.Errorf("%s: can't list voices", err)
		return []model.VoiceCloneResult{}
	}
	defer resp.Body.Close()

	if err := c.responseError(resp, "list voices"); err != nil {
		c.logger.Errorf("%s: can't list voices", err)
		return []model.VoiceCloneResult{}
	}

	cloned := lo.Filter(resp.Result().(*voicesResponse).Voices, func(v voiceResponse, _ int) bool {
		return v.Category == _clonedCategory
	})
	return lo.Map(cloned, func(v voiceResponse, _ int) model.VoiceCloneResult {
		return model.VoiceCloneResult{
			VoiceID:    v.VoiceID,
			Name:       v.Name,
			Status:     model.VoiceReady,
			Similarity: 0.85,
			Stability:  0.5,
		}
	})
}

func (c *Client) DeleteVoice(ctx context.Context, voiceID string) error {
	if !c.configured {
		return ErrNotConfigured
	}

	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	resp, err := req.
		SetPathParam("voiceId", voiceID).
		Delete(_voiceURL)
	if err != nil {
		return fmt.Errorf("%w: can't send delete voice request", err)
	}
	defer resp.Body.Close()

	if err := c.responseError(resp, "delete voice"); err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusNoContent {
		return fmt.Errorf("delete voice unexpected status: %s", resp.Status())
	}
	return nil
}
