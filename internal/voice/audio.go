package voice

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/deanmartian/livets-stemme/internal/model"
	"github.com/hajimehoshi/go-mp3"
)

const (
	MinSampleSeconds = 60
	MaxSampleSeconds = 300

	// go-mp3 always decodes to 16-bit stereo
	_mp3BytesPerSample = 4
)

const (
	RecommendTooShort = "Ta opp minst 60 sekunder med kontinuerlig tale"
	RecommendTooLong  = "Begrens opptaket til 5 minutter for best kvalitet"
	RecommendFormat   = "Last opp lyd i WAV- eller MP3-format"
	RecommendClarity  = "Snakk tydelig og i normal hastighet"
	RecommendNoise    = "Unngå bakgrunnsstøy og ekko"
	RecommendSameTone = "Bruk samme stemmetone gjennom hele opptaket"
)

var errUnknownFormat = errors.New("unknown audio format")

// AnalyzeAudio decides whether a sample is good enough for cloning. The
// filename is only a hint, the content decides the format.
func AnalyzeAudio(sample []byte, filename string) model.AudioAnalysis {
	analysis := model.AudioAnalysis{
		IsEligible:      true,
		Quality:         model.QualityGood,
		Recommendations: []string{},
	}

	duration, err := audioDuration(sample, filename)
	if err != nil {
		analysis.IsEligible = false
		analysis.Quality = model.QualityPoor
		analysis.Recommendations = append(analysis.Recommendations, RecommendFormat)
	}
	analysis.Duration = duration

	switch {
	case duration < MinSampleSeconds:
		analysis.IsEligible = false
		analysis.Quality = model.QualityPoor
		analysis.Recommendations = append(analysis.Recommendations, RecommendTooShort)
	case duration > MaxSampleSeconds:
		analysis.Recommendations = append(analysis.Recommendations, RecommendTooLong)
	}

	analysis.Recommendations = append(analysis.Recommendations,
		RecommendClarity,
		RecommendNoise,
		RecommendSameTone,
	)
	return analysis
}

func audioDuration(sample []byte, filename string) (float64, error) {
	switch {
	case isWAV(sample):
		return wavDuration(sample)
	case isMP3(sample) || strings.EqualFold(filepath.Ext(filename), ".mp3"):
		return mp3Duration(sample)
	default:
		return 0, errUnknownFormat
	}
}

func isWAV(b []byte) bool {
	return len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WAVE"
}

func isMP3(b []byte) bool {
	if len(b) >= 3 && string(b[0:3]) == "ID3" {
		return true
	}
	// frame sync: 11 set bits
	return len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0
}

// wavDuration walks the RIFF chunks for the fmt byte rate and the data size.
func wavDuration(b []byte) (float64, error) {
	var (
		byteRate uint32
		dataSize uint32
		off      = 12
	)
	for off+8 <= len(b) {
		id := string(b[off : off+4])
		size := binary.LittleEndian.Uint32(b[off+4 : off+8])
		body := off + 8

		switch id {
		case "fmt ":
			if body+12 > len(b) {
				return 0, errors.New("truncated wav fmt chunk")
			}
			byteRate = binary.LittleEndian.Uint32(b[body+8 : body+12])
		case "data":
			dataSize = size
			// streamed recordings leave the size unset or larger than the file
			if remaining := uint32(len(b) - body); dataSize == 0 || dataSize > remaining {
				dataSize = remaining
			}
		}
		if byteRate != 0 && dataSize != 0 {
			return float64(dataSize) / float64(byteRate), nil
		}

		// chunks are word aligned
		off = body + int(size) + int(size&1)
	}
	return 0, errors.New("wav without fmt or data chunk")
}

func mp3Duration(b []byte) (float64, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(b))
	if err != nil {
		return 0, fmt.Errorf("%w: can't decode mp3", err)
	}
	if d.SampleRate() == 0 || d.Length() <= 0 {
		return 0, errors.New("empty mp3 stream")
	}
	return float64(d.Length()/_mp3BytesPerSample) / float64(d.SampleRate()), nil
}
