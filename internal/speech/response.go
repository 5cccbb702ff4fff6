package speech

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/justwhisper/justwhisper/internal/transcript"
)

// verboseJSONResponse mirrors the Whisper response_format=verbose_json body,
// per spec.md §4.7.
type verboseJSONResponse struct {
	Text     string            `json:"text"`
	Language string            `json:"language"`
	Duration float64           `json:"duration"`
	Segments []responseSegment `json:"segments"`
}

type responseSegment struct {
	Text         string  `json:"text"`
	NoSpeechProb float64 `json:"no_speech_prob"`
	AvgLogprob   float64 `json:"avg_logprob"`
}

// textFieldPattern is the last-resort regex extraction of the first
// `"text":"..."` field when the body does not parse as JSON at all.
var textFieldPattern = regexp.MustCompile(`"text"\s*:\s*"((?:[^"\\]|\\.)*)"`)

// parseTranscriptionResponse implements spec.md §4.7's response-handling
// cascade: verbose_json -> segments[] fallback -> plain text -> regex
// extraction -> ResponseParse failure.
func parseTranscriptionResponse(body []byte) (string, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "", &Error{Kind: ResponseParse, Err: errEmptyResponseBody}
	}

	var parsed verboseJSONResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		if strings.TrimSpace(parsed.Text) != "" {
			return parsed.Text, nil
		}

		segments := make([]string, 0, len(parsed.Segments))
		for _, seg := range parsed.Segments {
			if strings.TrimSpace(seg.Text) != "" {
				segments = append(segments, seg.Text)
			}
		}
		if len(segments) > 0 {
			return transcript.Assemble(segments, transcript.Options{}), nil
		}

		// Parsed as JSON but carried no usable text anywhere; fall through to
		// the regex last resort in case the shape was unexpected rather than
		// genuinely empty.
	}

	if !looksLikeJSON(trimmed) {
		return trimmed, nil
	}

	if match := textFieldPattern.FindStringSubmatch(trimmed); match != nil {
		return match[1], nil
	}

	return "", &Error{Kind: ResponseParse, Err: errUnparsableResponseBody}
}

func looksLikeJSON(trimmed string) bool {
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}
