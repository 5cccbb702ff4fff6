package speech

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTranscriptionResponseUsesTopLevelText(t *testing.T) {
	got, err := parseTranscriptionResponse([]byte(`{"text":"hello world","language":"en"}`))
	require.NoError(t, err)
	require.Equal(t, "hello world", got)
}

func TestParseTranscriptionResponseFallsBackToSegments(t *testing.T) {
	got, err := parseTranscriptionResponse([]byte(`{"text":"","segments":[{"text":"hello"},{"text":"world"}]}`))
	require.NoError(t, err)
	require.Equal(t, "hello world", got)
}

func TestParseTranscriptionResponseSkipsEmptySegments(t *testing.T) {
	got, err := parseTranscriptionResponse([]byte(`{"segments":[{"text":""},{"text":"world"}]}`))
	require.NoError(t, err)
	require.Equal(t, "world", got)
}

func TestParseTranscriptionResponsePlainTextFallback(t *testing.T) {
	got, err := parseTranscriptionResponse([]byte("just a plain transcript"))
	require.NoError(t, err)
	require.Equal(t, "just a plain transcript", got)
}

func TestParseTranscriptionResponseRegexExtraction(t *testing.T) {
	got, err := parseTranscriptionResponse([]byte(`{"text":"broken json but closes", "segments": [}`))
	require.NoError(t, err)
	require.Equal(t, "broken json but closes", got)
}

func TestParseTranscriptionResponseFailsWhenNothingUsable(t *testing.T) {
	_, err := parseTranscriptionResponse([]byte(`{"language":"en"}`))
	require.Error(t, err)

	var speechErr *Error
	require.ErrorAs(t, err, &speechErr)
	require.Equal(t, ResponseParse, speechErr.Kind)
}

func TestParseTranscriptionResponseFailsOnEmptyBody(t *testing.T) {
	_, err := parseTranscriptionResponse([]byte("  "))
	require.Error(t, err)

	var speechErr *Error
	require.ErrorAs(t, err, &speechErr)
	require.Equal(t, ResponseParse, speechErr.Kind)
}
