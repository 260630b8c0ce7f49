package speech

import (
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
)

func TestRecognitionConfig(t *testing.T) {
	tests := []struct {
		contentType string
		encoding    speechpb.RecognitionConfig_AudioEncoding
		sampleRate  int32
	}{
		{"audio/webm;codecs=opus", speechpb.RecognitionConfig_WEBM_OPUS, 48000},
		{"audio/ogg", speechpb.RecognitionConfig_OGG_OPUS, 48000},
		{"application/octet-stream", speechpb.RecognitionConfig_LINEAR16, 16000},
		{"audio/wav", speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, 0},
	}

	for _, tc := range tests {
		t.Run(tc.contentType, func(t *testing.T) {
			cfg := recognitionConfig(tc.contentType, "en-AU")
			assert.Equal(t, tc.encoding, cfg.GetEncoding())
			assert.Equal(t, tc.sampleRate, cfg.GetSampleRateHertz())
			assert.Equal(t, "en-AU", cfg.GetLanguageCode())
		})
	}
}
