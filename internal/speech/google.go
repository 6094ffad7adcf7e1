package speech

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
)

// The tutor speaks Dutch to the learner, so both directions default to
// nl-NL. Credentials come from GOOGLE_APPLICATION_CREDENTIALS.
const (
	defaultLanguageCode = "nl-NL"
	defaultVoice        = "nl-NL-Wavenet-B"
)

// GoogleTranscriber is a Transcriber backed by Google Cloud Speech-to-Text.
type GoogleTranscriber struct {
	client   *speech.Client
	language string
}

// NewGoogleTranscriber connects to the Speech-to-Text API. An empty
// language selects the Dutch default.
func NewGoogleTranscriber(ctx context.Context, language string) (*GoogleTranscriber, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	if language == "" {
		language = defaultLanguageCode
	}
	return &GoogleTranscriber{client: client, language: language}, nil
}

// Transcribe recognizes one short audio clip. Voice chat messages are a
// few seconds long, so the synchronous endpoint suffices.
func (g *GoogleTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_ENCODING_UNSPECIFIED,
			LanguageCode:               g.language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, result.Alternatives[0].Transcript)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " ")), nil
}

func (g *GoogleTranscriber) Close() error {
	return g.client.Close()
}

// GoogleSynthesizer is a Synthesizer backed by Google Cloud
// Text-to-Speech, producing MP3.
type GoogleSynthesizer struct {
	client   *texttospeech.Client
	language string
	voice    string
}

// NewGoogleSynthesizer connects to the Text-to-Speech API. Empty language
// or voice select the Dutch defaults.
func NewGoogleSynthesizer(ctx context.Context, language, voice string) (*GoogleSynthesizer, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("texttospeech client: %w", err)
	}
	if language == "" {
		language = defaultLanguageCode
	}
	if voice == "" {
		voice = defaultVoice
	}
	return &GoogleSynthesizer{client: client, language: language, voice: voice}, nil
}

func (g *GoogleSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	resp, err := g.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: g.language,
			Name:         g.voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech: %w", err)
	}
	return resp.AudioContent, nil
}

func (g *GoogleSynthesizer) Close() error {
	return g.client.Close()
}
