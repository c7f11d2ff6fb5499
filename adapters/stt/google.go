package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/rishithkoduri/web-translator/domain"
	"github.com/rishithkoduri/web-translator/domain/repositories"
)

type streamOpener func(ctx context.Context) (speechpb.Speech_StreamingRecognizeClient, error)

// GoogleRecognizerFactory creates recognizers backed by Google Cloud Speech-to-Text
type GoogleRecognizerFactory struct {
	client *speech.Client
	open   streamOpener
	logger *zap.Logger
}

// NewGoogleRecognizerFactory creates the shared Google Cloud Speech client
func NewGoogleRecognizerFactory(ctx context.Context, logger *zap.Logger) (*GoogleRecognizerFactory, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	return &GoogleRecognizerFactory{
		client: client,
		open: func(ctx context.Context) (speechpb.Speech_StreamingRecognizeClient, error) {
			return client.StreamingRecognize(ctx)
		},
		logger: logger,
	}, nil
}

// NewRecognizer implements repositories.SpeechRecognizerFactory
func (f *GoogleRecognizerFactory) NewRecognizer(config repositories.RecognitionConfig) (repositories.SpeechRecognizer, error) {
	encoding, err := getAudioEncoding(config.Encoding)
	if err != nil {
		return nil, err
	}

	return &GoogleRecognizer{
		open: f.open,
		recognitionConfig: &speechpb.RecognitionConfig{
			Encoding:        encoding,
			SampleRateHertz: int32(config.SampleRate),
			LanguageCode:    config.SourceLanguage,
		},
		logger: f.logger.With(zap.String("targetLanguage", config.TargetLanguage)),
	}, nil
}

// Close releases the underlying client
func (f *GoogleRecognizerFactory) Close() error {
	if f.client == nil {
		return nil
	}
	return f.client.Close()
}

// GoogleRecognizer runs one streaming recognition per Start, ending after the
// first final utterance. Audio arrives through WriteAudio.
type GoogleRecognizer struct {
	open              streamOpener
	recognitionConfig *speechpb.RecognitionConfig
	logger            *zap.Logger

	mu     sync.Mutex
	stream speechpb.Speech_StreamingRecognizeClient
	cancel context.CancelFunc
	closed bool
	// stopped is replaced on every Start; the receive loop reads its own copy
	stopped *bool
}

// Start opens a new recognition stream
func (g *GoogleRecognizer) Start(handler repositories.RecognitionHandler) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stream != nil {
		g.stopLocked()
	}

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := g.open(ctx)
	if err != nil {
		cancel()
		g.logger.Error("Failed to open recognition stream", zap.Error(err))
		return &domain.RecognitionError{Reason: "network"}
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config:          g.recognitionConfig,
				InterimResults:  false, // final results only
				SingleUtterance: true,
			},
		},
	}); err != nil {
		stream.CloseSend()
		cancel()
		g.logger.Error("Failed to send streaming config", zap.Error(err))
		return &domain.RecognitionError{Reason: "network"}
	}

	stopped := false
	g.stream = stream
	g.cancel = cancel
	g.closed = false
	g.stopped = &stopped

	go g.receive(stream, handler, &stopped)

	g.logger.Info("Recognition stream started", zap.String("language", g.recognitionConfig.LanguageCode))
	return nil
}

// WriteAudio forwards an audio chunk to the active stream
func (g *GoogleRecognizer) WriteAudio(data []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stream == nil || g.closed {
		return errors.New("recognition stream is not active")
	}
	if len(data) == 0 {
		return nil
	}

	if err := g.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: data,
		},
	}); err != nil {
		return fmt.Errorf("failed to send audio data: %w", err)
	}
	return nil
}

// Stop cancels the active stream; no further events are delivered for it
func (g *GoogleRecognizer) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stopLocked()
}

func (g *GoogleRecognizer) stopLocked() {
	if g.stream == nil {
		return
	}
	*g.stopped = true
	if !g.closed {
		g.stream.CloseSend()
	}
	g.cancel()
	g.stream = nil
	g.closed = true
	g.logger.Info("Recognition stream stopped")
}

// closeSend half-closes the stream once the utterance is final
func (g *GoogleRecognizer) closeSend(stream speechpb.Speech_StreamingRecognizeClient) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stream != stream || g.closed {
		return
	}
	g.closed = true
	stream.CloseSend()
}

func (g *GoogleRecognizer) isStopped(stopped *bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return *stopped
}

func (g *GoogleRecognizer) receive(stream speechpb.Speech_StreamingRecognizeClient, handler repositories.RecognitionHandler, stopped *bool) {
	var transcript string

	for {
		resp, err := stream.Recv()
		if g.isStopped(stopped) {
			return
		}
		if err == io.EOF {
			if transcript == "" {
				handler.OnError("no-speech")
			}
			handler.OnEnd()
			return
		}
		if err != nil {
			g.logger.Warn("Recognition stream failed", zap.Error(err))
			handler.OnError("network")
			handler.OnEnd()
			return
		}

		if resp.Error != nil {
			g.logger.Warn("Recognition service error",
				zap.Int32("code", resp.Error.Code),
				zap.String("message", resp.Error.Message))
			handler.OnError("network")
			handler.OnEnd()
			g.closeSend(stream)
			return
		}

		if transcript != "" {
			continue
		}
		for _, result := range resp.Results {
			if result.IsFinal && len(result.Alternatives) > 0 {
				transcript = strings.TrimSpace(result.Alternatives[0].Transcript)
				break
			}
		}
		if transcript != "" {
			handler.OnResult(transcript)
			g.closeSend(stream)
		}
	}
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
