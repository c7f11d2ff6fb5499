// Command voiceclient drives one voice session against a running server. It
// requests a session token, selects the target language, toggles listening and
// streams an audio file for server-side recognizers, then prints what the
// server sends back until the cycle finishes.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ClientID  string    `json:"client_id"`
}

type options struct {
	server    string
	clientID  string
	language  string
	audioFile string
	chunkSize int
	interval  time.Duration
	timeout   time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.server, "server", "http://localhost:8080", "server base URL")
	flag.StringVar(&opts.clientID, "client", "", "client ID for the session token")
	flag.StringVar(&opts.language, "lang", "es", "target language code")
	flag.StringVar(&opts.audioFile, "audio", "", "audio file streamed to server-side recognizers")
	flag.IntVar(&opts.chunkSize, "chunk", 4096, "audio chunk size in bytes")
	flag.DurationVar(&opts.interval, "interval", 100*time.Millisecond, "delay between audio chunks")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "time to wait for the cycle to finish")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if err := run(opts, logger); err != nil {
		logger.Fatal("Voice client failed", zap.Error(err))
	}
}

func run(opts options, logger *zap.Logger) error {
	token, err := requestToken(opts.server, opts.clientID)
	if err != nil {
		return fmt.Errorf("failed to get session token: %w", err)
	}
	logger.Info("Session token issued", zap.String("clientID", token.ClientID), zap.Time("expiresAt", token.ExpiresAt))

	u, err := url.Parse(opts.server)
	if err != nil {
		return err
	}
	u.Scheme = strings.Replace(u.Scheme, "http", "ws", 1)
	u.Path = "/ws"

	headers := http.Header{}
	headers.Add("Authorization", "Bearer "+token.Token)

	c, _, err := websocket.DefaultDialer.Dial(u.String(), headers)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer c.Close()

	done := make(chan struct{})
	go readMessages(c, logger, done)

	if err := sendJSON(c, map[string]interface{}{"type": "select_language", "language": opts.language}); err != nil {
		return err
	}
	if err := sendJSON(c, map[string]interface{}{"type": "toggle"}); err != nil {
		return err
	}

	if opts.audioFile != "" {
		if err := streamAudio(c, opts, logger); err != nil {
			return err
		}
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	select {
	case <-done:
	case <-time.After(opts.timeout):
		logger.Warn("Timed out waiting for the session")
	case <-interrupt:
		logger.Info("Interrupted")
	}

	// Cleanly close the connection by sending a close message and then
	// waiting (with timeout) for the server to close the connection.
	if err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
		return nil
	}
	select {
	case <-done:
	case <-time.After(time.Second):
	}
	return nil
}

func requestToken(server, clientID string) (*tokenResponse, error) {
	body, err := json.Marshal(map[string]string{"client_id": clientID})
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(strings.TrimRight(server, "/")+"/api/v1/session/token", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token request failed: %s", string(data))
	}

	var token tokenResponse
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func sendJSON(c *websocket.Conn, v interface{}) error {
	if err := c.WriteJSON(v); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func streamAudio(c *websocket.Conn, opts options, logger *zap.Logger) error {
	audio, err := os.ReadFile(opts.audioFile)
	if err != nil {
		return fmt.Errorf("failed to read audio file: %w", err)
	}

	chunkSize := opts.chunkSize
	if chunkSize <= 0 {
		chunkSize = 4096
	}

	logger.Info("Streaming audio", zap.String("file", opts.audioFile), zap.Int("bytes", len(audio)))
	for start := 0; start < len(audio); start += chunkSize {
		end := start + chunkSize
		if end > len(audio) {
			end = len(audio)
		}
		if err := c.WriteMessage(websocket.BinaryMessage, audio[start:end]); err != nil {
			return fmt.Errorf("failed to send audio chunk: %w", err)
		}
		time.Sleep(opts.interval)
	}
	return nil
}

// readMessages logs server messages and closes done once the cycle leaves
// the listening and translating phases
func readMessages(c *websocket.Conn, logger *zap.Logger, done chan struct{}) {
	defer close(done)

	started := false
	audioBytes := 0
	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Error("Read failed", zap.Error(err))
			}
			return
		}

		if messageType == websocket.BinaryMessage {
			audioBytes += len(message)
			continue
		}

		var msg struct {
			Type  string `json:"type"`
			Text  string `json:"text"`
			Lang  string `json:"lang"`
			Code  string `json:"error_code"`
			State struct {
				Phase            string `json:"phase"`
				Status           string `json:"status"`
				SourceTranscript string `json:"source_transcript"`
				TranslatedText   string `json:"translated_text"`
			} `json:"state"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			logger.Warn("Unreadable message", zap.Error(err))
			continue
		}

		switch msg.Type {
		case "state":
			logger.Info("State",
				zap.String("phase", msg.State.Phase),
				zap.String("status", msg.State.Status),
				zap.String("transcript", msg.State.SourceTranscript),
				zap.String("translation", msg.State.TranslatedText))
			var finished bool
			if started, finished = cycleProgress(msg.State.Phase, started); finished {
				return
			}
		case "speak":
			logger.Info("Speak", zap.String("text", msg.Text), zap.String("lang", msg.Lang))
		case "speaking_end":
			logger.Info("Speech audio received", zap.Int("bytes", audioBytes))
			audioBytes = 0
		case "error":
			logger.Warn("Server error", zap.String("code", msg.Code), zap.ByteString("message", message))
		default:
			logger.Debug("Event", zap.String("type", msg.Type))
		}
	}
}

// cycleProgress reports whether a cycle has started and whether it finished.
// A stop toggle or silence returns the session to idle without reaching done.
func cycleProgress(phase string, started bool) (bool, bool) {
	switch phase {
	case "listening", "translating":
		return true, false
	case "done", "error", "idle":
		return started, started
	}
	return started, false
}
