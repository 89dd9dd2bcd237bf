package transcribe

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/houzhh15/meethub/cmd/server/internal/metrics"
)

// WhisperHTTP implements Transcriber against a whisper HTTP sidecar.
//
// Chunk transcription posts raw little-endian float32 samples to
// POST {apiURL}/api/whisper/stream; file transcription posts the file as
// multipart/form-data to POST {apiURL}/api/whisper/transcribe, mirroring the
// go-whisper container API.
type WhisperHTTP struct {
	apiURL     string
	httpClient *http.Client
}

// NewWhisperHTTP creates a client for the whisper service at apiURL. The
// timeout bounds every call; a hung transcription must not pin a connection's
// processing state forever.
func NewWhisperHTTP(apiURL string, timeout time.Duration) *WhisperHTTP {
	return &WhisperHTTP{
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type streamResponse struct {
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// TranscribeChunk posts one normalized audio chunk and parses the fragment.
func (w *WhisperHTTP) TranscribeChunk(ctx context.Context, samples []float32) (*Fragment, error) {
	start := time.Now()

	body := make([]byte, 0, len(samples)*4)
	var scratch [4]byte
	for _, s := range samples {
		binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(s))
		body = append(body, scratch[:]...)
	}

	endpoint := w.apiURL + "/api/whisper/stream"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("transcribe chunk: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcribe chunk: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcribe chunk: whisper returned status %d: %s", resp.StatusCode, string(b))
	}

	var sr streamResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("transcribe chunk: parse response: %w", err)
	}

	metrics.RecordCollaboratorDuration("transcriber", time.Since(start).Seconds())

	text := strings.TrimSpace(sr.Text)
	if text == "" {
		return nil, nil
	}
	return &Fragment{Text: text, Language: sr.Language, Confidence: sr.Confidence}, nil
}

// TranscribeFile posts an entire audio file and returns the full text.
func (w *WhisperHTTP) TranscribeFile(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("transcribe file: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("transcribe file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("transcribe file: %w", err)
	}
	if err := writer.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("transcribe file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("transcribe file: %w", err)
	}

	endpoint := w.apiURL + "/api/whisper/transcribe"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", fmt.Errorf("transcribe file: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcribe file: whisper returned status %d: %s", resp.StatusCode, string(b))
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("transcribe file: parse response: %w", err)
	}
	return result.Text, nil
}

// Ready probes the service model endpoint with a short timeout.
func (w *WhisperHTTP) Ready() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.apiURL+"/api/whisper/model", nil)
	if err != nil {
		return false
	}
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Name identifies this implementation.
func (w *WhisperHTTP) Name() string {
	return "whisper-http"
}
