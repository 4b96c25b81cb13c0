package deepvoice

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// ClientConfig holds everything the session controller and gateway need
// that is not audio-format specific.
type ClientConfig struct {
	BackendURL     string  `json:"backend_url"`
	AuthToken      *string `json:"auth_token,omitempty"`
	RequestTimeout float64 `json:"request_timeout"` // seconds, bounds every gateway call
	AudioDeviceID  *int    `json:"audio_device_id,omitempty"`
	UIListenAddr   string  `json:"ui_listen_addr"`
	DebugLevel     string  `json:"debug_level"`
	DebugHTTP      bool    `json:"debug_http"`
	DebugAudio     bool    `json:"debug_audio"`
}

func NewClientConfig() *ClientConfig {
	c := &ClientConfig{
		BackendURL:     "http://localhost:5001",
		RequestTimeout: 30.0,
		UIListenAddr:   "127.0.0.1:8310",
		DebugLevel:     "INFO",
	}

	c.loadFromEnv()

	return c
}

func (c *ClientConfig) loadFromEnv() {
	// Load .env if exists
	_ = godotenv.Load()

	if backend := os.Getenv("DEEPVOICE_BACKEND_URL"); backend != "" {
		c.BackendURL = backend
	}

	if token := os.Getenv("DEEPVOICE_AUTH_TOKEN"); token != "" {
		c.AuthToken = &token
	}

	if timeout := os.Getenv("DEEPVOICE_REQUEST_TIMEOUT"); timeout != "" {
		if val, err := strconv.ParseFloat(timeout, 64); err == nil {
			c.RequestTimeout = val
		}
	}

	if deviceIDStr := os.Getenv("DEEPVOICE_AUDIO_DEVICE_ID"); deviceIDStr != "" {
		if deviceID, err := strconv.Atoi(deviceIDStr); err == nil {
			c.AudioDeviceID = &deviceID
		}
	}

	if addr := os.Getenv("DEEPVOICE_UI_LISTEN_ADDR"); addr != "" {
		c.UIListenAddr = addr
	}

	if level := os.Getenv("DEEPVOICE_DEBUG_LEVEL"); level != "" {
		c.DebugLevel = level
	}

	c.DebugHTTP = os.Getenv("DEEPVOICE_DEBUG_HTTP") == "true"
	c.DebugAudio = os.Getenv("DEEPVOICE_DEBUG_AUDIO") == "true"
}

// Validate returns list of issues
func (c *ClientConfig) Validate() []string {
	issues := []string{}

	if c.BackendURL == "" {
		issues = append(issues, "Backend URL not set")
	} else if u, err := url.Parse(c.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		issues = append(issues, fmt.Sprintf("Invalid backend URL: %s", c.BackendURL))
	}

	if c.RequestTimeout <= 0 {
		issues = append(issues, "Request timeout must be positive")
	}

	validLevels := []string{"DEBUG", "INFO", "WARNING", "ERROR"}
	found := false
	for _, level := range validLevels {
		if level == c.DebugLevel {
			found = true
			break
		}
	}
	if !found {
		issues = append(issues, fmt.Sprintf("Invalid debug level: %s", c.DebugLevel))
	}

	if c.AuthToken != nil {
		if expired, err := IsAuthTokenExpired(*c.AuthToken); err == nil && expired {
			issues = append(issues, "Auth token is expired")
		}
	}

	return issues
}

func (c *ClientConfig) PrintConfig() {
	fmt.Println("DeepVoice Client Configuration")
	fmt.Println("==================================================")
	fmt.Printf("Backend URL: %s\n", c.BackendURL)
	if c.AuthToken != nil {
		fmt.Printf("Auth Token: %s\n", maskToken(*c.AuthToken))
	} else {
		fmt.Println("Auth Token: NOT SET")
	}
	fmt.Printf("Request Timeout: %.1fs\n", c.RequestTimeout)
	fmt.Printf("UI Listen Addr: %s\n", c.UIListenAddr)
	fmt.Printf("Debug Level: %s\n", c.DebugLevel)
	fmt.Printf("Debug HTTP: %t\n", c.DebugHTTP)
	fmt.Printf("Debug Audio: %t\n", c.DebugAudio)

	if c.AudioDeviceID != nil {
		fmt.Printf("Audio Device ID: %d\n", *c.AudioDeviceID)
	} else {
		fmt.Println("Audio Device: Default")
	}
}

// AudioConfig holds the capture and playback format. The backend accepts
// whatever the client encodes, so there is no negotiation; these defaults
// match what the speech-to-text step expects (16 kHz mono).
type AudioConfig struct {
	SampleRate int
	Channels   int
	Format     string
	BufferSize int
}

func NewAudioConfig() *AudioConfig {
	return &AudioConfig{
		SampleRate: 16000,
		Channels:   1,
		Format:     "audio/wav",
		BufferSize: 1024,
	}
}

// ValidateAudioConfig checks an audio configuration for usable values.
func ValidateAudioConfig(config *AudioConfig) *VoiceError {
	if config.SampleRate <= 0 {
		return NewConfigError("Invalid sample rate")
	}
	if config.Channels <= 0 {
		return NewConfigError("Invalid channel count")
	}
	if config.BufferSize <= 0 {
		return NewConfigError("Invalid buffer size")
	}
	return nil
}
