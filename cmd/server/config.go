package main

import "time"

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=5050"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	TranslateTimeout     time.Duration `env:"TRANSLATE_TIMEOUT,default=10s"`
	BackendTimeout       time.Duration `env:"BACKEND_TIMEOUT,default=60s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=5s"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=15s"`
	SearchLimit          int           `env:"SEARCH_LIMIT,default=20"`

	ModerationCharReplacement string `env:"MODERATION_CHARACTER_REPLACEMENT,default=*"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL,default=gemini-2.0-flash"`

	CartesiaAPIKey string `env:"CARTESIA_API_KEY"`
	DefaultVoiceID string `env:"CARTESIA_DEFAULT_VOICE_ID,default=694f9389-aac1-45b6-b726-9d9369183238"`
	CustomVoiceID  string `env:"CARTESIA_CUSTOM_VOICE_ID"`
	ClipDir        string `env:"TTS_CLIP_DIR"`
}
