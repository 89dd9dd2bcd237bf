package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 统一配置结构
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Audio    AudioConfig    `yaml:"audio"`
	Services ServicesConfig `yaml:"services"`
	Data     DataConfig     `yaml:"data"`
	Log      LogConfig      `yaml:"log"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Env  string `yaml:"env"` // dev, staging, production
	Port string `yaml:"port"`
}

// AudioConfig 音频分片配置
// 默认 16kHz 单声道 16bit PCM，3 秒一个切片
type AudioConfig struct {
	SampleRate   int     `yaml:"sample_rate"`
	ChunkSeconds float64 `yaml:"chunk_seconds"`
}

// ServicesConfig 外部协作服务配置
type ServicesConfig struct {
	WhisperURL   string        `yaml:"whisper_url"`
	InferenceURL string        `yaml:"inference_url"`
	CallTimeout  time.Duration `yaml:"call_timeout"`
}

// DataConfig 数据目录配置
type DataConfig struct {
	MeetingsDir  string `yaml:"meetings_dir"`
	KnowledgeDir string `yaml:"knowledge_dir"`
	SeedFile     string `yaml:"seed_file"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	JWTSecret       string `yaml:"jwt_secret"`
	APIPasswordHash string `yaml:"api_password_hash"` // bcrypt hash for token issuance
}

// ChunkThreshold 返回触发转写的缓冲字节数（16bit 单声道）
func (a AudioConfig) ChunkThreshold() int {
	return int(float64(a.SampleRate)*a.ChunkSeconds) * 2
}

// LoadConfig 从环境变量加载配置
// MEETHUB_CONFIG 指向 YAML 文件时，文件内容先加载，环境变量覆盖
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Env:  "dev",
			Port: "8000",
		},
		Audio: AudioConfig{
			SampleRate:   16000,
			ChunkSeconds: 3.0,
		},
		Services: ServicesConfig{
			WhisperURL:   "http://localhost:8082",
			InferenceURL: "http://localhost:8083",
			CallTimeout:  30 * time.Second,
		},
		Data: DataConfig{
			MeetingsDir:  "./data/meetings",
			KnowledgeDir: "./data/knowledge",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("MEETHUB_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Server.Env = getEnv("ENV", cfg.Server.Env)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Audio.SampleRate = getEnvInt("AUDIO_SAMPLE_RATE", cfg.Audio.SampleRate)
	cfg.Audio.ChunkSeconds = getEnvFloat("AUDIO_CHUNK_SECONDS", cfg.Audio.ChunkSeconds)
	cfg.Services.WhisperURL = getEnv("WHISPER_URL", cfg.Services.WhisperURL)
	cfg.Services.InferenceURL = getEnv("INFERENCE_URL", cfg.Services.InferenceURL)
	if v := os.Getenv("SERVICE_CALL_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SERVICE_CALL_TIMEOUT: %w", err)
		}
		cfg.Services.CallTimeout = d
	}
	cfg.Data.MeetingsDir = getEnv("MEETINGS_DIR", cfg.Data.MeetingsDir)
	cfg.Data.KnowledgeDir = getEnv("KNOWLEDGE_DIR", cfg.Data.KnowledgeDir)
	cfg.Data.SeedFile = getEnv("KNOWLEDGE_SEED_FILE", cfg.Data.SeedFile)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.Security.JWTSecret = getEnv("JWT_SECRET", cfg.Security.JWTSecret)
	cfg.Security.APIPasswordHash = getEnv("API_PASSWORD_HASH", cfg.Security.APIPasswordHash)

	return cfg, nil
}

// ValidateConfig 验证配置的有效性
func ValidateConfig(cfg *Config) error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Server.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid PORT value: %s (must be 1-65535)", cfg.Server.Port))
	}

	validEnvs := map[string]bool{"dev": true, "development": true, "staging": true, "production": true}
	if !validEnvs[cfg.Server.Env] {
		errs = append(errs, fmt.Sprintf("invalid ENV: %s (must be: dev, development, staging, production)", cfg.Server.Env))
	}

	if cfg.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Sprintf("invalid AUDIO_SAMPLE_RATE: %d", cfg.Audio.SampleRate))
	}
	if cfg.Audio.ChunkSeconds <= 0 {
		errs = append(errs, fmt.Sprintf("invalid AUDIO_CHUNK_SECONDS: %v", cfg.Audio.ChunkSeconds))
	}
	if cfg.Services.CallTimeout <= 0 {
		errs = append(errs, "SERVICE_CALL_TIMEOUT must be positive")
	}

	if cfg.Security.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(cfg.Security.JWTSecret) < 32 {
		errs = append(errs, "JWT_SECRET must be at least 32 characters long")
	}

	if cfg.Server.Env == "production" && cfg.Security.APIPasswordHash == "" {
		errs = append(errs, "API_PASSWORD_HASH is required in production environment")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid LOG_LEVEL: %s (must be: debug, info, warn, error)", cfg.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsProduction 判断是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetServerAddr 获取服务器监听地址
func (c *Config) GetServerAddr() string {
	return ":" + c.Server.Port
}

// PrintConfig 打印配置（脱敏）
func (c *Config) PrintConfig() string {
	return fmt.Sprintf(`Configuration Loaded:
  Environment: %s
  Server Port: %s
  Audio:
    - Sample Rate: %d
    - Chunk Seconds: %v
    - Chunk Threshold: %d bytes
  Services:
    - Whisper: %s
    - Inference: %s
    - Call Timeout: %s
  Data Directories:
    - Meetings: %s
    - Knowledge: %s
  Logging:
    - Level: %s
    - File: %s
  Security:
    - JWT Secret: %s
    - API Password Hash: %s`,
		c.Server.Env,
		c.Server.Port,
		c.Audio.SampleRate,
		c.Audio.ChunkSeconds,
		c.Audio.ChunkThreshold(),
		c.Services.WhisperURL,
		c.Services.InferenceURL,
		c.Services.CallTimeout,
		c.Data.MeetingsDir,
		c.Data.KnowledgeDir,
		c.Log.Level,
		c.Log.File,
		maskSecret(c.Security.JWTSecret),
		maskSecret(c.Security.APIPasswordHash),
	)
}

// 辅助函数

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// maskSecret 对敏感信息进行脱敏
func maskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "***" + secret[len(secret)-4:]
}
