package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration. Build it once with Load and
// pass it to constructors; nothing reads it from package state.
type Config struct {
	LLM struct {
		APIKey      string        `yaml:"api_key" envconfig:"DEEPSEEK_API_KEY" validate:"required"`
		BaseURL     string        `yaml:"base_url" envconfig:"DEEPSEEK_BASE_URL" default:"https://api.siliconflow.cn/v1" validate:"required,url"`
		Model       string        `yaml:"model" envconfig:"DEEPSEEK_MODEL" default:"deepseek-ai/DeepSeek-R1" validate:"required"`
		Temperature float32       `yaml:"temperature" envconfig:"LLM_TEMPERATURE" default:"0.3" validate:"gte=0,lte=2"`
		MaxTokens   int           `yaml:"max_tokens" envconfig:"LLM_MAX_TOKENS" default:"2048" validate:"gt=0"`
		Timeout     time.Duration `yaml:"timeout" envconfig:"LLM_TIMEOUT" default:"60s" validate:"gt=0"`
	} `yaml:"llm" envconfig:"LLM"`

	SMTP struct {
		Host     string        `yaml:"host" envconfig:"SMTP_SERVER" default:"smtp.gmail.com" validate:"required"`
		Port     int           `yaml:"port" envconfig:"SMTP_PORT" default:"587" validate:"gt=0,lte=65535"`
		Sender   string        `yaml:"sender" envconfig:"SENDER_EMAIL" validate:"required,email"`
		Password string        `yaml:"password" envconfig:"SENDER_PASSWORD" validate:"required"`
		Receiver string        `yaml:"receiver" envconfig:"RECEIVER_EMAIL" validate:"required,email"`
		SSL      bool          `yaml:"ssl" envconfig:"ENABLE_SSL" default:"true"`
		Timeout  time.Duration `yaml:"timeout" envconfig:"SMTP_TIMEOUT" default:"30s" validate:"gt=0"`
	} `yaml:"smtp" envconfig:"SMTP"`

	Trading struct {
		InstID              string        `yaml:"inst_id" envconfig:"INST_ID" default:"ETH-USDT-SWAP" validate:"required"`
		Interval            time.Duration `yaml:"interval" envconfig:"ANALYSIS_INTERVAL" default:"30s" validate:"gt=0"`
		ConfidenceThreshold float64       `yaml:"confidence_threshold" envconfig:"CONFIDENCE_THRESHOLD" default:"80" validate:"gte=0,lte=100"`
		CandleBar           string        `yaml:"candle_bar" envconfig:"CANDLE_BAR" default:"5m" validate:"required"`
		CandleLimit         int           `yaml:"candle_limit" envconfig:"CANDLE_LIMIT" default:"100" validate:"gt=0,lte=300"`
		OrderBookSize       int           `yaml:"orderbook_size" envconfig:"ORDERBOOK_SIZE" default:"20" validate:"gt=0,lte=400"`
		TradesLimit         int           `yaml:"trades_limit" envconfig:"TRADES_LIMIT" default:"50" validate:"gt=0,lte=500"`
	} `yaml:"trading" envconfig:"TRADING"`

	Exchange struct {
		BaseURL   string        `yaml:"base_url" envconfig:"OKX_BASE_URL" default:"https://www.okx.com" validate:"required,url"`
		Simulated bool          `yaml:"simulated" envconfig:"OKX_SIMULATED"`
		Timeout   time.Duration `yaml:"timeout" envconfig:"OKX_TIMEOUT" default:"30s" validate:"gt=0"`
	} `yaml:"exchange" envconfig:"EXCHANGE"`

	Database struct {
		Path string `yaml:"path" envconfig:"DB_PATH" default:"trading_analysis.db"`
	} `yaml:"database" envconfig:"DATABASE"`

	Telegram struct {
		BotToken string `yaml:"bot_token" envconfig:"TELEGRAM_BOT_TOKEN"`
		ChatID   int64  `yaml:"chat_id" envconfig:"TELEGRAM_CHAT_ID" validate:"required_with=BotToken"`
	} `yaml:"telegram" envconfig:"TELEGRAM"`

	Metrics struct {
		ListenAddr string `yaml:"listen_addr" envconfig:"METRICS_ADDR"`
	} `yaml:"metrics" envconfig:"METRICS"`

	Schedule struct {
		StatusCron string `yaml:"status_cron" envconfig:"STATUS_CRON" default:"0 0 * * * *"`
	} `yaml:"schedule" envconfig:"SCHEDULE"`

	Log struct {
		Level string `yaml:"level" envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
		File  string `yaml:"file" envconfig:"LOG_FILE" default:"trading_bot.log"`
		Dir   string `yaml:"dir" envconfig:"LOG_DIR" default:"logs"`
	} `yaml:"log" envconfig:"LOG"`

	Proxy string `yaml:"proxy" envconfig:"HTTPS_PROXY" validate:"omitempty,url"`
}

// Load resolves configuration with this precedence, highest first:
// environment variables, a .env file in the working directory, the YAML file
// at path (a missing file is fine), then the `default` tags. The result is
// validated before it is returned.
func Load(path string) (*Config, error) {
	// .env never overrides variables already present in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	staged, err := stageFile(path)
	defer func() {
		for _, name := range staged {
			os.Unsetenv(name)
		}
	}()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field and reports all failures at once, named by
// their environment variable.
func (c *Config) Validate() error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("envconfig"); name != "" {
			return name
		}
		return f.Name
	})

	err := v.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	var missing, invalid []string
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "required_with":
			missing = append(missing, fe.Field())
		default:
			invalid = append(invalid, fmt.Sprintf("%s (%s=%v)", fe.Field(), fe.Tag(), fe.Value()))
		}
	}
	return &ValidationError{Missing: missing, Invalid: invalid}
}

// ValidationError lists every missing or invalid setting.
type ValidationError struct {
	Missing []string
	Invalid []string
}

// Error lists missing settings before invalid ones.
func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required settings: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid settings: "+strings.Join(e.Invalid, ", "))
	}
	return strings.Join(parts, "; ")
}
