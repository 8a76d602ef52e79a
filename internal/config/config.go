package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string  `env:"APP_ENV" envDefault:"local"`
	PostgresDSN    string  `env:"POSTGRES_DSN,required"`
	BotToken       string  `env:"BOT_TOKEN,required"`
	AllowedUserIDs []int64 `env:"ALLOWED_USER_IDS" envSeparator:","`
	ChatIDs        []int64 `env:"TELEGRAM_CHAT_IDS,required" envSeparator:","`
	TGAPIID        int     `env:"TG_API_ID,required"`
	TGAPIHash      string  `env:"TG_API_HASH,required"`
	TGPhone        string  `env:"TG_PHONE"`
	TG2FAPassword  string  `env:"TG_2FA_PASSWORD"`
	TGSessionPath  string  `env:"TG_SESSION_PATH" envDefault:"./tg.session"`

	LLMAPIKey     string        `env:"LLM_API_KEY,required"`
	LLMModel      string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMRateRPS    float64       `env:"LLM_RATE_RPS" envDefault:"1"`
	LLMMaxRetries int           `env:"LLM_MAX_RETRIES" envDefault:"3"`
	LLMTimeout    time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`

	// MinPlausiblePrice is the floor below which a numeric literal is never
	// treated as a price. Polymer quotes in the tracked chats sit in the
	// 14000-20000 range; anything smaller is a product code or noise.
	MinPlausiblePrice int64 `env:"MIN_PLAUSIBLE_PRICE" envDefault:"10000"`

	// ParserMinResults is the deterministic-path confidence threshold: the
	// oracle fallback runs only when pattern matching yields this many
	// candidates or fewer.
	ParserMinResults int `env:"PARSER_MIN_RESULTS" envDefault:"3"`

	ScrapeDays         int           `env:"SCRAPE_DAYS" envDefault:"30"`
	ScraperConcurrency int           `env:"SCRAPER_CONCURRENCY" envDefault:"2"`
	ScraperFetchLimit  int           `env:"SCRAPER_FETCH_LIMIT" envDefault:"100"`
	MonitorInterval    time.Duration `env:"MONITOR_INTERVAL" envDefault:"30s"`
	SourceTextMaxLen   int           `env:"SOURCE_TEXT_MAX_LEN" envDefault:"500"`
	MinMessageLen      int           `env:"MIN_MESSAGE_LEN" envDefault:"20"`

	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
