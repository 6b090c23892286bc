package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/xavierca1/ligue-crm/internal/infra/integration/automation"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr       string   `yaml:"http_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	LogLevel       string   `yaml:"log_level"`
	Version        string   `yaml:"version"`

	DatabaseURL string `yaml:"database_url"`
	RabbitMQURL string `yaml:"rabbitmq_url"`

	Automation AutomationConfig `yaml:"automation"`
	Mail       MailConfig       `yaml:"mail"`

	StageTTL          time.Duration `yaml:"stage_ttl"`
	LeadTTL           time.Duration `yaml:"lead_ttl"`
	SessionTTL        time.Duration `yaml:"session_ttl"`
	SchedulerInterval time.Duration `yaml:"scheduler_interval"`
	RateLimitPerMin   int           `yaml:"rate_limit_per_min"`
	TrustProxy        bool          `yaml:"trust_proxy"`
}

type AutomationConfig struct {
	BaseURL string           `yaml:"base_url"`
	Token   string           `yaml:"token"`
	Paths   automation.Paths `yaml:"paths"`
}

type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	LoginURL string `yaml:"login_url"`
}

func Default() Config {
	return Config{
		HTTPAddr:          ":8080",
		AllowedOrigins:    []string{"http://localhost:5173"},
		LogLevel:          "info",
		Version:           "1.0.0",
		Automation:        AutomationConfig{Paths: automation.DefaultPaths()},
		Mail:              MailConfig{Port: 587},
		StageTTL:          5 * time.Minute,
		LeadTTL:           30 * time.Second,
		SessionTTL:        30 * time.Minute,
		SchedulerInterval: time.Minute,
		RateLimitPerMin:   60,
	}
}

// Load monta a configuração: padrão, depois o YAML de CRM_CONFIG_FILE (se
// houver), depois as variáveis de ambiente (.env incluído).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CRM_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("falha ao ler config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config %s inválida: %w", path, err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		c.HTTPAddr = ":" + strings.TrimPrefix(v, ":")
	}
	str("LOG_LEVEL", &c.LogLevel)
	str("APP_VERSION", &c.Version)
	str("DATABASE_URL", &c.DatabaseURL)
	str("RABBITMQ_URL", &c.RabbitMQURL)
	str("AUTOMATION_BASE_URL", &c.Automation.BaseURL)
	str("AUTOMATION_TOKEN", &c.Automation.Token)
	str("MAIL_HOST", &c.Mail.Host)
	str("MAIL_USER", &c.Mail.User)
	str("MAIL_PASS", &c.Mail.Password)
	str("MAIL_FROM", &c.Mail.From)
	str("APP_LOGIN_URL", &c.Mail.LoginURL)

	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("TRUST_PROXY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRUST_PROXY inválido: %w", err)
		}
		c.TrustProxy = b
	}

	ints := map[string]*int{
		"MAIL_PORT":          &c.Mail.Port,
		"RATE_LIMIT_PER_MIN": &c.RateLimitPerMin,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s inválido: %w", key, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"STAGE_CACHE_TTL":    &c.StageTTL,
		"LEAD_CACHE_TTL":     &c.LeadTTL,
		"DRAG_SESSION_TTL":   &c.SessionTTL,
		"SCHEDULER_INTERVAL": &c.SchedulerInterval,
	}
	for key, dst := range durations {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s inválido: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

func (c Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Automation.BaseURL == "" {
		missing = append(missing, "AUTOMATION_BASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("configuração obrigatória ausente: %s", strings.Join(missing, ", "))
	}
	if c.StageTTL <= 0 || c.LeadTTL <= 0 || c.SchedulerInterval <= 0 {
		return fmt.Errorf("ttl e intervalos devem ser positivos")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
