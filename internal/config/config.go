package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	VerificationSkipped  = "skipped"
	VerificationRequired = "required"
)

type RateLimitConfig struct {
	Max           int `yaml:"max"`
	WindowMinutes int `yaml:"window_minutes"`
}

type SignupConfig struct {
	// "skipped" — аккаунт активен сразу; "required" — сперва код на почту
	Verification string          `yaml:"verification"`
	RateLimit    RateLimitConfig `yaml:"rate_limit"`
}

type SessionConfig struct {
	LifetimeHours int  `yaml:"lifetime_hours"`
	CookieSecure  bool `yaml:"cookie_secure"`
}

type GoogleOAuthConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	CallbackURL  string `yaml:"callback_url"`
}

type Config struct {
	Server struct {
		Port         int    `yaml:"port"`
		ClientOrigin string `yaml:"client_origin"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	Session SessionConfig `yaml:"session"`
	Signup  SignupConfig  `yaml:"signup"`
	OAuth   struct {
		Google GoogleOAuthConfig `yaml:"google"`
	} `yaml:"oauth"`
}

func LoadConfig() *Config {
	f, err := os.Open("config/config.yaml")
	if err != nil {
		panic("Failed to open config.yaml: " + err.Error())
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		panic("Failed to parse config.yaml: " + err.Error())
	}

	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ClientOrigin == "" {
		c.Server.ClientOrigin = "http://localhost:5173"
	}
	if c.Signup.Verification == "" {
		c.Signup.Verification = VerificationSkipped
	}
	if c.Signup.RateLimit.Max == 0 {
		c.Signup.RateLimit.Max = 5
	}
	if c.Signup.RateLimit.WindowMinutes == 0 {
		c.Signup.RateLimit.WindowMinutes = 60
	}
	if c.Session.LifetimeHours == 0 {
		c.Session.LifetimeHours = 24
	}
}

func (c *Config) VerificationRequired() bool {
	return c.Signup.Verification == VerificationRequired
}

func (c *Config) SessionLifetime() time.Duration {
	return time.Duration(c.Session.LifetimeHours) * time.Hour
}

func (c *Config) SignupWindow() time.Duration {
	return time.Duration(c.Signup.RateLimit.WindowMinutes) * time.Minute
}
