// Ininicializing common application configuration
package config

import (
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Email    EmailConfig    `mapstructure:"email"`
	App      AppConfig      `mapstructure:"app"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Reminder ReminderConfig `mapstructure:"reminder"`
}

type ServerConfig struct {
	AppVersion   string `json:"appVersion"`
	Host         string `json:"host" validate:"required"`
	Port         string `json:"port" validate:"required"`
	Timeout      time.Duration
	Idle_timeout time.Duration
	Env          string `mapstructure:"environment"`
	Mode         string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`

	MaxRetries   int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
}

// EmailConfig describes both outbound transports. Relay* fields are only
// consulted when server.environment is "production"; otherwise mail goes to
// the local inspection endpoint (LocalHost/LocalPort, no auth, no TLS).
type EmailConfig struct {
	From      string `mapstructure:"from"`
	FromName  string `mapstructure:"from_name"`
	RelayHost string `mapstructure:"relay_host"`
	RelayPort int    `mapstructure:"relay_port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	LocalHost string `mapstructure:"local_host"`
	LocalPort int    `mapstructure:"local_port"`
}

type AppConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type WorkerConfig struct {
	DispatchInterval time.Duration `mapstructure:"dispatch_interval"`
	ReminderInterval time.Duration `mapstructure:"reminder_interval"`
	BatchSize        int           `mapstructure:"batch_size"`
}

// ReminderConfig holds the per-target lead times subtracted from the
// target's own trigger instant to obtain reminder_at.
type ReminderConfig struct {
	EventLead        time.Duration `mapstructure:"event_lead"`
	AnnouncementLead time.Duration `mapstructure:"announcement_lead"`
}

func LoadConfig() (*viper.Viper, error) {

	viperInstance := viper.New()

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	setDefaults(viperInstance)

	err := viperInstance.ReadInConfig()

	if err != nil {
		return nil, err
	}
	return viperInstance, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		log.Fatalf("unable to decode config into struct, %v", err)
		return nil, err
	}

	// Secrets come from the environment, never from the yaml file
	c.Database.Password = GetEnv("DB_PASSWORD", c.Database.Password)
	c.Email.Password = GetEnv("SMTP_PASSWORD", c.Email.Password)

	return &c, nil
}

// IsProduction reports whether the explicit environment value selects the
// authenticated relay transport.
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "alumni_user")
	v.SetDefault("database.dbname", "alumni_portal")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("email.from", "noreply@alumni-portal.org")
	v.SetDefault("email.from_name", "Alumni Portal")
	v.SetDefault("email.relay_host", "smtp.sendgrid.net")
	v.SetDefault("email.relay_port", 587)
	v.SetDefault("email.local_host", "127.0.0.1")
	v.SetDefault("email.local_port", 1025)

	v.SetDefault("app.base_url", "http://localhost:8080")
	v.SetDefault("app.token_ttl", 30*24*time.Hour)

	v.SetDefault("worker.dispatch_interval", time.Minute)
	v.SetDefault("worker.reminder_interval", time.Minute)
	v.SetDefault("worker.batch_size", 100)

	v.SetDefault("reminder.event_lead", 24*time.Hour)
	v.SetDefault("reminder.announcement_lead", 24*time.Hour)
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
