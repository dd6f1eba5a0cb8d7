package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Rules    RulesConfig    `mapstructure:"rules"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Mail     MailConfig     `mapstructure:"mail"`
	Sheet    SheetConfig    `mapstructure:"sheet"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	APIToken       string   `mapstructure:"api_token"` // empty disables auth on run endpoints
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RulesConfig struct {
	DateMode     string  `mapstructure:"date_mode"`     // today | specific
	SpecificDate string  `mapstructure:"specific_date"` // YYYY-MM-DD
	HoursLimit   float64 `mapstructure:"hours_limit"`
}

type DispatchConfig struct {
	MaxParallelWorkers int    `mapstructure:"max_parallel_workers"`
	TestLimit          int    `mapstructure:"test_limit"` // <= 0 disables the cap
	TestRecipient      string `mapstructure:"test_recipient"`
}

type DatasetConfig struct {
	Type      string `mapstructure:"type"` // csv | s3 | sheet
	Path      string `mapstructure:"path"`
	Key       string `mapstructure:"key"`
	Worksheet string `mapstructure:"worksheet"`
}

type MailConfig struct {
	Transport string         `mapstructure:"transport"` // smtp | http | log
	SMTP      SMTPConfig     `mapstructure:"smtp"`
	HTTP      HTTPMailConfig `mapstructure:"http"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type HTTPMailConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	From     string        `mapstructure:"from"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type SheetConfig struct {
	Type             string `mapstructure:"type"` // database | s3
	SpreadsheetID    string `mapstructure:"spreadsheet_id"`
	DashboardURL     string `mapstructure:"dashboard_url"`
	CreateMissing    bool   `mapstructure:"create_missing"`
	KeyPrefix        string `mapstructure:"key_prefix"`        // object key prefix for the s3 store
	OutcomeWorksheet string `mapstructure:"outcome_worksheet"` // empty disables delivery logging
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite | postgres
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN builds the driver-specific connection string.
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
	}
	return c.Path
}

type StorageConfig struct {
	Type      string `mapstructure:"type"` // r2 | s3 | s3compatible, empty to auto-detect
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment names used by the existing deployment scripts
	v.BindEnv("rules.date_mode", "DATE_MODE")
	v.BindEnv("rules.specific_date", "SPECIFIC_DATE")
	v.BindEnv("rules.hours_limit", "HOURS_LIMIT")
	v.BindEnv("dispatch.max_parallel_workers", "MAX_PARALLEL_WORKERS")
	v.BindEnv("dispatch.test_limit", "EMAIL_TEST_LIMIT")
	v.BindEnv("dispatch.test_recipient", "EMAIL_TEST_RECIPIENT")
	v.BindEnv("mail.smtp.host", "SMTP_SERVER")
	v.BindEnv("mail.smtp.port", "SMTP_PORT")
	v.BindEnv("mail.smtp.username", "EMAIL_SENDER")
	v.BindEnv("mail.smtp.password", "EMAIL_PASSWORD")
	v.BindEnv("mail.smtp.from", "EMAIL_SENDER")
	v.BindEnv("mail.http.api_key", "MAIL_API_KEY")
	v.BindEnv("sheet.spreadsheet_id", "GOOGLE_SHEET_ID")
	v.BindEnv("server.api_token", "API_TOKEN")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("rules.date_mode", DateModeToday)
	v.SetDefault("rules.hours_limit", 10)
	v.SetDefault("dispatch.max_parallel_workers", 8)
	v.SetDefault("dispatch.test_limit", 0)
	v.SetDefault("dataset.type", "csv")
	v.SetDefault("dataset.path", "./data/contributors.csv")
	v.SetDefault("dataset.key", "datasets/contributors.csv")
	v.SetDefault("dataset.worksheet", "Contributors")
	v.SetDefault("mail.transport", "log")
	v.SetDefault("mail.smtp.port", 587)
	v.SetDefault("mail.http.timeout", "30s")
	v.SetDefault("sheet.type", "database")
	v.SetDefault("sheet.spreadsheet_id", "hr-automations")
	v.SetDefault("sheet.create_missing", true)
	v.SetDefault("sheet.key_prefix", "sheets")
	v.SetDefault("sheet.outcome_worksheet", "Log de Envios")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/hrnotify.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("storage.bucket", "hrnotify")
}
