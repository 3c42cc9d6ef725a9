package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	Email struct {
		Enabled      bool   `yaml:"enabled"`
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
	} `yaml:"email"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // минуты
	} `yaml:"jwt"`

	Notify NotifyConfig `yaml:"notify"`
}

// NotifyConfig - настройки пайплайна уведомлений.
// Интервалы хранятся как целые числа (yaml.v2 не умеет парсить time.Duration).
type NotifyConfig struct {
	WorkerIntervalSeconds  int `yaml:"worker_interval_seconds"`  // тик воркера очереди
	GroupingWindowMinutes  int `yaml:"grouping_window_minutes"`  // окно группировки уведомлений
	QueueCapacity          int `yaml:"queue_capacity"`           // максимальный размер очереди
	MaxRetries             int `yaml:"max_retries"`              // повторы обработки события
	ScannerIntervalMinutes int `yaml:"scanner_interval_minutes"` // тик сканера дедлайнов
	ReminderLeadHours      int `yaml:"reminder_lead_hours"`      // за сколько до дедлайна напоминать
}

func (n NotifyConfig) WorkerInterval() time.Duration {
	return time.Duration(n.WorkerIntervalSeconds) * time.Second
}

func (n NotifyConfig) GroupingWindow() time.Duration {
	return time.Duration(n.GroupingWindowMinutes) * time.Minute
}

func (n NotifyConfig) ScannerInterval() time.Duration {
	return time.Duration(n.ScannerIntervalMinutes) * time.Minute
}

func (n NotifyConfig) ReminderLead() time.Duration {
	return time.Duration(n.ReminderLeadHours) * time.Hour
}

var AppConfig *Config

func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")
	serverEnv := os.Getenv("SERVER_ENV")
	portStr := os.Getenv("SERVER_PORT")
	jwtSecret := os.Getenv("JWT_SECRET")

	if dbURL == "" {
		log.Println("Загрузка из config.yaml (режим НЕ-тест)")

		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyNotifyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	log.Println("✅ Загрузка конфигурации из ПЕРЕМЕННЫХ ОКРУЖЕНИЯ (режим теста)")

	cfg.Database.DSN = dbURL
	cfg.Server.Env = serverEnv
	cfg.Server.Port, _ = strconv.Atoi(portStr)
	cfg.JWT.Secret = jwtSecret
	cfg.JWT.TTL = 60

	cfg.Email.SMTPHost = "smtp.test.com"
	cfg.Email.SMTPPort = 587
	cfg.Email.FromEmail = "test@surveyhub.com"

	applyNotifyDefaults(&cfg)
	AppConfig = &cfg
}

// applyNotifyDefaults подставляет дефолты пайплайна уведомлений,
// если секция notify не заполнена
func applyNotifyDefaults(cfg *Config) {
	if cfg.Notify.WorkerIntervalSeconds <= 0 {
		cfg.Notify.WorkerIntervalSeconds = 1
	}
	if cfg.Notify.GroupingWindowMinutes <= 0 {
		cfg.Notify.GroupingWindowMinutes = 60
	}
	if cfg.Notify.QueueCapacity <= 0 {
		cfg.Notify.QueueCapacity = 10000
	}
	if cfg.Notify.MaxRetries <= 0 {
		cfg.Notify.MaxRetries = 2
	}
	if cfg.Notify.ScannerIntervalMinutes <= 0 {
		cfg.Notify.ScannerIntervalMinutes = 60
	}
	if cfg.Notify.ReminderLeadHours <= 0 {
		cfg.Notify.ReminderLeadHours = 24
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
