package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/iwtcode/servoSweep/internal/domain/models"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Поддерживаемые реализации внешних интерфейсов.
const (
	ChannelLog   = "log"
	ChannelKafka = "kafka"

	SinkCSV      = "csv"
	SinkKafka    = "kafka"
	SinkPostgres = "postgres"
)

// AppConfig содержит конфигурацию приложения
type AppConfig struct {
	ServerPort string
	GinMode    string
	Sweep      SweepConfig
	Telemetry  TelemetryConfig
	Kafka      KafkaConfig
	Database   DatabaseConfig
	Logging    LoggerConfig
}

// SweepConfig содержит настройки планировщиков
type SweepConfig struct {
	PlanPath       string
	DefaultDwell   time.Duration
	CommandChannel string
	CommandTimeout time.Duration
	DiscoveryIDs   []models.DeviceID
}

// TelemetryConfig содержит настройки агрегатора и записи строк
type TelemetryConfig struct {
	LogFilePath string
	Interval    time.Duration
	Sinks       []string
	QueueSize   int
}

// KafkaConfig содержит настройки брокера и топиков
type KafkaConfig struct {
	Broker       string
	CommandTopic string
	RowTopic     string
	FeedTopic    string
	GroupID      string
}

// LoggerConfig содержит настройки логгера
type LoggerConfig struct {
	Enable     bool
	LogsDir    string
	Level      string
	SavingDays int
}

// DatabaseConfig содержит конфигурацию для подключения к базе данных
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	DBName   string
}

// LoadConfiguration загружает конфигурацию из .env файла или переменных окружения
func LoadConfiguration() (*AppConfig, error) {
	_ = godotenv.Load()

	discovery, err := parseDeviceIDs(getEnv("DISCOVERY_IDS", ""))
	if err != nil {
		return nil, fmt.Errorf("DISCOVERY_IDS: %w", err)
	}

	logFilePath, err := resolvePath(getEnv("LOG_FILE_PATH", "logs/motor_telemetry.csv"))
	if err != nil {
		return nil, fmt.Errorf("LOG_FILE_PATH: %w", err)
	}

	config := &AppConfig{
		ServerPort: getEnv("APP_PORT", "8082"),
		GinMode:    getEnv("GIN_MODE", "release"),
		Sweep: SweepConfig{
			PlanPath:       getEnv("SWEEP_CONFIG_PATH", "./sweep.yaml"),
			DefaultDwell:   getEnvAsMillis("DEFAULT_DWELL_MS", 1000),
			CommandChannel: strings.ToLower(getEnv("COMMAND_CHANNEL", ChannelLog)),
			CommandTimeout: time.Duration(getEnvAsNonNegativeInt("COMMAND_TIMEOUT_MS", 2000)) * time.Millisecond,
			DiscoveryIDs:   discovery,
		},
		Telemetry: TelemetryConfig{
			LogFilePath: logFilePath,
			Interval:    getEnvAsMillis("LOGGING_INTERVAL_MS", 100),
			Sinks:       getEnvAsList("ROW_SINKS", []string{SinkCSV}),
			QueueSize:   getEnvAsPositiveInt("ROW_QUEUE_SIZE", 64),
		},
		Kafka: KafkaConfig{
			Broker:       getEnv("KAFKA_BROKER", "localhost:9092"),
			CommandTopic: getEnv("KAFKA_COMMAND_TOPIC", "servo_commands"),
			RowTopic:     getEnv("KAFKA_ROW_TOPIC", "servo_telemetry_rows"),
			FeedTopic:    getEnv("KAFKA_FEED_TOPIC", ""),
			GroupID:      getEnv("KAFKA_GROUP_ID", "servo-sweep"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Username: getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "root"),
			DBName:   getEnv("DB_NAME", "servo_telemetry"),
		},
		Logging: LoggerConfig{
			Enable:     getEnvAsBool("LOGGER_ENABLE", true),
			LogsDir:    getEnv("LOGGER_LOGS_DIR", "./logs"),
			Level:      getEnv("LOGGER_LOG_LEVEL", "info"),
			SavingDays: getEnvAsInt("LOGGER_SAVING_DAYS", 7),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *AppConfig) validate() error {
	switch c.Sweep.CommandChannel {
	case ChannelLog, ChannelKafka:
	default:
		return fmt.Errorf("COMMAND_CHANNEL: unsupported value %q", c.Sweep.CommandChannel)
	}
	for _, sink := range c.Telemetry.Sinks {
		switch sink {
		case SinkCSV, SinkKafka, SinkPostgres:
		default:
			return fmt.Errorf("ROW_SINKS: unsupported sink %q", sink)
		}
	}
	return nil
}

// LoadSweepPlan читает YAML-план прогона. Устройства без позиций остаются в плане,
// о них предупреждает координатор при запуске.
func LoadSweepPlan(path string) (*models.SweepPlan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать план прогона %s: %w", path, err)
	}

	var plan models.SweepPlan
	if err := yaml.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("не удалось разобрать план прогона %s: %w", path, err)
	}

	seen := make(map[models.DeviceID]bool, len(plan.Devices))
	for _, d := range plan.Devices {
		if seen[d.DeviceID] {
			return nil, fmt.Errorf("план прогона %s: устройство %d описано дважды", path, d.DeviceID)
		}
		seen[d.DeviceID] = true
	}
	return &plan, nil
}

func resolvePath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Abs(path)
}

func parseDeviceIDs(value string) ([]models.DeviceID, error) {
	var ids []models.DeviceID
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid device id %q: %w", part, err)
		}
		ids = append(ids, models.DeviceID(id))
	}
	return ids, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(name string, defaultValue int) int {
	valueStr := getEnv(name, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsPositiveInt(name string, defaultValue int) int {
	if value := getEnvAsInt(name, defaultValue); value > 0 {
		return value
	}
	return defaultValue
}

func getEnvAsNonNegativeInt(name string, defaultValue int) int {
	if value := getEnvAsInt(name, defaultValue); value >= 0 {
		return value
	}
	return defaultValue
}

func getEnvAsMillis(name string, defaultValue int) time.Duration {
	return time.Duration(getEnvAsPositiveInt(name, defaultValue)) * time.Millisecond
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	val, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return val
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
