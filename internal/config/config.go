package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nftbay/marketplace-engine/internal/log"
	"go.uber.org/zap"
)

type Config struct {
	Env     string
	Network string
	Index   string
	Debug   bool
	Reindex bool
	LogDir  string

	ApiPort    string
	HealthPort string

	FeeOwner      string
	FeePercentage uint

	Registry      RegistryConfig
	Payments      PaymentsConfig
	ElasticSearch ElasticSearchConfig
	Aws           AwsConfig
}

type RegistryConfig struct {
	Url     string
	Debug   bool
	Timeout int
}

type PaymentsConfig struct {
	Url     string
	Timeout int
}

type AwsConfig struct {
	AccessKey   string
	SecretKey   string
	Region      string
	QueuePrefix string
}

type ElasticSearchConfig struct {
	Hosts            []string
	Sniff            bool
	HealthCheck      bool
	Debug            bool
	Username         string
	Password         string
	MappingDir       string
	BulkPersistCount int
	Refresh          string
}

func Init(service string) {
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().With(zap.Error(err)).Warn("Unable to load .env")
	}

	cfg := Get()
	log.NewLogger(fmt.Sprintf("%s/%s.log", cfg.LogDir, service), cfg.Debug)

	if cfg.Registry.Url == "" {
		zap.L().Fatal("Registry url is required")
	}
	if cfg.FeePercentage > 100 {
		zap.L().With(zap.Uint("feePercentage", cfg.FeePercentage)).Fatal("Fee percentage cannot exceed 100")
	}
}

func Get() *Config {
	return &Config{
		Env:           getString("ENV", ""),
		Network:       getString("NETWORK", "mainnet"),
		Index:         getString("INDEX_NAME", "marketplace"),
		Debug:         getBool("DEBUG", false),
		Reindex:       getBool("REINDEX", false),
		LogDir:        getString("LOG_DIR", "./var"),
		ApiPort:       getString("API_PORT", "8080"),
		HealthPort:    getString("HEALTH_PORT", "8081"),
		FeeOwner:      getString("FEE_OWNER", ""),
		FeePercentage: getUint("FEE_PERCENTAGE", 0),
		Aws: AwsConfig{
			AccessKey:   getString("AWS_ACCESS_KEY_ID", ""),
			SecretKey:   getString("AWS_SECRET_KEY_ID", ""),
			Region:      getString("AWS_REGION", ""),
			QueuePrefix: getString("AWS_QUEUE_PREFIX", "marketplace"),
		},
		Registry: RegistryConfig{
			Url:     getString("REGISTRY_URL", ""),
			Timeout: getInt("REGISTRY_TIMEOUT", 30),
			Debug:   getBool("REGISTRY_DEBUG", false),
		},
		Payments: PaymentsConfig{
			Url:     getString("PAYMENTS_URL", ""),
			Timeout: getInt("PAYMENTS_TIMEOUT", 30),
		},
		ElasticSearch: ElasticSearchConfig{
			Hosts:            getSlice("ELASTIC_SEARCH_HOSTS", make([]string, 0), ","),
			Sniff:            getBool("ELASTIC_SEARCH_SNIFF", true),
			HealthCheck:      getBool("ELASTIC_SEARCH_HEALTH_CHECK", true),
			Debug:            getBool("ELASTIC_SEARCH_DEBUG", false),
			Username:         getString("ELASTIC_SEARCH_USERNAME", ""),
			Password:         getString("ELASTIC_SEARCH_PASSWORD", ""),
			MappingDir:       getString("ELASTIC_SEARCH_MAPPING_DIR", "/data/mappings"),
			BulkPersistCount: getInt("ELASTIC_SEARCH_BULK_PERSIST_COUNT", 300),
			Refresh:          getString("ELASTIC_SEARCH_REFRESH", "wait_for"),
		},
	}
}

func getString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getInt(key string, defaultValue int) int {
	valStr := getString(key, "")
	val, _, err := big.ParseFloat(valStr, 10, 0, big.ToNearestEven)
	if err != nil {
		return defaultValue
	}

	intVal, _ := val.Int64()
	return int(intVal)
}

func getUint(key string, defaultValue uint) uint {
	return uint(getInt(key, int(defaultValue)))
}

func getBool(key string, defaultValue bool) bool {
	valStr := getString(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultValue
}

func getSlice(key string, defaultVal []string, sep string) []string {
	valStr := getString(key, "")
	if valStr == "" {
		return defaultVal
	}

	return strings.Split(valStr, sep)
}
