package configuration

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"movie-hub/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App         App         `json:"app"`
	Database    Database    `json:"database"`
	RedisClient RedisClient `json:"redisClient"`
	MovieAPI    MovieAPI    `json:"movieAPI"`
	Scraping    Scraping    `json:"scraping"`
	Cache       Cache       `json:"cache"`
	Prefetch    Prefetch    `json:"prefetch"`
	Pubsub      Pubsub      `json:"pubsub"`
}

type App struct {
	Port      int    `json:"port"`
	SecretKey string `json:"secretKey"`
}

type Database struct {
	Mongo Db `json:"mongo"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type MovieAPI struct {
	BaseURL        string `json:"baseURL"`
	APIKey         string `json:"apiKey"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
	RatePerMinute  int    `json:"ratePerMinute"`
}

// Source configures one scraping target. Priority breaks merge ties;
// lower wins.
type Source struct {
	Name          string `json:"name"`
	BaseURL       string `json:"baseURL"`
	Priority      int    `json:"priority"`
	RatePerMinute int    `json:"ratePerMinute"`
}

type Scraping struct {
	Sources        []Source `json:"sources"`
	TimeoutSeconds int      `json:"timeoutSeconds"`
	UserAgent      string   `json:"userAgent"`
	AcceptLanguage string   `json:"acceptLanguage"`
}

type Cache struct {
	MemoryTTLMinutes     int `json:"memoryTTLMinutes"`
	PersistentTTLHours   int `json:"persistentTTLHours"`
	PersistentMaxAgeDays int `json:"persistentMaxAgeDays"`
	SweepIntervalMinutes int `json:"sweepIntervalMinutes"`
}

type Prefetch struct {
	PriorityQueueSize int `json:"priorityQueueSize"`
	GeneralQueueSize  int `json:"generalQueueSize"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	Topic     string `json:"topic"`
}

var C Config

func init() {
	LoadConfig()
	applyDefaults(&C)
}

func LoadConfig() {
	name := configName()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found; relying on defaults and environment")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
}

func configName() string {
	name := "config"
	if env := os.Getenv("ENV"); env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func applyDefaults(c *Config) {
	// Port resolution order (env overrides config): APP_PORT -> PORT ->
	// config -> default 10001.
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.App.Port = p
		}
	}
	if c.App.Port == 0 {
		c.App.Port = 10001
	}
	if v := os.Getenv("SECRET_KEY"); v != "" {
		c.App.SecretKey = v
	}

	if c.Database.Mongo.Host == "" {
		c.Database.Mongo.Host = envOr("MONGO_HOST", "localhost")
	}
	if c.Database.Mongo.Port == "" {
		c.Database.Mongo.Port = envOr("MONGO_PORT", "27017")
	}
	if c.Database.Mongo.Name == "" {
		c.Database.Mongo.Name = envOr("MONGO_DB_NAME", "movie_hub")
	}
	if c.Database.Mongo.User == "" {
		c.Database.Mongo.User = os.Getenv("MONGO_USER")
	}
	if c.Database.Mongo.Password == "" {
		c.Database.Mongo.Password = os.Getenv("MONGO_PASSWORD")
	}

	if c.RedisClient.Host == "" {
		c.RedisClient.Host = envOr("REDIS_HOST", "localhost")
	}
	if c.RedisClient.Port == "" {
		c.RedisClient.Port = envOr("REDIS_PORT", "6379")
	}

	if c.MovieAPI.BaseURL == "" {
		c.MovieAPI.BaseURL = envOr("MOVIE_API_BASE_URL", "https://api.moviedb.example/3")
	}
	if c.MovieAPI.APIKey == "" {
		c.MovieAPI.APIKey = os.Getenv("MOVIE_API_KEY")
	}
	if c.MovieAPI.TimeoutSeconds == 0 {
		c.MovieAPI.TimeoutSeconds = 5
	}
	if c.MovieAPI.RatePerMinute == 0 {
		c.MovieAPI.RatePerMinute = 40
	}

	if len(c.Scraping.Sources) == 0 {
		c.Scraping.Sources = []Source{
			{Name: "imdb", BaseURL: "https://www.imdb.com", Priority: 1, RatePerMinute: 30},
			{Name: "letterboxd", BaseURL: "https://letterboxd.com", Priority: 2, RatePerMinute: 10},
		}
	}
	if c.Scraping.TimeoutSeconds == 0 {
		c.Scraping.TimeoutSeconds = 8
	}
	if c.Scraping.UserAgent == "" {
		c.Scraping.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	}
	if c.Scraping.AcceptLanguage == "" {
		c.Scraping.AcceptLanguage = "en-US,en;q=0.9"
	}

	if c.Cache.MemoryTTLMinutes == 0 {
		c.Cache.MemoryTTLMinutes = 60
	}
	if c.Cache.PersistentTTLHours == 0 {
		c.Cache.PersistentTTLHours = 24
	}
	if c.Cache.PersistentMaxAgeDays == 0 {
		c.Cache.PersistentMaxAgeDays = 7
	}
	if c.Cache.SweepIntervalMinutes == 0 {
		c.Cache.SweepIntervalMinutes = 10
	}

	if c.Prefetch.PriorityQueueSize == 0 {
		c.Prefetch.PriorityQueueSize = 64
	}
	if c.Prefetch.GeneralQueueSize == 0 {
		c.Prefetch.GeneralQueueSize = 256
	}

	if c.Pubsub.ProjectID == "" {
		c.Pubsub.ProjectID = os.Getenv("PUBSUB_PROJECT_ID")
	}
	if c.Pubsub.Topic == "" {
		c.Pubsub.Topic = envOr("PUBSUB_SEARCH_TOPIC", "search-events")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MemoryTTL returns the memory-tier TTL as a duration.
func (c Cache) MemoryTTL() time.Duration {
	return time.Duration(c.MemoryTTLMinutes) * time.Minute
}

// PersistentTTL returns the persistent-tier TTL as a duration.
func (c Cache) PersistentTTL() time.Duration {
	return time.Duration(c.PersistentTTLHours) * time.Hour
}

// PersistentMaxAge returns how old persistent rows may get before sweep
// purges them.
func (c Cache) PersistentMaxAge() time.Duration {
	return time.Duration(c.PersistentMaxAgeDays) * 24 * time.Hour
}
