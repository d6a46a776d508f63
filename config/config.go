package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Mission  MissionConfig
	Consumer ConsumerConfig
	Cache    CacheConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	URL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MissionConfig holds the mission targets and the completion reward.
type MissionConfig struct {
	ConsecutiveLoginDays   int
	LaunchGamesCount       int
	PlayGamesCount         int
	PlayGamesMinScore      int
	CompletionRewardPoints int
}

type ConsumerConfig struct {
	Group string
	Name  string
}

type CacheConfig struct {
	RefreshInterval time.Duration
}

// Load reads configuration from config.yaml (optional) and the environment.
// Env vars override file values, e.g. MISSION_COMPLETION_REWARD_POINTS.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", "5300")
	v.SetDefault("database.url", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("mission.consecutive_login_days", 3)
	v.SetDefault("mission.launch_games_count", 3)
	v.SetDefault("mission.play_games_count", 3)
	v.SetDefault("mission.play_games_min_score", 1000)
	v.SetDefault("mission.completion_reward_points", 777)
	v.SetDefault("consumer.group", "task-center")
	v.SetDefault("consumer.name", "task-center-1")
	v.SetDefault("cache.refresh_interval", "10m")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return &Config{
		Server: ServerConfig{
			Port: v.GetString("server.port"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("database.url"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Mission: MissionConfig{
			ConsecutiveLoginDays:   v.GetInt("mission.consecutive_login_days"),
			LaunchGamesCount:       v.GetInt("mission.launch_games_count"),
			PlayGamesCount:         v.GetInt("mission.play_games_count"),
			PlayGamesMinScore:      v.GetInt("mission.play_games_min_score"),
			CompletionRewardPoints: v.GetInt("mission.completion_reward_points"),
		},
		Consumer: ConsumerConfig{
			Group: v.GetString("consumer.group"),
			Name:  v.GetString("consumer.name"),
		},
		Cache: CacheConfig{
			RefreshInterval: v.GetDuration("cache.refresh_interval"),
		},
	}, nil
}
