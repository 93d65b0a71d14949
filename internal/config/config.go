package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is read once at process start; there is no hot-reload.
type Config struct {
	App struct {
		Port string `mapstructure:"port"`
		Env  string `mapstructure:"env"`
	} `mapstructure:"app"`
	DB struct {
		DSN     string `mapstructure:"dsn"`
		PoolMin int    `mapstructure:"pool_min"`
		PoolMax int    `mapstructure:"pool_max"`
	} `mapstructure:"db"`
	Auth struct {
		SecretKey            string `mapstructure:"secret_key"`
		AccessExpiresMinutes int    `mapstructure:"access_expires_minutes"`
		RefreshExpiresDays   int    `mapstructure:"refresh_expires_days"`
	} `mapstructure:"auth"`
	API struct {
		BatchSize int `mapstructure:"batch_size"`
	} `mapstructure:"api"`
}

func LoadConfig() (cfg Config, err error) {

	err = godotenv.Load()
	if err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if err = viper.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read .env only. Error: %v", err)
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("app.port", "8000")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("db.pool_min", 5)
	viper.SetDefault("db.pool_max", 75)
	viper.SetDefault("auth.access_expires_minutes", 30)
	viper.SetDefault("auth.refresh_expires_days", 7)
	viper.SetDefault("api.batch_size", 25)

	viper.BindEnv("app.port", "APP_PORT")
	viper.BindEnv("app.env", "APP_ENV")
	viper.BindEnv("db.dsn", "DB_DSN")
	viper.BindEnv("db.pool_min", "POSTGRES_POOL_MIN_SIZE")
	viper.BindEnv("db.pool_max", "POSTGRES_POOL_MAX_SIZE")
	viper.BindEnv("auth.secret_key", "SECRET_KEY")
	viper.BindEnv("auth.access_expires_minutes", "ACCESS_TOKEN_EXPIRES_MINUTES")
	viper.BindEnv("auth.refresh_expires_days", "REFRESH_TOKEN_EXPIRES_DAYS")
	viper.BindEnv("api.batch_size", "BATCH_SIZE")

	err = viper.Unmarshal(&cfg)
	return
}
