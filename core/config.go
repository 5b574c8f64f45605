package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	Config struct {
		Env                string // DEV (local; default), TEST, QA, PROD
		Build              string
		Debug              bool
		TestMode           bool
		AppName            string
		SecretKey          string
		JWTExpirationDelta time.Duration
		DatabaseURL        string
		DatabaseName       string
		RedisURL           string
		RollbarToken       string
		SendgridAPIKey     string
		DefaultFromEmail   string
		Server             ServerConfig
	}
)

// NewConfig loads the configuration from defaults, `config/.env.<env>` (if it exists) and the environment.
// Environment variables are prefixed with the upper-cased env name, eg. `PROD_SECRETKEY`.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("build", "develop")
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Ratiba")
	conf.SetDefault("secretKey", "poq5-wer)enb$+57=dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy")
	conf.SetDefault("jwtExpirationDelta", 24*time.Hour)
	conf.SetDefault("databaseURL", "mongodb://localhost:27017")
	conf.SetDefault("databaseName", "ratiba")
	conf.SetDefault("redisURL", "")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")
	conf.SetDefault("defaultFromEmail", "noreply@localhost")
	conf.SetDefault("server.address", ":8080")
	conf.SetDefault("server.debugHost", "localhost:4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	addr := conf.GetString("server.address")
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	return &Config{
		Env:                env,
		Build:              conf.GetString("build"),
		Debug:              conf.GetBool("debug"),
		TestMode:           conf.GetBool("testMode"),
		AppName:            conf.GetString("appName"),
		SecretKey:          conf.GetString("secretKey"),
		JWTExpirationDelta: conf.GetDuration("jwtExpirationDelta"),
		DatabaseURL:        conf.GetString("databaseURL"),
		DatabaseName:       conf.GetString("databaseName"),
		RedisURL:           conf.GetString("redisURL"),
		RollbarToken:       conf.GetString("rollbarToken"),
		SendgridAPIKey:     conf.GetString("sendgridApiKey"),
		DefaultFromEmail:   conf.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Address:         addr,
			DebugHost:       conf.GetString("server.debugHost"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
		},
	}
}
