package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/salary-intel/internal/logger"
)

const (
	app       = "salary-intel"
	envPrefix = "SALARY_INTEL"
)

type Config struct {
	Log    *LogConfig    `mapstructure:"log"`
	Server *ServerConfig `mapstructure:"server"`
	FX     *FXConfig     `mapstructure:"fx"`
	Col    *ColConfig    `mapstructure:"col"`
	Tables *TablesConfig `mapstructure:"tables"`
}

type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type FXConfig struct {
	// Provider is "static" (bundled table only) or "http".
	Provider  string        `mapstructure:"provider"`
	HTTP      *FXHTTPConfig `mapstructure:"http"`
	CachePath string        `mapstructure:"cache-path"`
	CacheTTL  time.Duration `mapstructure:"cache-ttl"`
}

type FXHTTPConfig struct {
	BaseURL       string        `mapstructure:"base-url"`
	APIKey        string        `mapstructure:"api-key"`
	APIKeyFile    string        `mapstructure:"api-key-file"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerSecond float64       `mapstructure:"rate-per-second"`
	MaxRetries    int           `mapstructure:"max-retries"`
}

type ColConfig struct {
	OverridesFile string        `mapstructure:"overrides-file"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type TablesConfig struct {
	// Dir overrides embedded tables file by file. Empty means embedded only.
	Dir string `mapstructure:"dir"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "salary-intel turns a job title, location and salary text into deterministic salary intelligence",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is salary-intel.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("log.debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("log.json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("fx.provider", "static")
	v.SetDefault("fx.http.base-url", "")
	v.SetDefault("fx.http.api-key", "")
	v.SetDefault("fx.http.api-key-file", "")
	v.SetDefault("fx.http.timeout", 2*time.Second)
	v.SetDefault("fx.http.rate-per-second", 5.0)
	v.SetDefault("fx.http.max-retries", 2)
	v.SetDefault("fx.cache-path", "")
	v.SetDefault("fx.cache-ttl", 24*time.Hour)
	v.SetDefault("col.overrides-file", "")
	v.SetDefault("col.timeout", time.Second)
	v.SetDefault("tables.dir", "")
}

// configureViper installs defaults and the SALARY_INTEL_* environment
// mapping, e.g. SALARY_INTEL_FX_HTTP_API_KEY for fx.http.api-key.
func configureViper(v *viper.Viper) {
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

func initConfig() {
	// A missing .env is normal; only a broken one is worth stopping for.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	configureViper(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional unless named explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

// bootstrap builds the logger and reads the config every command starts with.
func bootstrap() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("log.json"), viper.GetBool("log.debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	return logger, config
}
