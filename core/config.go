package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Storage engines
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

type (
	Config struct {
		Env          string `mapstructure:"-"`
		WorkDir      string `mapstructure:"-"`
		Debug        bool   `mapstructure:"debug"`
		TestMode     bool   `mapstructure:"testMode"`
		AppName      string `mapstructure:"appName" validate:"required"`
		Build        string `mapstructure:"build"`
		RollbarToken string `mapstructure:"rollbarToken"`

		Server  ServerConfig  `mapstructure:"server"`
		Storage StorageConfig `mapstructure:"storage"`
		Upload  UploadConfig  `mapstructure:"upload"`
		Render  RenderConfig  `mapstructure:"render"`
		Export  ExportConfig  `mapstructure:"export"`
	}

	ServerConfig struct {
		Address         string        `mapstructure:"address" validate:"required"`
		Host            string        `mapstructure:"host"`
		DebugAddress    string        `mapstructure:"debugAddress"`
		DisableReqLogs  bool          `mapstructure:"disableReqLogs"`
		ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout" validate:"min=0"`
	}

	StorageConfig struct {
		Engine string `mapstructure:"engine" validate:"required,oneof=memory sqlite postgres"`
		DSN    string `mapstructure:"dsn" validate:"required_unless=Engine memory"`
		// Quota is the maximum number of characters (keys + values) the store may hold; 0 disables it.
		Quota  int           `mapstructure:"quota" validate:"min=0"`
		MaxAge time.Duration `mapstructure:"maxAge" validate:"min=0"`
	}

	UploadConfig struct {
		BaseURL string        `mapstructure:"baseURL" validate:"required,url"`
		Path    string        `mapstructure:"path" validate:"required,urlpath"`
		Timeout time.Duration `mapstructure:"timeout" validate:"min=0"`
	}

	RenderConfig struct {
		LogoURL     string        `mapstructure:"logoURL" validate:"omitempty,url"`
		LogoTimeout time.Duration `mapstructure:"logoTimeout" validate:"min=0"`
		FontRegular string        `mapstructure:"fontRegular" validate:"omitempty,file"`
		FontBold    string        `mapstructure:"fontBold" validate:"omitempty,file"`
	}

	ExportConfig struct {
		Dir string `mapstructure:"dir" validate:"required"`
	}
)

// UploadURL is the absolute URL certificates are posted to.
func (c UploadConfig) UploadURL() string {
	return strings.TrimRight(c.BaseURL, "/") + c.Path
}

func setDefaults(v *viper.Viper, workDir string) {
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Masomo")
	v.SetDefault("build", "develop")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.address", ":8090")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.debugAddress", "")
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)

	v.SetDefault("storage.engine", StorageSQLite)
	v.SetDefault("storage.dsn", filepath.Join(workDir, "certificates.db"))
	v.SetDefault("storage.quota", 5_000_000)
	v.SetDefault("storage.maxAge", time.Duration(0))

	v.SetDefault("upload.baseURL", "http://localhost:8080")
	v.SetDefault("upload.path", "/api/certificate/upload")
	v.SetDefault("upload.timeout", 30*time.Second)

	v.SetDefault("render.logoURL", "https://i.ibb.co/x8sYjYyK/out.png")
	v.SetDefault("render.logoTimeout", 10*time.Second)
	v.SetDefault("render.fontRegular", "")
	v.SetDefault("render.fontBold", "")

	v.SetDefault("export.dir", workDir)
}

// NewConfig loads the configuration for the current ENV (DEV (local; default), TEST, QA, PROD).
// Sources by increasing precedence: defaults, config/certs.{toml,yaml,json}, config/.env.<env>, environment.
// Environment variables are prefixed with the env, eg. DEV_STORAGE_ENGINE.
func NewConfig() (*Config, error) {
	v := viper.New()
	workDir := Getwd()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	setDefaults(v, workDir)
	if env == "TEST" {
		v.SetDefault("testMode", true)
		v.SetDefault("storage.engine", StorageMemory)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, errors.Wrapf(err, "loading %s", dotEnvPath)
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking %s", dotEnvPath)
	}

	v.SetConfigName("certs")
	v.AddConfigPath(filepath.Join(workDir, "config"))
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	conf.Env = env
	conf.WorkDir = workDir

	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return conf, nil
}

func (c *Config) Validate() error {
	return Validate.Struct(c)
}
