package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr     string   `mapstructure:"-"`
	Server         Server   `mapstructure:"server"`
	Gin            Gin      `mapstructure:"gin"`
	Database       Database `mapstructure:"database"`
	Session        Session  `mapstructure:"session"`
	Log            Log      `mapstructure:"log"`
	CORS           CORS     `mapstructure:"cors"`
	Site           Site     `mapstructure:"site"`
	Metrics        Metrics  `mapstructure:"metrics"`
	ConfigFileUsed string   `mapstructure:"-"`
}

type Server struct {
	ListenAddr string `mapstructure:"listen_addr"`
	Port       string `mapstructure:"port"`
}

type Gin struct {
	Mode string `mapstructure:"mode"` // debug, release or test
}

type Database struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "postgres"
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

type Session struct {
	Secret string `mapstructure:"secret"`
	Secure bool   `mapstructure:"secure"`
	MaxAge int    `mapstructure:"max_age"` // seconds
}

type Log struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type CORS struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type Site struct {
	BaseURL string `mapstructure:"base_url"`
}

type Metrics struct {
	Enabled bool `mapstructure:"enabled"`
}

// DevSessionSecret 仅用于本地开发，生产环境必须通过 SESSION_SECRET 覆盖。
const DevSessionSecret = "startrail-dev-secret"

// Load 读取 config.yaml（可选）与环境变量，并为缺失项提供默认值。
func Load() (AppConfig, error) {
	return load(viper.New(), ".", "./config")
}

func load(v *viper.Viper, paths ...string) (AppConfig, error) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.listen_addr", "")
	v.SetDefault("gin.mode", "release")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "startrail.db")
	v.SetDefault("database.dsn", "")
	v.SetDefault("session.secret", DevSessionSecret)
	v.SetDefault("session.secure", false)
	v.SetDefault("session.max_age", 400*24*60*60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("site.base_url", "")
	v.SetDefault("metrics.enabled", true)

	// 兼容旧的裸环境变量
	if err := bindEnv(v, envBindings); err != nil {
		return AppConfig{}, err
	}

	v.SetEnvPrefix("STARTRAIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigFileUsed = v.ConfigFileUsed()

	cfg.Server.Port = strings.TrimSpace(cfg.Server.Port)
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	cfg.ListenAddr = strings.TrimSpace(cfg.Server.ListenAddr)
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Server.Port)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Session.Secret = strings.TrimSpace(cfg.Session.Secret)
	if cfg.Session.Secret == "" {
		cfg.Session.Secret = DevSessionSecret
	}
	cfg.Site.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Site.BaseURL), "/")
	cfg.CORS.AllowedOrigins = splitOrigins(cfg.CORS.AllowedOrigins)

	return cfg, nil
}

var envBindings = [][]string{
	{"server.port", "STARTRAIL_SERVER_PORT", "PORT"},
	{"server.listen_addr", "STARTRAIL_SERVER_LISTEN_ADDR", "LISTEN_ADDR"},
	{"database.path", "STARTRAIL_DATABASE_PATH", "DATABASE_PATH"},
	{"session.secret", "STARTRAIL_SESSION_SECRET", "SESSION_SECRET"},
	{"gin.mode", "STARTRAIL_GIN_MODE", "GIN_MODE"},
}

// bindEnv 绑定 key 与环境变量名，任一失败即返回
func bindEnv(v *viper.Viper, bindings [][]string) error {
	var errs []error
	for _, binding := range bindings {
		if err := v.BindEnv(binding...); err != nil {
			errs = append(errs, fmt.Errorf("bind env %s: %w", binding[0], err))
		}
	}
	return errors.Join(errs...)
}

// splitOrigins 同时接受 YAML 列表与逗号分隔的环境变量。
func splitOrigins(values []string) []string {
	origins := make([]string, 0, len(values))
	for _, value := range values {
		for _, origin := range strings.Split(value, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				origins = append(origins, origin)
			}
		}
	}
	return origins
}

// UsingDevSecret 用于启动时提醒未配置会话密钥。
func (c AppConfig) UsingDevSecret() bool {
	return c.Session.Secret == DevSessionSecret
}
