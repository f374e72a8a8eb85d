package config

import (
	"os"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

type SysConfig struct {
	Appid    string `yaml:"appid" json:"appid"`
	Location string `yaml:"location" json:"location"`
	Workdir  string `yaml:"workdir" json:"workdir"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type WebConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	JwtSecret string `yaml:"jwt_secret" json:"jwt_secret"`
}

type DBConfig struct {
	Type     string `yaml:"type" json:"type"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	Name     string `yaml:"name" json:"name"`
	User     string `yaml:"user" json:"user"`
	Passwd   string `yaml:"passwd" json:"passwd"`
	MaxConn  int    `yaml:"max_conn" json:"max_conn"`
	IdleConn int    `yaml:"idle_conn" json:"idle_conn"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode" json:"mode"`
	FileEnable bool   `yaml:"file_enable" json:"file_enable"`
	Filename   string `yaml:"filename" json:"filename"`
}

type AppConfig struct {
	System   SysConfig `yaml:"system" json:"system"`
	Web      WebConfig `yaml:"web" json:"web"`
	Database DBConfig  `yaml:"database" json:"database"`
	Logger   LogConfig `yaml:"logger" json:"logger"`
}

var DefaultAppConfig = &AppConfig{
	System: SysConfig{
		Appid:    "partdepot",
		Location: "Europe/Moscow",
		Workdir:  "/var/partdepot",
		Debug:    false,
	},
	Web: WebConfig{
		Host:      "0.0.0.0",
		Port:      1816,
		JwtSecret: "9b6de5cc-partdepot-0cc3-11eb-adc1",
	},
	Database: DBConfig{
		Type:     "postgres",
		Host:     "127.0.0.1",
		Port:     5432,
		Name:     "partdepot",
		User:     "postgres",
		Passwd:   "",
		MaxConn:  100,
		IdleConn: 10,
	},
	Logger: LogConfig{
		Mode:       "development",
		FileEnable: true,
		Filename:   "/var/partdepot/partdepot.log",
	},
}

func setEnvString(name string, f func(string)) {
	if v := os.Getenv(name); v != "" {
		f(v)
	}
}

func setEnvInt(name string, f func(int)) {
	if v := os.Getenv(name); v != "" {
		f(cast.ToInt(v))
	}
}

func setEnvBool(name string, f func(bool)) {
	if v := os.Getenv(name); v != "" {
		f(cast.ToBool(v))
	}
}

// LoadConfig reads the YAML config at path, falling back to defaults when the
// file is absent, then applies PARTDEPOT_* environment overrides.
func LoadConfig(cfile string) *AppConfig {
	cfg := new(AppConfig)
	*cfg = *DefaultAppConfig
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}

	setEnvString("PARTDEPOT_SYSTEM_WORKDIR", func(v string) { cfg.System.Workdir = v })
	setEnvBool("PARTDEPOT_SYSTEM_DEBUG", func(v bool) { cfg.System.Debug = v })
	setEnvString("PARTDEPOT_WEB_HOST", func(v string) { cfg.Web.Host = v })
	setEnvInt("PARTDEPOT_WEB_PORT", func(v int) { cfg.Web.Port = v })
	setEnvString("PARTDEPOT_WEB_JWT_SECRET", func(v string) { cfg.Web.JwtSecret = v })
	setEnvString("PARTDEPOT_DB_TYPE", func(v string) { cfg.Database.Type = v })
	setEnvString("PARTDEPOT_DB_HOST", func(v string) { cfg.Database.Host = v })
	setEnvInt("PARTDEPOT_DB_PORT", func(v int) { cfg.Database.Port = v })
	setEnvString("PARTDEPOT_DB_NAME", func(v string) { cfg.Database.Name = v })
	setEnvString("PARTDEPOT_DB_USER", func(v string) { cfg.Database.User = v })
	setEnvString("PARTDEPOT_DB_PWD", func(v string) { cfg.Database.Passwd = v })
	setEnvString("PARTDEPOT_LOGGER_MODE", func(v string) { cfg.Logger.Mode = v })

	return cfg
}
