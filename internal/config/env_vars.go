package config

import "strings"

type EnvVars struct {
	AppName    string `env:"APP_NAME"    envDefault:"Skins Market"`
	Env        string `env:"ENV"         envDefault:"DEV"`
	LogLevel   string `env:"LOG_LEVEL"   envDefault:"info"`
	DataFolder string `env:"DATA_FOLDER" envDefault:"./data"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return strings.ToUpper(e.Env)
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(e.LogLevel)
}

func (e EnvVars) GetDataFolder() string {
	return e.DataFolder
}
