package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	AdminKey        string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	MaxUploadSizeMB int64         `mapstructure:"MAX_UPLOAD_MB"`

	NotifyURL      string `mapstructure:"NOTIFY_URL"`
	NotifyFilePath string `mapstructure:"NOTIFY_FILE_PATH"`

	// Engine defaults; report filters may override per request.
	UmbralCongestion       float64 `mapstructure:"UMBRAL_CONGESTION"`
	UmbralAcumulacionHoras float64 `mapstructure:"UMBRAL_ACUMULACION_HORAS"`
	CapacidadTeorica       int     `mapstructure:"CAPACIDAD_TEORICA"`
	UmbralDespachoHoras    float64 `mapstructure:"UMBRAL_DESPACHO_HORAS"`
	FranjaHoras            int     `mapstructure:"FRANJA_HORAS"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_MB", 20)
	v.SetDefault("NOTIFY_FILE_PATH", "notifications.log")
	v.SetDefault("UMBRAL_CONGESTION", 85.0)
	v.SetDefault("UMBRAL_ACUMULACION_HORAS", 4.0)
	v.SetDefault("CAPACIDAD_TEORICA", 10)
	v.SetDefault("UMBRAL_DESPACHO_HORAS", 24.0)
	v.SetDefault("FRANJA_HORAS", 4)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
