package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings configures the HTTP server. Every key can be set from the
// environment, e.g. API_PORT or SCENARIO_DIR.
type Settings struct {
	Port        int           `mapstructure:"api_port"`
	Env         string        `mapstructure:"api_env"`
	StaticDir   string        `mapstructure:"static_dir"`
	ScenarioDir string        `mapstructure:"scenario_dir"`
	ResultTTL   time.Duration `mapstructure:"result_ttl"`
	CORSOrigins []string      `mapstructure:"cors_origins"`
}

func (s Settings) Production() bool {
	return s.Env == "production"
}

func (s Settings) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// LoadSettings reads the settings from the environment, optionally
// layered over a config file (any format viper understands).
func LoadSettings(configFile string) (Settings, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// AutomaticEnv only covers keys viper already knows; bind explicitly
	// so Unmarshal sees env values for every field.
	for _, k := range []string{"api_port", "api_env", "static_dir", "scenario_dir", "result_ttl", "cors_origins"} {
		if err := v.BindEnv(k, strings.ToUpper(k)); err != nil {
			return Settings{}, err
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("settings validation failed: %w", err)
	}
	return s, nil
}

func (s Settings) Validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("invalid API port: %d", s.Port)
	}
	if s.ResultTTL <= 0 {
		return fmt.Errorf("result_ttl must be > 0, got %s", s.ResultTTL)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_port", 8080)
	v.SetDefault("api_env", "development")
	v.SetDefault("static_dir", "./web/dist")
	v.SetDefault("scenario_dir", "./examples/scenarios")
	v.SetDefault("result_ttl", time.Hour)
	v.SetDefault("cors_origins", []string{})
}
