package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

var v = viper.New()

// Load sets defaults, reads an optional ironlance.json from configDir, and
// lets IRONLANCE_* environment variables override both. A missing config
// file is fine; a malformed one is not. Each call starts from a clean
// instance so stale config paths never leak between loads.
func Load(configDir string) error {
	nv := viper.New()

	nv.SetDefault("logLevel", "info")
	nv.SetDefault("listenAddr", ":8080")
	nv.SetDefault("sqlitePath", "ironlance.db")
	nv.SetDefault("postgresDSN", "")

	nv.SetDefault("sim.mapRadius", 8)
	nv.SetDefault("sim.maxRounds", 200)
	nv.SetDefault("sim.seed", 42)
	nv.SetDefault("sim.gamesPerTemplate", 9)

	nv.SetConfigName("ironlance")
	nv.SetConfigType("json")
	nv.AddConfigPath(configDir)

	nv.SetEnvPrefix("ironlance")
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()

	if err := nv.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	v = nv
	return nil
}

func GetString(key string) string { return v.GetString(key) }
func GetInt(key string) int       { return v.GetInt(key) }
func GetUint64(key string) uint64 { return v.GetUint64(key) }
