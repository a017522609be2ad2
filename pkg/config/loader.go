package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// RepoDirName is the metadata directory under the repository root.
const RepoDirName = ".vcs"

// Load sets defaults and reads the optional config file and VCS_* env vars
// into the global viper instance.
// cfgFile: optional explicit path.
func Load(cfgFile string) error {
	setDefaults()

	// VCS_LOG_LEVEL -> log.level
	viper.SetEnvPrefix("VCS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// search order: <repo.root>/.vcs, then ~/.vcs. repo.root is the
		// --root flag or VCS_REPO_ROOT when set, else the working directory.
		viper.AddConfigPath(filepath.Join(viper.GetString("repo.root"), RepoDirName))
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, RepoDirName))
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	if err := viper.ReadInConfig(); err != nil {
		// a missing file is fine, a broken one is not
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("fatal error config file: %w", err)
	}
	return nil
}

func setDefaults() {
	wd, _ := os.Getwd()
	viper.SetDefault("repo.root", wd)

	viper.SetDefault("log.level", "warn")

	viper.SetDefault("storage.type", "disk")
	viper.SetDefault("storage.s3.region", "us-east-1")
	viper.SetDefault("storage.s3.prefix", "commits/")

	viper.SetDefault("cache.redis_url", "")
	viper.SetDefault("cache.ttl", 24*time.Hour)

	viper.SetDefault("meta.enabled", false)
	viper.SetDefault("meta.driver", "sqlite")
	viper.SetDefault("meta.dsn", "")
}
