package astro

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

var (
	cfgLoaded = false
	config    = _astroconfig{}
)

// _astroconfig is a "hidden" struct, just use `astroConfig`
type _astroconfig struct {
	outputDir string
}

// astroConfig returns the astro configuration singleton, loaded from the
// conf.toml found in the directory set by the ASTRO_CONFIG environment
// variable.
func astroConfig() _astroconfig {
	if cfgLoaded {
		return config
	}
	confPath := os.Getenv("ASTRO_CONFIG")
	if confPath == "" {
		panic("environment variable `ASTRO_CONFIG` is missing or empty")
	}
	viper.SetConfigName("conf")
	viper.AddConfigPath(confPath)
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("%s/conf.toml not found", confPath))
	}
	outputDir := viper.GetString("general.output_path")
	if outputDir == "" {
		outputDir = "."
	}
	config = _astroconfig{outputDir: outputDir}
	cfgLoaded = true
	return config
}
