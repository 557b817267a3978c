package sks

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Criptoki CriptokiConfig
}

type CriptokiConfig struct {
	ManufacturerID  string
	Model           string
	Description     string
	VersionMajor    uint16
	VersionMinor    uint16
	SerialNumber    string
	MinPinLength    uint8
	MaxPinLength    uint8
	MaxSessionCount uint16
	DatabaseType    string
	Slots           []*SlotsConfig
}

type SlotsConfig struct {
	Label string
	Pin   string
	SoPin string
}

// GetConfig reads the configuration file on first use. The file is searched
// in the usual places plus the working directory.
func GetConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.AddConfigPath("/etc/sks/")
	viper.AddConfigPath("$HOME/.sks")
	viper.AddConfigPath("./")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config file not found: %v", err)
	}
	if logPath := viper.GetString("general.logfile"); logPath != "" {
		logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0644)
		if err != nil {
			log.Printf("cannot create logfile in given path: %s", err)
		} else {
			log.SetOutput(logFile)
		}
	}
	var conf Config
	if err := viper.Unmarshal(&conf); err != nil {
		return nil, err
	}
	return &conf, nil
}
