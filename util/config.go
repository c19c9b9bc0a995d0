package util

import (
	_ "embed"
	"fmt"
	"gopkg.in/yaml.v3"
	"log"
	"os"
	"strconv"
)

const Name = "anancus"
const ConfigFileName = "config.yaml"

//go:embed config_default.yaml
var embeddedConfig []byte

type AppConfig struct {
	Conf struct {
		Host         string
		SshPort      int    `yaml:"sshPort"`
		HttpPort     int    `yaml:"httpPort"`
		LocalDomain  string `yaml:"localDomain"`
		TestKeys     bool   `yaml:"testKeys"`
		MaxPins      int    `yaml:"maxPins"`
		ExclusionTtl int    `yaml:"exclusionTtlMinutes"`
		Closed       bool   `yaml:"closed"`
	}
}

// KeyBits returns the RSA modulus size for local account signing keys.
// Production keys are 2048 bit, testKeys switches to 512 for fast suites.
func (c *AppConfig) KeyBits() int {
	if c.Conf.TestKeys {
		return 512
	}
	return 2048
}

func ReadConf() (*AppConfig, error) {

	c := &AppConfig{}

	// Try to resolve config file path (local first, then user dir)
	configPath := ResolveFilePath(ConfigFileName)

	var buf []byte
	var err error

	// Try to read from resolved path
	buf, err = os.ReadFile(configPath)
	if err != nil {
		// If file doesn't exist, use embedded config and create user config file
		log.Printf("Config file not found at %s, using embedded defaults", configPath)
		buf = embeddedConfig

		// Try to write default config to user config directory
		configDir, dirErr := GetConfigDir()
		if dirErr == nil {
			userConfigPath := configDir + "/" + ConfigFileName
			writeErr := os.WriteFile(userConfigPath, embeddedConfig, 0644)
			if writeErr != nil {
				log.Printf("Warning: could not write default config to %s: %v", userConfigPath, writeErr)
			} else {
				log.Printf("Created default config file at %s", userConfigPath)
			}
		}
	}

	err = yaml.Unmarshal(buf, c)
	if err != nil {
		return nil, fmt.Errorf("in config file: %w", err)
	}

	envHost := os.Getenv("ANANCUS_HOST")
	envSshPort := os.Getenv("ANANCUS_SSHPORT")
	envHttpPort := os.Getenv("ANANCUS_HTTPPORT")
	envLocalDomain := os.Getenv("ANANCUS_LOCALDOMAIN")
	envTestKeys := os.Getenv("ANANCUS_TESTKEYS")
	envMaxPins := os.Getenv("ANANCUS_MAXPINS")
	envExclusionTtl := os.Getenv("ANANCUS_EXCLUSIONTTLMINUTES")
	envClosed := os.Getenv("ANANCUS_CLOSED")

	if envHost != "" {
		c.Conf.Host = envHost
	}

	if envSshPort != "" {
		v, err := strconv.Atoi(envSshPort)
		if err != nil {
			fmt.Println(err)
		}
		c.Conf.SshPort = v
	}

	if envHttpPort != "" {
		v, err := strconv.Atoi(envHttpPort)
		if err != nil {
			fmt.Println(err)
		}
		c.Conf.HttpPort = v
	}

	if envLocalDomain != "" {
		c.Conf.LocalDomain = envLocalDomain
	}

	if envTestKeys == "true" {
		c.Conf.TestKeys = true
	}

	if envMaxPins != "" {
		v, err := strconv.Atoi(envMaxPins)
		if err != nil {
			fmt.Println(err)
		}
		c.Conf.MaxPins = v
	}

	if envExclusionTtl != "" {
		v, err := strconv.Atoi(envExclusionTtl)
		if err != nil {
			fmt.Println(err)
		}
		c.Conf.ExclusionTtl = v
	}

	if envClosed == "true" {
		c.Conf.Closed = true
	}

	if c.Conf.MaxPins <= 0 {
		c.Conf.MaxPins = 5
	}

	if c.Conf.ExclusionTtl <= 0 {
		c.Conf.ExclusionTtl = 360
	}

	return c, nil
}
