package config

import (
	"errors"
	"os"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// SetCommandlineArgs adds the commandline flags that override the configuration
//
// --config       /path/to/wotconsumer.yaml  optional alt configuration, default is {home}/config/wotconsumer.yaml
// --home         /path/to/app/home          optional alternative application home folder
// --certsFolder  /path/to/alt/certs         optional certificate folder
// --configFolder /path/to/alt/config        optional alternative config, eg /etc/wost
// --logFile      /path/to/wotconsumer.log   optional logfile
// --logLevel     warning                    for extra logging
// --timeout      10                         request timeout in seconds
// --validate                                validate values against the TD before sending
//
//  config to set the defaults from and write the flag values to
//  flagSet to add the flags to, eg a cobra command's PersistentFlags()
func SetCommandlineArgs(config *ConsumerConfig, flagSet *pflag.FlagSet) {
	// --config is handled separately by the app. It is added here to avoid flag parse error
	flagSet.StringP("config", "c", "", "Alternative configuration `file`")
	flagSet.StringVar(&config.Home, "home", config.Home, "Application working `folder`")
	flagSet.StringVar(&config.CertsFolder, "certsFolder", config.CertsFolder, "Certificates `folder` for TLS")
	flagSet.StringVar(&config.ConfigFolder, "configFolder", config.ConfigFolder, "Configuration `folder`")
	flagSet.StringVar(&config.CaCertFile, "caCert", config.CaCertFile, "CA certificate `file` to verify servers")
	flagSet.StringVar(&config.CredentialsFile, "credentials", config.CredentialsFile, "Thing credentials `file`")
	flagSet.StringVar(&config.LogFile, "logFile", config.LogFile, "Log to `file`")
	flagSet.StringVar(&config.LogLevel, "logLevel", config.LogLevel, "Loglevel: {error|warning|info|debug}")
	flagSet.IntVar(&config.TimeoutSec, "timeout", config.TimeoutSec, "Request timeout in `seconds`")
	flagSet.BoolVar(&config.ValidateValues, "validate", config.ValidateValues, "Validate values against the TD data schema")
	flagSet.StringSliceVar(&config.Protocols, "protocols", config.Protocols, "Enabled protocol schemes")
}

// LoadCommandlineConfig loads the configuration file selected on the commandline.
// Use SetCommandlineArgs afterwards so the remaining flags override the loaded values.
// The arguments are scanned without the flag package with two special considerations:
//  - "--home" sets the home folder as the base of ./config and ./certs
//  - "-c" or "--config" specifies an alternative configuration file
// The default configuration file {configFolder}/wotconsumer.yaml is optional. An alternative
// configuration file must exist.
//  homeFolder overrides the default home folder. "" to use --home or the parent of the binary.
//  args are the commandline arguments without the application name
func LoadCommandlineConfig(homeFolder string, args []string) (*ConsumerConfig, error) {
	var configFile string
	for index := 0; index < len(args); index++ {
		arg := args[index]
		name, value, hasValue := strings.Cut(arg, "=")
		if !hasValue && index+1 < len(args) {
			value = args[index+1]
		}
		switch name {
		case "--home":
			if homeFolder == "" {
				homeFolder = value
			}
		case "-c", "--config":
			configFile = value
		}
	}
	config := CreateDefaultConfig(homeFolder)
	if configFile == "" {
		configFile = path.Join(config.ConfigFolder, ConsumerConfigName)
		if _, err := os.Stat(configFile); errors.Is(err, os.ErrNotExist) {
			logrus.Infof("LoadCommandlineConfig: No configuration file '%s'. Using defaults.", configFile)
			return config, nil
		}
	}
	substituteMap := map[string]string{
		"home":         config.Home,
		"configFolder": config.ConfigFolder,
		"certsFolder":  config.CertsFolder,
	}
	err := LoadConfig(configFile, config, substituteMap)
	return config, err
}
