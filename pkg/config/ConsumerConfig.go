// Package config with the consumer configuration struct and methods
package config

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"text/template"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// ConsumerConfigName is the default configuration file name
const ConsumerConfigName = "wotconsumer.yaml"

// ConsumerLogFile is the default log file name
const ConsumerLogFile = "wotconsumer.log"

// DefaultCertsFolder with the location of certificates
const DefaultCertsFolder = "./certs"

// DefaultCredentialsFile holds the credentials of Things, relative to the config folder
const DefaultCredentialsFile = "credentials.yaml"

// DefaultTimeoutSec is the default request timeout of protocol clients
const DefaultTimeoutSec = 10

// DefaultProtocols lists the schemes that are enabled when not configured
var DefaultProtocols = []string{"http", "https", "mqtt", "mqtts", "nats", "file"}

// ConsumerConfig with the configuration of a Thing consumer
type ConsumerConfig struct {
	// logging
	LogLevel string `yaml:"logLevel"` // debug, info, warning, error. Default is warning
	LogFile  string `yaml:"logFile"`  // log to file. Empty to log to stdout

	// Folders
	Home         string `yaml:"home"`         // application home directory. Default is parent of executable.
	ConfigFolder string `yaml:"configFolder"` // location of configuration files. Default is {home}/config
	CertsFolder  string `yaml:"certsFolder"`  // folder containing certificates, default is {home}/certs

	// TLS. Relative paths are relative to the certs folder. Empty to not use.
	CaCertFile     string `yaml:"caCertFile,omitempty"`     // CA certificate to verify servers with
	ClientCertFile string `yaml:"clientCertFile,omitempty"` // client certificate for certificate authentication
	ClientKeyFile  string `yaml:"clientKeyFile,omitempty"`  // client key for certificate authentication

	// CredentialsFile with the credentials of Things. Relative to the config folder.
	CredentialsFile string `yaml:"credentialsFile"`

	// TimeoutSec is the request timeout of protocol clients
	TimeoutSec int `yaml:"timeoutSec"`
	// ValidateValues validates values against the TD data schema before they are sent
	ValidateValues bool `yaml:"validateValues"`
	// Protocols lists the enabled URI schemes
	Protocols []string `yaml:"protocols"`
	// Metrics enables registration of prometheus metrics
	Metrics bool `yaml:"metrics"`
}

// AbsPath returns the absolute path of a file relative to the given folder
// An empty file name returns empty.
func AbsPath(folder string, file string) string {
	if file == "" || path.IsAbs(file) {
		return file
	}
	return path.Join(folder, file)
}

// CreateDefaultConfig with default values
//  homeFolder is the home of the application, log and configuration folders.
//  Use "" for default: parent of application binary
//  When relative path is given, it is relative to the application binary
func CreateDefaultConfig(homeFolder string) *ConsumerConfig {
	appBin, _ := os.Executable()
	binFolder := path.Dir(appBin)
	if homeFolder == "" {
		homeFolder = path.Dir(binFolder)
	} else if !path.IsAbs(homeFolder) {
		// turn relative home folder in absolute path
		homeFolder = path.Join(binFolder, homeFolder)
	}
	logrus.Infof("CreateDefaultConfig: AppBin is: %s; Home is: %s", appBin, homeFolder)
	config := &ConsumerConfig{
		LogLevel:        "warning",
		Home:            homeFolder,
		ConfigFolder:    path.Join(homeFolder, "config"),
		CertsFolder:     path.Join(homeFolder, DefaultCertsFolder),
		CredentialsFile: DefaultCredentialsFile,
		TimeoutSec:      DefaultTimeoutSec,
		Protocols:       append([]string{}, DefaultProtocols...),
	}
	return config
}

// LoadConfig loads the configuration from file into the given config
//  configFile path to yaml configuration file
//  config interface to typed structure matching the config. Must have yaml tags
//  substituteMap map to substitude {{.key}} with value from map, nil to ignore
// Returns nil if successful
func LoadConfig(configFile string, config interface{}, substituteMap map[string]string) error {
	rawConfig, err := os.ReadFile(configFile)
	if err != nil {
		logrus.Infof("LoadConfig: Unable to load config file: %s", err)
		return err
	}
	logrus.Infof("LoadConfig: Loaded config file '%s'", configFile)
	rawText := string(rawConfig)
	if substituteMap != nil {
		rawText, err = SubstituteText(rawText, substituteMap)
		if err != nil {
			logrus.Errorf("LoadConfig: Invalid template in config file '%s': %s", configFile, err)
			return err
		}
	}

	err = yaml.Unmarshal([]byte(rawText), config)
	if err != nil {
		logrus.Errorf("LoadConfig: Error parsing config file '%s': %s", configFile, err)
		return err
	}
	return nil
}

// SubstituteText replaces template strings in the text
//  text to substitude template strings, eg "hello {{.destination}}"
//  substituteMap with replacement keywords, eg {"destination":"world"}
// Returns text with template strings replaced
func SubstituteText(text string, substituteMap map[string]string) (string, error) {
	var msg bytes.Buffer

	tpl, err := template.New("").Parse(text)
	if err != nil {
		return text, err
	}
	err = tpl.Execute(&msg, substituteMap)
	return msg.String(), err
}

// ValidateConfig checks if values in the configuration are correct
// Returns an error if the config is invalid
func ValidateConfig(config *ConsumerConfig) error {
	if _, err := os.Stat(config.Home); os.IsNotExist(err) {
		logrus.Errorf("ValidateConfig: Home folder '%s' not found", config.Home)
		return err
	}
	if _, err := os.Stat(config.ConfigFolder); os.IsNotExist(err) {
		logrus.Errorf("ValidateConfig: Configuration folder '%s' not found", config.ConfigFolder)
		return err
	}
	if config.LogFile != "" {
		loggingFolder := path.Dir(config.LogFile)
		if _, err := os.Stat(loggingFolder); os.IsNotExist(err) {
			logrus.Errorf("ValidateConfig: Logging folder '%s' not found", loggingFolder)
			return err
		}
	}
	for _, certFile := range []string{config.CaCertFile, config.ClientCertFile, config.ClientKeyFile} {
		if certFile == "" {
			continue
		}
		certPath := AbsPath(config.CertsFolder, certFile)
		if _, err := os.Stat(certPath); os.IsNotExist(err) {
			logrus.Errorf("ValidateConfig: Certificate file '%s' not found", certPath)
			return err
		}
	}
	if (config.ClientCertFile == "") != (config.ClientKeyFile == "") {
		err := fmt.Errorf("client certificate and key must be provided together")
		logrus.Errorf("ValidateConfig: %s", err)
		return err
	}
	if config.TimeoutSec < 0 {
		err := fmt.Errorf("timeoutSec %d can't be negative", config.TimeoutSec)
		logrus.Errorf("ValidateConfig: %s", err)
		return err
	}
	if len(config.Protocols) == 0 {
		err := fmt.Errorf("no protocols are enabled")
		logrus.Errorf("ValidateConfig: %s", err)
		return err
	}
	return nil
}
