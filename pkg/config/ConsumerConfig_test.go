package config_test

import (
	"os"
	"path"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wostzone/wostconsumer-go/pkg/config"
)

var homeFolder string

// TestMain creates a temporary home folder with config, certs and logs folders
func TestMain(m *testing.M) {
	var err error
	homeFolder, err = os.MkdirTemp("", "wotconsumer-config")
	if err != nil {
		logrus.Fatalf("TestMain: unable to create home folder: %s", err)
	}
	for _, folder := range []string{"config", "certs", "logs"} {
		_ = os.Mkdir(path.Join(homeFolder, folder), 0700)
	}
	result := m.Run()
	os.RemoveAll(homeFolder)
	os.Exit(result)
}

func writeConfigFile(t *testing.T, name string, content string) string {
	configFile := path.Join(homeFolder, "config", name)
	err := os.WriteFile(configFile, []byte(content), 0600)
	require.NoError(t, err)
	return configFile
}

func TestDefaultConfig(t *testing.T) {
	logrus.Infof("--- TestDefaultConfig ---")
	cfg := config.CreateDefaultConfig(homeFolder)
	assert.Equal(t, homeFolder, cfg.Home)
	assert.Equal(t, path.Join(homeFolder, "config"), cfg.ConfigFolder)
	assert.Equal(t, path.Join(homeFolder, "certs"), cfg.CertsFolder)
	assert.Equal(t, config.DefaultTimeoutSec, cfg.TimeoutSec)
	assert.Equal(t, config.DefaultProtocols, cfg.Protocols)
	assert.NoError(t, config.ValidateConfig(cfg))

	// relative to the application binary
	cfg = config.CreateDefaultConfig("")
	assert.True(t, path.IsAbs(cfg.Home))
}

func TestLoadConfig(t *testing.T) {
	logrus.Infof("--- TestLoadConfig ---")
	configFile := writeConfigFile(t, "load.yaml", `
logLevel: debug
timeoutSec: 3
validateValues: true
credentialsFile: "{{.thing}}-credentials.yaml"
protocols:
  - http
  - nats
`)
	cfg := config.CreateDefaultConfig(homeFolder)
	err := config.LoadConfig(configFile, cfg, map[string]string{"thing": "thing1"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3, cfg.TimeoutSec)
	assert.True(t, cfg.ValidateValues)
	assert.Equal(t, "thing1-credentials.yaml", cfg.CredentialsFile)
	assert.Equal(t, []string{"http", "nats"}, cfg.Protocols)
	// defaults not in the file remain
	assert.Equal(t, homeFolder, cfg.Home)
	assert.NoError(t, config.ValidateConfig(cfg))
}

func TestLoadConfigErrors(t *testing.T) {
	logrus.Infof("--- TestLoadConfigErrors ---")
	cfg := config.CreateDefaultConfig(homeFolder)
	err := config.LoadConfig(path.Join(homeFolder, "notafile.yaml"), cfg, nil)
	assert.Error(t, err)

	configFile := writeConfigFile(t, "bad.yaml", "logLevel: [debug\n")
	err = config.LoadConfig(configFile, cfg, nil)
	assert.Error(t, err)

	configFile = writeConfigFile(t, "badtemplate.yaml", "logLevel: {{.level\n")
	err = config.LoadConfig(configFile, cfg, map[string]string{})
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	logrus.Infof("--- TestValidateConfig ---")
	cfg := config.CreateDefaultConfig(homeFolder)
	cfg.ConfigFolder = path.Join(homeFolder, "notafolder")
	assert.Error(t, config.ValidateConfig(cfg))

	cfg = config.CreateDefaultConfig(homeFolder)
	cfg.LogFile = path.Join(homeFolder, "nologs", "consumer.log")
	assert.Error(t, config.ValidateConfig(cfg))

	cfg = config.CreateDefaultConfig(homeFolder)
	cfg.CaCertFile = "missingCa.pem"
	assert.Error(t, config.ValidateConfig(cfg))

	cfg = config.CreateDefaultConfig(homeFolder)
	cfg.TimeoutSec = -1
	assert.Error(t, config.ValidateConfig(cfg))

	cfg = config.CreateDefaultConfig(homeFolder)
	cfg.Protocols = nil
	assert.Error(t, config.ValidateConfig(cfg))
}

func TestAbsPath(t *testing.T) {
	logrus.Infof("--- TestAbsPath ---")
	assert.Equal(t, "/certs/ca.pem", config.AbsPath("/certs", "ca.pem"))
	assert.Equal(t, "/etc/ca.pem", config.AbsPath("/certs", "/etc/ca.pem"))
	assert.Equal(t, "", config.AbsPath("/certs", ""))
}

func TestCommandline(t *testing.T) {
	logrus.Infof("--- TestCommandline ---")
	cfg := config.CreateDefaultConfig(homeFolder)
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.SetCommandlineArgs(cfg, flagSet)
	err := flagSet.Parse([]string{"--logLevel", "debug", "--timeout", "5", "--validate", "--protocols", "http,mqtt"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.TimeoutSec)
	assert.True(t, cfg.ValidateValues)
	assert.Equal(t, []string{"http", "mqtt"}, cfg.Protocols)

	err = flagSet.Parse([]string{"--badarg=bad"})
	assert.Error(t, err)
}

func TestLogging(t *testing.T) {
	logrus.Infof("--- TestLogging ---")
	logFile := path.Join(homeFolder, "logs", "TestLogging.log")

	err := config.SetLogging("info", logFile)
	assert.NoError(t, err)
	logrus.Info("Hello info")
	_ = config.SetLogging("debug", logFile)
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	_ = config.SetLogging("notalevel", logFile)
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
	logrus.Warn("Hello warn")
	assert.FileExists(t, logFile)

	err = config.SetLogging("info", path.Join(homeFolder, "nologs", "cantloghere.log"))
	assert.Error(t, err)
	_ = config.SetLogging("info", "")
}

func TestLoadCommandlineConfig(t *testing.T) {
	logrus.Infof("--- TestLoadCommandlineConfig ---")
	// no config file uses defaults
	cfg, err := config.LoadCommandlineConfig("", []string{"--home", homeFolder, "read"})
	require.NoError(t, err)
	assert.Equal(t, homeFolder, cfg.Home)
	assert.Equal(t, config.DefaultTimeoutSec, cfg.TimeoutSec)

	altFile := writeConfigFile(t, "alt.yaml", "timeoutSec: 7\nlogFile: \"{{.home}}/logs/alt.log\"\n")
	cfg, err = config.LoadCommandlineConfig(homeFolder, []string{"--config=" + altFile, "--logLevel", "debug"})
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.TimeoutSec)
	assert.Equal(t, path.Join(homeFolder, "logs", "alt.log"), cfg.LogFile)

	// flags override the loaded configuration
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.SetCommandlineArgs(cfg, flagSet)
	require.NoError(t, flagSet.Parse([]string{"-c", altFile, "--timeout", "3"}))
	assert.Equal(t, 3, cfg.TimeoutSec)

	_, err = config.LoadCommandlineConfig(homeFolder, []string{"-c", path.Join(homeFolder, "missing.yaml")})
	assert.Error(t, err)
}
