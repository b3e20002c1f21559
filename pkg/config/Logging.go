package config

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// SetLogging sets the logging level and output file
// This sets the timestamp format to ISO8601
//  levelName is the requested logging level: error, warning, info, debug. Default is warning.
//  logFile is the optional log file. Logging is also written to stdout.
// Returns an error if the log file cannot be opened
func SetLogging(levelName string, logFile string) error {
	logLevel, err := logrus.ParseLevel(levelName)
	if err != nil {
		logLevel = logrus.WarnLevel
	}
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000-0700",
	})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logLevel)

	if logFile != "" {
		fileHandle, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			logrus.Errorf("SetLogging: Unable to open logfile '%s': %s", logFile, err)
			return err
		}
		logrus.Infof("SetLogging: Send '%s' logging to '%s'", levelName, logFile)
		logrus.SetOutput(io.MultiWriter(os.Stdout, fileHandle))
	}
	return nil
}
