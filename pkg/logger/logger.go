package logger

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

func Init(level, format string) error {
	log = logrus.New()

	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		return fmt.Errorf("unknown log level: %q", level)
	}

	switch format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		return fmt.Errorf("unknown log format: %q", format)
	}

	log.SetOutput(os.Stdout)

	return nil
}

// L returns the configured logger for injection into services. Before Init
// it falls back to the logrus standard logger.
func L() *logrus.Logger {
	if log != nil {
		return log
	}
	return logrus.StandardLogger()
}

func Info(args ...interface{}) {
	L().Info(args...)
}

func Infof(format string, args ...interface{}) {
	L().Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	L().Warnf(format, args...)
}

func Errorf(format string, args ...interface{}) {
	L().Errorf(format, args...)
}

func Fatalf(format string, args ...interface{}) {
	if log != nil {
		log.Fatalf(format, args...)
	} else {
		fmt.Printf("FATAL: "+format+"\n", args...)
		os.Exit(1)
	}
}
