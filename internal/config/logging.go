package config

import (
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ConfigureLogging sets up the standard logger for command line use.
func ConfigureLogging(out io.Writer, level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return errors.WithStack(err)
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(out)
	log.SetLevel(lvl)
	return nil
}

// LogValidationErrors reports each invalid field of a validation error.
// Other errors are logged as they are.
func LogValidationErrors(err error) {
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		log.Error(err)
		return
	}
	for _, err := range verrs {
		fieldName := stripPrefix(err.Namespace())
		switch tag := err.Tag(); tag {
		case "required":
			log.Errorf("ConfigError: Field %s is required but was not found", fieldName)
		default:
			log.Errorf("ConfigError: Field %s has invalid value %v: %s", fieldName, err.Value(), tag)
		}
	}
}

func stripPrefix(s string) string {
	if idx := strings.Index(s, "."); idx != -1 {
		return s[idx+1:]
	}
	return s
}
