package main

import (
	"io"

	"github.com/alexisbeaulieu97/peakflow/internal/logger"
	"github.com/alexisbeaulieu97/peakflow/internal/methods"
)

// appContext bundles long-lived services created before a command runs.
type appContext struct {
	Registry *methods.Registry
	Logger   *logger.Logger
}

func newAppContext(flags *rootFlags, logOut io.Writer) (*appContext, error) {
	level := flags.logLevel
	if flags.verbose {
		level = "debug"
	}

	log, err := logger.New(logger.Options{Level: level, HumanReadable: !flags.jsonLogs, Writer: logOut})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)

	return &appContext{Registry: methods.NewDefaultRegistry(), Logger: log}, nil
}
