package fiberlog

import "github.com/sirupsen/logrus"

type Config struct {
	Logger *logrus.Logger
	Tags   []string
	// SkipPaths are request paths that are never logged, e.g. health probes.
	SkipPaths []string
}

var ConfigDefault = Config{
	Tags: []string{
		TagStatus,
		TagLatency,
		TagMethod,
		TagPath,
	},
}

func (c Config) skipSet() map[string]struct{} {
	result := make(map[string]struct{}, len(c.SkipPaths))
	for _, path := range c.SkipPaths {
		result[path] = struct{}{}
	}
	return result
}
