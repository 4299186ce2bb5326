// Package obslog constructs the shared logrus logger used across
// internal/player, internal/systems, and internal/driver. Centralizing
// construction here mirrors jason-s-yu-cambia-service's pattern of passing
// a single *logrus.Logger into every constructor rather than each package
// reaching for the global logrus instance.
package obslog

import "github.com/sirupsen/logrus"

// New returns a text-formatted logger at the given level. Callers that
// don't care about log configuration can pass logrus.InfoLevel.
func New(level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// Noop returns a logger with output discarded, for tests that don't want
// log noise but still exercise logging call sites.
func Noop() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(discard{})
	return l
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
