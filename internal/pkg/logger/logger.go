package logger

import (
	"go.uber.org/zap"

	"github.com/findmyridesa/provider-admin/internal/pkg/env"
)

// New builds the application logger. Development mode logs human-readable
// console output, everything else logs JSON.
func New(name string) (*zap.Logger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if env.IsDev() {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Named(name), nil
}

// Must is New for main packages.
func Must(name string) *zap.Logger {
	l, err := New(name)
	if err != nil {
		panic(err)
	}
	return l
}
