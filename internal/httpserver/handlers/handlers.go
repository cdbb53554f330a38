// Package handlers holds the HTTP handlers of the dashboard agent service.
package handlers

import (
	"courrierkit/internal/dashboard"
	"courrierkit/internal/models"

	"github.com/sirupsen/logrus"
)

// Handlers carries the dependencies shared by the handlers.
type Handlers struct {
	Dashboard dashboard.Analyzer
	Info      models.Info
	Logger    *logrus.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(analyzer dashboard.Analyzer, info models.Info, logger *logrus.Logger) *Handlers {
	return &Handlers{Dashboard: analyzer, Info: info, Logger: logger}
}
