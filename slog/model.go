package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/htmlner"
)

// Ensure LoggingModel implements htmlner.Model.
var _ htmlner.Model = (*LoggingModel)(nil)

// LoggingModel wraps a Model with logging.
type LoggingModel struct {
	next   htmlner.Model
	logger *slog.Logger
}

// NewLoggingModel creates a new LoggingModel.
func NewLoggingModel(next htmlner.Model, logger *slog.Logger) *LoggingModel {
	return &LoggingModel{next: next, logger: logger}
}

// Fit logs the training set size and delegates to the wrapped model.
func (m *LoggingModel) Fit(ctx context.Context, features [][]htmlner.FeatureMap, tags [][]htmlner.Tag) (err error) {
	defer func(begin time.Time) {
		m.logger.Info("fit",
			"documents", len(features),
			"tokens", countTokens(features),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return m.next.Fit(ctx, features, tags)
}

// Predict logs the input size and number of tagged entities.
func (m *LoggingModel) Predict(ctx context.Context, features [][]htmlner.FeatureMap) (tags [][]htmlner.Tag, err error) {
	defer func(begin time.Time) {
		m.logger.Info("predict",
			"documents", len(features),
			"tokens", countTokens(features),
			"entities", countBegins(tags),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return m.next.Predict(ctx, features)
}

func countTokens(features [][]htmlner.FeatureMap) int {
	n := 0
	for _, seq := range features {
		n += len(seq)
	}
	return n
}

// countBegins counts B- tags, a cheap estimate of predicted entities.
func countBegins(tags [][]htmlner.Tag) int {
	n := 0
	for _, seq := range tags {
		for _, t := range seq {
			if kind, _, err := t.Split(); err == nil && kind == htmlner.KindBegin {
				n++
			}
		}
	}
	return n
}
