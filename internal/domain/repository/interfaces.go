package repository

import (
	"context"
	"errors"
	"time"

	"StockView/internal/domain/models"
)

// ErrStateNotFound is returned by StateStore.Load for unknown or expired sessions.
var ErrStateNotFound = errors.New("session state not found")

type StockAPI interface {
	FetchStockData(ctx context.Context, q models.StockQuery) (*models.StockSummary, error)
	RunAnalysis(ctx context.Context, t models.AnalysisType, q models.StockQuery) (*models.AnalysisResult, error)
}

// SessionState is the controller state mirrored per browser session.
type SessionState struct {
	Query    *models.StockQuery  `json:"query,omitempty"`
	Analysis models.AnalysisType `json:"analysis,omitempty"`
}

type StateStore interface {
	Save(ctx context.Context, sessionID string, st SessionState, ttl time.Duration) error
	Load(ctx context.Context, sessionID string) (SessionState, error)
	Delete(ctx context.Context, sessionID string) error
}

type Metrics interface {
	RecordBackendCall(endpoint, outcome string, seconds float64)
	RecordUIError(kind string)
	SessionOpened()
	SessionClosed()
}
