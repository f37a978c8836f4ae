// Package backend assembles the storage, queue and spreadsheet collaborators
// selected by configuration.
package backend

import (
	"context"

	"eixo/internal/amqp"
	"eixo/internal/sheets"
	"eixo/internal/storage"
)

// CleanupFunc releases whatever CreateBackend opened.
type CleanupFunc func() error

// BackendResult holds the created collaborators. AMQP is nil when no broker
// is configured or it could not be reached.
type BackendResult struct {
	Repository storage.Repository
	AMQP       *amqp.Client
	Exporter   sheets.TransactionExporter
	Cleanup    CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string
	DatabaseURL  string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	// RequireAMQP makes a broker connection failure fatal instead of a
	// warning. The export worker sets it.
	RequireAMQP bool

	GoogleServiceAccountJSON  string
	GoogleServiceAccountFile  string
	GoogleExportSpreadsheetID string
}

type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// sheetsEnabled reports whether Google credentials and a target spreadsheet
// are configured.
func (c Config) sheetsEnabled() bool {
	return c.GoogleExportSpreadsheetID != "" && (c.GoogleServiceAccountJSON != "" || c.GoogleServiceAccountFile != "")
}
