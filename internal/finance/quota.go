package finance

import (
	"errors"
	"fmt"
	"strings"
)

const (
	FreeGoalLimit          = 1
	FreeAffordabilityLimit = 1
)

var (
	ErrQuotaExceeded      = errors.New("free plan limit reached")
	ErrPremiumRequired    = errors.New("premium plan required")
	ErrInvalidQuotaWindow = errors.New("invalid quota window")
	ErrUnknownFormat      = errors.New("unknown export format")
)

// Entitlement is anything that knows whether its owner pays. *session.Session
// satisfies it.
type Entitlement interface {
	IsPremium() bool
}

// QuotaWindow selects how affordability attempts are counted for free users.
type QuotaWindow string

const (
	// QuotaLifetime counts every attempt made in the session, never reset.
	QuotaLifetime QuotaWindow = "lifetime"
	// QuotaDaily counts queries stored in history for the current day.
	QuotaDaily QuotaWindow = "daily"
)

func ParseQuotaWindow(s string) (QuotaWindow, error) {
	switch w := QuotaWindow(strings.ToLower(strings.TrimSpace(s))); w {
	case QuotaLifetime, QuotaDaily:
		return w, nil
	case "":
		return QuotaLifetime, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidQuotaWindow, s)
	}
}

// CheckGoalQuota blocks a free user who already has FreeGoalLimit goals.
func CheckGoalQuota(ent Entitlement, goals int) error {
	if ent.IsPremium() || goals < FreeGoalLimit {
		return nil
	}
	return ErrQuotaExceeded
}

// CheckAffordabilityQuota blocks a free user whose counted attempts reached
// FreeAffordabilityLimit.
func CheckAffordabilityQuota(ent Entitlement, attempts int) error {
	if ent.IsPremium() || attempts < FreeAffordabilityLimit {
		return nil
	}
	return ErrQuotaExceeded
}

type ExportFormat string

const (
	FormatCSV    ExportFormat = "csv"
	FormatSheets ExportFormat = "sheets"
	FormatPDF    ExportFormat = "pdf"
)

func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatSheets, FormatPDF:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// CheckExport allows CSV for everyone and every other format for premium.
func CheckExport(ent Entitlement, f ExportFormat) error {
	if f == FormatCSV || ent.IsPremium() {
		return nil
	}
	return ErrPremiumRequired
}
