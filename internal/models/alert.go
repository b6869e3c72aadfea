package models

import (
	"fmt"
	"strings"
	"time"
)

// AlertLevel is the severity of a fraud alert
type AlertLevel string

const (
	AlertLevelInfo     AlertLevel = "INFO"
	AlertLevelWarning  AlertLevel = "WARNING"
	AlertLevelCritical AlertLevel = "CRITICAL"
)

// ParseAlertLevel converts a user supplied level code into an AlertLevel
func ParseAlertLevel(s string) (AlertLevel, error) {
	switch l := AlertLevel(strings.ToUpper(strings.TrimSpace(s))); l {
	case AlertLevelInfo, AlertLevelWarning, AlertLevelCritical:
		return l, nil
	}
	return "", fmt.Errorf("unknown alert level %q", s)
}

// FraudAlert is an append-only record produced by the fraud rules or by
// manual escalation
type FraudAlert struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Level       AlertLevel `json:"level"`
	CardID      string     `json:"card_id"`
	CreatedAt   time.Time  `json:"created_at"`
}
