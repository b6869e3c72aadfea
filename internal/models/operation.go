package models

import (
	"fmt"
	"strings"
	"time"
)

// OperationType classifies a spending operation
type OperationType string

const (
	OperationPurchase      OperationType = "PURCHASE"
	OperationWithdrawal    OperationType = "WITHDRAWAL"
	OperationOnlinePayment OperationType = "ONLINE_PAYMENT"
)

// OperationTypes lists every known operation type in reporting order
var OperationTypes = []OperationType{OperationPurchase, OperationWithdrawal, OperationOnlinePayment}

// ParseOperationType converts a user supplied type code into an OperationType
func ParseOperationType(s string) (OperationType, error) {
	switch t := OperationType(strings.ToUpper(strings.TrimSpace(s))); t {
	case OperationPurchase, OperationWithdrawal, OperationOnlinePayment:
		return t, nil
	}
	return "", fmt.Errorf("unknown operation type %q", s)
}

// CardOperation is an immutable spending operation recorded against a card
type CardOperation struct {
	ID       string        `json:"id"`
	Date     time.Time     `json:"date"`
	Amount   float64       `json:"amount"`
	Type     OperationType `json:"type"`
	Location string        `json:"location"`
	CardID   string        `json:"card_id"`
}
