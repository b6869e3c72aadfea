package models

// CardUsage pairs a card with the number of operations recorded on it
type CardUsage struct {
	Card           *Card `json:"card"`
	OperationCount int   `json:"operation_count"`
}

// MonthlyStats represents operation counts per type for one calendar month
type MonthlyStats struct {
	Month  int                   `json:"month"`
	Year   int                   `json:"year"`
	ByType map[OperationType]int `json:"by_type"`
}

// ClientStats represents spending statistics of one client
type ClientStats struct {
	ClientID          string             `json:"client_id"`
	TotalCards        int                `json:"total_cards"`
	TotalOperations   int                `json:"total_operations"`
	TotalAmount       float64            `json:"total_amount"`
	OperationsPerCard map[string]int     `json:"operations_per_card"` // keyed by card number
	AmountPerCard     map[string]float64 `json:"amount_per_card"`     // keyed by card number
}

// CreditRateReview lists credit cards priced below the central bank key rate
type CreditRateReview struct {
	KeyRate    float64 `json:"key_rate"` // percent
	BelowRate  []*Card `json:"below_rate"`
	TotalCards int     `json:"total_cards"`
}
