package models

import (
	"fmt"
	"strings"
	"time"
)

// CardKind tags which limit payload a card carries
type CardKind string

const (
	CardKindDebit   CardKind = "DEBIT"
	CardKindCredit  CardKind = "CREDIT"
	CardKindPrepaid CardKind = "PREPAID"
)

// ParseCardKind converts a user supplied kind code into a CardKind
func ParseCardKind(s string) (CardKind, error) {
	switch k := CardKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case CardKindDebit, CardKindCredit, CardKindPrepaid:
		return k, nil
	}
	return "", fmt.Errorf("unknown card kind %q", s)
}

// CardStatus is the lifecycle state of a card
type CardStatus string

const (
	CardStatusActive    CardStatus = "ACTIVE"
	CardStatusSuspended CardStatus = "SUSPENDED"
	CardStatusBlocked   CardStatus = "BLOCKED"
)

// ParseCardStatus converts a user supplied status code into a CardStatus
func ParseCardStatus(s string) (CardStatus, error) {
	switch st := CardStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case CardStatusActive, CardStatusSuspended, CardStatusBlocked:
		return st, nil
	}
	return "", fmt.Errorf("unknown card status %q", s)
}

// DebitLimits is the limit payload of a DEBIT card
type DebitLimits struct {
	DailyLimit float64 `json:"daily_limit"`
}

// CreditLimits is the limit payload of a CREDIT card
type CreditLimits struct {
	MonthlyLimit float64 `json:"monthly_limit"`
	InterestRate float64 `json:"interest_rate"` // fraction, 0.18 = 18%
}

// PrepaidLimits is the limit payload of a PREPAID card
type PrepaidLimits struct {
	Balance float64 `json:"balance"`
}

// Card represents a bank card. Exactly one of Debit, Credit or Prepaid
// is set and it always matches Kind.
type Card struct {
	ID             string     `json:"id"`
	Number         string     `json:"number"`
	ExpirationDate time.Time  `json:"expiration_date"`
	ClientID       string     `json:"client_id"`
	Kind           CardKind   `json:"kind"`
	Status         CardStatus `json:"status"`

	Debit   *DebitLimits   `json:"debit,omitempty"`
	Credit  *CreditLimits  `json:"credit,omitempty"`
	Prepaid *PrepaidLimits `json:"prepaid,omitempty"`
}

// NewDebitCard builds a DEBIT card value without identity
func NewDebitCard(clientID string, dailyLimit float64) *Card {
	return &Card{ClientID: clientID, Kind: CardKindDebit, Debit: &DebitLimits{DailyLimit: dailyLimit}}
}

// NewCreditCard builds a CREDIT card value without identity
func NewCreditCard(clientID string, monthlyLimit, interestRate float64) *Card {
	return &Card{
		ClientID: clientID,
		Kind:     CardKindCredit,
		Credit:   &CreditLimits{MonthlyLimit: monthlyLimit, InterestRate: interestRate},
	}
}

// NewPrepaidCard builds a PREPAID card value without identity
func NewPrepaidCard(clientID string, balance float64) *Card {
	return &Card{ClientID: clientID, Kind: CardKindPrepaid, Prepaid: &PrepaidLimits{Balance: balance}}
}

// Limit returns the single ceiling that gates operations on the card
func (c *Card) Limit() (float64, error) {
	switch c.Kind {
	case CardKindDebit:
		if c.Debit != nil {
			return c.Debit.DailyLimit, nil
		}
	case CardKindCredit:
		if c.Credit != nil {
			return c.Credit.MonthlyLimit, nil
		}
	case CardKindPrepaid:
		if c.Prepaid != nil {
			return c.Prepaid.Balance, nil
		}
	default:
		return 0, fmt.Errorf("unknown card kind %q", c.Kind)
	}
	return 0, fmt.Errorf("card %s has no %s limits", c.ID, c.Kind)
}

// IsOperationAllowed reports whether amount fits under the kind's limit.
// Prior spending in the same period is not taken into account.
func (c *Card) IsOperationAllowed(amount float64) bool {
	limit, err := c.Limit()
	if err != nil {
		return false
	}
	return amount <= limit
}

// Validate checks that the limit payload matches Kind
func (c *Card) Validate() error {
	set := 0
	for _, present := range []bool{c.Debit != nil, c.Credit != nil, c.Prepaid != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("card must carry exactly one limit payload, got %d", set)
	}
	if _, err := c.Limit(); err != nil {
		return err
	}
	switch c.Kind {
	case CardKindDebit:
		if c.Debit.DailyLimit < 0 {
			return fmt.Errorf("daily limit must not be negative")
		}
	case CardKindCredit:
		if c.Credit.MonthlyLimit < 0 {
			return fmt.Errorf("monthly limit must not be negative")
		}
		if c.Credit.InterestRate < 0 {
			return fmt.Errorf("interest rate must not be negative")
		}
	}
	return nil
}

// CloneLimits returns an unidentified card with the same client, kind and limits
func (c *Card) CloneLimits() *Card {
	clone := &Card{ClientID: c.ClientID, Kind: c.Kind}
	if c.Debit != nil {
		d := *c.Debit
		clone.Debit = &d
	}
	if c.Credit != nil {
		cr := *c.Credit
		clone.Credit = &cr
	}
	if c.Prepaid != nil {
		p := *c.Prepaid
		clone.Prepaid = &p
	}
	return clone
}

func (c *Card) String() string {
	return fmt.Sprintf("card %s (%s, %s, client %s, expires %s)",
		c.ID, c.Kind, c.Status, c.ClientID, c.ExpirationDate.Format("2006-01-02"))
}
