package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const TimestampLayout = "2006-01-02 15:04:05"

// Payment types
const (
	PaymentCardPresent    = "card_present"
	PaymentCardNotPresent = "card_not_present"
)

// Payment statuses
const (
	PaymentApproved  = "approved"
	PaymentDeclined  = "declined"
	PaymentCancelled = "cancelled"
)

// Transaction is one synthesized payment. Monetary fields use decimals so
// that NetProfit is exactly MDRAmount minus CostAmount.
type Transaction struct {
	PaymentID     string
	Timestamp     time.Time
	Lat           float64
	Lng           float64
	Amount        decimal.Decimal
	PaymentType   string
	TerminalID    string // empty unless card_present
	CardType      string
	CardIssuer    string
	CardBrand     string
	CardProfileID string
	CardBIN       string
	Status        string
	MerchantID    string
	CostRate      float64
	CostAmount    decimal.Decimal
	MDRAmount     decimal.Decimal
	NetProfit     decimal.Decimal
}

// TransactionColumns is the header of the transactions output table.
var TransactionColumns = []string{
	"payment_id", "payment_timestamp", "payment_lat", "payment_lng",
	"payment_amount", "payment_type", "terminal_id", "card_type",
	"card_issuer", "card_brand", "card_profile_id", "card_bin",
	"payment_status", "merchant_id", "transactional_cost_rate",
	"transactional_cost_amount", "mdr_amount", "net_profit",
}

// Row renders the transaction as one CSV record, in TransactionColumns order.
func (t *Transaction) Row() []string {
	return []string{
		t.PaymentID,
		t.Timestamp.Format(TimestampLayout),
		fmt.Sprintf("%.6f", t.Lat),
		fmt.Sprintf("%.6f", t.Lng),
		t.Amount.StringFixed(2),
		t.PaymentType,
		t.TerminalID,
		t.CardType,
		t.CardIssuer,
		t.CardBrand,
		t.CardProfileID,
		t.CardBIN,
		t.Status,
		t.MerchantID,
		fmt.Sprintf("%.4f", t.CostRate),
		t.CostAmount.StringFixed(2),
		t.MDRAmount.StringFixed(2),
		t.NetProfit.StringFixed(2),
	}
}
