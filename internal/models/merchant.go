package models

import (
	"fmt"
	"strconv"
)

// Merchant size categories
const (
	SizeSmall  = "small"
	SizeMedium = "medium"
	SizeLarge  = "large"
)

// Merchant lifecycle statuses
const (
	StatusActive  = "active"
	StatusChurned = "churned"
)

// Merchant change types recorded on each version
const (
	ChangeTypeInitial   = "initial"
	ChangeTypeGrowth    = "growth"
	ChangeTypeAttribute = "attribute_change"
	ChangeTypeChurn     = "churn"
)

// Merchant is one immutable version of a merchant (SCD Type 2). A merchant's
// history is the ordered slice of its versions; the current state is the
// version with the highest Version number. Versions are appended, never
// edited, except for LastTransactionDate which is bookkeeping updated in
// place on the current version.
type Merchant struct {
	MerchantID          string  `json:"merchant_id"`
	Name                string  `json:"merchant_name"`
	Industry            string  `json:"industry"`
	Address             string  `json:"address"`
	City                string  `json:"city"`
	State               string  `json:"state"`
	ZipCode             string  `json:"zip_code"`
	Phone               string  `json:"phone"`
	Email               string  `json:"email"`
	MDRRate             float64 `json:"mdr_rate"`
	SizeCategory        string  `json:"size_category"`
	CreationDate        Date    `json:"creation_date"`
	EffectiveDate       Date    `json:"effective_date"`
	Status              string  `json:"status"`
	LastTransactionDate Date    `json:"last_transaction_date"`
	Version             int     `json:"version"`
	ChangeType          string  `json:"change_type"`
	ChurnDate           Date    `json:"churn_date"`
}

// Clone returns a copy of m suitable for deriving the next version.
func (m *Merchant) Clone() *Merchant {
	c := *m
	return &c
}

// MerchantColumns is the header of the merchants output table.
var MerchantColumns = []string{
	"merchant_id", "merchant_name", "industry", "address", "city", "state",
	"zip_code", "phone", "email", "mdr_rate", "size_category", "creation_date",
	"effective_date", "status", "last_transaction_date", "version",
}

// Row renders the version as one CSV record, in MerchantColumns order.
func (m *Merchant) Row() []string {
	return []string{
		m.MerchantID,
		m.Name,
		m.Industry,
		m.Address,
		m.City,
		m.State,
		m.ZipCode,
		m.Phone,
		m.Email,
		fmt.Sprintf("%.4f", m.MDRRate),
		m.SizeCategory,
		m.CreationDate.String(),
		m.EffectiveDate.String(),
		m.Status,
		m.LastTransactionDate.String(),
		strconv.Itoa(m.Version),
	}
}
