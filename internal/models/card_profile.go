package models

// Card types
const (
	CardTypeCredit = "credit"
	CardTypeDebit  = "debit"
)

// CardProfile is a reusable card identity. Once stored in the pool its
// fields never change; transactions referencing the same profile always
// carry the same BIN, type, issuer and brand.
type CardProfile struct {
	ProfileID string `json:"card_profile_id"`
	BIN       string `json:"card_bin"`
	Type      string `json:"card_type"`
	Issuer    string `json:"card_issuer"`
	Brand     string `json:"card_brand"`
}
