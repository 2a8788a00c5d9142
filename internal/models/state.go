package models

import (
	"fmt"
	"sort"
)

// GenerationState is the durable state of one generation lineage. It is the
// single source of truth for resuming: loaded once at orchestrator start and
// rewritten only after a chunk has been fully flushed.
//
// currentCache holds the latest version per merchant and is rebuilt after
// load; it is derived data and never persisted.
type GenerationState struct {
	LineageID         string                 `json:"lineage_id"`
	LastGeneratedDate Date                   `json:"last_generated_date"`
	Merchants         map[string][]*Merchant `json:"merchants"`
	MerchantCounter   int64                  `json:"merchant_counter"`
	PaymentCounter    int64                  `json:"payment_counter"`
	CardProfiles      map[string]CardProfile `json:"card_profiles"`
	TotalTransactions int64                  `json:"total_transactions"`

	currentCache map[string]*Merchant
}

func NewGenerationState(lineageID string) *GenerationState {
	return &GenerationState{
		LineageID:    lineageID,
		Merchants:    make(map[string][]*Merchant),
		CardProfiles: make(map[string]CardProfile),
		currentCache: make(map[string]*Merchant),
	}
}

// RebuildCache recomputes the latest-version-per-merchant view. Called after
// loading persisted state.
func (s *GenerationState) RebuildCache() {
	s.currentCache = make(map[string]*Merchant, len(s.Merchants))
	for id, history := range s.Merchants {
		if len(history) == 0 {
			continue
		}
		current := history[0]
		for _, v := range history[1:] {
			if v.Version > current.Version {
				current = v
			}
		}
		s.currentCache[id] = current
	}
}

// AppendVersion adds a new merchant version to the history and updates the
// current view. The caller is responsible for version numbering.
func (s *GenerationState) AppendVersion(m *Merchant) {
	s.Merchants[m.MerchantID] = append(s.Merchants[m.MerchantID], m)
	if s.currentCache == nil {
		s.currentCache = make(map[string]*Merchant)
	}
	s.currentCache[m.MerchantID] = m
}

// Current returns the latest version of the merchant, or nil if unknown.
func (s *GenerationState) Current(merchantID string) *Merchant {
	return s.currentCache[merchantID]
}

// CurrentAll returns the latest version of every merchant, ordered by
// merchant ID so iteration order is stable across runs.
func (s *GenerationState) CurrentAll() []*Merchant {
	out := make([]*Merchant, 0, len(s.currentCache))
	for _, m := range s.currentCache {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MerchantID < out[j].MerchantID })
	return out
}

// ActiveOn returns the latest version of every merchant that is active and
// effective on the given date, ordered by merchant ID.
func (s *GenerationState) ActiveOn(date Date) []*Merchant {
	out := make([]*Merchant, 0, len(s.currentCache))
	for _, m := range s.currentCache {
		if m.Status == StatusActive && !m.EffectiveDate.After(date.Time) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MerchantID < out[j].MerchantID })
	return out
}

// ActiveCount returns the number of merchants whose current version is active.
func (s *GenerationState) ActiveCount() int {
	n := 0
	for _, m := range s.currentCache {
		if m.Status == StatusActive {
			n++
		}
	}
	return n
}

// NextMerchantID allocates the next merchant identifier (M000001, ...).
func (s *GenerationState) NextMerchantID() string {
	s.MerchantCounter++
	return fmt.Sprintf("M%06d", s.MerchantCounter)
}

// NextPaymentID allocates the next payment identifier (TXN0000000001, ...).
// IDs are globally unique across initial and resumed incremental runs.
func (s *GenerationState) NextPaymentID() string {
	s.PaymentCounter++
	return fmt.Sprintf("TXN%010d", s.PaymentCounter)
}

// AddCardProfile registers a card profile for reuse. Profiles are never
// removed.
func (s *GenerationState) AddCardProfile(p CardProfile) {
	s.CardProfiles[p.ProfileID] = p
}

// CheckConsistency verifies the structural invariants of a loaded state
// document: every merchant history has contiguous versions starting at 1
// and counters are non-negative.
func (s *GenerationState) CheckConsistency() error {
	if s.MerchantCounter < 0 || s.PaymentCounter < 0 || s.TotalTransactions < 0 {
		return fmt.Errorf("negative counter in state document")
	}
	for id, history := range s.Merchants {
		if len(history) == 0 {
			return fmt.Errorf("merchant %s has an empty version history", id)
		}
		versions := make([]int, len(history))
		for i, v := range history {
			if v.MerchantID != id {
				return fmt.Errorf("merchant %s history contains version for %s", id, v.MerchantID)
			}
			versions[i] = v.Version
		}
		sort.Ints(versions)
		for i, v := range versions {
			if v != i+1 {
				return fmt.Errorf("merchant %s has a version gap: expected %d, found %d", id, i+1, v)
			}
		}
	}
	return nil
}
