package generator

import "paygen/internal/models"

// InitialRequest starts a brand-new generation lineage.
type InitialRequest struct {
	StartDate models.Date
	EndDate   models.Date
	// MerchantCount overrides the configured initial merchant count when
	// positive.
	MerchantCount int
}

// IncrementalRequest continues an existing lineage. A zero TargetDate means
// one day past the last generated date.
type IncrementalRequest struct {
	TargetDate models.Date
}

// RunSummary describes one completed generation run.
type RunSummary struct {
	LineageID       string
	StartDate       models.Date
	EndDate         models.Date
	Transactions    int64
	ActiveMerchants int
	CardPoolSize    int
	Chunks          []string
}
