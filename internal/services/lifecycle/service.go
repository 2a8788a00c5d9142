package lifecycle

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"paygen/internal/config"
	"paygen/internal/errors"
	"paygen/internal/models"
)

// Service owns the merchant population: initial seeding, monthly growth and
// churn, and attribute-change versioning. Merchants are never edited in
// place; every change appends a new version to the history held in the
// generation state.
type Service struct {
	cfg   *config.Config
	state *models.GenerationState
	rng   *rand.Rand
	log   *logrus.Logger

	// First day of the last month processed by AdvanceMonth. Months must be
	// processed in chronological order.
	lastMonth models.Date
}

func NewService(cfg *config.Config, state *models.GenerationState, rng *rand.Rand, log *logrus.Logger) (*Service, error) {
	if cfg.MonthlyGrowthRate < 0 || cfg.MonthlyGrowthRate > 1 {
		return nil, &errors.ConfigError{Field: "monthly_growth_rate", Reason: "must be in [0,1]"}
	}
	if cfg.MonthlyChurnRate < 0 || cfg.MonthlyChurnRate > 1 {
		return nil, &errors.ConfigError{Field: "monthly_churn_rate", Reason: "must be in [0,1]"}
	}
	if cfg.GrowthCap < 0 || cfg.ChurnCap < 0 {
		return nil, &errors.ConfigError{Field: "growth_cap/churn_cap", Reason: "must not be negative"}
	}

	s := &Service{cfg: cfg, state: state, rng: rng, log: log}
	if !state.LastGeneratedDate.IsZero() {
		s.lastMonth = state.LastGeneratedDate.MonthStart()
	}
	return s, nil
}

// Seed creates the initial merchant base, partitioned by the configured size
// distribution. Tier counts are the rounded shares of the total; rounding
// drift lands on the heaviest tier so the total always matches.
func (s *Service) Seed(count int, startDate models.Date) error {
	if count < 0 {
		return &errors.ConfigError{Field: "initial_merchants", Reason: "must not be negative"}
	}

	sizes := make([]string, 0, len(s.cfg.SizeDistribution))
	var sum float64
	for size, w := range s.cfg.SizeDistribution {
		sizes = append(sizes, size)
		sum += w
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return &errors.ConfigError{Field: "size_distribution", Reason: fmt.Sprintf("weights sum to %v, want 1.0", sum)}
	}
	sort.Strings(sizes)

	heaviest := sizes[0]
	counts := make(map[string]int, len(sizes))
	total := 0
	for _, size := range sizes {
		n := int(math.Round(float64(count) * s.cfg.SizeDistribution[size]))
		counts[size] = n
		total += n
		if s.cfg.SizeDistribution[size] > s.cfg.SizeDistribution[heaviest] {
			heaviest = size
		}
	}
	counts[heaviest] += count - total

	for _, size := range sizes {
		for i := 0; i < counts[size]; i++ {
			m := s.newMerchant(s.state.NextMerchantID(), startDate, size, models.ChangeTypeInitial)
			s.state.AppendVersion(m)
		}
	}

	s.log.WithFields(logrus.Fields{
		"count": count,
		"date":  startDate.String(),
	}).Info("seeded initial merchant base")
	return nil
}

// AdvanceMonth applies growth and churn for the month containing ref. New
// merchants appear at version 1; churned merchants get a terminal version
// with status churned. Both counts are capped. Months must advance
// chronologically; re-running the current month is a no-op.
func (s *Service) AdvanceMonth(ref models.Date) (added, churned int, err error) {
	month := ref.MonthStart()
	if !s.lastMonth.IsZero() {
		if month.Before(s.lastMonth.Time) {
			return 0, 0, &errors.ValidationError{
				Reason: fmt.Sprintf("month %s is before the last processed month %s", month, s.lastMonth),
			}
		}
		if month.Equal(s.lastMonth.Time) {
			return 0, 0, nil
		}
	}

	// Snapshot before growth so this month's newcomers cannot churn in the
	// same month they appear.
	candidates := s.activeCurrent()
	population := len(candidates)

	growth := int(math.Round(float64(population) * s.cfg.MonthlyGrowthRate))
	if growth > s.cfg.GrowthCap {
		growth = s.cfg.GrowthCap
	}
	churnCount := int(math.Round(float64(population) * s.cfg.MonthlyChurnRate))
	if churnCount > s.cfg.ChurnCap {
		churnCount = s.cfg.ChurnCap
	}
	if churnCount > population {
		churnCount = population
	}

	for i := 0; i < growth; i++ {
		m := s.newMerchant(s.state.NextMerchantID(), ref, s.drawSize(), models.ChangeTypeGrowth)
		s.state.AppendVersion(m)
	}

	for _, m := range s.sampleForChurn(candidates, churnCount, ref) {
		next := m.Clone()
		next.Version = m.Version + 1
		next.Status = models.StatusChurned
		next.ChangeType = models.ChangeTypeChurn
		next.ChurnDate = ref
		next.EffectiveDate = s.nextEffectiveDate(m, ref)
		s.state.AppendVersion(next)
	}

	s.lastMonth = month
	s.log.WithFields(logrus.Fields{
		"month":   month.Format("2006-01"),
		"added":   growth,
		"churned": churnCount,
	}).Info("advanced merchant population")
	return growth, churnCount, nil
}

// MutateAttributes rolls each active merchant's per-attribute change
// probabilities for the month containing ref and appends a new version for
// each merchant with at least one change. Returns the number of new
// versions.
func (s *Service) MutateAttributes(ref models.Date) int {
	attrs := make([]string, 0, len(s.cfg.AttributeChangeProbs))
	for a := range s.cfg.AttributeChangeProbs {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)

	mutated := 0
	for _, m := range s.activeCurrent() {
		next := m.Clone()
		changed := false
		for _, attr := range attrs {
			if s.rng.Float64() >= s.cfg.AttributeChangeProbs[attr] {
				continue
			}
			changed = true
			switch attr {
			case "mdr_rate":
				tier := s.cfg.Sizes[m.SizeCategory]
				next.MDRRate = roundRate(uniform(s.rng, tier.MDRRateMin, tier.MDRRateMax))
			case "phone":
				next.Phone = s.randomPhone()
			case "email":
				next.Email = "contact@" + strings.ToLower(m.MerchantID) + ".com"
			case "address":
				next.Address = s.randomAddress()
			case "city":
				city := s.cfg.Geo.Cities[s.rng.Intn(len(s.cfg.Geo.Cities))]
				next.City = city.Name
				next.State = city.State
			case "zip_code":
				next.ZipCode = fmt.Sprintf("%05d", s.rng.Intn(90000)+10000)
			}
		}
		if !changed {
			continue
		}
		next.Version = m.Version + 1
		next.ChangeType = models.ChangeTypeAttribute
		next.EffectiveDate = s.nextEffectiveDate(m, ref)
		s.state.AppendVersion(next)
		mutated++
	}
	return mutated
}

// ActiveOn returns the current version of every merchant active and
// effective on the given date.
func (s *Service) ActiveOn(date models.Date) []*models.Merchant {
	return s.state.ActiveOn(date)
}

func (s *Service) activeCurrent() []*models.Merchant {
	all := s.state.CurrentAll()
	active := all[:0:0]
	for _, m := range all {
		if m.Status == models.StatusActive {
			active = append(active, m)
		}
	}
	return active
}

// sampleForChurn picks n merchants without replacement, weighted by the
// tier's churn multiplier and doubled for merchants inactive beyond the
// threshold.
func (s *Service) sampleForChurn(candidates []*models.Merchant, n int, ref models.Date) []*models.Merchant {
	if n <= 0 || len(candidates) == 0 {
		return nil
	}

	pool := make([]*models.Merchant, len(candidates))
	copy(pool, candidates)
	weights := make([]float64, len(pool))
	for i, m := range pool {
		w := s.cfg.Sizes[m.SizeCategory].ChurnMultiplier
		if m.LastTransactionDate.IsZero() || ref.DaysSince(m.LastTransactionDate) > inactivityChurnDays {
			w *= 2
		}
		weights[i] = w
	}

	selected := make([]*models.Merchant, 0, n)
	for len(selected) < n && len(pool) > 0 {
		var total float64
		for _, w := range weights {
			total += w
		}
		r := s.rng.Float64() * total
		idx := len(pool) - 1
		for i, w := range weights {
			r -= w
			if r <= 0 {
				idx = i
				break
			}
		}
		selected = append(selected, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
		weights = append(weights[:idx], weights[idx+1:]...)
	}
	return selected
}

func (s *Service) newMerchant(id string, d models.Date, size, changeType string) *models.Merchant {
	tier := s.cfg.Sizes[size]
	city := s.cfg.Geo.Cities[s.rng.Intn(len(s.cfg.Geo.Cities))]

	return &models.Merchant{
		MerchantID:    id,
		Name:          fmt.Sprintf("%s %s %d", pick(s.rng, namePrefixes), pick(s.rng, nameSuffixes), s.rng.Intn(999)+1),
		Industry:      pick(s.rng, tier.Industries),
		Address:       s.randomAddress(),
		City:          city.Name,
		State:         city.State,
		ZipCode:       fmt.Sprintf("%05d", s.rng.Intn(90000)+10000),
		Phone:         s.randomPhone(),
		Email:         "contact@" + strings.ToLower(id) + ".com",
		MDRRate:       roundRate(uniform(s.rng, tier.MDRRateMin, tier.MDRRateMax)),
		SizeCategory:  size,
		CreationDate:  d,
		EffectiveDate: d,
		Status:        models.StatusActive,
		Version:       1,
		ChangeType:    changeType,
	}
}

// drawSize picks a size category from the configured distribution.
func (s *Service) drawSize() string {
	sizes := make([]string, 0, len(s.cfg.SizeDistribution))
	for size := range s.cfg.SizeDistribution {
		sizes = append(sizes, size)
	}
	sort.Strings(sizes)

	r := s.rng.Float64()
	var cumulative float64
	for _, size := range sizes {
		cumulative += s.cfg.SizeDistribution[size]
		if r <= cumulative {
			return size
		}
	}
	return models.SizeSmall
}

// nextEffectiveDate avoids two versions of one merchant sharing an effective
// date, which would make the version ordering ambiguous.
func (s *Service) nextEffectiveDate(current *models.Merchant, d models.Date) models.Date {
	if d.Equal(current.EffectiveDate.Time) {
		return d.AddDays(1)
	}
	return d
}

func (s *Service) randomPhone() string {
	return fmt.Sprintf("%03d-%03d-%04d", s.rng.Intn(800)+200, s.rng.Intn(800)+200, s.rng.Intn(9000)+1000)
}

func (s *Service) randomAddress() string {
	return fmt.Sprintf("%d %s St", s.rng.Intn(9900)+100, pick(s.rng, streetNames))
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}

func uniform(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}

func roundRate(r float64) float64 {
	return math.Round(r*10000) / 10000
}
