package simulator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"paygen/internal/config"
	"paygen/internal/models"
	"paygen/internal/services/cardpool"
)

// Service turns an active merchant set and a date into that day's
// transactions. Rows are emitted one at a time through a sink so callers can
// stream them to storage instead of holding a day in memory.
type Service struct {
	cfg   *config.Config
	state *models.GenerationState
	cards *cardpool.Service
	rng   *rand.Rand
	log   *logrus.Logger
}

// Sink receives transactions as they are generated.
type Sink func(*models.Transaction) error

func NewService(cfg *config.Config, state *models.GenerationState, cards *cardpool.Service, rng *rand.Rand, log *logrus.Logger) *Service {
	return &Service{cfg: cfg, state: state, cards: cards, rng: rng, log: log}
}

// GenerateDay simulates one calendar day for the given merchants and emits
// each transaction to the sink. Merchants do not transact every day; when
// they do, the count comes from their size tier scaled by weekend and
// seasonal multipliers. Returns the number of transactions emitted.
func (s *Service) GenerateDay(date models.Date, merchants []*models.Merchant, emit Sink) (int64, error) {
	s.cards.BeginDay()

	var total int64
	for _, m := range merchants {
		if m.Status != models.StatusActive {
			continue
		}
		if !s.transactsToday(m, date) {
			continue
		}

		n := s.dailyCount(m, date)
		for i := 0; i < n; i++ {
			if err := emit(s.newTransaction(m, date)); err != nil {
				return total, err
			}
			total++
		}
		if n > 0 {
			// Bookkeeping on the current version, not a new one; feeds the
			// inactivity churn weight.
			m.LastTransactionDate = date
		}
	}

	s.state.TotalTransactions += total
	s.log.WithFields(logrus.Fields{
		"date":         date.String(),
		"merchants":    len(merchants),
		"transactions": total,
	}).Debug("generated day")
	return total, nil
}

// transactsToday decides whether the merchant is active on this date, from
// its tier's active days per month and the weekend multiplier.
func (s *Service) transactsToday(m *models.Merchant, date models.Date) bool {
	tier := s.cfg.Sizes[m.SizeCategory]
	rate := float64(tier.ActiveDaysPerMonth) / float64(date.DaysInMonth())
	if date.IsWeekend() {
		rate *= s.cfg.Seasonal.WeekendMultiplier
	}
	return s.rng.Float64() < rate
}

// dailyCount draws the day's transaction count from the tier range and
// applies weekend and seasonal scaling.
func (s *Service) dailyCount(m *models.Merchant, date models.Date) int {
	tier := s.cfg.Sizes[m.SizeCategory]
	base := s.rng.Intn(tier.DailyTxMax-tier.DailyTxMin+1) + tier.DailyTxMin

	mult := 1.0
	if date.IsWeekend() {
		mult *= s.cfg.Seasonal.WeekendMultiplier
	}
	mult *= s.seasonalMultiplier(date.Month())

	return int(float64(base) * mult)
}

func (s *Service) seasonalMultiplier(month time.Month) float64 {
	for _, m := range s.cfg.Seasonal.HolidayMonths {
		if int(month) == m {
			return s.cfg.Seasonal.HolidayMultiplier
		}
	}
	for _, m := range s.cfg.Seasonal.SummerMonths {
		if int(month) == m {
			return s.cfg.Seasonal.SummerMultiplier
		}
	}
	return 1.0
}

func (s *Service) newTransaction(m *models.Merchant, date models.Date) *models.Transaction {
	card := s.cards.DrawCard()

	amount := decimal.NewFromFloat(uniform(s.rng, s.cfg.Sizes[m.SizeCategory].AmountMin, s.cfg.Sizes[m.SizeCategory].AmountMax)).Round(2)
	costRate := s.cfg.CostRate(card.Type, card.Brand)
	costAmount := amount.Mul(decimal.NewFromFloat(costRate)).Round(2)
	mdrAmount := amount.Mul(decimal.NewFromFloat(m.MDRRate)).Round(2)

	paymentType := pick(s.rng, s.cfg.PaymentTypes)
	terminalID := ""
	if paymentType == models.PaymentCardPresent {
		terminalID = fmt.Sprintf("T%04d", s.rng.Intn(9000)+1000)
	}

	return &models.Transaction{
		PaymentID:     s.state.NextPaymentID(),
		Timestamp:     s.sampleTimestamp(date),
		Lat:           uniform(s.rng, s.cfg.Geo.LatMin, s.cfg.Geo.LatMax),
		Lng:           uniform(s.rng, s.cfg.Geo.LngMin, s.cfg.Geo.LngMax),
		Amount:        amount,
		PaymentType:   paymentType,
		TerminalID:    terminalID,
		CardType:      card.Type,
		CardIssuer:    card.Issuer,
		CardBrand:     card.Brand,
		CardProfileID: card.ProfileID,
		CardBIN:       card.BIN,
		Status:        s.drawStatus(),
		MerchantID:    m.MerchantID,
		CostRate:      costRate,
		CostAmount:    costAmount,
		MDRAmount:     mdrAmount,
		NetProfit:     mdrAmount.Sub(costAmount),
	}
}

// sampleTimestamp draws a business-hours timestamp, denser around late
// morning and early evening.
func (s *Service) sampleTimestamp(date models.Date) time.Time {
	var totalWeight float64
	for _, w := range hourWeights {
		totalWeight += w
	}

	r := s.rng.Float64() * totalWeight
	hour := openingHour
	for h, w := range hourWeights {
		r -= w
		if r <= 0 {
			hour = openingHour + h
			break
		}
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, s.rng.Intn(60), s.rng.Intn(60), 0, time.UTC)
}

func (s *Service) drawStatus() string {
	r := s.rng.Float64()
	var cumulative float64
	for _, sw := range s.cfg.PaymentStatuses {
		cumulative += sw.Weight
		if r <= cumulative {
			return sw.Status
		}
	}
	return models.PaymentApproved
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}

func uniform(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}
