package cardpool

import (
	"fmt"
	"math/rand"
	"sort"

	"paygen/internal/config"
	"paygen/internal/models"
)

// Service hands out card identities for transactions and decides which of
// them are retained for reuse. The stored pool only ever grows, and its
// growth is bounded by the store probability rather than transaction volume,
// so repeat-card patterns appear without the pool tracking every card seen.
type Service struct {
	cfg   *config.Config
	state *models.GenerationState
	rng   *rand.Rand

	poolKeys  []string
	reuseRate float64
}

func NewService(cfg *config.Config, state *models.GenerationState, rng *rand.Rand) *Service {
	keys := make([]string, 0, len(state.CardProfiles))
	for id := range state.CardProfiles {
		keys = append(keys, id)
	}
	sort.Strings(keys)

	return &Service{
		cfg:       cfg,
		state:     state,
		rng:       rng,
		poolKeys:  keys,
		reuseRate: cfg.ReuseRateMin,
	}
}

// BeginDay resamples the daily reuse rate. Some days see more returning
// cards than others.
func (s *Service) BeginDay() {
	spread := s.cfg.ReuseRateMax - s.cfg.ReuseRateMin
	s.reuseRate = s.cfg.ReuseRateMin + s.rng.Float64()*spread
}

// DrawCard returns the card identity for one transaction. With the store
// probability a fresh identity is minted and retained; otherwise, at the
// daily reuse rate, a previously stored profile is replayed; otherwise the
// transaction carries a fresh identity that is never seen again.
func (s *Service) DrawCard() models.CardProfile {
	if s.rng.Float64() < s.cfg.StoreProbability {
		p := s.newProfile()
		s.state.AddCardProfile(p)
		s.poolKeys = append(s.poolKeys, p.ProfileID)
		return p
	}
	if len(s.poolKeys) > 0 && s.rng.Float64() < s.reuseRate {
		return s.state.CardProfiles[s.poolKeys[s.rng.Intn(len(s.poolKeys))]]
	}
	return s.newProfile()
}

// PoolSize returns the number of stored profiles.
func (s *Service) PoolSize() int {
	return len(s.state.CardProfiles)
}

func (s *Service) newProfile() models.CardProfile {
	id := s.randomProfileID()
	for {
		if _, taken := s.state.CardProfiles[id]; !taken {
			break
		}
		id = s.randomProfileID()
	}
	return models.CardProfile{
		ProfileID: id,
		BIN:       fmt.Sprintf("%06d", s.rng.Intn(900000)+100000),
		Type:      pick(s.rng, []string{models.CardTypeCredit, models.CardTypeDebit}),
		Issuer:    pick(s.rng, s.cfg.CardIssuers),
		Brand:     pick(s.rng, s.cfg.CardBrands),
	}
}

func (s *Service) randomProfileID() string {
	return fmt.Sprintf("CARD%06d", s.rng.Intn(900000)+100000)
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}
