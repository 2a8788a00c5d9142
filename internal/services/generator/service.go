package generator

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"paygen/internal/config"
	"paygen/internal/errors"
	"paygen/internal/models"
	"paygen/internal/repositories"
	"paygen/internal/services/cardpool"
	"paygen/internal/services/lifecycle"
	"paygen/internal/services/simulator"
)

// Service drives generation runs. It owns the only durable copy of the
// simulation state and enforces the recovery contract: a chunk's files are
// flushed before the state document is rewritten, so a failed chunk is
// re-simulated from the last good state and overwrites its own output.
type Service struct {
	cfg   *config.Config
	log   *logrus.Logger
	store *repositories.StateStore
	out   *repositories.ChunkWriter
}

func NewService(cfg *config.Config, log *logrus.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	out, err := repositories.NewChunkWriter(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	return &Service{
		cfg:   cfg,
		log:   log,
		store: repositories.NewStateStore(cfg.OutputDir, cfg.StateFile),
		out:   out,
	}, nil
}

// RunInitial seeds a new lineage and generates the requested span.
func (s *Service) RunInitial(req InitialRequest) (*RunSummary, error) {
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return nil, &errors.ValidationError{Reason: "initial run requires a start date and an end date"}
	}
	if req.EndDate.Before(req.StartDate.Time) {
		return nil, &errors.ValidationError{Reason: fmt.Sprintf("end date %s is before start date %s", req.EndDate, req.StartDate)}
	}
	if s.store.Exists() {
		return nil, &errors.ValidationError{Reason: "state document already exists at " + s.store.Path() + "; use an incremental run"}
	}

	state := models.NewGenerationState(uuid.NewString())
	rng := s.newRand()
	lc, err := lifecycle.NewService(s.cfg, state, rng, s.log)
	if err != nil {
		return nil, err
	}

	count := req.MerchantCount
	if count <= 0 {
		count = s.cfg.InitialMerchants
	}
	if err := lc.Seed(count, req.StartDate); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"lineage": state.LineageID,
		"start":   req.StartDate.String(),
		"end":     req.EndDate.String(),
	}).Info("starting initial generation")

	return s.runSpan(state, lc, rng, req.StartDate, req.EndDate)
}

// RunIncremental loads the persisted state and continues forward-only.
func (s *Service) RunIncremental(req IncrementalRequest) (*RunSummary, error) {
	if !s.store.Exists() {
		return nil, &errors.StateError{Reason: "no state document at " + s.store.Path() + "; run an initial generation first"}
	}
	state, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	if state.LastGeneratedDate.IsZero() {
		return nil, &errors.StateError{Reason: "state document has no last generated date"}
	}

	start := state.LastGeneratedDate.AddDays(1)
	end := req.TargetDate
	if end.IsZero() {
		end = start
	}
	if !end.After(state.LastGeneratedDate.Time) {
		return nil, &errors.ValidationError{
			Reason: fmt.Sprintf("target date %s is not after the last generated date %s", end, state.LastGeneratedDate),
		}
	}

	rng := s.newRand()
	lc, err := lifecycle.NewService(s.cfg, state, rng, s.log)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"lineage": state.LineageID,
		"start":   start.String(),
		"end":     end.String(),
	}).Info("starting incremental generation")

	return s.runSpan(state, lc, rng, start, end)
}

// runSpan simulates [start, end] in monthly chunks. Month-boundary lifecycle
// work runs before that month's days; each chunk is flushed before the state
// document is rewritten with the chunk's end date.
func (s *Service) runSpan(state *models.GenerationState, lc *lifecycle.Service, rng *rand.Rand, start, end models.Date) (*RunSummary, error) {
	cards := cardpool.NewService(s.cfg, state, rng)
	sim := simulator.NewService(s.cfg, state, cards, rng, s.log)

	summary := &RunSummary{
		LineageID: state.LineageID,
		StartDate: start,
		EndDate:   end,
	}

	for chunkStart := start; !chunkStart.After(end.Time); {
		chunkEnd := chunkStart.MonthEnd()
		if chunkEnd.After(end.Time) {
			chunkEnd = end
		}

		if chunkStart.Day() == 1 {
			if _, _, err := lc.AdvanceMonth(chunkStart); err != nil {
				return nil, err
			}
			if n := lc.MutateAttributes(chunkStart); n > 0 {
				s.log.WithField("versions", n).Debug("applied merchant attribute changes")
			}
		}

		txPath, rows, err := s.generateChunk(lc, sim, chunkStart, chunkEnd)
		if err != nil {
			return nil, fmt.Errorf("chunk %s..%s: %w", chunkStart, chunkEnd, err)
		}

		merchantsPath, err := s.out.WriteMerchants(chunkStart, chunkEnd, versionsInRange(state, chunkStart, chunkEnd))
		if err != nil {
			return nil, fmt.Errorf("chunk %s..%s: %w", chunkStart, chunkEnd, err)
		}

		// The chunk is durable; only now does the state advance.
		state.LastGeneratedDate = chunkEnd
		if err := s.store.Save(state); err != nil {
			return nil, fmt.Errorf("chunk %s..%s: %w", chunkStart, chunkEnd, err)
		}

		summary.Transactions += rows
		summary.Chunks = append(summary.Chunks, txPath, merchantsPath)

		s.log.WithFields(logrus.Fields{
			"chunk":        fmt.Sprintf("%s..%s", chunkStart, chunkEnd),
			"transactions": rows,
			"merchants":    state.ActiveCount(),
		}).Info("chunk committed")

		chunkStart = chunkEnd.AddDays(1)
	}

	summary.ActiveMerchants = state.ActiveCount()
	summary.CardPoolSize = len(state.CardProfiles)
	return summary, nil
}

// generateChunk streams one chunk's days into its transactions file.
func (s *Service) generateChunk(lc *lifecycle.Service, sim *simulator.Service, chunkStart, chunkEnd models.Date) (string, int64, error) {
	writer, err := s.out.OpenTransactions(chunkStart, chunkEnd)
	if err != nil {
		return "", 0, err
	}

	for day := chunkStart; !day.After(chunkEnd.Time); day = day.AddDays(1) {
		active := lc.ActiveOn(day)
		if _, err := sim.GenerateDay(day, active, writer.Write); err != nil {
			writer.Close()
			return "", 0, err
		}
	}

	if err := writer.Close(); err != nil {
		return "", 0, err
	}
	return writer.Path(), writer.Rows(), nil
}

// versionsInRange collects every merchant version effective inside the
// chunk's date range, ordered by merchant ID then version.
func versionsInRange(state *models.GenerationState, start, end models.Date) []*models.Merchant {
	ids := make([]string, 0, len(state.Merchants))
	for id := range state.Merchants {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []*models.Merchant
	for _, id := range ids {
		history := state.Merchants[id]
		versions := make([]*models.Merchant, len(history))
		copy(versions, history)
		sort.Slice(versions, func(i, j int) bool { return versions[i].Version < versions[j].Version })
		for _, v := range versions {
			if !v.EffectiveDate.Before(start.Time) && !v.EffectiveDate.After(end.Time) {
				out = append(out, v)
			}
		}
	}
	return out
}

func (s *Service) newRand() *rand.Rand {
	seed := s.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
