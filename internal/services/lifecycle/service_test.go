package lifecycle

import (
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygen/internal/config"
	apperrors "paygen/internal/errors"
	"paygen/internal/models"
)

func newTestService(t *testing.T, cfg *config.Config, state *models.GenerationState, seed int64) *Service {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	svc, err := NewService(cfg, state, rand.New(rand.NewSource(seed)), log)
	require.NoError(t, err)
	return svc
}

func TestNewService_RejectsBadRates(t *testing.T) {
	cfg := config.Default()
	cfg.MonthlyGrowthRate = 1.2
	log := logrus.New()

	_, err := NewService(cfg, models.NewGenerationState("x"), rand.New(rand.NewSource(1)), log)
	var cfgErr *apperrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestSeed_PartitionsBySizeDistribution(t *testing.T) {
	cfg := config.Default()
	state := models.NewGenerationState("x")
	svc := newTestService(t, cfg, state, 1)

	require.NoError(t, svc.Seed(500, models.NewDate(2024, 1, 1)))

	counts := map[string]int{}
	for _, m := range state.CurrentAll() {
		counts[m.SizeCategory]++
		assert.Equal(t, models.StatusActive, m.Status)
		assert.Equal(t, 1, m.Version)
		assert.Equal(t, models.ChangeTypeInitial, m.ChangeType)
	}
	assert.Equal(t, 350, counts[models.SizeSmall])
	assert.Equal(t, 125, counts[models.SizeMedium])
	assert.Equal(t, 25, counts[models.SizeLarge])
	assert.Equal(t, 500, state.ActiveCount())
}

func TestSeed_RejectsBadDistribution(t *testing.T) {
	cfg := config.Default()
	cfg.SizeDistribution["small"] = 0.5 // now sums to 0.8
	state := models.NewGenerationState("x")
	svc := newTestService(t, cfg, state, 1)

	err := svc.Seed(100, models.NewDate(2024, 1, 1))
	var cfgErr *apperrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, 0, state.ActiveCount())
}

func TestAdvanceMonth_GrowthAndChurnCapped(t *testing.T) {
	cfg := config.Default()
	cfg.MonthlyGrowthRate = 1.0 // uncapped this would double the population
	cfg.MonthlyChurnRate = 1.0
	cfg.GrowthCap = 10
	cfg.ChurnCap = 5
	state := models.NewGenerationState("x")
	svc := newTestService(t, cfg, state, 1)
	require.NoError(t, svc.Seed(200, models.NewDate(2024, 1, 1)))

	added, churned, err := svc.AdvanceMonth(models.NewDate(2024, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, 10, added)
	assert.Equal(t, 5, churned)
	assert.Equal(t, 205, state.ActiveCount())
}

func TestAdvanceMonth_ChurnAppendsTerminalVersion(t *testing.T) {
	cfg := config.Default()
	cfg.MonthlyGrowthRate = 0
	cfg.MonthlyChurnRate = 0.10
	state := models.NewGenerationState("x")
	svc := newTestService(t, cfg, state, 7)
	require.NoError(t, svc.Seed(100, models.NewDate(2024, 1, 1)))

	_, churned, err := svc.AdvanceMonth(models.NewDate(2024, 2, 1))
	require.NoError(t, err)
	require.Equal(t, 10, churned)

	terminal := 0
	for _, history := range state.Merchants {
		last := history[len(history)-1]
		if last.Status != models.StatusChurned {
			continue
		}
		terminal++
		assert.Equal(t, 2, last.Version)
		assert.Equal(t, models.ChangeTypeChurn, last.ChangeType)
		assert.Equal(t, "2024-02-01", last.ChurnDate.String())
		// The active v1 record is untouched.
		assert.Equal(t, models.StatusActive, history[0].Status)
	}
	assert.Equal(t, 10, terminal)
	assert.Equal(t, 90, state.ActiveCount())
}

func TestAdvanceMonth_OutOfOrderRejected(t *testing.T) {
	cfg := config.Default()
	state := models.NewGenerationState("x")
	svc := newTestService(t, cfg, state, 1)
	require.NoError(t, svc.Seed(50, models.NewDate(2024, 3, 1)))

	_, _, err := svc.AdvanceMonth(models.NewDate(2024, 3, 1))
	require.NoError(t, err)

	_, _, err = svc.AdvanceMonth(models.NewDate(2024, 2, 1))
	var valErr *apperrors.ValidationError
	require.ErrorAs(t, err, &valErr)

	// Re-running the already-processed month is a quiet no-op.
	added, churned, err := svc.AdvanceMonth(models.NewDate(2024, 3, 15))
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Zero(t, churned)
}

func TestAdvanceMonth_ResumesFromPersistedDate(t *testing.T) {
	cfg := config.Default()
	state := models.NewGenerationState("x")
	state.LastGeneratedDate = models.NewDate(2024, 3, 31)
	svc := newTestService(t, cfg, state, 1)

	_, _, err := svc.AdvanceMonth(models.NewDate(2024, 2, 1))
	var valErr *apperrors.ValidationError
	require.ErrorAs(t, err, &valErr)

	_, _, err = svc.AdvanceMonth(models.NewDate(2024, 4, 1))
	require.NoError(t, err)
}

func TestMutateAttributes_PreservesUnrelatedFields(t *testing.T) {
	cfg := config.Default()
	// Force address changes only, every month.
	cfg.AttributeChangeProbs = map[string]float64{"address": 1.0}
	state := models.NewGenerationState("x")
	svc := newTestService(t, cfg, state, 1)
	require.NoError(t, svc.Seed(20, models.NewDate(2024, 1, 1)))

	before := make(map[string]models.Merchant, 20)
	for _, m := range state.CurrentAll() {
		before[m.MerchantID] = *m
	}

	mutated := svc.MutateAttributes(models.NewDate(2024, 2, 1))
	assert.Equal(t, 20, mutated)

	for _, m := range state.CurrentAll() {
		prev := before[m.MerchantID]
		assert.Equal(t, 2, m.Version)
		assert.Equal(t, models.ChangeTypeAttribute, m.ChangeType)
		assert.Equal(t, "2024-02-01", m.EffectiveDate.String())
		// Identity and business fields carry over unchanged.
		assert.Equal(t, prev.Name, m.Name)
		assert.Equal(t, prev.Industry, m.Industry)
		assert.Equal(t, prev.MDRRate, m.MDRRate)
		assert.Equal(t, prev.SizeCategory, m.SizeCategory)
		assert.Equal(t, prev.CreationDate, m.CreationDate)
		assert.Equal(t, prev.Status, m.Status)
	}
	require.NoError(t, state.CheckConsistency())
}

func TestMutateAttributes_BumpsSameDayEffectiveDate(t *testing.T) {
	cfg := config.Default()
	cfg.AttributeChangeProbs = map[string]float64{"phone": 1.0}
	state := models.NewGenerationState("x")
	svc := newTestService(t, cfg, state, 1)
	require.NoError(t, svc.Seed(5, models.NewDate(2024, 1, 1)))

	svc.MutateAttributes(models.NewDate(2024, 1, 1))
	for _, m := range state.CurrentAll() {
		assert.Equal(t, "2024-01-02", m.EffectiveDate.String())
	}
}

func TestActiveOn_ExcludesChurnedAndFuture(t *testing.T) {
	cfg := config.Default()
	cfg.MonthlyGrowthRate = 0.10
	cfg.MonthlyChurnRate = 0.10
	state := models.NewGenerationState("x")
	svc := newTestService(t, cfg, state, 3)
	require.NoError(t, svc.Seed(100, models.NewDate(2024, 1, 1)))

	added, churned, err := svc.AdvanceMonth(models.NewDate(2024, 2, 1))
	require.NoError(t, err)
	require.Equal(t, 10, added)
	require.Equal(t, 10, churned)

	// February's newcomers are not yet effective in January, and churned
	// merchants are gone once their terminal version exists.
	active := svc.ActiveOn(models.NewDate(2024, 1, 15))
	assert.Len(t, active, 90)

	active = svc.ActiveOn(models.NewDate(2024, 2, 15))
	assert.Len(t, active, 100)
	for _, m := range active {
		assert.Equal(t, models.StatusActive, m.Status)
	}
}
