package repositories

import (
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paygen/internal/models"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func sampleTransaction(id string) *models.Transaction {
	amount := decimal.NewFromFloat(50.00)
	mdr := decimal.NewFromFloat(1.55)
	cost := decimal.NewFromFloat(0.75)
	return &models.Transaction{
		PaymentID:     id,
		Timestamp:     time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC),
		Lat:           40.7128,
		Lng:           -74.0060,
		Amount:        amount,
		PaymentType:   models.PaymentCardPresent,
		TerminalID:    "T1234",
		CardType:      models.CardTypeCredit,
		CardIssuer:    "Chase",
		CardBrand:     "Visa",
		CardProfileID: "CARD123456",
		CardBIN:       "411111",
		Status:        models.PaymentApproved,
		MerchantID:    "M000001",
		CostRate:      0.015,
		CostAmount:    cost,
		MDRAmount:     mdr,
		NetProfit:     mdr.Sub(cost),
	}
}

func TestChunkWriter_Transactions(t *testing.T) {
	w, err := NewChunkWriter(t.TempDir())
	require.NoError(t, err)

	start := models.NewDate(2024, 1, 1)
	end := models.NewDate(2024, 1, 31)

	tw, err := w.OpenTransactions(start, end)
	require.NoError(t, err)
	require.NoError(t, tw.Write(sampleTransaction("TXN0000000001")))
	require.NoError(t, tw.Write(sampleTransaction("TXN0000000002")))
	require.NoError(t, tw.Close())
	assert.Equal(t, int64(2), tw.Rows())

	records := readCSV(t, w.TransactionsPath(start, end))
	require.Len(t, records, 3)
	assert.Equal(t, models.TransactionColumns, records[0])
	assert.Equal(t, "TXN0000000001", records[1][0])
	assert.Equal(t, "2024-01-05 10:30:00", records[1][1])
	assert.Equal(t, "50.00", records[1][4])
	assert.Equal(t, "0.80", records[1][17]) // 1.55 - 0.75
}

func TestChunkWriter_OverwriteIsIdempotent(t *testing.T) {
	w, err := NewChunkWriter(t.TempDir())
	require.NoError(t, err)

	start := models.NewDate(2024, 1, 1)
	end := models.NewDate(2024, 1, 31)

	tw, err := w.OpenTransactions(start, end)
	require.NoError(t, err)
	require.NoError(t, tw.Write(sampleTransaction("TXN0000000001")))
	require.NoError(t, tw.Write(sampleTransaction("TXN0000000002")))
	require.NoError(t, tw.Close())

	// A retry of the same chunk replaces the file wholesale.
	tw, err = w.OpenTransactions(start, end)
	require.NoError(t, err)
	require.NoError(t, tw.Write(sampleTransaction("TXN0000000001")))
	require.NoError(t, tw.Close())

	records := readCSV(t, w.TransactionsPath(start, end))
	require.Len(t, records, 2)
}

func TestChunkWriter_Merchants(t *testing.T) {
	w, err := NewChunkWriter(t.TempDir())
	require.NoError(t, err)

	start := models.NewDate(2024, 1, 1)
	end := models.NewDate(2024, 1, 31)

	m := &models.Merchant{
		MerchantID:    "M000001",
		Name:          "Mega Mart 12",
		Industry:      "retail",
		Address:       "100 Main St",
		City:          "Chicago",
		State:         "IL",
		ZipCode:       "60601",
		Phone:         "312-555-0188",
		Email:         "contact@m000001.com",
		MDRRate:       0.0315,
		SizeCategory:  models.SizeSmall,
		CreationDate:  models.NewDate(2024, 1, 1),
		EffectiveDate: models.NewDate(2024, 1, 1),
		Status:        models.StatusActive,
		Version:       1,
	}

	path, err := w.WriteMerchants(start, end, []*models.Merchant{m})
	require.NoError(t, err)

	records := readCSV(t, path)
	require.Len(t, records, 2)
	assert.Equal(t, models.MerchantColumns, records[0])
	assert.Equal(t, "M000001", records[1][0])
	assert.Equal(t, "0.0315", records[1][9])
	assert.Equal(t, "", records[1][14]) // never transacted
	assert.Equal(t, "1", records[1][15])
}

func TestChunkWriter_EmptyMerchantsStillHasHeader(t *testing.T) {
	w, err := NewChunkWriter(t.TempDir())
	require.NoError(t, err)

	path, err := w.WriteMerchants(models.NewDate(2024, 2, 1), models.NewDate(2024, 2, 29), nil)
	require.NoError(t, err)

	records := readCSV(t, path)
	require.Len(t, records, 1)
	assert.Equal(t, models.MerchantColumns, records[0])
}
