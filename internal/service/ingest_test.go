package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/service"
	"wallet-ledger-service/internal/storage"
)

func TestIngestionService_Ingest(t *testing.T) {
	ctx := context.Background()
	reportDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	stored := &storage.StoredFile{Key: "k_feed.csv", Size: 10, Checksum: "abc"}

	t.Run("CSV with header aliases", func(t *testing.T) {
		exts, archive := new(MockExternalRepo), new(MockArchive)
		svc := service.NewIngestionService(exts, archive, "DEFAULT_PROVIDER")

		body := "TransactionID,Date,Amount,Reference,Type,CustomerID,Service,Description\n" +
			"EXT1,16/01/2024,100.50,REF1,consumption,CUST_1,crb,\"First, with comma\"\n" +
			"EXT2,,25,REF2,TOPUP,CUST_2,,Second\n" +
			"EXT3,2024-01-15,not-a-number,REF3,TOPUP,,,Broken\n" +
			"EXT4,2024-01-15,5.00,,TOPUP,,,No reference\n"

		archive.On("Save", ctx, "feed.csv", []byte(body)).Return(stored, nil)
		var saved []*domain.ExternalTransaction
		exts.On("CreateBatch", ctx, mock.Anything).Run(func(args mock.Arguments) {
			saved = args.Get(1).([]*domain.ExternalTransaction)
		}).Return(nil)

		res, err := svc.Ingest(ctx, "feed.csv", "SAFARICOM", reportDate, strings.NewReader(body))
		require.NoError(t, err)
		assert.Equal(t, 2, res.Stored)
		assert.Equal(t, 2, res.Skipped)
		assert.Equal(t, "k_feed.csv", res.ArchiveKey)

		require.Len(t, saved, 2)
		assert.Equal(t, "EXT1", saved[0].ExternalID)
		assert.Equal(t, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC), saved[0].TransactionDate)
		assert.True(t, saved[0].Amount.Equal(dec("100.50")))
		assert.Equal(t, "CONSUMPTION", saved[0].Type)
		assert.Equal(t, "CRB", saved[0].ServiceType)
		assert.Equal(t, "First, with comma", saved[0].Description)
		assert.Equal(t, "SAFARICOM", saved[0].ProviderName)
		assert.Equal(t, "feed.csv", saved[0].FileName)
		assert.Equal(t, domain.ExternalStatusPending, saved[0].Status)

		assert.Equal(t, reportDate, saved[1].TransactionDate)
	})

	t.Run("JSON with numeric and string amounts", func(t *testing.T) {
		exts, archive := new(MockExternalRepo), new(MockArchive)
		svc := service.NewIngestionService(exts, archive, "DEFAULT_PROVIDER")

		body := `[
			{"transaction_id": "J1", "transaction_date": "2024-01-15", "amount": 12.5, "reference_id": "R1"},
			{"transaction_id": "J2", "amount": "7.25", "reference_id": "R2", "transaction_type": "topup"}
		]`
		archive.On("Save", ctx, "feed.json", mock.Anything).Return(stored, nil)
		var saved []*domain.ExternalTransaction
		exts.On("CreateBatch", ctx, mock.Anything).Run(func(args mock.Arguments) {
			saved = args.Get(1).([]*domain.ExternalTransaction)
		}).Return(nil)

		res, err := svc.Ingest(ctx, "feed.json", "", reportDate, strings.NewReader(body))
		require.NoError(t, err)
		assert.Equal(t, "DEFAULT_PROVIDER", res.ProviderName)
		require.Len(t, saved, 2)
		assert.True(t, saved[0].Amount.Equal(dec("12.5")))
		assert.True(t, saved[1].Amount.Equal(dec("7.25")))
		assert.Equal(t, "TOPUP", saved[1].Type)
	})

	t.Run("Unsupported extension", func(t *testing.T) {
		exts, archive := new(MockExternalRepo), new(MockArchive)
		svc := service.NewIngestionService(exts, archive, "P")

		_, err := svc.Ingest(ctx, "feed.xlsx", "P", reportDate, strings.NewReader("x"))
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		archive.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CSV without amount column", func(t *testing.T) {
		exts, archive := new(MockExternalRepo), new(MockArchive)
		svc := service.NewIngestionService(exts, archive, "P")
		archive.On("Save", ctx, "feed.csv", mock.Anything).Return(stored, nil)

		_, err := svc.Ingest(ctx, "feed.csv", "P", reportDate, strings.NewReader("reference_id,date\nR1,2024-01-15\n"))
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
		exts.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
	})

	t.Run("Batch failure is internal", func(t *testing.T) {
		exts, archive := new(MockExternalRepo), new(MockArchive)
		svc := service.NewIngestionService(exts, archive, "P")
		archive.On("Save", ctx, "feed.csv", mock.Anything).Return(stored, nil)
		exts.On("CreateBatch", ctx, mock.Anything).Return(errors.New("deadlock"))

		_, err := svc.Ingest(ctx, "feed.csv", "P", reportDate, strings.NewReader("amount,reference_id\n1.00,R1\n"))
		assert.ErrorIs(t, err, domain.ErrInternal)
	})
}
