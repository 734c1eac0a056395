package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/logger"
	"wallet-ledger-service/internal/repository"
	"wallet-ledger-service/internal/storage"
)

var feedDateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"2006/01/02",
}

// Header aliases accepted in provider CSV files, after lower-casing and
// trimming.
var csvColumns = map[string]string{
	"transaction_id":   "id",
	"transactionid":    "id",
	"id":               "id",
	"transaction_date": "date",
	"date":             "date",
	"transactiondate":  "date",
	"amount":           "amount",
	"reference_id":     "reference",
	"reference":        "reference",
	"referenceid":      "reference",
	"transaction_type": "type",
	"type":             "type",
	"transactiontype":  "type",
	"customer_id":      "customer",
	"customerid":       "customer",
	"service_type":     "service",
	"service":          "service",
	"servicetype":      "service",
	"description":      "description",
}

type ingestionService struct {
	extRepo         repository.ExternalTransactionRepository
	archive         storage.Archive
	defaultProvider string
	now             func() time.Time
}

func NewIngestionService(extRepo repository.ExternalTransactionRepository, archive storage.Archive, defaultProvider string) IngestionService {
	return &ingestionService{
		extRepo:         extRepo,
		archive:         archive,
		defaultProvider: defaultProvider,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// feedRow is one provider row before validation. JSON files use the same
// field names as the canonical CSV header.
type feedRow struct {
	ID          string          `json:"transaction_id"`
	Date        string          `json:"transaction_date"`
	Amount      json.RawMessage `json:"amount"`
	Reference   string          `json:"reference_id"`
	Type        string          `json:"transaction_type"`
	Customer    string          `json:"customer_id"`
	Service     string          `json:"service_type"`
	Description string          `json:"description"`
	amountText  string
}

// Ingest archives a provider file and stores its rows as external
// transactions. Rows that cannot be parsed are skipped; the rest are stored
// together or not at all.
func (s *ingestionService) Ingest(ctx context.Context, fileName, providerName string, reportDate time.Time, r io.Reader) (*IngestResult, error) {
	logger.EnterMethod("ingestionService.Ingest", "fileName", fileName, "provider", providerName)

	base := filepath.Base(strings.TrimSpace(fileName))
	ext := strings.ToLower(filepath.Ext(base))
	if ext != ".csv" && ext != ".json" {
		err := domain.InvalidArgumentf("unsupported file type %q, expected .csv or .json", ext)
		logger.ExitMethodWithError("ingestionService.Ingest", err)
		return nil, err
	}
	if providerName = strings.TrimSpace(providerName); providerName == "" {
		providerName = s.defaultProvider
	}
	if reportDate.IsZero() {
		reportDate = s.now()
	}
	day := domain.DateOnly(reportDate)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, domain.InvalidArgumentf("failed to read upload: %v", err)
	}
	if len(data) == 0 {
		return nil, domain.InvalidArgumentf("file %s is empty", base)
	}

	stored, err := s.archive.Save(ctx, base, bytes.NewReader(data))
	if err != nil {
		logger.ExitMethodWithError("ingestionService.Ingest", err)
		return nil, internal(err)
	}

	var rows []feedRow
	if ext == ".csv" {
		rows, err = parseCSVFeed(data)
	} else {
		rows, err = parseJSONFeed(data)
	}
	if err != nil {
		logger.ExitMethodWithError("ingestionService.Ingest", err)
		return nil, err
	}

	now := s.now()
	txs := make([]*domain.ExternalTransaction, 0, len(rows))
	skipped := 0
	for i, row := range rows {
		tx, err := row.toExternal(day, providerName, base, now)
		if err != nil {
			skipped++
			logger.Warn("Skipping provider row", "fileName", base, "row", i+1, "error", err)
			continue
		}
		txs = append(txs, tx)
	}

	if len(txs) > 0 {
		if err := s.extRepo.CreateBatch(ctx, txs); err != nil {
			logger.ExitMethodWithError("ingestionService.Ingest", err)
			return nil, internal(err)
		}
	}

	result := &IngestResult{
		FileName:     base,
		ArchiveKey:   stored.Key,
		Checksum:     stored.Checksum,
		ProviderName: providerName,
		ReportDate:   day,
		Stored:       len(txs),
		Skipped:      skipped,
	}
	logger.Info("Provider file ingested",
		"fileName", base, "provider", providerName, "stored", result.Stored, "skipped", result.Skipped)
	return result, nil
}

func parseCSVFeed(data []byte) ([]feedRow, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, domain.InvalidArgumentf("failed to read CSV header: %v", err)
	}
	index := map[string]int{}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if col, ok := csvColumns[h]; ok {
			if _, seen := index[col]; !seen {
				index[col] = i
			}
		}
	}
	if _, ok := index["amount"]; !ok {
		return nil, domain.InvalidArgumentf("CSV header has no amount column")
	}
	if _, ok := index["reference"]; !ok {
		return nil, domain.InvalidArgumentf("CSV header has no reference column")
	}

	field := func(rec []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []feedRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				logger.Warn("Skipping malformed CSV line", "line", perr.Line, "error", perr.Err)
				rows = append(rows, feedRow{})
				continue
			}
			return nil, domain.InvalidArgumentf("failed to read CSV: %v", err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		rows = append(rows, feedRow{
			ID:          field(rec, "id"),
			Date:        field(rec, "date"),
			amountText:  field(rec, "amount"),
			Reference:   field(rec, "reference"),
			Type:        field(rec, "type"),
			Customer:    field(rec, "customer"),
			Service:     field(rec, "service"),
			Description: field(rec, "description"),
		})
	}
	return rows, nil
}

func parseJSONFeed(data []byte) ([]feedRow, error) {
	var rows []feedRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, domain.InvalidArgumentf("invalid JSON feed: %v", err)
	}
	for i := range rows {
		// Amounts may be numbers or strings.
		rows[i].amountText = strings.Trim(strings.TrimSpace(string(rows[i].Amount)), `"`)
	}
	return rows, nil
}

func (row feedRow) toExternal(day time.Time, provider, fileName string, now time.Time) (*domain.ExternalTransaction, error) {
	if row.Reference == "" {
		return nil, fmt.Errorf("missing reference")
	}
	if row.amountText == "" {
		return nil, fmt.Errorf("missing amount")
	}
	amount, err := decimal.NewFromString(row.amountText)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", row.amountText)
	}
	date := day
	if row.Date != "" {
		date, err = parseFeedDate(row.Date)
		if err != nil {
			return nil, err
		}
	}
	return &domain.ExternalTransaction{
		ExternalID:      row.ID,
		TransactionDate: date,
		Amount:          amount,
		ReferenceID:     row.Reference,
		Type:            strings.ToUpper(row.Type),
		CustomerRef:     row.Customer,
		ServiceType:     strings.ToUpper(row.Service),
		Description:     row.Description,
		ProviderName:    provider,
		FileName:        fileName,
		Status:          domain.ExternalStatusPending,
		CreatedAt:       now,
	}, nil
}

// parseFeedDate tries each accepted layout in turn; day-first wins when a
// date is ambiguous.
func parseFeedDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return domain.DateOnly(t), nil
	}
	for _, layout := range feedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
