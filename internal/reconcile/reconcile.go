// Package reconcile classifies a day's ledger transactions against the
// provider's report of the same day.
package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"

	"wallet-ledger-service/internal/domain"
)

const (
	notePerfectMatch    = "Perfect match on reference and amount"
	noteAmountDiffers   = "Reference match but amount differs by %s"
	noteMissingExternal = "Internal transaction with no external match"
	noteMissingInternal = "External transaction with no internal match"
)

// Result is the outcome of one matching run. Items are not yet attached to a
// report.
type Result struct {
	Items   []*domain.ReconciliationItem
	Summary domain.ReconciliationSummary
}

// Reconcile matches internal against external transactions and computes the
// aggregates. For identical inputs in identical order it always produces the
// same items in the same order.
func Reconcile(internal []*domain.TransactionRecord, external []*domain.ExternalTransaction) Result {
	items := Match(internal, external)
	return Result{Items: items, Summary: Summarize(internal, external, items)}
}

// Match runs the three passes. Every input record lands in exactly one item.
func Match(internal []*domain.TransactionRecord, external []*domain.ExternalTransaction) []*domain.ReconciliationItem {
	// Index positions rather than ids so that rows with a zero id still
	// consume independently.
	intByRef, refOrder := groupInternal(internal)
	extByRef := groupExternal(external)

	usedInt := make([]bool, len(internal))
	usedExt := make([]bool, len(external))
	items := make([]*domain.ReconciliationItem, 0, len(internal)+len(external))

	// Pass 1: same reference, exactly equal amount.
	for _, ref := range refOrder {
		extIdx, ok := extByRef[ref]
		if !ok {
			continue
		}
		for _, i := range intByRef[ref] {
			if usedInt[i] {
				continue
			}
			for _, e := range extIdx {
				if usedExt[e] || !internal[i].Amount.Equal(external[e].Amount) {
					continue
				}
				usedInt[i], usedExt[e] = true, true
				items = append(items, pairItem(internal[i], external[e],
					domain.MatchTypePerfect, domain.DiscrepancyNone, notePerfectMatch))
				break
			}
		}
	}

	// Pass 2: same reference, any amount.
	for _, ref := range refOrder {
		extIdx, ok := extByRef[ref]
		if !ok {
			continue
		}
		for _, i := range intByRef[ref] {
			if usedInt[i] {
				continue
			}
			for _, e := range extIdx {
				if usedExt[e] {
					continue
				}
				usedInt[i], usedExt[e] = true, true
				diff := internal[i].Amount.Sub(external[e].Amount)
				items = append(items, pairItem(internal[i], external[e],
					domain.MatchTypeReference, domain.DiscrepancyAmountDifference,
					fmt.Sprintf(noteAmountDiffers, diff.StringFixed(2))))
				break
			}
		}
	}

	// Pass 3: leftovers, internal side first.
	for i, rec := range internal {
		if usedInt[i] {
			continue
		}
		id := rec.ID
		items = append(items, &domain.ReconciliationItem{
			InternalTransactionID: &id,
			ReferenceID:           rec.ReferenceID,
			MatchType:             domain.MatchTypeNone,
			DiscrepancyType:       domain.DiscrepancyMissingExternal,
			InternalAmount:        rec.Amount,
			ExternalAmount:        decimal.Zero,
			AmountDifference:      decimal.Zero,
			Notes:                 noteMissingExternal,
		})
	}
	for e, ext := range external {
		if usedExt[e] {
			continue
		}
		id := ext.ID
		items = append(items, &domain.ReconciliationItem{
			ExternalTransactionID: &id,
			ReferenceID:           ext.ReferenceID,
			MatchType:             domain.MatchTypeNone,
			DiscrepancyType:       domain.DiscrepancyMissingInternal,
			InternalAmount:        decimal.Zero,
			ExternalAmount:        ext.Amount,
			AmountDifference:      decimal.Zero,
			Notes:                 noteMissingInternal,
		})
	}
	return items
}

// Summarize derives the report aggregates from the inputs and the items
// Match produced for them.
func Summarize(internal []*domain.TransactionRecord, external []*domain.ExternalTransaction, items []*domain.ReconciliationItem) domain.ReconciliationSummary {
	s := domain.ReconciliationSummary{
		TotalInternal:       len(internal),
		TotalExternal:       len(external),
		TotalInternalAmount: decimal.Zero,
		TotalExternalAmount: decimal.Zero,
	}
	for _, rec := range internal {
		s.TotalInternalAmount = s.TotalInternalAmount.Add(rec.Amount)
	}
	for _, ext := range external {
		s.TotalExternalAmount = s.TotalExternalAmount.Add(ext.Amount)
	}
	s.DifferenceAmount = s.TotalInternalAmount.Sub(s.TotalExternalAmount)

	for _, item := range items {
		switch item.MatchType {
		case domain.MatchTypePerfect:
			s.Matched++
		case domain.MatchTypeReference:
			s.AmountDifferences++
		case domain.MatchTypeNone:
			switch item.DiscrepancyType {
			case domain.DiscrepancyMissingExternal:
				s.UnmatchedInternal++
			case domain.DiscrepancyMissingInternal:
				s.UnmatchedExternal++
			}
		default:
			panic(fmt.Sprintf("reconcile: unexpected match type %q", string(item.MatchType)))
		}
	}
	return s
}

func pairItem(rec *domain.TransactionRecord, ext *domain.ExternalTransaction, mt domain.MatchType, dt domain.DiscrepancyType, notes string) *domain.ReconciliationItem {
	intID, extID := rec.ID, ext.ID
	return &domain.ReconciliationItem{
		InternalTransactionID: &intID,
		ExternalTransactionID: &extID,
		ReferenceID:           rec.ReferenceID,
		MatchType:             mt,
		DiscrepancyType:       dt,
		InternalAmount:        rec.Amount,
		ExternalAmount:        ext.Amount,
		AmountDifference:      rec.Amount.Sub(ext.Amount),
		Notes:                 notes,
	}
}

// groupInternal returns reference -> positions, plus the references in order
// of first appearance. Records without a reference are left for pass 3.
func groupInternal(recs []*domain.TransactionRecord) (map[string][]int, []string) {
	byRef := make(map[string][]int)
	var order []string
	for i, rec := range recs {
		if rec.ReferenceID == "" {
			continue
		}
		if _, seen := byRef[rec.ReferenceID]; !seen {
			order = append(order, rec.ReferenceID)
		}
		byRef[rec.ReferenceID] = append(byRef[rec.ReferenceID], i)
	}
	return byRef, order
}

func groupExternal(recs []*domain.ExternalTransaction) map[string][]int {
	byRef := make(map[string][]int)
	for i, rec := range recs {
		if rec.ReferenceID == "" {
			continue
		}
		byRef[rec.ReferenceID] = append(byRef[rec.ReferenceID], i)
	}
	return byRef
}
