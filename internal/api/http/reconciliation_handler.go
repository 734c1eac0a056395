package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"wallet-ledger-service/internal/domain"
)

const (
	csvContentType   = "text/csv"
	sampleFeedRows   = 10
	defaultSampleMax = 1000
)

// UploadFeed accepts a multipart provider file under the "file" field.
func (h *Handler) UploadFeed(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, APIResponse{Message: "file too large", Code: domain.CodeInvalidArgument})
			return
		}
		writeBadRequest(w, "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, "file is required")
		return
	}
	defer file.Close()

	var reportDate time.Time
	if v := strings.TrimSpace(r.FormValue("date")); v != "" {
		reportDate, err = time.Parse(dateLayout, v)
		if err != nil {
			writeBadRequest(w, "date must be formatted YYYY-MM-DD")
			return
		}
	}

	res, err := h.ingestion.Ingest(r.Context(), header.Filename, r.FormValue("providerName"), reportDate, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, fmt.Sprintf("Stored %d transactions, skipped %d", res.Stored, res.Skipped), res)
}

func (h *Handler) ProcessReconciliation(w http.ResponseWriter, r *http.Request) {
	date, err := requiredDate(r, "date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := h.reconciliation.Reconcile(r.Context(), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Reconciliation completed", newReportView(report))
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	date, err := requiredDate(r, "date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	includeDetails := r.URL.Query().Get("includeDetails") == "true"
	report, err := h.reconciliation.GetReport(r.Context(), date, includeDetails)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", newReportView(report))
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	reports, err := h.reconciliation.History(r.Context(), days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]reportView, 0, len(reports))
	for _, rep := range reports {
		views = append(views, newReportView(rep))
	}
	writeOK(w, http.StatusOK, "", views)
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.reconciliation.Status(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", status)
}

func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	date, err := requiredDate(r, "date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	// Buffer so a failure can still be answered with a JSON error.
	var buf bytes.Buffer
	if err := h.export.ExportReport(r.Context(), date, &buf); err != nil {
		writeError(w, r, err)
		return
	}
	writeCSV(w, fmt.Sprintf("reconciliation_report_%s.csv", date.Format(dateLayout)), buf.Bytes())
}

func (h *Handler) ExportSummary(w http.ResponseWriter, r *http.Request) {
	from, err := requiredDate(r, "startDate")
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := requiredDate(r, "endDate")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := h.export.ExportSummary(r.Context(), from, to, &buf); err != nil {
		writeError(w, r, err)
		return
	}
	writeCSV(w, fmt.Sprintf("transaction_summary_%s_to_%s.csv", from.Format(dateLayout), to.Format(dateLayout)), buf.Bytes())
}

func (h *Handler) SampleFeed(w http.ResponseWriter, r *http.Request) {
	date, err := requiredDate(r, "date")
	if err != nil {
		writeError(w, r, err)
		return
	}
	count, err := queryInt(r, "count", sampleFeedRows)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if count > defaultSampleMax {
		count = defaultSampleMax
	}
	var buf bytes.Buffer
	if err := h.export.GenerateSampleFeed(r.Context(), date, count, &buf); err != nil {
		writeError(w, r, err)
		return
	}
	writeCSV(w, fmt.Sprintf("sample_external_report_%s.csv", date.Format(dateLayout)), buf.Bytes())
}

func writeCSV(w http.ResponseWriter, fileName string, body []byte) {
	w.Header().Set("Content-Type", csvContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// reportView adds the derived statistics to a stored report.
type reportView struct {
	*domain.ReconciliationReport
	MatchPercentage float64            `json:"match_percentage"`
	MatchStatus     domain.MatchStatus `json:"match_status"`
}

func newReportView(r *domain.ReconciliationReport) reportView {
	return reportView{
		ReconciliationReport: r,
		MatchPercentage:      r.MatchPercentage(),
		MatchStatus:          r.MatchStatus(),
	}
}
