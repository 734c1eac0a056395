// Package http exposes the ledger and reconciliation services over REST.
package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/logger"
	"wallet-ledger-service/internal/service"
)

const dateLayout = "2006-01-02"

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the services behind every route.
type Handler struct {
	customers      service.CustomerService
	wallets        service.WalletService
	ledger         service.LedgerService
	reconciliation service.ReconciliationService
	ingestion      service.IngestionService
	export         service.ExportService
	db             Pinger
	maxUploadBytes int64
}

// Services groups the dependencies of NewHandler.
type Services struct {
	Customers      service.CustomerService
	Wallets        service.WalletService
	Ledger         service.LedgerService
	Reconciliation service.ReconciliationService
	Ingestion      service.IngestionService
	Export         service.ExportService
}

func NewHandler(svcs Services, db Pinger, maxUploadBytes int64) *Handler {
	return &Handler{
		customers:      svcs.Customers,
		wallets:        svcs.Wallets,
		ledger:         svcs.Ledger,
		reconciliation: svcs.Reconciliation,
		ingestion:      svcs.Ingestion,
		export:         svcs.Export,
		db:             db,
		maxUploadBytes: maxUploadBytes,
	}
}

// NewRouter registers every route on a fresh mux router.
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(recoveryMiddleware, loggingMiddleware)

	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/customers", h.CreateCustomer).Methods(http.MethodPost)
	api.HandleFunc("/customers/{id:[0-9]+}", h.GetCustomer).Methods(http.MethodGet)
	api.HandleFunc("/customers/{id:[0-9]+}/wallets", h.ListCustomerWallets).Methods(http.MethodGet)

	api.HandleFunc("/wallets", h.CreateWallet).Methods(http.MethodPost)
	api.HandleFunc("/wallets", h.ListWallets).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{id:[0-9]+}", h.GetWallet).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{id:[0-9]+}/balance", h.GetBalance).Methods(http.MethodGet)
	api.HandleFunc("/wallets/{id:[0-9]+}/topup", h.TopUp).Methods(http.MethodPost)
	api.HandleFunc("/wallets/{id:[0-9]+}/consume", h.Consume).Methods(http.MethodPost)
	api.HandleFunc("/wallets/{id:[0-9]+}/consume-service", h.ConsumeService).Methods(http.MethodPost)
	api.HandleFunc("/wallets/{id:[0-9]+}/transactions", h.GetTransactions).Methods(http.MethodGet)

	api.HandleFunc("/transactions/reference/{referenceId}", h.GetTransactionByReference).Methods(http.MethodGet)
	api.HandleFunc("/services", h.ListServices).Methods(http.MethodGet)

	recon := api.PathPrefix("/reconciliation").Subrouter()
	recon.HandleFunc("/upload", h.UploadFeed).Methods(http.MethodPost)
	recon.HandleFunc("/process", h.ProcessReconciliation).Methods(http.MethodPost)
	recon.HandleFunc("/report", h.GetReport).Methods(http.MethodGet)
	recon.HandleFunc("/history", h.GetHistory).Methods(http.MethodGet)
	recon.HandleFunc("/export", h.ExportReport).Methods(http.MethodGet)
	recon.HandleFunc("/export/summary", h.ExportSummary).Methods(http.MethodGet)
	recon.HandleFunc("/sample", h.SampleFeed).Methods(http.MethodGet)
	recon.HandleFunc("/status", h.GetStatus).Methods(http.MethodGet)

	return router
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			logger.Warn("Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, APIResponse{Message: "database unavailable", Code: domain.CodeInternal})
			return
		}
	}
	writeOK(w, http.StatusOK, "ok", map[string]string{"status": "UP"})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				logger.Error("Handler panicked", "method", r.Method, "path", r.URL.Path, "panic", p)
				writeJSON(w, http.StatusInternalServerError, APIResponse{Message: "An internal error occurred", Code: domain.CodeInternal})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, domain.InvalidArgumentf("invalid id %q", mux.Vars(r)["id"])
	}
	return id, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, domain.InvalidArgumentf("%s must be an integer", name)
	}
	return n, nil
}

// queryDate parses an optional YYYY-MM-DD parameter.
func queryDate(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil, domain.InvalidArgumentf("%s must be formatted YYYY-MM-DD", name)
	}
	return &t, nil
}

func requiredDate(r *http.Request, name string) (time.Time, error) {
	t, err := queryDate(r, name)
	if err != nil {
		return time.Time{}, err
	}
	if t == nil {
		return time.Time{}, domain.InvalidArgumentf("%s is required", name)
	}
	return *t, nil
}
