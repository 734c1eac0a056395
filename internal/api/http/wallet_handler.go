package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/service"
)

type createCustomerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	NationalID  string `json:"national_id"`
}

type createWalletRequest struct {
	CustomerID int64  `json:"customer_id"`
	WalletType string `json:"wallet_type"`
	Currency   string `json:"currency"`
}

type topUpRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"reference_id"`
	Description string          `json:"description"`
	Source      string          `json:"source"`
}

type consumeRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	ReferenceID string          `json:"reference_id"`
	ServiceType string          `json:"service_type"`
	Description string          `json:"description"`
}

type consumeServiceRequest struct {
	ServiceType string `json:"service_type"`
	ReferenceID string `json:"reference_id"`
	CustomerID  int64  `json:"customer_id"`
	NationalID  string `json:"national_id"`
	PhoneNumber string `json:"phone_number"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeBadRequest(w, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.customers.CreateCustomer(r.Context(), req.Name, req.Email, req.PhoneNumber, req.NationalID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "Customer created", c)
}

func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.customers.GetCustomer(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", c)
}

func (h *Handler) ListCustomerWallets(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ws, err := h.wallets.ListWalletsByCustomer(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", ws)
}

func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var req createWalletRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CustomerID <= 0 {
		writeBadRequest(w, "customer_id is required")
		return
	}
	wallet, err := h.wallets.CreateWallet(r.Context(), req.CustomerID, req.WalletType, req.Currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, "Wallet created", wallet)
}

func (h *Handler) ListWallets(w http.ResponseWriter, r *http.Request) {
	ws, err := h.wallets.ListWallets(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", ws)
}

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	wallet, err := h.wallets.GetWallet(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", wallet)
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	bal, err := h.wallets.GetBalance(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", bal)
}

func (h *Handler) TopUp(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req topUpRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.ledger.TopUp(r.Context(), id, req.Amount, req.ReferenceID, req.Description, req.Source)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Wallet topped up", rec)
}

func (h *Handler) Consume(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req consumeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := h.ledger.Consume(r.Context(), id, req.Amount, req.ReferenceID, req.ServiceType, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "Amount consumed", rec)
}

func (h *Handler) ConsumeService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req consumeServiceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	identity := domain.ServiceIdentity{
		CustomerID:  req.CustomerID,
		NationalID:  req.NationalID,
		PhoneNumber: req.PhoneNumber,
	}
	res, err := h.ledger.ConsumeService(r.Context(), id, req.ServiceType, req.ReferenceID, identity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, res.Result.Message, res)
}

func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var q service.HistoryQuery
	if q.Page, err = queryInt(r, "page", 0); err != nil {
		writeError(w, r, err)
		return
	}
	if q.Size, err = queryInt(r, "size", 0); err != nil {
		writeError(w, r, err)
		return
	}
	if q.From, err = queryDate(r, "startDate"); err != nil {
		writeError(w, r, err)
		return
	}
	if q.To, err = queryDate(r, "endDate"); err != nil {
		writeError(w, r, err)
		return
	}
	page, err := h.ledger.GetTransactionHistory(r.Context(), id, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", page)
}

func (h *Handler) GetTransactionByReference(w http.ResponseWriter, r *http.Request) {
	rec, err := h.ledger.GetTransactionByReference(r.Context(), mux.Vars(r)["referenceId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, "", rec)
}

func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, "", h.ledger.ListServices(r.Context()))
}
