package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ExternalTransactionStatus string

const (
	ExternalStatusPending   ExternalTransactionStatus = "PENDING"
	ExternalStatusProcessed ExternalTransactionStatus = "PROCESSED"
	ExternalStatusFailed    ExternalTransactionStatus = "FAILED"
)

// ExternalTransaction is one row of a provider-reported feed. ReferenceID is
// not guaranteed to be unique.
type ExternalTransaction struct {
	ID              int64                     `json:"id"`
	ExternalID      string                    `json:"external_transaction_id"`
	TransactionDate time.Time                 `json:"transaction_date"`
	Amount          decimal.Decimal           `json:"amount"`
	ReferenceID     string                    `json:"reference_id"`
	Type            string                    `json:"transaction_type"`
	CustomerRef     string                    `json:"customer_id,omitempty"`
	ServiceType     string                    `json:"service_type,omitempty"`
	Description     string                    `json:"description,omitempty"`
	ProviderName    string                    `json:"provider_name"`
	FileName        string                    `json:"file_name"`
	Status          ExternalTransactionStatus `json:"status"`
	CreatedAt       time.Time                 `json:"created_at"`
}

type ServiceType string

const (
	ServiceTypeCRB           ServiceType = "CRB"
	ServiceTypeKYC           ServiceType = "KYC"
	ServiceTypeCreditScoring ServiceType = "CREDIT_SCORING"
)

// ServiceIdentity identifies the subject of an external lookup.
type ServiceIdentity struct {
	CustomerID  int64  `json:"customer_id,omitempty"`
	NationalID  string `json:"national_id,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type ServiceCallStatus string

const (
	ServiceCallSuccess ServiceCallStatus = "SUCCESS"
	ServiceCallFailed  ServiceCallStatus = "FAILED"
)

// ServiceResult is what an external provider returns for one lookup.
type ServiceResult struct {
	ServiceType       ServiceType       `json:"service_type"`
	Status            ServiceCallStatus `json:"status"`
	Message           string            `json:"message"`
	Cost              decimal.Decimal   `json:"cost"`
	ExternalReference string            `json:"external_reference"`
	ResultPayload     string            `json:"result,omitempty"`
}

// ServiceInfo describes one entry of the paid lookup catalogue.
type ServiceInfo struct {
	ServiceType       ServiceType     `json:"service_type"`
	Cost              decimal.Decimal `json:"cost"`
	Description       string          `json:"description"`
	EstimatedDuration string          `json:"estimated_duration"`
}
