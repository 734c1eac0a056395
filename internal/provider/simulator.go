// Package provider simulates the paid external lookups a wallet pays for.
package provider

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"wallet-ledger-service/internal/config"
	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/logger"
)

// RandFactory returns the random source for a single call. Tests inject a
// seeded factory; each call still gets its own generator.
type RandFactory func() *rand.Rand

func DefaultRandFactory() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

type Simulator struct {
	catalogue map[domain.ServiceType]config.ServiceConfig
	minDelay  time.Duration
	maxDelay  time.Duration
	newRand   RandFactory
	now       func() time.Time
}

func NewSimulator(cfg config.ServicesConfig, newRand RandFactory) *Simulator {
	if newRand == nil {
		newRand = DefaultRandFactory
	}
	catalogue := make(map[domain.ServiceType]config.ServiceConfig, len(cfg.Catalogue))
	for name, svc := range cfg.Catalogue {
		catalogue[domain.ServiceType(strings.ToUpper(name))] = svc
	}
	return &Simulator{
		catalogue: catalogue,
		minDelay:  time.Duration(cfg.MinDelayMillis) * time.Millisecond,
		maxDelay:  time.Duration(cfg.MaxDelayMillis) * time.Millisecond,
		newRand:   newRand,
		now:       time.Now,
	}
}

// ParseServiceType resolves a service name in any letter case.
func (s *Simulator) ParseServiceType(name string) (domain.ServiceType, error) {
	st := domain.ServiceType(strings.ToUpper(strings.TrimSpace(name)))
	if _, ok := s.catalogue[st]; !ok {
		return "", domain.InvalidArgumentf("unknown service type %q", name)
	}
	return st, nil
}

// Cost returns the configured price of one lookup.
func (s *Simulator) Cost(st domain.ServiceType) (decimal.Decimal, error) {
	svc, ok := s.catalogue[st]
	if !ok {
		return decimal.Zero, domain.InvalidArgumentf("unknown service type %q", string(st))
	}
	return svc.Cost, nil
}

// Catalogue lists the available lookups ordered by service type.
func (s *Simulator) Catalogue() []domain.ServiceInfo {
	order := []domain.ServiceType{domain.ServiceTypeCRB, domain.ServiceTypeKYC, domain.ServiceTypeCreditScoring}
	seen := make(map[domain.ServiceType]bool, len(order))
	var out []domain.ServiceInfo
	add := func(st domain.ServiceType) {
		svc, ok := s.catalogue[st]
		if !ok || seen[st] {
			return
		}
		seen[st] = true
		out = append(out, domain.ServiceInfo{
			ServiceType:       st,
			Cost:              svc.Cost,
			Description:       svc.Description,
			EstimatedDuration: svc.EstimatedDuration,
		})
	}
	for _, st := range order {
		add(st)
	}
	for st := range s.catalogue {
		if !seen[st] {
			add(st)
		}
	}
	return out
}

// Call performs one simulated lookup. A FAILED result is a normal outcome;
// an error means the call could not be made at all.
func (s *Simulator) Call(ctx context.Context, st domain.ServiceType, id domain.ServiceIdentity, referenceID string) (*domain.ServiceResult, error) {
	svc, ok := s.catalogue[st]
	if !ok {
		return nil, domain.InvalidArgumentf("unknown service type %q", string(st))
	}
	rng := s.newRand()
	logger.ExternalServiceCall(string(st), "Call", "referenceID", referenceID, "nationalID", id.NationalID)

	if err := s.wait(ctx, rng); err != nil {
		logger.ExternalServiceResult(string(st), "Call", err, "referenceID", referenceID)
		return nil, err
	}

	result := &domain.ServiceResult{
		ServiceType:       st,
		Cost:              svc.Cost,
		ExternalReference: uuid.NewString(),
	}
	if rng.Float64() >= svc.SuccessRate {
		result.Status = domain.ServiceCallFailed
		result.Message = failureMessage(st)
		logger.ExternalServiceResult(string(st), "Call", nil, "referenceID", referenceID, "status", result.Status)
		return result, nil
	}

	payload, err := json.Marshal(s.payload(st, rng))
	if err != nil {
		return nil, err
	}
	result.Status = domain.ServiceCallSuccess
	result.Message = successMessage(st)
	result.ResultPayload = string(payload)
	logger.ExternalServiceResult(string(st), "Call", nil, "referenceID", referenceID, "status", result.Status)
	return result, nil
}

func (s *Simulator) wait(ctx context.Context, rng *rand.Rand) error {
	delay := s.minDelay
	if span := s.maxDelay - s.minDelay; span > 0 {
		delay += time.Duration(rng.Int63n(int64(span)))
	}
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type crbResult struct {
	Status      string    `json:"status"`
	Score       int       `json:"score"`
	LastUpdated time.Time `json:"lastUpdated"`
	BureauName  string    `json:"bureauName"`
}

type kycResult struct {
	Verified         bool      `json:"verified"`
	Confidence       float64   `json:"confidence"`
	MatchedFields    []string  `json:"matchedFields"`
	VerificationDate time.Time `json:"verificationDate"`
}

type creditScoreResult struct {
	Score                int       `json:"score"`
	Grade                string    `json:"grade"`
	ProbabilityOfDefault float64   `json:"probability_of_default"`
	Recommendations      []string  `json:"recommendations"`
	CalculatedAt         time.Time `json:"calculatedAt"`
}

func (s *Simulator) payload(st domain.ServiceType, rng *rand.Rand) any {
	now := s.now().UTC()
	switch st {
	case domain.ServiceTypeCRB:
		statuses := []string{"CLEAN", "LISTED", "WATCH_LIST"}
		return crbResult{
			Status:      statuses[rng.Intn(len(statuses))],
			Score:       rng.Intn(800) + 200,
			LastUpdated: now,
			BureauName:  "TransUnion Kenya",
		}
	case domain.ServiceTypeKYC:
		return kycResult{
			Verified:         rng.Intn(2) == 1,
			Confidence:       round(rng.Float64()*0.3+0.7, 2),
			MatchedFields:    []string{"name", "id_number", "phone"},
			VerificationDate: now,
		}
	case domain.ServiceTypeCreditScoring:
		score := rng.Intn(650) + 350
		return creditScoreResult{
			Score:                score,
			Grade:                GradeFromScore(score),
			ProbabilityOfDefault: round(rng.Float64()*0.1+0.01, 3),
			Recommendations:      []string{"Approved for basic products"},
			CalculatedAt:         now,
		}
	default:
		return map[string]string{"status": "COMPLETED"}
	}
}

// GradeFromScore maps a 350-1000 credit score onto A-E.
func GradeFromScore(score int) string {
	switch {
	case score >= 800:
		return "A"
	case score >= 700:
		return "B"
	case score >= 600:
		return "C"
	case score >= 500:
		return "D"
	default:
		return "E"
	}
}

func successMessage(st domain.ServiceType) string {
	switch st {
	case domain.ServiceTypeCRB:
		return "CRB check completed successfully"
	case domain.ServiceTypeKYC:
		return "KYC verification completed"
	case domain.ServiceTypeCreditScoring:
		return "Credit score calculated"
	default:
		return "Service call completed"
	}
}

func failureMessage(st domain.ServiceType) string {
	switch st {
	case domain.ServiceTypeCRB:
		return "CRB service temporarily unavailable"
	case domain.ServiceTypeKYC:
		return "KYC verification failed"
	case domain.ServiceTypeCreditScoring:
		return "Credit scoring service error"
	default:
		return "Service call failed"
	}
}

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
