package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/logger"
	"wallet-ledger-service/internal/repository"
)

type customerService struct {
	customerRepo repository.CustomerRepository
}

func NewCustomerService(customerRepo repository.CustomerRepository) CustomerService {
	return &customerService{customerRepo: customerRepo}
}

func (s *customerService) CreateCustomer(ctx context.Context, name, email, phone, nationalID string) (*domain.Customer, error) {
	logger.EnterMethod("customerService.CreateCustomer", "email", email)

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.InvalidArgumentf("name is required")
	}
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.InvalidArgumentf("invalid email %q", email)
	}

	c := &domain.Customer{
		Name:       name,
		Email:      email,
		Phone:      strings.TrimSpace(phone),
		NationalID: strings.TrimSpace(nationalID),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.customerRepo.Create(ctx, c); err != nil {
		logger.ExitMethodWithError("customerService.CreateCustomer", err)
		return nil, internal(err)
	}

	logger.ExitMethod("customerService.CreateCustomer", "customerID", c.ID)
	return c, nil
}

func (s *customerService) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	c, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	return c, nil
}
