package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"wallet-ledger-service/internal/domain"
	"wallet-ledger-service/internal/logger"
	"wallet-ledger-service/internal/repository"
)

type customerRepository struct {
	db *sql.DB
}

func NewCustomerRepository(db *sql.DB) repository.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, c *domain.Customer) error {
	query := `INSERT INTO customers (name, email, phone_number, national_id, created_at)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id`
	logger.DatabaseCall("INSERT", "customers", "email", c.Email)

	err := r.db.QueryRowContext(ctx, query, c.Name, c.Email, c.Phone, c.NationalID, c.CreatedAt).Scan(&c.ID)
	logger.DatabaseResult("INSERT", 1, err, "customerID", c.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: customer with email %s", domain.ErrDuplicateResource, c.Email)
	}
	return err
}

func (r *customerRepository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	query := `SELECT id, name, email, COALESCE(phone_number, ''), COALESCE(national_id, ''), created_at
	          FROM customers WHERE id = $1`
	var c domain.Customer
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.NationalID, &c.CreatedAt)
	if err != nil {
		return nil, notFound(err, "customer %d", id)
	}
	return &c, nil
}
