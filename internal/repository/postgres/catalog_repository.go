package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/storefront/order-service/internal/domain"
)

type CatalogRepository struct {
	db DBTX
}

func NewCatalogRepository(db DBTX) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) FindProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT id, name, price, availability FROM products WHERE id = $1`

	product := &domain.Product{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.Name,
		&product.Price,
		&product.Available,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("product not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("product receive error: %w", err)
	}
	return product, nil
}

func (r *CatalogRepository) FindPaymentMethodByID(ctx context.Context, id int64) (*domain.PaymentMethod, error) {
	query := `SELECT id, name, description, active FROM payment_methods WHERE id = $1`

	method := &domain.PaymentMethod{}
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(&method.ID, &method.Name, &description, &method.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("payment method not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("payment method receive error: %w", err)
	}
	method.Description = description.String
	return method, nil
}

func (r *CatalogRepository) FindAddressByID(ctx context.Context, id int64) (*domain.Address, error) {
	query := `
		SELECT id, user_id, name, phone, address, ward, district, province, is_default
		FROM addresses
		WHERE id = $1
	`

	address := &domain.Address{}
	var ward, district, province sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&address.ID,
		&address.UserID,
		&address.Name,
		&address.Phone,
		&address.Line,
		&ward,
		&district,
		&province,
		&address.IsDefault,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound("address not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("address receive error: %w", err)
	}
	address.Ward = ward.String
	address.District = district.String
	address.Province = province.String
	return address, nil
}
