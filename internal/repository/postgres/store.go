package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"
	"github.com/storefront/order-service/internal/repository"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Store struct {
	db *sql.DB
	repositories
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, repositories: repositories{db: db}}
}

// EnsureSchema creates the tables and indexes if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("schema creation error: %w", err)
	}
	log.Println("Database schema ensured")
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("transaction begin error: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Printf("Transaction rollback error: %v", rbErr)
			}
		}
	}()

	if err = fn(repositories{db: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("transaction commit error: %w", err)
	}
	return nil
}

type repositories struct {
	db DBTX
}

func (r repositories) Orders() repository.OrderRepository {
	return NewOrderRepository(r.db)
}

func (r repositories) Timeline() repository.TimelineRepository {
	return NewTimelineRepository(r.db)
}

func (r repositories) Carts() repository.CartRepository {
	return NewCartRepository(r.db)
}

func (r repositories) Wishlists() repository.WishlistRepository {
	return NewWishlistRepository(r.db)
}

func (r repositories) Catalog() repository.CatalogRepository {
	return NewCatalogRepository(r.db)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
