package domain

import "github.com/shopspring/decimal"

// Catalog records are owned elsewhere; this service only reads them.

type Product struct {
	ID        int64           `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Available bool            `json:"availability" db:"availability"`
}

type PaymentMethod struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Description string `json:"description,omitempty" db:"description"`
	Active      bool   `json:"active" db:"active"`
}

type Address struct {
	ID        int64  `json:"id" db:"id"`
	UserID    int64  `json:"userId" db:"user_id"`
	Name      string `json:"name" db:"name"`
	Phone     string `json:"phone" db:"phone"`
	Line      string `json:"address" db:"address"`
	Ward      string `json:"ward,omitempty" db:"ward"`
	District  string `json:"district,omitempty" db:"district"`
	Province  string `json:"province,omitempty" db:"province"`
	IsDefault bool   `json:"isDefault" db:"is_default"`
}
