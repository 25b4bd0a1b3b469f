package domain

import "time"

// Product описывает товар каталога.
type Product struct {
	ID         int64
	Name       string
	Price      int64 // Цена хранится в минорных единицах (копейках)
	Stock      int64 // Доступный остаток, авторитетен только в БД
	IsActive   bool
	CategoryID int64
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

func NewProduct(name string, price int64, stock int64, categoryID int64) *Product {
	return &Product{
		Name:       name,
		Price:      price,
		Stock:      stock,
		IsActive:   true,
		CategoryID: categoryID,
	}
}
