package cart

import "time"

type Item struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Line is a cart entry joined with the live product row. It is the snapshot
// the order workflow prices and validates against.
type Line struct {
	ProductID  string `json:"productId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"priceCents"`
	Stock      int    `json:"stock"`
}

func (l Line) SubtotalCents() int64 { return l.PriceCents * int64(l.Quantity) }
