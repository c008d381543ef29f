package orders

import (
	"time"

	"github.com/google/uuid"
)

// Line is one product/quantity pair with the unit price captured at purchase
// time. The price is never re-read from the catalog after commit.
type Line struct {
	ProductID  string `json:"productId"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"priceAtPurchaseCents"`
}

type Order struct {
	// ID is the storage key; OrderID is the human-readable identifier
	// exposed to clients.
	ID            string        `json:"id"`
	OrderID       string        `json:"orderId"`
	UserID        string        `json:"userId"`
	PaymentID     string        `json:"paymentId"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	Lines         []Line        `json:"products"`
	DeliveryAddr  string        `json:"deliveryAddress"`
	TotalCents    int64         `json:"totalCents"`
	Status        Status        `json:"orderStatus"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// NewOrderID generates the client-facing order identifier. Random source, so
// collisions are negligible and the id carries no counter information.
func NewOrderID() string {
	return "ORD-" + uuid.NewString()[:8]
}
