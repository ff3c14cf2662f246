package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Zone picks the shipping tariff.
type Zone string

const (
	ZoneInsideDhaka  Zone = "inside-dhaka"
	ZoneOutsideDhaka Zone = "outside-dhaka"
)

func (z Zone) Valid() bool {
	return z == ZoneInsideDhaka || z == ZoneOutsideDhaka
}

type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Zone    Zone   `json:"zone"`
	Note    string `json:"note,omitempty"`
}

type Order struct {
	ID         string          `json:"id"`
	ExternalID string          `json:"externalId"`
	SessionID  string          `json:"-"`
	Customer   Customer        `json:"customer"`
	Status     Status          `json:"status"` // lihat status.go
	Subtotal   decimal.Decimal `json:"subtotal"`
	Shipping   decimal.Decimal `json:"shipping"`
	Total      decimal.Decimal `json:"total"`
	Items      []OrderItem     `json:"items"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type OrderItem struct {
	ID        int64             `json:"id"`
	ProductID string            `json:"productId"`
	VariantID string            `json:"variantId,omitempty"`
	Name      string            `json:"name"`
	Options   map[string]string `json:"options,omitempty"`
	Qty       int               `json:"qty"`
	UnitPrice decimal.Decimal   `json:"unitPrice"`
}

type Reservation struct {
	ID          int64
	OrderID     string
	OrderItemID int64
	ProductID   string
	VariantID   string
	Qty         int
	Status      string // RESERVED | RELEASED
	CreatedAt   time.Time
}
