package lowstock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/swiftcart/backend/internal/catalog"
	kafkax "github.com/swiftcart/backend/internal/kafka"
	"github.com/swiftcart/backend/internal/orders"
	"github.com/swiftcart/backend/internal/redisx"
)

// Monitor consumes order.placed events and raises stock.low as soon as a
// purchase drags a product under the buffer, instead of waiting for the next
// periodic scan.
type Monitor struct {
	Catalog  *catalog.Repo
	Redis    *redis.Client
	Producer *kafkax.Producer
	Buffer   int
	Service  string
	Log      *zap.Logger
}

// HandleOrderPlaced is wired as the Kafka consumer handler.
func (m *Monitor) HandleOrderPlaced(ctx context.Context, msg kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderPlaced {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, "lowstock", env.EventID)
	if seen, _ := redisx.Exists(ctx, m.Redis, dkey); seen {
		return nil
	}
	_ = m.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	if err != nil {
		return err
	}

	var low []catalog.StockLevel
	for _, it := range p.Items {
		prod, err := m.Catalog.ProductByID(ctx, it.ProductID)
		if err != nil {
			m.Log.Warn("product lookup", zap.String("product_id", it.ProductID), zap.Error(err))
			continue
		}
		if prod.Stock <= m.Buffer {
			low = append(low, catalog.StockLevel{
				ProductID: prod.ID,
				Name:      prod.Name,
				Stock:     prod.Stock,
				Buffer:    m.Buffer,
			})
		}
	}
	if len(low) == 0 {
		return nil
	}

	m.Log.Warn("order dropped products below buffer",
		zap.String("order_id", p.OrderID),
		zap.Int("count", len(low)),
	)
	publishStockLow(m.Producer, m.Service, low)
	return nil
}
