// Package lowstock watches inventory levels and raises stock.low events.
package lowstock

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/swiftcart/backend/internal/catalog"
	kafkax "github.com/swiftcart/backend/internal/kafka"
	"github.com/swiftcart/backend/internal/orders"
)

// Watcher periodically scans the catalog for products at or below the buffer
// limit and publishes one stock.low event per scan.
type Watcher struct {
	Catalog  *catalog.Repo
	Producer *kafkax.Producer
	Buffer   int
	Every    time.Duration
	Service  string
	Log      *zap.Logger
}

func (w *Watcher) Run(ctx context.Context) error {
	t := time.NewTicker(w.Every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if err := w.scan(ctx); err != nil {
				w.Log.Error("low stock scan", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) scan(ctx context.Context) error {
	low, err := w.Catalog.LowStock(ctx, w.Buffer)
	if err != nil {
		return err
	}
	if len(low) == 0 {
		return nil
	}
	w.Log.Warn("products below buffer stock", zap.Int("count", len(low)))
	publishStockLow(w.Producer, w.Service, low)
	return nil
}

func publishStockLow(p *kafkax.Producer, producer string, low []catalog.StockLevel) {
	ev := orders.Envelope{
		EventID:      uuid.NewString(),
		EventType:    orders.EventStockLow,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     producer,
		Payload:      kafkax.MustMarshal(orders.StockLowPayload{Products: low}),
	}
	p.Publish([]byte(orders.EventStockLow), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventStockLow)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
