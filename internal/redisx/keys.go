package redisx

import "time"

const (
	// Idempotency mirror for order placement: idem:order:place:{payment_intent_id} -> order_id.
	// The orders.payment_id unique index is the source of truth; this only
	// short-circuits obvious replays.
	KeyIdemOrderPlace = "idem:order:place:%s"

	// Order status cache: order_status:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup for event consumers: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
