package orders

type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

// forward is the linear fulfilment chain. Cancelled is not part of it: it is
// reachable from any non-terminal status as an administrative override.
var forward = []Status{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
}

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Next returns the status following cur in the forward chain. It fails with
// ErrInvalidOrFinalStatus when cur is unknown or terminal.
func Next(cur Status) (Status, error) {
	if cur.Terminal() {
		return "", ErrInvalidOrFinalStatus
	}
	for i, s := range forward {
		if s == cur {
			return forward[i+1], nil
		}
	}
	return "", ErrInvalidOrFinalStatus
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "Pending"
	PaymentCompleted PaymentStatus = "Completed"
	PaymentFailed    PaymentStatus = "Failed"
)
