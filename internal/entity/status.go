package entity

// OrderStatus enumerates the order lifecycle.
type OrderStatus string

const (
	// StatusPendingConfirmation means the order is placed but still editable
	// by the customer; the grace-period timer may be running.
	StatusPendingConfirmation OrderStatus = "PENDING_CONFIRMATION"
	// StatusPending means the order is finalized and visible to the kitchen.
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusPreparing OrderStatus = "PREPARING"
	StatusReady     OrderStatus = "READY"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCancelled OrderStatus = "CANCELLED"
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusPendingConfirmation: {StatusPending, StatusCancelled},
	StatusPending:             {StatusConfirmed, StatusCancelled},
	StatusConfirmed:           {StatusPreparing, StatusCancelled},
	StatusPreparing:           {StatusReady, StatusCancelled},
	StatusReady:               {StatusDelivered, StatusCancelled},
}

// Valid reports whether s is a known lifecycle status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPendingConfirmation, StatusPending, StatusConfirmed,
		StatusPreparing, StatusReady, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the lifecycle permits moving from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions exist from s.
func (s OrderStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

func (s OrderStatus) String() string { return string(s) }
