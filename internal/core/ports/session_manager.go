package ports

import (
	"context"
	"time"
)

// SessionInfo describes a running tracking session.
type SessionInfo struct {
	ID          string
	OrderNumber string
	Endpoint    string
	StartedAt   time.Time
}

// SessionManager starts and stops tracking sessions by order number.
type SessionManager interface {
	Start(ctx context.Context, orderNumber string) (*SessionInfo, error)
	Stop(orderNumber string) error
	List() []SessionInfo
}
