package sender

import (
	"context"

	"github.com/monify-labs/linuxmon/pkg/models"
)

// Sender is the interface for pushing a snapshot to a server
type Sender interface {
	// Send sends a snapshot to the server
	Send(ctx context.Context, snapshot *models.Snapshot) (*models.ServerResponse, error)

	// Close closes the sender and releases resources
	Close() error
}
