package identity

import (
	"fmt"

	"github.com/google/uuid"
)

// UUIDGenerator implements pipeline.IDGenerator with random UUIDs.
type UUIDGenerator struct{}

// NewID returns a fresh v4 UUID string.
func (UUIDGenerator) NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return id.String(), nil
}
