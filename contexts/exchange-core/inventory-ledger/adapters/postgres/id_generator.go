package postgresadapter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UUIDGenerator creates stable UUIDv4 identifiers for materials and audit rows.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// SystemClock provides wall-clock time for allocation timestamps.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
