/*

Operation receipts record every attempted state-changing operation, successful
or not. They are persisted by the state store and served by the web API.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
)

type OperationStatus string

const (
	StatusSuccess OperationStatus = "success"
	StatusFailed  OperationStatus = "failed"
)

type OperationReceipt struct {
	ID         uuid.UUID           `json:"id"`
	Kind       OperationKind       `json:"kind"`
	PoolID     PoolID              `json:"pool_id"`
	Who        ActorID             `json:"who"`
	Status     OperationStatus     `json:"status"`
	Error      string              `json:"error,omitempty"`
	Inputs     []sdkmath.LegacyDec `json:"inputs"`  // amounts sent by the caller
	Outputs    []sdkmath.LegacyDec `json:"outputs"` // amounts minted or paid out
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
}

// Duration is the wall time the operation took, guard wait included.
func (r OperationReceipt) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
