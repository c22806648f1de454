// Package species manages the registry of custom species labels that
// extend the fixed animal-type enumeration.
package species

import (
	"time"

	"github.com/google/uuid"
)

// CustomSpecies is a registered custom species label.
type CustomSpecies struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}
