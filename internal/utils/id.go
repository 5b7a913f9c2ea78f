package utils

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewID returns a fresh connection identifier. Every connection gets a new
// one, so reconnecting clients never inherit an old presence entry.
func NewID() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}

	// Fallback to timestamp if the random source is unavailable.
	return "conn-" + strconv.FormatInt(time.Now().UnixNano(), 36)
}
