package types

import (
	"encoding/hex"

	"github.com/google/uuid"
)

func shortID(prefix string, n int) string {
	id := uuid.New()
	return prefix + "-" + hex.EncodeToString(id[:])[:n]
}

// ID constructors for pipeline artifacts. Prefixes identify the artifact
// kind in logs and API payloads.
func NewDetectionID() string   { return shortID("det", 12) }
func NewExplanationID() string { return shortID("rca", 8) }
func NewPlanID() string        { return shortID("plan", 8) }
func NewActionID() string      { return shortID("act", 8) }
func NewPipelineID() string    { return shortID("pipeline", 12) }
