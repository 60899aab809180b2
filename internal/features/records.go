package features

import (
	"github.com/google/uuid"
)

// ActivityRecord is the canonical click-weight representation every raw
// activity source is mapped into. Records are ephemeral: they exist only for
// the duration of one feature calculation and are never persisted.
type ActivityRecord struct {
	EnrollmentID uuid.UUID
	// DayOffset is whole days since term start. Negative offsets mark
	// pre-term activity and are preserved downstream.
	DayOffset int
	// SiteID identifies the resource, assessment or attendance row the
	// activity touched.
	SiteID string
	// Weight is the non-negative click weight of the event.
	Weight int
}
