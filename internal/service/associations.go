package service

import (
	"fmt"

	"fleetops/internal/model"

	"github.com/google/uuid"
)

// associationSet holds the normalized (deduplicated) association ids for one
// expense. The three slices are sets: input order is preserved but duplicates
// collapse silently.
type associationSet struct {
	TruckIDs  []uuid.UUID
	TripIDs   []uuid.UUID
	DriverIDs []uuid.UUID
}

func (a associationSet) empty() bool {
	return len(a.TruckIDs) == 0 && len(a.TripIDs) == 0 && len(a.DriverIDs) == 0
}

// validateAssociations classifies the legal association shape for a
// (category, business-flag, proposed associations) tuple:
//   - business expenses must not carry any truck/trip/driver association,
//   - operational expenses must carry at least one,
//   - each non-empty set requires the matching category capability flag.
//
// On success the returned sets are deduplicated copies of the input.
func validateAssociations(category *model.ExpenseCategory, isBusinessExpense bool, truckIDs, tripIDs, driverIDs []uuid.UUID) (associationSet, error) {
	set := associationSet{
		TruckIDs:  dedupe(truckIDs),
		TripIDs:   dedupe(tripIDs),
		DriverIDs: dedupe(driverIDs),
	}

	if isBusinessExpense {
		if !set.empty() {
			return associationSet{}, invalidAssociation("associations",
				"a business expense cannot be linked to trucks, trips or drivers")
		}
		return set, nil
	}

	if set.empty() {
		return associationSet{}, missingAssociation(
			"an operational expense must be linked to at least one truck, trip or driver")
	}

	if len(set.TruckIDs) > 0 && !category.IsTruck {
		return associationSet{}, unsupportedAssociation("truck_ids",
			fmt.Sprintf("category %q does not allow truck associations", category.Name))
	}
	if len(set.TripIDs) > 0 && !category.IsTrip {
		return associationSet{}, unsupportedAssociation("trip_ids",
			fmt.Sprintf("category %q does not allow trip associations", category.Name))
	}
	if len(set.DriverIDs) > 0 && !category.IsDriver {
		return associationSet{}, unsupportedAssociation("driver_ids",
			fmt.Sprintf("category %q does not allow driver associations", category.Name))
	}

	return set, nil
}

// dedupe collapses duplicate ids keeping first-seen order
func dedupe(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// parseIDList converts the string ids a handler binds into uuids, naming the
// offending field on failure.
func parseIDList(field string, raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, &ValidationError{Code: CodeInvalidAssociation, Field: field, Message: "invalid id: " + s}
		}
		out = append(out, id)
	}
	return out, nil
}
