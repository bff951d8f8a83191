package merge

import "attest/internal/record/models"

// detectDiscrepancies recomputes the full discrepancy list for a record.
//
// For each field with at least two contributing documents it compares the
// normalized values; more than one distinct normalized value yields exactly
// one discrepancy carrying the distinct raw values in first-seen order and
// every contributing source. No winning value is chosen here; display-side
// tie-breaking is an external concern.
func detectDiscrepancies(record *models.EntityRecord, normalize Normalizer) []models.Discrepancy {
	var out []models.Discrepancy
	for _, field := range models.FieldsForRole(record.Key.Role) {
		if field.IsReference() {
			continue
		}
		prov, ok := record.Provenance(field)
		if !ok || prov.Len() < 2 {
			continue
		}
		if d, conflicting := fieldDiscrepancy(field, prov, normalize); conflicting {
			out = append(out, d)
		}
	}
	return out
}

func fieldDiscrepancy(field models.Field, prov *models.FieldProvenance[string], normalize Normalizer) (models.Discrepancy, bool) {
	normalized := make(map[string]struct{})
	rawSeen := make(map[string]struct{})
	var rawValues []string
	var sources []models.SourceRef

	for entry := range prov.Values() {
		normalized[normalize(field, entry.Value)] = struct{}{}
		if _, dup := rawSeen[entry.Value]; !dup {
			rawSeen[entry.Value] = struct{}{}
			rawValues = append(rawValues, entry.Value)
		}
		sources = append(sources, entry.Source)
	}

	if len(normalized) <= 1 {
		return models.Discrepancy{}, false
	}
	return models.Discrepancy{Field: field, Values: rawValues, Sources: sources}, true
}
