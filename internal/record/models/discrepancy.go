package models

// Discrepancy records a disagreement between document sources on one field.
//
// Values are the distinct raw values in first-seen order; Sources lists every
// contributing document. The detector only flags disagreement; it never picks
// a winning value.
//
// The discrepancy list on a record is derived state: it is recomputed in full
// on every merge, never accumulated, so re-merging the same documents cannot
// produce stale or duplicate entries.
type Discrepancy struct {
	Field   Field       `json:"field"`
	Values  []string    `json:"values"`
	Sources []SourceRef `json:"sources"`
}
