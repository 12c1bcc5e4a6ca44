package emotion

// contaminationLabels is the fixed set of non-emotion strings known to leak
// into emotion fields from channel/context tagging paths. Contaminated
// labels are dropped from consideration entirely, never remapped to a
// neutral placeholder: masking to neutral would propagate false signal.
var contaminationLabels = map[string]struct{}{
	"general_conversation": {},
	"direct_message":       {},
	"group_chat":           {},
	"context":              {},
	"conversation":         {},
	"general":              {},
	"channel":              {},
	"system":               {},
	"unknown":              {},
}

// Contaminated reports whether label belongs to the contamination set.
func Contaminated(label string) bool {
	_, ok := contaminationLabels[label]
	return ok
}
