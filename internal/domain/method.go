package domain

import "strings"

// Allocation methods.
const (
	MethodSingle          = "single"
	MethodLearned         = "learned"
	MethodLearnedResidual = "learned_residual"
	MethodQuantityShare   = "quantity_share"
)

var methodLabels = map[string]string{
	MethodSingle:          "Single item",
	MethodLearned:         "Learned prices",
	MethodLearnedResidual: "Learned prices + residual",
	MethodQuantityShare:   "Quantity share",
}

// MethodLabel returns a human-readable label for an allocation method.
func MethodLabel(method string) string {
	if label, ok := methodLabels[method]; ok {
		return label
	}

	return "Unknown"
}

// ParseMethod returns the allocation method for a name (case-insensitive).
func ParseMethod(name string) (string, bool) {
	m := strings.ToLower(strings.TrimSpace(name))
	_, ok := methodLabels[m]

	return m, ok
}
