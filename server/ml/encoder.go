package ml

import (
	"fmt"
	"sort"
)

// LabelEncoder maps categorical string values to integer codes. Codes are
// assigned over the sorted distinct values seen at fit time; the vocabulary
// is closed after that.
type LabelEncoder struct {
	Classes []string
}

func (e *LabelEncoder) Fit(values []string) {
	seen := make(map[string]bool, len(values))
	e.Classes = e.Classes[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			e.Classes = append(e.Classes, v)
		}
	}
	sort.Strings(e.Classes)
}

// Code returns the integer code for value, and whether the value was part
// of the fitted vocabulary.
func (e *LabelEncoder) Code(value string) (int, bool) {
	i := sort.SearchStrings(e.Classes, value)
	if i < len(e.Classes) && e.Classes[i] == value {
		return i, true
	}
	return 0, false
}

// Encoders is the per-column label encoder map persisted with the artifacts.
type Encoders map[string]*LabelEncoder

// MustCode fails on values outside the fitted vocabulary; the trainer uses
// it because every training value is by construction in vocabulary.
func (enc Encoders) MustCode(column, value string) (int, error) {
	e, ok := enc[column]
	if !ok {
		return 0, fmt.Errorf("no encoder fitted for column %q", column)
	}
	code, ok := e.Code(value)
	if !ok {
		return 0, fmt.Errorf("value %q not in vocabulary of column %q", value, column)
	}
	return code, nil
}

// CodeOrDefault maps out-of-vocabulary values to code 0. The inference path
// uses it: runtime city/state names are not guaranteed to be in the closed
// synthetic vocabulary.
func (enc Encoders) CodeOrDefault(column, value string) int {
	e, ok := enc[column]
	if !ok {
		return 0
	}
	code, _ := e.Code(value)
	return code
}
