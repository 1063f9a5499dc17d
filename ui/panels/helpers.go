package panels

import (
	"fmt"
	"sort"
	"strings"

	"floorplan-editor/internal/calibration"
	"floorplan-editor/internal/region"
)

// CalibrationHint describes the next calibration step for the status bar.
func CalibrationHint(s *calibration.Session) string {
	if s == nil {
		return ""
	}
	if lm, ok := s.Landmark(s.Step()); ok {
		return fmt.Sprintf("Calibration %d/%d: click the center of %s", s.Step(), calibration.Steps, lm.Label())
	}
	return fmt.Sprintf("Calibrated (%s). Use arrow keys to fine-tune, then Apply.", s.Transform())
}

// sortRegions returns the regions ordered by code, numbers compared
// numerically, then by name.
func sortRegions(list region.List) region.List {
	out := list.Clone()
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return naturalLess(out[i].Code, out[j].Code)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// filterRegions keeps regions whose code, name or category contains query,
// ignoring case.
func filterRegions(list region.List, query string) region.List {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list
	}
	var out region.List
	for _, r := range list {
		if strings.Contains(strings.ToLower(r.Code), query) ||
			strings.Contains(strings.ToLower(r.Name), query) ||
			strings.Contains(string(r.Category), query) {
			out = append(out, r)
		}
	}
	return out
}

// naturalLess compares two strings using natural numeric ordering.
// "A2" < "A10", "C101" < "C102" < "C1010", etc.
func naturalLess(a, b string) bool {
	chunksA := splitNatural(a)
	chunksB := splitNatural(b)
	for i := 0; i < len(chunksA) && i < len(chunksB); i++ {
		ca, cb := chunksA[i], chunksB[i]
		if isNumeric(ca) && isNumeric(cb) {
			na := parseNum(ca)
			nb := parseNum(cb)
			if na != nb {
				return na < nb
			}
		} else {
			cmp := strings.Compare(strings.ToUpper(ca), strings.ToUpper(cb))
			if cmp != 0 {
				return cmp < 0
			}
		}
	}
	return len(chunksA) < len(chunksB)
}

func splitNatural(s string) []string {
	var chunks []string
	var current strings.Builder
	wasDigit := false
	for i, r := range s {
		isDigit := r >= '0' && r <= '9'
		if i > 0 && isDigit != wasDigit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		current.WriteRune(r)
		wasDigit = isDigit
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func parseNum(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n = n*10 + int(r-'0')
		}
	}
	return n
}
