package booking

import (
	"math"
	"strings"
)

// NormalizeSeats trims every label and rejects empty input, blank labels
// and labels requested twice.  Order is preserved.
func NormalizeSeats(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, validationf("at least one seat is required")
	}
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, s := range raw {
		label := strings.TrimSpace(s)
		if label == "" {
			return nil, validationf("seat labels must not be blank")
		}
		if _, dup := seen[label]; dup {
			return nil, validationf("seat %q requested more than once", label)
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out, nil
}

// Union appends to base every label of extra it does not already contain.
// It returns the merged list and the labels that were new.
func Union(base, extra []string) (merged, added []string) {
	have := seatSet(base)
	merged = append(make([]string, 0, len(base)+len(extra)), base...)
	for _, s := range extra {
		if _, ok := have[s]; ok {
			continue
		}
		have[s] = struct{}{}
		merged = append(merged, s)
		added = append(added, s)
	}
	return merged, added
}

func seatSet(labels []string) map[string]struct{} {
	m := make(map[string]struct{}, len(labels))
	for _, s := range labels {
		m[s] = struct{}{}
	}
	return m
}

// TotalPrice is seats × price in cents.  A total that does not fit the
// price column is a validation error.
func TotalPrice(seats int, priceCents uint32) (uint32, error) {
	total := uint64(seats) * uint64(priceCents)
	if seats < 0 || total > math.MaxUint32 {
		return 0, validationf("total price of %d seat(s) at %d cents exceeds the limit", seats, priceCents)
	}
	return uint32(total), nil
}
