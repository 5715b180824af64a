package traceRecords

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// PathSegments splits a path id on "_" and "." into its raw segments. The root id ""
// has no segments.
func PathSegments(pathId string) []string {
	if pathId == "" {
		return []string{}
	}
	return strings.FieldsFunc(pathId, func(r rune) bool {
		return r == '_' || r == '.'
	})
}

// ParentPathId drops the last segment of a path id, including its separator.
// The parent of a single-segment id is the root "".
func ParentPathId(pathId string) (string, bool) {
	if pathId == "" {
		return "", false
	}
	idx := strings.LastIndexAny(pathId, "_.")
	if idx < 0 {
		return "", true
	}
	return pathId[:idx], true
}

// pathKey is the numeric sort key of a path id; non-numeric segments sort after every number.
func pathKey(pathId string) []float64 {
	segments := PathSegments(pathId)
	key := make([]float64, len(segments))
	for i, s := range segments {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			key[i] = math.Inf(1)
			continue
		}
		key[i] = float64(n)
	}
	return key
}

// ComparePathIds orders path ids as integer tuples, a shorter prefix first.
func ComparePathIds(a, b string) int {
	ka, kb := pathKey(a), pathKey(b)
	for i := 0; i < len(ka) && i < len(kb); i++ {
		if ka[i] < kb[i] {
			return -1
		}
		if ka[i] > kb[i] {
			return 1
		}
	}
	switch {
	case len(ka) < len(kb):
		return -1
	case len(ka) > len(kb):
		return 1
	}
	return 0
}

// SortCalls orders calls by path id. Calls with equal keys keep their input order.
func SortCalls(calls []*CallRecord) {
	sort.SliceStable(calls, func(i, j int) bool {
		return ComparePathIds(calls[i].PathId, calls[j].PathId) < 0
	})
}
