package report

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}

// ScopeKey identifies a set of companies independent of order.
// Short sets are spelled out, larger ones are hashed.
func ScopeKey(ids []uuid.UUID) string {
	sorted := make([]uuid.UUID, len(ids))
	copy(sorted, ids)
	sortIDs(sorted)
	if len(sorted) <= 3 {
		parts := make([]string, len(sorted))
		for i, id := range sorted {
			parts[i] = id.String()
		}
		return strings.Join(parts, ",")
	}
	var b strings.Builder
	for _, id := range sorted {
		b.WriteString(id.String())
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(b.String())).String()
}
