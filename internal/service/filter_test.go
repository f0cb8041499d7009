package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"Redrow_Exposed/internal/model"
)

func sampleEvidence() []model.Evidence {
	return []model.Evidence{
		{ID: 1, Title: "Cracked render", Category: "Structural", Severity: "high", Development: "Oakwood Park"},
		{ID: 2, Title: "Leaking roof", Description: "Water through the ceiling", Category: "Roofing", Severity: "critical"},
		{ID: 3, Title: "Loose tiles", Category: "roofing", Severity: "low", Location: "Kitchen"},
		{ID: 4, Title: "Straße drainage", Category: "Drainage", Severity: "medium"},
	}
}

func ids(list []model.Evidence) []uint64 {
	out := []uint64{}
	for _, e := range list {
		out = append(out, e.ID)
	}
	return out
}

func TestApplyFilter(t *testing.T) {
	items := sampleEvidence()

	tests := []struct {
		name string
		f    Filter
		want []uint64
	}{
		{"empty matches all", Filter{}, []uint64{1, 2, 3, 4}},
		{"all keyword", Filter{Category: "all", Severity: "All"}, []uint64{1, 2, 3, 4}},
		{"search title case-insensitive", Filter{Search: "ROOF"}, []uint64{2}},
		{"search description", Filter{Search: "ceiling"}, []uint64{2}},
		{"search location and development", Filter{Search: "oakwood"}, []uint64{1}},
		{"search case folding", Filter{Search: "STRASSE"}, []uint64{4}},
		{"category case-insensitive exact", Filter{Category: "Roofing"}, []uint64{2, 3}},
		{"severity exact", Filter{Severity: "low"}, []uint64{3}},
		{"no match", Filter{Search: "asbestos"}, []uint64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(ApplyFilter(items, tt.f, evidenceFields)))
		})
	}
}

func TestApplyFilter_CompositionIsIntersection(t *testing.T) {
	items := sampleEvidence()
	search := Filter{Search: "o"}
	category := Filter{Category: "roofing"}
	severity := Filter{Severity: "critical"}
	combined := Filter{Search: "o", Category: "roofing", Severity: "critical"}

	alone := func(f Filter) map[uint64]bool {
		m := map[uint64]bool{}
		for _, e := range ApplyFilter(items, f, evidenceFields) {
			m[e.ID] = true
		}
		return m
	}
	s, c, v := alone(search), alone(category), alone(severity)

	var want []uint64
	for _, e := range items {
		if s[e.ID] && c[e.ID] && v[e.ID] {
			want = append(want, e.ID)
		}
	}
	assert.Equal(t, want, ids(ApplyFilter(items, combined, evidenceFields)))
	assert.Equal(t, []uint64{2}, want)
}
