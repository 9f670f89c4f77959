package wells

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ppdmloader/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func surfaceAlpha() domain.SurfaceLocation {
	return domain.SurfaceLocation{
		API:        "12345678",
		WellName:   "ALPHA 1",
		Operator:   "SURFACE OPERATOR",
		FieldName:  "WATTENBERG",
		SpudDate:   ptr(time.Date(2019, 5, 2, 0, 0, 0, 0, time.UTC)),
		GroundElev: ptr(5012.0),
		MaxMD:      ptr(7500.0),
		Status:     "PR",
		StatusDate: ptr(time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC)),
		Latitude:   ptr(40.1),
		Longitude:  ptr(-104.9),
		Title:      "ALPHA 1 PAD",
	}
}

func wellByUWI(t *testing.T, r *Reconciliation, uwi string) domain.Well {
	t.Helper()
	for _, w := range r.Wells {
		if w.UWI == uwi {
			return w
		}
	}
	require.Failf(t, "well not found", "uwi %s", uwi)
	return domain.Well{}
}

func TestIdentifiers(t *testing.T) {
	assert.Equal(t, "051234567800", SurfaceUWI("12345678"))
	assert.Equal(t, "051234567801", BottomHoleUWI("1234567801"))
	assert.Equal(t, "0512300", SurfaceUWI("123"))
	assert.Equal(t, "05123", BottomHoleUWI("123"))
}

func TestReconcile_SurfaceOnly(t *testing.T) {
	r := Reconcile([]domain.SurfaceLocation{surfaceAlpha()}, nil, Limits{})

	require.Len(t, r.Wells, 1)
	w := r.Wells[0]
	assert.Equal(t, "051234567800", w.UWI)
	assert.Equal(t, "ALPHA 1", w.WellName)
	assert.Equal(t, "WATTENBERG", w.AssignedField)
	assert.Equal(t, DepthDatumGround, w.DepthDatum)
	assert.Equal(t, 5012.0, *w.GroundElev)
	assert.Equal(t, 5012.0, *w.DepthDatumElev)
	assert.Equal(t, 7500.0, *w.FinalTD)
	assert.Equal(t, "PR", w.CurrentStatus)
	assert.Equal(t, "ALPHA 1 PAD", w.Remark)
	assert.Nil(t, w.BottomHoleLatitude)
	assert.Nil(t, w.BottomHoleLongitude)
}

func TestReconcile_ExactMatchMerges(t *testing.T) {
	bh := domain.BottomHoleLocation{
		API:       "1234567800",
		WellName:  "ALPHA 1H",
		Operator:  "BH OPERATOR",
		Latitude:  ptr(40.0),
		Longitude: ptr(-104.5),
		MD:        ptr(8000.0),
	}

	r := Reconcile([]domain.SurfaceLocation{surfaceAlpha()}, []domain.BottomHoleLocation{bh}, Limits{})

	require.Len(t, r.Wells, 1)
	assert.Equal(t, 1, r.Merged)
	w := r.Wells[0]
	assert.Equal(t, "051234567800", w.UWI)
	assert.Equal(t, "ALPHA 1H", w.WellName)
	assert.Equal(t, "BH OPERATOR", w.Operator)
	assert.Equal(t, 40.0, *w.BottomHoleLatitude)
	assert.Equal(t, -104.5, *w.BottomHoleLongitude)
	assert.Equal(t, 8000.0, *w.FinalTD)
	// Surface attributes survive the merge.
	assert.Equal(t, 40.1, *w.SurfaceLatitude)
	assert.Equal(t, "WATTENBERG", w.AssignedField)
}

func TestReconcile_SidetrackInferred(t *testing.T) {
	bh := domain.BottomHoleLocation{
		API:       "1234567801",
		WellName:  "ALPHA 1 ST",
		Operator:  "BH OPERATOR",
		Latitude:  ptr(40.05),
		Longitude: ptr(-104.6),
		MD:        ptr(9100.0),
	}

	r := Reconcile([]domain.SurfaceLocation{surfaceAlpha()}, []domain.BottomHoleLocation{bh}, Limits{})

	require.Len(t, r.Wells, 2)
	assert.Equal(t, 1, r.Sidetracks)
	assert.Zero(t, r.Merged)

	parent := wellByUWI(t, r, "051234567800")
	assert.Equal(t, "ALPHA 1", parent.WellName, "parent must not be touched")
	assert.Equal(t, 7500.0, *parent.FinalTD)

	st := wellByUWI(t, r, "051234567801")
	assert.Equal(t, "ALPHA 1 ST", st.WellName)
	assert.Equal(t, "BH OPERATOR", st.Operator)
	assert.Equal(t, 9100.0, *st.FinalTD)
	assert.Equal(t, "ALPHA 1 PAD (sidetrack inferred)", st.Remark)
	assert.Equal(t, parent.AssignedField, st.AssignedField)
	assert.Equal(t, parent.SpudDate, st.SpudDate)
	assert.Equal(t, parent.GroundElev, st.GroundElev)
	assert.Equal(t, parent.DepthDatum, st.DepthDatum)
	assert.Equal(t, parent.CurrentStatus, st.CurrentStatus)
	assert.Equal(t, parent.CurrentStatusDate, st.CurrentStatusDate)
	assert.Equal(t, parent.SurfaceLatitude, st.SurfaceLatitude)
	assert.Equal(t, parent.SurfaceLongitude, st.SurfaceLongitude)
}

func TestReconcile_SidetrackRemarkKeepsMarker(t *testing.T) {
	tests := []struct {
		name   string
		remark string
		limit  int
		want   string
	}{
		{"no limit", "ABCDEFGHIJ", 0, "ABCDEFGHIJ (sidetrack inferred)"},
		{"fits", "ABCDEFGHIJ", 40, "ABCDEFGHIJ (sidetrack inferred)"},
		{"parent remark is cut", "ABCDEFGHIJ", 25, "ABCD (sidetrack inferred)"},
		{"marker fills the column", "ABCDEFGHIJ", 21, " (sidetrack inferred)"},
		{"column shorter than the marker", "ABCDEFGHIJ", 10, "(sidetrack"},
		{"parent remark fills the column", "ALPHA 1 PAD", 11, "(sidetrack"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			surface := surfaceAlpha()
			surface.Title = tt.remark
			bh := domain.BottomHoleLocation{API: "1234567801"}

			r := Reconcile([]domain.SurfaceLocation{surface}, []domain.BottomHoleLocation{bh}, Limits{Remark: tt.limit})

			st := wellByUWI(t, r, "051234567801")
			assert.Equal(t, tt.want, st.Remark)
			assert.NotEqual(t, wellByUWI(t, r, "051234567800").Remark, st.Remark)
			if tt.limit > 0 {
				assert.LessOrEqual(t, utf8.RuneCountInString(st.Remark), tt.limit)
			}
		})
	}
}

func TestReconcile_SidetrackNeverOverwrites(t *testing.T) {
	first := domain.BottomHoleLocation{API: "1234567801", WellName: "FIRST"}
	second := domain.BottomHoleLocation{API: "1234567801", WellName: "SECOND"}

	r := Reconcile([]domain.SurfaceLocation{surfaceAlpha()}, []domain.BottomHoleLocation{first, second}, Limits{})

	require.Len(t, r.Wells, 2)
	assert.Equal(t, 1, r.Sidetracks)
	assert.Equal(t, "FIRST", wellByUWI(t, r, "051234567801").WellName)
}

func TestReconcile_OrphanDropped(t *testing.T) {
	orphan := domain.BottomHoleLocation{API: "9999999901", WellName: "NOWHERE"}

	r := Reconcile([]domain.SurfaceLocation{surfaceAlpha()}, []domain.BottomHoleLocation{orphan}, Limits{})

	require.Len(t, r.Wells, 1)
	assert.Equal(t, []string{"059999999901"}, r.Orphans)
	for _, w := range r.Wells {
		assert.NotEqual(t, "059999999901", w.UWI)
	}
}

func TestReconcile_ShortIdentifiersNeverPrefixMatch(t *testing.T) {
	surface := []domain.SurfaceLocation{{API: "123", WellName: "SHORT"}}
	bh := []domain.BottomHoleLocation{{API: "123"}, {API: ""}}

	r := Reconcile(surface, bh, Limits{})

	require.Len(t, r.Wells, 1)
	assert.Equal(t, "0512300", r.Wells[0].UWI)
	assert.Equal(t, []string{"05123", "05"}, r.Orphans)
}

func TestReconcile_DuplicateSurfaceFirstWins(t *testing.T) {
	a := surfaceAlpha()
	b := surfaceAlpha()
	b.WellName = "DUPLICATE"

	r := Reconcile([]domain.SurfaceLocation{a, b}, nil, Limits{})

	require.Len(t, r.Wells, 1)
	assert.Equal(t, 1, r.DuplicateSurface)
	assert.Equal(t, "ALPHA 1", r.Wells[0].WellName)
}

func TestReconcile_SidetrackUsesFirstParentInInputOrder(t *testing.T) {
	first := surfaceAlpha()
	other := surfaceAlpha()
	// Same 10-character root, different completion digits.
	other.API = "1234567899"
	other.FieldName = "OTHER FIELD"
	first.FieldName = "FIRST FIELD"
	first.API = "1234567810"

	bh := domain.BottomHoleLocation{API: "1234567801"}
	r := Reconcile([]domain.SurfaceLocation{first, other}, []domain.BottomHoleLocation{bh}, Limits{})

	st := wellByUWI(t, r, "051234567801")
	assert.Equal(t, "FIRST FIELD", st.AssignedField)
}

func TestReconcile_UniqueIdentifiers(t *testing.T) {
	surface := []domain.SurfaceLocation{surfaceAlpha(), {API: "12345679"}, surfaceAlpha()}
	bh := []domain.BottomHoleLocation{
		{API: "1234567800"}, {API: "1234567801"}, {API: "1234567801"},
		{API: "1234567902"}, {API: "5555555500"},
	}

	r := Reconcile(surface, bh, Limits{})

	seen := map[string]bool{}
	for _, w := range r.Wells {
		assert.NotEmpty(t, w.UWI)
		assert.False(t, seen[w.UWI], "duplicate uwi %s", w.UWI)
		seen[w.UWI] = true
	}
	assert.Len(t, r.Wells, 4)
	assert.Equal(t, 1, r.Merged)
	assert.Equal(t, 2, r.Sidetracks)
	assert.Len(t, r.Orphans, 1)
}
