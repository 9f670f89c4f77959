package wells

import (
	"strings"
	"unicode/utf8"

	"ppdmloader/internal/domain"
)

const (
	// statePrefix is Colorado's state code, prefixed to every API number.
	statePrefix   = "05"
	surfaceSuffix = "00"

	// DepthDatumGround is the datum every published elevation refers to.
	DepthDatumGround = "GR"

	// parentPrefixLen is the length of the identifier root shared by a
	// wellbore and its sidetracks.
	parentPrefixLen = 10
)

// SurfaceUWI builds the identifier of a surface location.
func SurfaceUWI(api string) string { return statePrefix + api + surfaceSuffix }

// BottomHoleUWI builds the identifier of a bottom-hole location. It carries
// no completion suffix, so it matches a surface UWI exactly only when the
// bottom-hole API already ends in that suffix.
func BottomHoleUWI(api string) string { return statePrefix + api }

// Reconciliation is the outcome of merging the two datasets.
type Reconciliation struct {
	// Wells holds surface wells in input order followed by inferred
	// sidetracks in bottom-hole order. Every UWI appears once.
	Wells []domain.Well

	Merged     int
	Sidetracks int
	// Orphans are the UWIs of bottom-hole locations matching no surface well.
	Orphans []string
	// DuplicateSurface counts surface rows whose UWI was already taken.
	DuplicateSurface int
}

// Reconcile builds one well per surface location, then folds the
// bottom-hole locations in. An exact UWI match overwrites the well's name,
// operator and total depth and sets its bottom-hole coordinates. Otherwise
// a surface well sharing the 10-character identifier root yields a new
// sidetrack well. Anything else is an orphan and is dropped.
//
// The surface pass completes before any bottom-hole location is matched.
// A sidetrack remark always carries the sidetrack marker; see sidetrackRemark.
func Reconcile(surface []domain.SurfaceLocation, bottomHole []domain.BottomHoleLocation, lim Limits) *Reconciliation {
	out := &Reconciliation{Wells: make([]domain.Well, 0, len(surface))}

	byUWI := make(map[string]int, len(surface))
	byRoot := make(map[string]int, len(surface))
	for _, s := range surface {
		uwi := SurfaceUWI(s.API)
		if _, dup := byUWI[uwi]; dup {
			out.DuplicateSurface++
			continue
		}
		idx := len(out.Wells)
		byUWI[uwi] = idx
		if len(uwi) >= parentPrefixLen {
			root := uwi[:parentPrefixLen]
			if _, seen := byRoot[root]; !seen {
				byRoot[root] = idx
			}
		}
		out.Wells = append(out.Wells, surfaceWell(s, uwi, lim))
	}

	sidetracks := make(map[string]struct{})
	for _, b := range bottomHole {
		uwi := BottomHoleUWI(b.API)

		if idx, ok := byUWI[uwi]; ok {
			mergeBottomHole(&out.Wells[idx], b)
			out.Merged++
			continue
		}

		parent, ok := parentOf(byRoot, uwi)
		if !ok {
			out.Orphans = append(out.Orphans, uwi)
			continue
		}
		if _, taken := sidetracks[uwi]; taken {
			continue
		}
		sidetracks[uwi] = struct{}{}
		out.Wells = append(out.Wells, sidetrackWell(out.Wells[parent], b, uwi, lim))
		out.Sidetracks++
	}

	return out
}

// parentOf finds the first surface well sharing uwi's identifier root.
// Identifiers shorter than the root never match.
func parentOf(byRoot map[string]int, uwi string) (int, bool) {
	if len(uwi) < parentPrefixLen {
		return 0, false
	}
	idx, ok := byRoot[uwi[:parentPrefixLen]]
	return idx, ok
}

func surfaceWell(s domain.SurfaceLocation, uwi string, lim Limits) domain.Well {
	return domain.Well{
		UWI:               uwi,
		WellName:          s.WellName,
		Operator:          s.Operator,
		AssignedField:     s.FieldName,
		SpudDate:          s.SpudDate,
		GroundElev:        s.GroundElev,
		DepthDatum:        truncate(DepthDatumGround, lim.DepthDatum),
		DepthDatumElev:    s.GroundElev,
		FinalTD:           s.MaxMD,
		CurrentStatus:     s.Status,
		CurrentStatusDate: s.StatusDate,
		SurfaceLongitude:  s.Longitude,
		SurfaceLatitude:   s.Latitude,
		Remark:            s.Title,
	}
}

func mergeBottomHole(w *domain.Well, b domain.BottomHoleLocation) {
	w.WellName = b.WellName
	w.Operator = b.Operator
	w.FinalTD = b.MD
	w.BottomHoleLatitude = b.Latitude
	w.BottomHoleLongitude = b.Longitude
}

func sidetrackWell(parent domain.Well, b domain.BottomHoleLocation, uwi string, lim Limits) domain.Well {
	w := parent
	w.UWI = uwi
	w.WellName = b.WellName
	w.Operator = b.Operator
	w.FinalTD = b.MD
	w.BottomHoleLatitude = b.Latitude
	w.BottomHoleLongitude = b.Longitude
	w.Remark = sidetrackRemark(parent.Remark, lim.Remark)
	return w
}

// sidetrackRemark appends the sidetrack marker to the parent remark, cutting
// the parent remark so the marker fits in maxLen. A column too short for the
// whole marker holds the marker alone, cut to maxLen.
func sidetrackRemark(parent string, maxLen int) string {
	marker := domain.SidetrackRemark
	if maxLen <= 0 {
		return parent + marker
	}
	room := maxLen - utf8.RuneCountInString(marker)
	if room < 0 {
		return strings.TrimSpace(truncate(strings.TrimSpace(marker), maxLen))
	}
	return truncate(parent, room) + marker
}
