package wells

import (
	"time"

	"ppdmloader/internal/domain"
	"ppdmloader/internal/etl"
)

// Surface dataset attribute names.
const (
	FieldAPI        = "API"
	FieldOperator   = "Operator"
	FieldWellName   = "Well_Name"
	FieldFieldName  = "Field_Name"
	FieldSpudDate   = "Spud_Date"
	FieldGroundElev = "Ground_Ele"
	FieldMaxMD      = "Max_MD"
	FieldFacilStat  = "Facil_Stat"
	FieldStatDate   = "Stat_Date"
	FieldLatitude   = "Latitude"
	FieldLongitude  = "Longitude"
	FieldWellTitle  = "Well_Title"
)

// Bottom-hole dataset attribute names not shared with the surface dataset.
const (
	FieldBHLatitude  = "Lat"
	FieldBHLongitude = "Long"
	FieldMD          = "MD"
)

// SurfaceFields lists the attributes read from the surface dataset.
var SurfaceFields = []string{
	FieldAPI, FieldOperator, FieldWellName, FieldFieldName, FieldSpudDate, FieldGroundElev,
	FieldMaxMD, FieldFacilStat, FieldStatDate, FieldLatitude, FieldLongitude, FieldWellTitle,
}

// BottomHoleFields lists the attributes read from the bottom-hole dataset.
var BottomHoleFields = []string{
	FieldAPI, FieldOperator, FieldWellName, FieldBHLatitude, FieldBHLongitude, FieldMD,
}

// SurfaceFromRecord maps one surface dataset row and normalizes each text
// attribute against its own limit. The API number is trimmed, never cut.
func SurfaceFromRecord(rec etl.Record, lim Limits) domain.SurfaceLocation {
	return domain.SurfaceLocation{
		API:        Normalize(text(rec, FieldAPI), 0),
		WellName:   Normalize(text(rec, FieldWellName), lim.WellName),
		Operator:   Normalize(text(rec, FieldOperator), lim.Operator),
		FieldName:  Normalize(text(rec, FieldFieldName), lim.AssignedField),
		SpudDate:   date(rec, FieldSpudDate),
		GroundElev: float(rec, FieldGroundElev),
		MaxMD:      float(rec, FieldMaxMD),
		Status:     Normalize(text(rec, FieldFacilStat), lim.CurrentStatus),
		StatusDate: date(rec, FieldStatDate),
		Latitude:   float(rec, FieldLatitude),
		Longitude:  float(rec, FieldLongitude),
		Title:      Normalize(text(rec, FieldWellTitle), lim.Remark),
	}
}

// BottomHoleFromRecord maps one bottom-hole dataset row.
func BottomHoleFromRecord(rec etl.Record, lim Limits) domain.BottomHoleLocation {
	return domain.BottomHoleLocation{
		API:       Normalize(text(rec, FieldAPI), 0),
		WellName:  Normalize(text(rec, FieldWellName), lim.WellName),
		Operator:  Normalize(text(rec, FieldOperator), lim.Operator),
		Latitude:  float(rec, FieldBHLatitude),
		Longitude: float(rec, FieldBHLongitude),
		MD:        float(rec, FieldMD),
	}
}

func text(rec etl.Record, name string) string {
	s, _ := rec.String(name)
	return s
}

func float(rec etl.Record, name string) *float64 {
	if f, ok := rec.Float(name); ok {
		return &f
	}
	return nil
}

func date(rec etl.Record, name string) *time.Time {
	if t, ok := rec.Date(name); ok {
		return &t
	}
	return nil
}
