// Package exchange converts between nested disease records and the flat
// tabular shape used for spreadsheet import/export. One row per
// (disease, host) pair; complex sub-fields travel as JSON text cells.
package exchange

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/vetpath/vetpath/internal/domain/disease"
)

// FlatRow is one spreadsheet row. Disease-level columns repeat on every
// row of the same disease; host columns are empty for zero-host records.
type FlatRow struct {
	DiseaseID   string
	DiseaseName string
	CausalAgent string
	CreatedAt   string // ISO-8601
	SearchCount int

	HostAnimal              string
	HostCause               string
	HostClinicalSigns       string
	HostDiagnosisField      string
	HostDiagnosisLaboratory string
	HostDiagnosisVirology   string
	HostDiagnosisSerology   string
	HostDiagnosisPostMortem string
	HostPrevention          string
	HostPrecaution          string
	HostEpidemiology        string

	HostTreatmentsJSON   string
	HostCustomFieldsJSON string
}

const createdAtLayout = "2006-01-02T15:04:05.000Z07:00"

func formatCreatedAt(epochMillis int64) string {
	return time.UnixMilli(epochMillis).UTC().Format(createdAtLayout)
}

func parseCreatedAt(s string) int64 {
	if s == "" {
		return time.Now().UnixMilli()
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Now().UnixMilli()
	}
	return t.UnixMilli()
}

// Flatten converts records into flat rows. A record with zero hosts emits
// exactly one row with empty host columns so it survives the round trip.
// Row order is deterministic: records order, then hosts order.
func Flatten(records []*disease.Disease) []FlatRow {
	var rows []FlatRow

	for _, d := range records {
		base := FlatRow{
			DiseaseID:   d.ID,
			DiseaseName: d.Name,
			CausalAgent: d.CausalAgent,
			CreatedAt:   formatCreatedAt(d.CreatedAt),
			SearchCount: d.SearchCount,
		}

		if len(d.Hosts) == 0 {
			row := base
			row.HostTreatmentsJSON = "[]"
			row.HostCustomFieldsJSON = "{}"
			rows = append(rows, row)
			continue
		}

		for _, h := range d.Hosts {
			row := base
			row.HostAnimal = h.AnimalName
			row.HostCause = h.Cause
			row.HostClinicalSigns = h.ClinicalSigns
			row.HostDiagnosisField = h.Diagnosis.Field
			row.HostDiagnosisLaboratory = h.Diagnosis.Laboratory
			row.HostDiagnosisVirology = h.Diagnosis.VirologicalTest
			row.HostDiagnosisSerology = h.Diagnosis.SerologicalTest
			row.HostDiagnosisPostMortem = h.Diagnosis.PostMortemFindings
			row.HostPrevention = h.Prevention
			row.HostPrecaution = h.Precaution
			row.HostEpidemiology = h.Epidemiology
			row.HostTreatmentsJSON = marshalOr(h.Treatments, "[]")
			row.HostCustomFieldsJSON = marshalOr(h.CustomFields, "{}")
			rows = append(rows, row)
		}
	}

	return rows
}

func marshalOr(v interface{}, empty string) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return empty
	}
	return string(b)
}

// Stats summarizes what Unflatten did with the rows.
type Stats struct {
	Diseases      int `json:"diseases"`
	Hosts         int `json:"hosts"`
	SkippedHosts  int `json:"skipped_hosts"`  // duplicate species within a disease
	Conflicts     int `json:"conflicts"`      // later rows disagreeing on disease-level fields
	DegradedCells int `json:"degraded_cells"` // malformed JSON cells reset to empty
}

// Unflatten groups rows by DiseaseID and rebuilds nested records. The
// first row of each id wins for disease-level fields; later rows that
// disagree are counted but not reconciled. Rows without an id become
// singleton diseases under a fresh identifier. Malformed JSON cells
// degrade to empty defaults without aborting the batch.
func Unflatten(rows []FlatRow) ([]*disease.Disease, Stats) {
	var stats Stats
	byID := make(map[string]*disease.Disease)
	var order []string

	for _, row := range rows {
		id := row.DiseaseID
		if id == "" {
			id = uuid.NewString()
		}

		d, ok := byID[id]
		if !ok {
			name := row.DiseaseName
			if name == "" {
				name = "Unknown Disease"
			}
			agent := row.CausalAgent
			if agent == "" {
				agent = "Unknown Agent"
			}
			d = &disease.Disease{
				ID:          id,
				Name:        name,
				CausalAgent: agent,
				CreatedAt:   parseCreatedAt(row.CreatedAt),
				SearchCount: row.SearchCount,
			}
			byID[id] = d
			order = append(order, id)
		} else if row.DiseaseName != d.Name || row.CausalAgent != d.CausalAgent {
			stats.Conflicts++
		}

		if row.HostAnimal == "" {
			continue
		}
		if d.HostFor(row.HostAnimal) != nil {
			stats.SkippedHosts++
			continue
		}

		var treatments []disease.TreatmentItem
		if row.HostTreatmentsJSON != "" {
			if err := json.Unmarshal([]byte(row.HostTreatmentsJSON), &treatments); err != nil {
				treatments = nil
				stats.DegradedCells++
			}
		}
		for i := range treatments {
			if treatments[i].ID == "" {
				treatments[i].ID = uuid.NewString()
			}
		}

		var customFields map[string]string
		if row.HostCustomFieldsJSON != "" {
			if err := json.Unmarshal([]byte(row.HostCustomFieldsJSON), &customFields); err != nil {
				customFields = nil
				stats.DegradedCells++
			}
		}

		d.Hosts = append(d.Hosts, disease.HostEntry{
			AnimalName:    row.HostAnimal,
			Cause:         row.HostCause,
			ClinicalSigns: row.HostClinicalSigns,
			Diagnosis: disease.DiagnosisDetails{
				Field:              row.HostDiagnosisField,
				Laboratory:         row.HostDiagnosisLaboratory,
				VirologicalTest:    row.HostDiagnosisVirology,
				SerologicalTest:    row.HostDiagnosisSerology,
				PostMortemFindings: row.HostDiagnosisPostMortem,
			},
			Treatments:   treatments,
			Prevention:   row.HostPrevention,
			Precaution:   row.HostPrecaution,
			Epidemiology: row.HostEpidemiology,
			CustomFields: customFields,
		})
		stats.Hosts++
	}

	out := make([]*disease.Disease, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	stats.Diseases = len(out)
	return out, stats
}
