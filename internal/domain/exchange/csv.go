package exchange

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// csvHeader fixes the column order of the CSV container.
var csvHeader = []string{
	"disease_id",
	"disease_name",
	"causal_agent",
	"created_at",
	"search_count",
	"host_animal",
	"host_cause",
	"host_clinical_signs",
	"host_diagnosis_field",
	"host_diagnosis_laboratory",
	"host_diagnosis_virological_test",
	"host_diagnosis_serological_test",
	"host_diagnosis_post_mortem",
	"host_prevention",
	"host_precaution",
	"host_epidemiology",
	"host_treatments_json",
	"host_custom_fields_json",
}

// WriteCSV writes a header row followed by one line per flat row.
func WriteCSV(w io.Writer, rows []FlatRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.DiseaseID,
			r.DiseaseName,
			r.CausalAgent,
			r.CreatedAt,
			strconv.Itoa(r.SearchCount),
			r.HostAnimal,
			r.HostCause,
			r.HostClinicalSigns,
			r.HostDiagnosisField,
			r.HostDiagnosisLaboratory,
			r.HostDiagnosisVirology,
			r.HostDiagnosisSerology,
			r.HostDiagnosisPostMortem,
			r.HostPrevention,
			r.HostPrecaution,
			r.HostEpidemiology,
			r.HostTreatmentsJSON,
			r.HostCustomFieldsJSON,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a CSV container into flat rows. Columns are located by
// header name, so extra or reordered columns are tolerated; a file whose
// structure cannot be parsed at all aborts the whole read.
func ReadCSV(r io.Reader) ([]FlatRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	cell := func(record []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var rows []FlatRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		count, _ := strconv.Atoi(cell(record, "search_count"))
		if count < 0 {
			count = 0
		}
		rows = append(rows, FlatRow{
			DiseaseID:               cell(record, "disease_id"),
			DiseaseName:             cell(record, "disease_name"),
			CausalAgent:             cell(record, "causal_agent"),
			CreatedAt:               cell(record, "created_at"),
			SearchCount:             count,
			HostAnimal:              cell(record, "host_animal"),
			HostCause:               cell(record, "host_cause"),
			HostClinicalSigns:       cell(record, "host_clinical_signs"),
			HostDiagnosisField:      cell(record, "host_diagnosis_field"),
			HostDiagnosisLaboratory: cell(record, "host_diagnosis_laboratory"),
			HostDiagnosisVirology:   cell(record, "host_diagnosis_virological_test"),
			HostDiagnosisSerology:   cell(record, "host_diagnosis_serological_test"),
			HostDiagnosisPostMortem: cell(record, "host_diagnosis_post_mortem"),
			HostPrevention:          cell(record, "host_prevention"),
			HostPrecaution:          cell(record, "host_precaution"),
			HostEpidemiology:        cell(record, "host_epidemiology"),
			HostTreatmentsJSON:      cell(record, "host_treatments_json"),
			HostCustomFieldsJSON:    cell(record, "host_custom_fields_json"),
		})
	}
	return rows, nil
}
