package editor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vetpath/vetpath/internal/domain/disease"
	"github.com/vetpath/vetpath/internal/platform/ai"
)

const researchSystemPrompt = `You are a veterinary pathology reference assistant. ` +
	`Respond with a single JSON object describing the requested disease for the requested host species. ` +
	`Use exactly these keys: causal_agent, cause, clinical_signs, prevention, precaution, epidemiology, ` +
	`diagnosis (object with field, laboratory, virological_test, serological_test, post_mortem_findings), ` +
	`treatments (array of objects with type, name, dose, route, frequency, duration, booster_dose, notes; ` +
	`type is one of Medicine, Drug, Vaccine, Anthelmintic, Note). ` +
	`Leave unknown values as empty strings. Do not invent dosages you are not confident about.`

// ResearchResult is the drafted content for one host species, not yet
// applied to any session.
type ResearchResult struct {
	CausalAgent string            `json:"causal_agent"`
	Host        disease.HostEntry `json:"-"`
}

type researchPayload struct {
	CausalAgent  string `json:"causal_agent"`
	Cause        string `json:"cause"`
	Signs        string `json:"clinical_signs"`
	Prevention   string `json:"prevention"`
	Precaution   string `json:"precaution"`
	Epidemiology string `json:"epidemiology"`
	Diagnosis    struct {
		Field              string `json:"field"`
		Laboratory         string `json:"laboratory"`
		VirologicalTest    string `json:"virological_test"`
		SerologicalTest    string `json:"serological_test"`
		PostMortemFindings string `json:"post_mortem_findings"`
	} `json:"diagnosis"`
	Treatments []struct {
		Type        string `json:"type"`
		Name        string `json:"name"`
		Dose        string `json:"dose"`
		Route       string `json:"route"`
		Frequency   string `json:"frequency"`
		Duration    string `json:"duration"`
		BoosterDose string `json:"booster_dose"`
		Notes       string `json:"notes"`
	} `json:"treatments"`
}

type completionClient interface {
	CompleteJSON(ctx context.Context, messages []ai.Message) (string, error)
}

// Researcher turns a disease name and species into a drafted host entry
// using the completion collaborator. Failures surface to the caller and
// leave nothing mutated.
type Researcher struct {
	client completionClient
	logger zerolog.Logger
}

func NewResearcher(client completionClient, logger zerolog.Logger) *Researcher {
	return &Researcher{client: client, logger: logger}
}

func (r *Researcher) Research(ctx context.Context, diseaseName, species string) (*ResearchResult, error) {
	messages := []ai.Message{
		{Role: "system", Content: researchSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Disease: %s\nHost species: %s", diseaseName, species)},
	}

	raw, err := r.client.CompleteJSON(ctx, messages)
	if err != nil {
		return nil, err
	}

	var p researchPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrMalformedResponse, err)
	}

	result := &ResearchResult{
		CausalAgent: p.CausalAgent,
		Host: disease.HostEntry{
			AnimalName:    species,
			Cause:         p.Cause,
			ClinicalSigns: p.Signs,
			Prevention:    p.Prevention,
			Precaution:    p.Precaution,
			Epidemiology:  p.Epidemiology,
			Diagnosis: disease.DiagnosisDetails{
				Field:              p.Diagnosis.Field,
				Laboratory:         p.Diagnosis.Laboratory,
				VirologicalTest:    p.Diagnosis.VirologicalTest,
				SerologicalTest:    p.Diagnosis.SerologicalTest,
				PostMortemFindings: p.Diagnosis.PostMortemFindings,
			},
		},
	}
	for _, t := range p.Treatments {
		if !disease.ValidTreatmentType(t.Type) {
			r.logger.Debug().Str("type", t.Type).Msg("dropping treatment with unknown type")
			continue
		}
		result.Host.Treatments = append(result.Host.Treatments, disease.TreatmentItem{
			Type:        t.Type,
			Name:        t.Name,
			Dose:        t.Dose,
			Route:       t.Route,
			Frequency:   t.Frequency,
			Duration:    t.Duration,
			BoosterDose: t.BoosterDose,
			Notes:       t.Notes,
		})
	}
	return result, nil
}
