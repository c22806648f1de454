package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vetpath/vetpath/internal/domain/disease"
	"github.com/vetpath/vetpath/internal/platform/ai"
)

type mockCompleter struct {
	response string
	err      error
	messages []ai.Message
}

func (m *mockCompleter) CompleteJSON(ctx context.Context, messages []ai.Message) (string, error) {
	m.messages = messages
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func TestResearcher_ParsesDraft(t *testing.T) {
	client := &mockCompleter{response: `{
		"causal_agent": "Lyssavirus",
		"cause": "Bite from an infected animal",
		"clinical_signs": "Hydrophobia, paralysis",
		"prevention": "Vaccination",
		"diagnosis": {"laboratory": "dFA on brain tissue"},
		"treatments": [
			{"type": "Vaccine", "name": "Rabies vaccine", "booster_dose": "annual"},
			{"type": "Potion", "name": "dropped"}
		]
	}`}
	r := NewResearcher(client, zerolog.Nop())

	result, err := r.Research(context.Background(), "Rabies", "Canine")
	if err != nil {
		t.Fatalf("Research: %v", err)
	}
	if result.CausalAgent != "Lyssavirus" {
		t.Errorf("CausalAgent = %q", result.CausalAgent)
	}
	if result.Host.AnimalName != "Canine" {
		t.Errorf("AnimalName = %q", result.Host.AnimalName)
	}
	if result.Host.ClinicalSigns != "Hydrophobia, paralysis" {
		t.Errorf("ClinicalSigns = %q", result.Host.ClinicalSigns)
	}
	if result.Host.Diagnosis.Laboratory != "dFA on brain tissue" {
		t.Errorf("Diagnosis = %+v", result.Host.Diagnosis)
	}
	if len(result.Host.Treatments) != 1 {
		t.Fatalf("treatments = %+v, invalid types should be dropped", result.Host.Treatments)
	}
	if result.Host.Treatments[0].Type != disease.TreatmentVaccine || result.Host.Treatments[0].BoosterDose != "annual" {
		t.Errorf("treatment = %+v", result.Host.Treatments[0])
	}

	if len(client.messages) != 2 || client.messages[0].Role != "system" {
		t.Errorf("messages = %+v", client.messages)
	}
}

func TestResearcher_MalformedPayload(t *testing.T) {
	r := NewResearcher(&mockCompleter{response: `not json at all`}, zerolog.Nop())
	if _, err := r.Research(context.Background(), "Rabies", "Canine"); !errors.Is(err, ai.ErrMalformedResponse) {
		t.Fatalf("err = %v, want ErrMalformedResponse", err)
	}
}

func TestResearcher_ClientErrorPropagates(t *testing.T) {
	r := NewResearcher(&mockCompleter{err: ai.ErrRateLimited}, zerolog.Nop())
	if _, err := r.Research(context.Background(), "Rabies", "Canine"); !errors.Is(err, ai.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}
