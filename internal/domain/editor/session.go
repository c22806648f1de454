// Package editor holds the working copy of a disease record while an
// administrator edits it. Hosts are keyed by a surrogate identifier
// assigned at selection time; the species label is a mutable attribute,
// so renaming a host can never collide it into another entry silently.
package editor

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vetpath/vetpath/internal/domain/disease"
)

var (
	ErrSessionNotFound  = errors.New("editor session not found")
	ErrHostNotFound     = errors.New("host entry not found in session")
	ErrSpeciesSelected  = errors.New("species already selected")
	ErrNoSpecies        = errors.New("select at least one species")
	ErrUnknownField     = errors.New("unknown field")
	ErrUnknownApplyMode = errors.New("unknown apply mode")
)

// HostDraft is one species's in-progress entry, addressed by Key.
type HostDraft struct {
	Key   string            `json:"key"`
	Entry disease.HostEntry `json:"entry"`
}

// Session is the working state of one editing session. All methods are
// plain state transitions; locking and draft mirroring live in Manager.
type Session struct {
	ID          string       `json:"id"`
	DiseaseID   string       `json:"disease_id,omitempty"`
	Name        string       `json:"name"`
	CausalAgent string       `json:"causal_agent"`
	CreatedAt   int64        `json:"created_at,omitempty"`
	SearchCount int          `json:"search_count"`
	Hosts       []*HostDraft `json:"hosts"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewSession starts an empty session for authoring a new record.
func NewSession() *Session {
	return &Session{ID: uuid.NewString(), UpdatedAt: time.Now()}
}

// SessionFrom starts a session pre-populated from an existing record.
func SessionFrom(d *disease.Disease) *Session {
	s := &Session{
		ID:          uuid.NewString(),
		DiseaseID:   d.ID,
		Name:        d.Name,
		CausalAgent: d.CausalAgent,
		CreatedAt:   d.CreatedAt,
		SearchCount: d.SearchCount,
		UpdatedAt:   time.Now(),
	}
	for _, h := range d.Hosts {
		s.Hosts = append(s.Hosts, &HostDraft{Key: uuid.NewString(), Entry: h})
	}
	return s
}

func (s *Session) host(key string) (*HostDraft, error) {
	for _, h := range s.Hosts {
		if h.Key == key {
			return h, nil
		}
	}
	return nil, ErrHostNotFound
}

func (s *Session) hasSpecies(name string) bool {
	for _, h := range s.Hosts {
		if h.Entry.AnimalName == name {
			return true
		}
	}
	return false
}

// SelectSpecies adds a fresh empty host entry for the species and
// returns its key. Re-selecting a removed species starts from the
// default shape; prior edits are not recovered.
func (s *Session) SelectSpecies(name string) (string, error) {
	if s.hasSpecies(name) {
		return "", fmt.Errorf("%q: %w", name, ErrSpeciesSelected)
	}
	h := &HostDraft{Key: uuid.NewString(), Entry: disease.HostEntry{AnimalName: name}}
	s.Hosts = append(s.Hosts, h)
	return h.Key, nil
}

// DeselectSpecies removes the host entry, including its treatments,
// custom fields, and images.
func (s *Session) DeselectSpecies(key string) error {
	for i, h := range s.Hosts {
		if h.Key == key {
			s.Hosts = append(s.Hosts[:i], s.Hosts[i+1:]...)
			return nil
		}
	}
	return ErrHostNotFound
}

// UpdateField assigns a disease-level field, last-write-wins.
func (s *Session) UpdateField(field, value string) error {
	switch field {
	case "name":
		s.Name = value
	case "causal_agent":
		s.CausalAgent = value
	default:
		return fmt.Errorf("%q: %w", field, ErrUnknownField)
	}
	return nil
}

// UpdateHostField assigns one narrative or diagnostic field on a host,
// last-write-wins, no validation at this layer.
func (s *Session) UpdateHostField(key, field, value string) error {
	h, err := s.host(key)
	if err != nil {
		return err
	}
	switch field {
	case "animal_name":
		if value != h.Entry.AnimalName && s.hasSpecies(value) {
			return fmt.Errorf("%q: %w", value, ErrSpeciesSelected)
		}
		h.Entry.AnimalName = value
	case "cause":
		h.Entry.Cause = value
	case "clinical_signs":
		h.Entry.ClinicalSigns = value
	case "prevention":
		h.Entry.Prevention = value
	case "precaution":
		h.Entry.Precaution = value
	case "epidemiology":
		h.Entry.Epidemiology = value
	case "diagnosis.field":
		h.Entry.Diagnosis.Field = value
	case "diagnosis.laboratory":
		h.Entry.Diagnosis.Laboratory = value
	case "diagnosis.virological_test":
		h.Entry.Diagnosis.VirologicalTest = value
	case "diagnosis.serological_test":
		h.Entry.Diagnosis.SerologicalTest = value
	case "diagnosis.post_mortem_findings":
		h.Entry.Diagnosis.PostMortemFindings = value
	default:
		return fmt.Errorf("%q: %w", field, ErrUnknownField)
	}
	return nil
}

// AddTreatment appends an empty treatment of the given type and returns
// its generated id.
func (s *Session) AddTreatment(key, treatmentType string) (string, error) {
	h, err := s.host(key)
	if err != nil {
		return "", err
	}
	if !disease.ValidTreatmentType(treatmentType) {
		return "", fmt.Errorf("treatment type %q: %w", treatmentType, ErrUnknownField)
	}
	t := disease.TreatmentItem{ID: uuid.NewString(), Type: treatmentType}
	h.Entry.Treatments = append(h.Entry.Treatments, t)
	return t.ID, nil
}

// UpdateTreatment assigns one sub-field of a treatment item.
func (s *Session) UpdateTreatment(key, treatmentID, field, value string) error {
	h, err := s.host(key)
	if err != nil {
		return err
	}
	for i := range h.Entry.Treatments {
		t := &h.Entry.Treatments[i]
		if t.ID != treatmentID {
			continue
		}
		switch field {
		case "type":
			if !disease.ValidTreatmentType(value) {
				return fmt.Errorf("treatment type %q: %w", value, ErrUnknownField)
			}
			t.Type = value
		case "name":
			t.Name = value
		case "dose":
			t.Dose = value
		case "route":
			t.Route = value
		case "frequency":
			t.Frequency = value
		case "duration":
			t.Duration = value
		case "booster_dose":
			t.BoosterDose = value
		case "notes":
			t.Notes = value
		default:
			return fmt.Errorf("%q: %w", field, ErrUnknownField)
		}
		return nil
	}
	return fmt.Errorf("treatment %s: %w", treatmentID, ErrHostNotFound)
}

// RemoveTreatment deletes a treatment item. Unknown ids are a no-op.
func (s *Session) RemoveTreatment(key, treatmentID string) error {
	h, err := s.host(key)
	if err != nil {
		return err
	}
	for i, t := range h.Entry.Treatments {
		if t.ID == treatmentID {
			h.Entry.Treatments = append(h.Entry.Treatments[:i], h.Entry.Treatments[i+1:]...)
			return nil
		}
	}
	return nil
}

// AddCustomField registers a label with an empty value. An existing
// label is reset to empty rather than erroring.
func (s *Session) AddCustomField(key, label string) error {
	h, err := s.host(key)
	if err != nil {
		return err
	}
	if h.Entry.CustomFields == nil {
		h.Entry.CustomFields = make(map[string]string)
	}
	h.Entry.CustomFields[label] = ""
	return nil
}

func (s *Session) UpdateCustomField(key, label, value string) error {
	h, err := s.host(key)
	if err != nil {
		return err
	}
	if h.Entry.CustomFields == nil {
		h.Entry.CustomFields = make(map[string]string)
	}
	h.Entry.CustomFields[label] = value
	return nil
}

func (s *Session) RemoveCustomField(key, label string) error {
	h, err := s.host(key)
	if err != nil {
		return err
	}
	delete(h.Entry.CustomFields, label)
	return nil
}

// AttachImage appends an image reference to a host entry.
func (s *Session) AttachImage(key, url, caption string) error {
	h, err := s.host(key)
	if err != nil {
		return err
	}
	h.Entry.Images = append(h.Entry.Images, disease.HostImage{URL: url, Caption: caption})
	return nil
}

// RemoveImage removes the image at the given position.
func (s *Session) RemoveImage(key string, index int) error {
	h, err := s.host(key)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(h.Entry.Images) {
		return fmt.Errorf("image %d: %w", index, ErrHostNotFound)
	}
	h.Entry.Images = append(h.Entry.Images[:index], h.Entry.Images[index+1:]...)
	return nil
}

// ApplyMode selects how researched content lands on a host entry.
type ApplyMode string

const (
	// ReplaceHostContent overwrites all narrative and diagnostic fields
	// and the full treatment list. Images and custom fields survive.
	ReplaceHostContent ApplyMode = "replace"
	// MergeHostContent fills only empty fields and appends treatments.
	MergeHostContent ApplyMode = "merge"
)

// ApplyResearch lands a researched draft on a host entry under the
// given mode. The caller obtains confirmation for Replace before this
// point; a failed research call never reaches here.
func (s *Session) ApplyResearch(key string, mode ApplyMode, draft disease.HostEntry, causalAgent string) error {
	h, err := s.host(key)
	if err != nil {
		return err
	}

	for i := range draft.Treatments {
		if draft.Treatments[i].ID == "" {
			draft.Treatments[i].ID = uuid.NewString()
		}
	}

	switch mode {
	case ReplaceHostContent:
		h.Entry.Cause = draft.Cause
		h.Entry.ClinicalSigns = draft.ClinicalSigns
		h.Entry.Prevention = draft.Prevention
		h.Entry.Precaution = draft.Precaution
		h.Entry.Epidemiology = draft.Epidemiology
		h.Entry.Diagnosis = draft.Diagnosis
		h.Entry.Treatments = draft.Treatments
		if causalAgent != "" {
			s.CausalAgent = causalAgent
		}
	case MergeHostContent:
		fillEmpty(&h.Entry.Cause, draft.Cause)
		fillEmpty(&h.Entry.ClinicalSigns, draft.ClinicalSigns)
		fillEmpty(&h.Entry.Prevention, draft.Prevention)
		fillEmpty(&h.Entry.Precaution, draft.Precaution)
		fillEmpty(&h.Entry.Epidemiology, draft.Epidemiology)
		fillEmpty(&h.Entry.Diagnosis.Field, draft.Diagnosis.Field)
		fillEmpty(&h.Entry.Diagnosis.Laboratory, draft.Diagnosis.Laboratory)
		fillEmpty(&h.Entry.Diagnosis.VirologicalTest, draft.Diagnosis.VirologicalTest)
		fillEmpty(&h.Entry.Diagnosis.SerologicalTest, draft.Diagnosis.SerologicalTest)
		fillEmpty(&h.Entry.Diagnosis.PostMortemFindings, draft.Diagnosis.PostMortemFindings)
		h.Entry.Treatments = append(h.Entry.Treatments, draft.Treatments...)
		fillEmpty(&s.CausalAgent, causalAgent)
	default:
		return fmt.Errorf("%q: %w", mode, ErrUnknownApplyMode)
	}
	return nil
}

func fillEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// Assemble builds the complete record for hand-off. Requires at least
// one selected species; the id and creation time are filled at save
// time by the registry service when still empty.
func (s *Session) Assemble() (*disease.Disease, error) {
	if len(s.Hosts) == 0 {
		return nil, ErrNoSpecies
	}
	d := &disease.Disease{
		ID:          s.DiseaseID,
		Name:        s.Name,
		CausalAgent: s.CausalAgent,
		CreatedAt:   s.CreatedAt,
		SearchCount: s.SearchCount,
	}
	for _, h := range s.Hosts {
		d.Hosts = append(d.Hosts, h.Entry)
	}
	return d, nil
}
