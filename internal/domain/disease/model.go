package disease

// Disease is one monograph in the registry. CreatedAt is epoch
// milliseconds and is set once on first save. Hosts preserve authoring
// order.
type Disease struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	CausalAgent string      `json:"causal_agent"`
	CreatedAt   int64       `json:"created_at"`
	SearchCount int         `json:"search_count"`
	Hosts       []HostEntry `json:"hosts"`
}

// HostEntry describes the disease in one affected species. AnimalName is
// either one of the built-in species or a label from the custom registry.
type HostEntry struct {
	AnimalName   string            `json:"animal_name"`
	Cause        string            `json:"cause"`
	ClinicalSigns string           `json:"clinical_signs"`
	Diagnosis    DiagnosisDetails  `json:"diagnosis"`
	Treatments   []TreatmentItem   `json:"treatments"`
	Prevention   string            `json:"prevention"`
	Precaution   string            `json:"precaution"`
	Epidemiology string            `json:"epidemiology"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
	Images       []HostImage       `json:"images,omitempty"`
}

// DiagnosisDetails breaks the diagnosis narrative into its sub-sections.
type DiagnosisDetails struct {
	Field              string `json:"field"`
	Laboratory         string `json:"laboratory"`
	VirologicalTest    string `json:"virological_test"`
	SerologicalTest    string `json:"serological_test"`
	PostMortemFindings string `json:"post_mortem_findings"`
}

// Treatment types.
const (
	TreatmentMedicine     = "Medicine"
	TreatmentDrug         = "Drug"
	TreatmentVaccine      = "Vaccine"
	TreatmentAnthelmintic = "Anthelmintic"
	TreatmentNote         = "Note"
)

var validTreatmentTypes = map[string]bool{
	TreatmentMedicine:     true,
	TreatmentDrug:         true,
	TreatmentVaccine:      true,
	TreatmentAnthelmintic: true,
	TreatmentNote:         true,
}

// ValidTreatmentType reports whether t is a known treatment type.
func ValidTreatmentType(t string) bool {
	return validTreatmentTypes[t]
}

// TreatmentItem is one entry in a host's treatment list. BoosterDose is
// meaningful for vaccines; Notes carries the whole payload for Note items.
type TreatmentItem struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Dose        string `json:"dose"`
	Route       string `json:"route"`
	Frequency   string `json:"frequency"`
	Duration    string `json:"duration"`
	BoosterDose string `json:"booster_dose,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// HostImage is an uploaded image reference attached to a host entry.
type HostImage struct {
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// BuiltinSpecies is the fixed species enumeration. Custom labels live in
// the species registry.
var BuiltinSpecies = []string{
	"Bovine", "Equine", "Canine", "Feline", "Ovine",
	"Caprine", "Porcine", "Avian", "Aquatic",
}

var builtinSpeciesSet = func() map[string]bool {
	m := make(map[string]bool, len(BuiltinSpecies))
	for _, s := range BuiltinSpecies {
		m[s] = true
	}
	return m
}()

// IsBuiltinSpecies reports whether name is one of the fixed species.
func IsBuiltinSpecies(name string) bool {
	return builtinSpeciesSet[name]
}

// HostFor returns the host entry for the named species, or nil.
func (d *Disease) HostFor(animalName string) *HostEntry {
	for i := range d.Hosts {
		if d.Hosts[i].AnimalName == animalName {
			return &d.Hosts[i]
		}
	}
	return nil
}
