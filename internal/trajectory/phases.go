// Package trajectory infers the agent's current workflow phase from recent
// tool usage and predicts where it is heading next.
package trajectory

// PhaseDef describes one workflow phase and how tool usage signals it.
// Weights map a case-insensitive tool-name substring to its score
// contribution.
type PhaseDef struct {
	Name        string
	Description string
	Weights     map[string]int

	// LowActivity phases (planning) score a bonus when the recent tool
	// window is sparse; ErrorContext phases (debugging) score a bonus when
	// recent errors pile up.
	LowActivity  bool
	ErrorContext bool
}

// Score bonuses for the flagged phase kinds.
const (
	lowActivityBonus  = 5
	errorContextBonus = 10
)

// Catalog is the static phase configuration: definitions in a fixed scoring
// order (first match wins score ties), the transition table used for
// prediction, and the initial phase assumption. Read-only after
// construction; share one instance across analyzers.
type Catalog struct {
	Phases []PhaseDef

	// Transitions lists plausible next phases per phase, most likely
	// first. Advisory for prediction display only; detection may jump to
	// any phase the scoring favors.
	Transitions map[string][]string

	Initial string
}

// Get returns the definition for a phase name.
func (c *Catalog) Get(name string) (PhaseDef, bool) {
	for _, def := range c.Phases {
		if def.Name == name {
			return def, true
		}
	}
	return PhaseDef{}, false
}

// DefaultCatalog returns the built-in phase catalog.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Initial: "exploration",
		Phases: []PhaseDef{
			{
				Name:        "exploration",
				Description: "Discovering codebase structure",
				Weights:     map[string]int{"glob": 2, "grep": 2, "read_file": 1, "LSP": 2},
			},
			{
				Name:        "analysis",
				Description: "Understanding code and requirements",
				Weights:     map[string]int{"read_file": 2, "LSP": 3, "web_search": 1, "load_skill": 1},
			},
			{
				Name:        "planning",
				Description: "Designing solution architecture",
				Weights:     map[string]int{"read_file": 1, "delegate": 2},
				LowActivity: true,
			},
			{
				Name:        "implementation",
				Description: "Writing code",
				Weights:     map[string]int{"write_file": 3, "edit_file": 3, "bash": 1},
			},
			{
				Name:        "verification",
				Description: "Testing and validation",
				Weights:     map[string]int{"bash": 3, "python_check": 3, "read_file": 1},
			},
			{
				Name:         "debugging",
				Description:  "Investigating errors",
				Weights:      map[string]int{"grep": 2, "read_file": 2, "LSP": 2, "bash": 1},
				ErrorContext: true,
			},
		},
		Transitions: map[string][]string{
			"exploration":    {"analysis", "exploration"},
			"analysis":       {"planning", "exploration"},
			"planning":       {"implementation", "analysis"},
			"implementation": {"verification", "implementation"},
			"verification":   {"debugging", "implementation"},
			"debugging":      {"implementation", "exploration"},
		},
	}
}
