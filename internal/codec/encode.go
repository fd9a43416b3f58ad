// Package codec reads and writes the engine's fixed-layout project and
// parameter files.
package codec

import (
	"fmt"
	"strings"

	"github.com/nvandessel/hydrorun/internal/tree"
)

const (
	primaryVersion     = " #<V8.2># --- Fin du texte libre --- ; Ne pas modifier/retirer cette ligne"
	primaryPathWidth   = 69
	primaryHeaderLines = 3 // project, version tag, parameter file reference
	dataDir            = "data/"
)

type primaryRef struct {
	path  string
	label string
}

var primaryRefs = []primaryRef{
	{"data.simulation.rainfall", "Pluies"},
	{"data.simulation.pet", "Évapo-Transpirations Potentielles (ETP)"},
	{"data.observation.streamflow", "Débits de Rivière"},
	{"data.observation.piezo-level", "Niveaux de Nappe"},
	{"data.simulation.air-temp", "Températures de l'air"},
	{"data.simulation.snowfall", "Précipitations Neigeuses"},
	{"data.forecast.rainfall", "Pluies pour Prévision"},
	{"data.forecast.pet", "ETP pour Prévision"},
	{"data.forecast.air-temp", "Températures pour Prévision"},
	{"data.forecast.snowfall", "Précipitations neigeuses pour Prévision"},
	{"data.influence.pumping_or_injection", "Injections/Pompages"},
	{"data.other.weather_tile_weights", "Mailles météo et Pondérations"},
}

// EncodePrimary renders the project file: the project title, the version
// tag, the parameter file reference and one line per data file. Non-empty
// data references are written relative to the working directory's data/.
func EncodePrimary(t *tree.Tree, secondaryFile string) (string, error) {
	project, err := t.Str(tree.Path{"description", "project"})
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(project + "\n")
	b.WriteString(primaryVersion + "\n")
	fmt.Fprintf(&b, "%-*s = %s\n", primaryPathWidth, secondaryFile, "Paramètres et Options")
	for _, r := range primaryRefs {
		ref, err := t.Str(tree.MustParsePath(r.path))
		if err != nil {
			return "", err
		}
		if ref != "" {
			ref = dataDir + ref
		}
		fmt.Fprintf(&b, "%-*s = %s\n", primaryPathWidth, ref, r.label)
	}
	b.WriteString("\n")
	return b.String(), nil
}

// EncodeSecondary renders the parameter file, one layout entry per line.
func EncodeSecondary(t *tree.Tree) (string, error) {
	out := make([]string, len(secondaryLayout))
	for i, l := range secondaryLayout {
		s, err := l.render(t)
		if err != nil {
			return "", fmt.Errorf("encoding line %d: %w", i+1, err)
		}
		out[i] = s
	}
	return strings.Join(out, "\n"), nil
}
