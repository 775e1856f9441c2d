package measurement

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile holds the client-defined threshold bands for every measurement
// source. Thermography and vibration carry a single band each; oil analysis
// has one band per quantity.
type Profile struct {
	Thermography Threshold            `yaml:"thermography"`
	Vibration    Threshold            `yaml:"vibration"`
	OilAnalysis  map[string]Threshold `yaml:"oil_analysis"`
}

// LoadProfile reads a threshold profile from a YAML file
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read threshold profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile parses a threshold profile from YAML bytes
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse threshold profile: %w", err)
	}
	if p.OilAnalysis == nil {
		p.OilAnalysis = make(map[string]Threshold)
	}
	return &p, nil
}

// BandFor returns the band applied to a source's primary quantity. Oil
// analysis has per-quantity bands, so the quantity name selects the band.
func (p *Profile) BandFor(source Source, quantity string) Threshold {
	switch source {
	case SourceThermography:
		return p.Thermography
	case SourceVibration:
		return p.Vibration
	case SourceOilAnalysis:
		return p.OilAnalysis[quantity]
	default:
		return Threshold{}
	}
}
