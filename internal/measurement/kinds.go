package measurement

import "time"

// ThermographyPoint is one spot temperature in a thermographic image
type ThermographyPoint struct {
	Name        string  `json:"name"`
	Temperature float64 `json:"temperature"`
	Emissivity  float64 `json:"emissivity,omitempty"`
}

// Thermography builds a thermography measurement from its spot temperatures,
// evaluating each point against the given threshold band.
func Thermography(id, equipmentID string, ts time.Time, points []ThermographyPoint, th Threshold) *Measurement {
	m := &Measurement{
		ID:          id,
		EquipmentID: equipmentID,
		Timestamp:   ts,
		Source:      SourceThermography,
	}
	for _, p := range points {
		m.Readings = append(m.Readings, Reading{
			Name:   p.Name,
			Value:  p.Temperature,
			Status: th.Evaluate(p.Temperature),
		})
	}
	m.Status = m.OverallStatus()
	return m
}

// OilSample carries the standard oil-analysis quantities. Each field has its
// own threshold band in the profile.
type OilSample struct {
	ViscosityCst     float64 `json:"viscosity_cst"`
	WaterPPM         float64 `json:"water_ppm"`
	IronPPM          float64 `json:"iron_ppm"`
	ParticleCountISO float64 `json:"particle_count_iso"`
}

// OilAnalysis builds an oil-analysis measurement, evaluating each quantity
// against its named band in the profile (missing bands evaluate as normal).
func OilAnalysis(id, equipmentID string, ts time.Time, sample OilSample, bands map[string]Threshold) *Measurement {
	m := &Measurement{
		ID:          id,
		EquipmentID: equipmentID,
		Timestamp:   ts,
		Source:      SourceOilAnalysis,
	}
	add := func(name string, value float64) {
		m.Readings = append(m.Readings, Reading{
			Name:   name,
			Value:  value,
			Status: bands[name].Evaluate(value),
		})
	}
	add("viscosity_cst", sample.ViscosityCst)
	add("water_ppm", sample.WaterPPM)
	add("iron_ppm", sample.IronPPM)
	add("particle_count_iso", sample.ParticleCountISO)
	m.Status = m.OverallStatus()
	return m
}

// VibrationAxis is one axis reading from a vibration sensor
type VibrationAxis struct {
	Axis          string  `json:"axis"` // "x", "y", "z"
	VelocityMMs   float64 `json:"velocity_mms"`
	AccelerationG float64 `json:"acceleration_g"`
}

// Vibration builds a vibration measurement. Velocity is the quantity the
// alarm bands apply to (ISO 10816 style); acceleration rides along as an
// extra numeric field.
func Vibration(id, equipmentID string, ts time.Time, axes []VibrationAxis, th Threshold) *Measurement {
	m := &Measurement{
		ID:          id,
		EquipmentID: equipmentID,
		Timestamp:   ts,
		Source:      SourceVibration,
		Extra:       make(map[string]float64),
	}
	for _, a := range axes {
		m.Readings = append(m.Readings, Reading{
			Name:   "velocity_" + a.Axis,
			Value:  a.VelocityMMs,
			Status: th.Evaluate(a.VelocityMMs),
		})
		m.Extra["acceleration_"+a.Axis] = a.AccelerationG
	}
	m.Status = m.OverallStatus()
	return m
}
