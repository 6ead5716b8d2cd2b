package tuning

// Pipeline property names, as shown on the operator dashboard.
const (
	UpperHue        = "upperHue"
	LowerHue        = "lowerHue"
	UpperSaturation = "upperSaturation"
	LowerSaturation = "lowerSaturation"
	UpperValue      = "upperValue"
	LowerValue      = "lowerValue"
	MinArea         = "minArea"
	MinWidth        = "minWidth"
	MinHeight       = "minHeight"
)

// Thresholds is a consistent snapshot of the contour filter settings for one frame.
// Hue is in OpenCV units (0-180), saturation and value in 0-255.
type Thresholds struct {
	LowerHue        float64
	UpperHue        float64
	LowerSaturation float64
	UpperSaturation float64
	LowerValue      float64
	UpperValue      float64
	MinArea         float64
	MinWidth        float64
	MinHeight       float64
}

// NewPipelineRegistry registers the contour filter properties with their defaults,
// tuned for green retroreflective tape under an LED ring.
func NewPipelineRegistry() *Registry {
	r := NewRegistry()
	r.Add(UpperHue, 95, 0, 180)
	r.Add(LowerHue, 55, 0, 180)
	r.Add(UpperSaturation, 255, 0, 255)
	r.Add(LowerSaturation, 100, 0, 255)
	r.Add(UpperValue, 255, 0, 255)
	r.Add(LowerValue, 100, 0, 255)
	r.Add(MinArea, 40, 0, 76800)
	r.Add(MinWidth, 2, 0, 320)
	r.Add(MinHeight, 4, 0, 240)
	return r
}

// Thresholds reads every filter property under a single lock.
func (r *Registry) Thresholds() Thresholds {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value := func(name string) float64 {
		if p, ok := r.properties[name]; ok {
			return p.Value
		}
		return 0
	}

	return Thresholds{
		LowerHue:        value(LowerHue),
		UpperHue:        value(UpperHue),
		LowerSaturation: value(LowerSaturation),
		UpperSaturation: value(UpperSaturation),
		LowerValue:      value(LowerValue),
		UpperValue:      value(UpperValue),
		MinArea:         value(MinArea),
		MinWidth:        value(MinWidth),
		MinHeight:       value(MinHeight),
	}
}
