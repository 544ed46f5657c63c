package maintenance

import "strconv"

// Threshold is the distance/wear trigger of a rule. It is either a
// DistanceThreshold (trucks, trailers) or a WearThreshold (tires).
type Threshold interface {
	// Limit is the raw value compared against the asset measure.
	Limit() int
	// Reached reports whether measure has crossed the threshold.
	Reached(measure float64) bool
	// String renders the threshold the way alert messages quote it.
	String() string

	threshold()
}

// DistanceThreshold fires once an odometer or mileage reaches Km.
type DistanceThreshold struct{ Km int }

func (t DistanceThreshold) Limit() int { return t.Km }
func (t DistanceThreshold) Reached(measure float64) bool { return measure >= float64(t.Km) }
func (t DistanceThreshold) String() string { return strconv.Itoa(t.Km) + "km" }
func (DistanceThreshold) threshold() {}

// WearThreshold fires once a tire wear level reaches Percent.
type WearThreshold struct{ Percent int }

func (t WearThreshold) Limit() int { return t.Percent }
func (t WearThreshold) Reached(measure float64) bool { return measure >= float64(t.Percent) }
func (t WearThreshold) String() string { return strconv.Itoa(t.Percent) }
func (WearThreshold) threshold() {}
