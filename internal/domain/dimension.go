package domain

// Dimension is one analytical axis over the complaints fact table, paired
// with the raw column that carries its key. Stages receive a slice of these
// instead of looking names up at runtime.
type Dimension struct {
	Name   string
	Column string
}

var (
	DimType     = Dimension{Name: "Type", Column: "sr_type"}
	DimRegion   = Dimension{Name: "Region", Column: "region"}
	DimExchange = Dimension{Name: "Exchange", Column: "exc_id"}
	DimCity     = Dimension{Name: "City", Column: "city"}
	DimRCA      = Dimension{Name: "RCA", Column: "rca"}

	// DimTotal is the synthetic whole-network axis. Only Variation emits it.
	DimTotal = Dimension{Name: "Total", Column: ""}
)

// StandardDimensions is the default per-dimension iteration order.
var StandardDimensions = []Dimension{DimType, DimRegion, DimExchange, DimCity, DimRCA}

// DimensionByName resolves a configured dimension name to its descriptor.
func DimensionByName(name string) (Dimension, bool) {
	for _, d := range StandardDimensions {
		if d.Name == name {
			return d, true
		}
	}
	if name == DimTotal.Name {
		return DimTotal, true
	}
	return Dimension{}, false
}

// IsTotal reports whether d is the synthetic Total axis.
func (d Dimension) IsTotal() bool {
	return d.Name == DimTotal.Name
}
