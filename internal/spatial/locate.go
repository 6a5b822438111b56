package spatial

import "github.com/jengzang/mobility-backend-go/internal/dataset"

// communeSpreadMeters bounds how far a commune marker sits from its department centre
const communeSpreadMeters = 25000

// CommunePoint places a commune near the centre of its department. ok is false
// when the department is unknown and the point falls back to the centre of France.
func CommunePoint(code string) (Point, bool) {
	d, found := LookupDepartment(dataset.DepartmentOf(code))
	if !found {
		return France, false
	}
	return Spread(d.Centre(), code, communeSpreadMeters), true
}
