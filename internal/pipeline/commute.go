package pipeline

// Nominal speed per transport mode. The values act as an effort score, not km/h.
var modeSpeeds = map[string]float64{
	ModeNone:      0,
	ModeWalk:      5,
	ModeBike:      15,
	ModeMotorbike: 40,
	ModeCar:       50,
	ModeTransit:   30,
}

// Speed returns the nominal speed of a mode label, 0 for unknown modes
func Speed(mode string) float64 {
	return modeSpeeds[mode]
}

// EstimateCommute scores one commute from the residence and workplace commune
// codes and the mode label. Working in the home commune scores the mode speed,
// in another commune of the same department 1.5 times it, elsewhere twice it.
// The score is a proxy index, not minutes.
func EstimateCommute(residence, workplace, mode string) float64 {
	v := Speed(mode)
	switch {
	case residence == workplace:
		return v
	case prefix2(residence) == prefix2(workplace):
		return 1.5 * v
	default:
		return 2 * v
	}
}

func prefix2(code string) string {
	if len(code) < 2 {
		return code
	}
	return code[:2]
}
