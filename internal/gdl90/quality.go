package gdl90

// NACpFromHorizontalAccuracyMeters maps an estimated 95% horizontal position
// accuracy to a NACp category. Thresholds follow the GDL90 NACp table.
func NACpFromHorizontalAccuracyMeters(accuracyM float64) byte {
	switch {
	case accuracyM <= 0:
		return 0
	case accuracyM < 3:
		return 11
	case accuracyM < 10:
		return 10
	case accuracyM < 30:
		return 9
	case accuracyM < 92.6:
		return 8
	case accuracyM < 185.2:
		return 7
	case accuracyM < 555.6:
		return 6
	default:
		return 0
	}
}
