package tri

import (
	"triscore-platform/internal/models"
)

// MinCalibrationRecords is the smallest history that activates personal
// calibration for an area.
const MinCalibrationRecords = 2

// FitCalibration fits a least-squares line of official score on correct
// count over the supplied records for one area. Records for other areas
// are ignored.
//
// With fewer than MinCalibrationRecords matching records it returns
// (nil, nil): calibration is absent and the default model applies. When
// every correct count is identical the regression has no defined slope and
// a DegenerateCalibrationError is returned; callers treat it as a warning
// and fall back to the default model.
func FitCalibration(area models.Area, records []models.HistoricalRecord) (*models.CalibrationParameters, error) {
	if !area.IsValid() {
		return nil, &models.InvalidInputError{Field: "area", Message: "unknown area " + string(area)}
	}

	var xs, ys []float64
	for _, r := range records {
		if r.Area != area {
			continue
		}
		if err := r.Validate(); err != nil {
			return nil, err
		}
		xs = append(xs, float64(r.CorrectAnswers))
		ys = append(ys, r.OfficialScore)
	}

	n := len(xs)
	if n < MinCalibrationRecords {
		return nil, nil
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var sxx, sxy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		sxx += dx * dx
		sxy += dx * (ys[i] - meanY)
	}

	if sxx == 0 {
		return nil, &models.DegenerateCalibrationError{
			Area:   area,
			Reason: "all historical correct counts are identical",
		}
	}

	slope := sxy / sxx
	return &models.CalibrationParameters{
		Area:       area,
		Slope:      slope,
		Intercept:  meanY - slope*meanX,
		SampleSize: n,
	}, nil
}

// FitAllCalibrations fits every objective area that has enough history.
// Areas with insufficient or degenerate history are simply missing from
// the result; the single warning returned (if any) is the first degenerate
// fit encountered, for the caller to surface.
func FitAllCalibrations(records []models.HistoricalRecord) (map[models.Area]*models.CalibrationParameters, error) {
	fits := make(map[models.Area]*models.CalibrationParameters)
	var warn error
	for _, area := range models.ObjectiveAreas() {
		params, err := FitCalibration(area, records)
		if err != nil {
			if degenerate, ok := err.(*models.DegenerateCalibrationError); ok {
				if warn == nil {
					warn = degenerate
				}
				continue
			}
			return nil, err
		}
		if params != nil {
			fits[area] = params
		}
	}
	return fits, warn
}
