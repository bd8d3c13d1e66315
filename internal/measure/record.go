package measure

import (
	"encoding/json"
	"fmt"
	"io"
)

// Record is one set of body measurements returned by the measurement service.
// A Record is never mutated after it is decoded; a new capture yields a new *Record.
type Record struct {
	Height            float32 `json:"height"`        // cm
	ShoulderWidth     float32 `json:"shoulderWidth"` // cm
	ChestWidth        float32 `json:"chestWidth"`    // cm
	WaistWidth        float32 `json:"waistWidth"`    // cm
	Confidence        float32 `json:"confidence"`
	LandmarksDetected int     `json:"landmarks_detected"`
}

// Mock returns the record used when no measurement source is configured.
func Mock() *Record {
	return &Record{
		Height:            175,
		ShoulderWidth:     45,
		ChestWidth:        40,
		WaistWidth:        35,
		Confidence:        0.85,
		LandmarksDetected: 33,
	}
}

// Degenerate reports whether the record would produce a zero or mirrored garment scale.
// Such records are still applied; callers only use this to warn.
func (r *Record) Degenerate() bool {
	return r.Height <= 0 || r.ShoulderWidth <= 0
}

func (r *Record) String() string {
	return fmt.Sprintf("height=%.1fcm shoulder=%.1fcm chest=%.1fcm waist=%.1fcm confidence=%.2f landmarks=%d",
		r.Height, r.ShoulderWidth, r.ChestWidth, r.WaistWidth, r.Confidence, r.LandmarksDetected)
}

// DecodeRecord reads a bare JSON measurement record.
func DecodeRecord(rd io.Reader) (*Record, error) {
	var rec Record
	if err := json.NewDecoder(rd).Decode(&rec); err != nil {
		return nil, fmt.Errorf("measure: decode record: %w", err)
	}
	return &rec, nil
}
