package demo

import (
	"crypto/sha256"

	"attendboard/internal/gateway"
)

// Recognizer is a deterministic stand-in for the face recognition model: the
// same frame bytes always produce the same detections, which makes the demo
// loop reproducible and the handlers testable. Confidences are spread so all
// three display tiers show up.
type Recognizer struct {
	// MinBytes is the smallest payload treated as a usable photo. Anything
	// smaller yields zero detections, which exercises the empty-result path.
	MinBytes int
}

// NewRecognizer returns a recognizer with a 1 KiB floor.
func NewRecognizer() *Recognizer {
	return &Recognizer{MinBytes: 1024}
}

// Detect picks a subset of the roster keyed off a hash of the frame.
func (r *Recognizer) Detect(frame []byte, roster []Student) []gateway.Detection {
	if len(frame) < r.MinBytes || len(roster) == 0 {
		return nil
	}

	h := sha256.Sum256(frame)
	count := 1 + int(h[0])%len(roster)
	if count > 4 {
		count = 4
	}

	out := make([]gateway.Detection, 0, count)
	for i := 0; i < count; i++ {
		st := roster[int(h[i+1])%len(roster)]
		if seen(out, st.ID) {
			continue
		}
		// 0.50 .. 0.99 in steps derived from the hash.
		confidence := 0.50 + float64(int(h[i+8])%50)/100
		out = append(out, gateway.Detection{
			StudentID:  st.ID,
			Name:       st.Name,
			RollNo:     st.RollNo,
			Confidence: confidence,
		})
	}
	return out
}

func seen(dets []gateway.Detection, id string) bool {
	for _, d := range dets {
		if d.StudentID == id {
			return true
		}
	}
	return false
}
