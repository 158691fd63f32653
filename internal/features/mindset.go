package features

import "decision-service/internal/models"

// DefaultMindsetCode is the code given to mindsets outside the known set.
// It equals the code of "mixed".
const DefaultMindsetCode = 2

// MindsetEncoder maps a mindset onto its single numeric feature column.
type MindsetEncoder struct {
	Codes   map[models.Mindset]float64
	Default float64
}

// NewMindsetEncoder returns the emotional=0, practical=1, mixed=2 encoding.
func NewMindsetEncoder() MindsetEncoder {
	return MindsetEncoder{
		Codes: map[models.Mindset]float64{
			models.MindsetEmotional: 0,
			models.MindsetPractical: 1,
			models.MindsetMixed:     2,
		},
		Default: DefaultMindsetCode,
	}
}

// Encode returns the code for m. Unknown mindsets, including the empty
// string, get the Default code and known=false.
func (e MindsetEncoder) Encode(m models.Mindset) (code float64, known bool) {
	if c, ok := e.Codes[m]; ok {
		return c, true
	}
	return e.Default, false
}

// Vector builds the full feature vector: text features followed by the mindset code.
func Vector(v *Vectorizer, enc MindsetEncoder, text string, m models.Mindset) []float64 {
	x := v.Transform(text)
	code, _ := enc.Encode(m)
	return append(x, code)
}
