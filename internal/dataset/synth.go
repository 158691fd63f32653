package dataset

import (
	"math/rand"
	"strings"

	"decision-service/internal/models"
)

// SynthConfig controls synthetic dataset generation.
type SynthConfig struct {
	PerTopic int
	Seed     int64
	Topics   []string
}

// DefaultTopics is a small set of everyday comparisons written as "A vs B".
var DefaultTopics = []string{
	"Joining a startup vs joining a big MNC",
	"Buying a new laptop vs a used laptop",
	"Hostel A (closer) vs Hostel B (cheaper)",
	"Taking an internship vs taking a semester off",
	"Studying CS vs studying EE",
	"Moving to city A vs city B",
	"Android phone vs iPhone",
	"Buying bike vs buying car (used)",
}

var proTemplates = []string{
	"Better learning opportunities",
	"Higher stability and structure",
	"Lower monthly cost",
	"Closer to college / commute is easier",
	"Higher pay potential",
	"More freedom and flexibility",
	"Easier to resell later",
	"Has better customer support and warranty",
}

var conTemplates = []string{
	"Less stability",
	"Higher initial cost",
	"Longer commute",
	"Lower team mentorship",
	"Not good for long-term resell",
	"Requires more maintenance",
	"Fewer networking opportunities",
	"Higher monthly expenses",
}

var (
	suffixesA = []string{"", " - great for growth", " - practical choice", ""}
	suffixesB = []string{"", " - less risky", " - long-term benefit", ""}
)

// Synthesize generates PerTopic records for each topic. Three pros and two
// cons are drawn per option, the mindset is drawn with weights
// emotional 0.3, practical 0.5, mixed 0.2, and the label comes from Score.
func Synthesize(cfg SynthConfig) []models.DatasetRecord {
	topics := cfg.Topics
	if len(topics) == 0 {
		topics = DefaultTopics
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	records := make([]models.DatasetRecord, 0, len(topics)*cfg.PerTopic)
	for _, topic := range topics {
		optionA, optionB := splitTopic(topic)
		for i := 0; i < cfg.PerTopic; i++ {
			r := models.DatasetRecord{
				Topic:   topic,
				OptionA: optionA,
				OptionB: optionB,
				ProsA:   decorate(rng, sample(rng, proTemplates, 3), suffixesA),
				ConsA:   sample(rng, conTemplates, 2),
				ProsB:   decorate(rng, sample(rng, proTemplates, 3), suffixesB),
				ConsB:   sample(rng, conTemplates, 2),
				Mindset: drawMindset(rng),
			}
			r.FinalDecision = Score(r)
			records = append(records, r)
		}
	}
	return records
}

// Score labels a record: each option scores pros minus cons, practical
// mindsets add 0.5 to A when its pros mention stability, emotional mindsets
// add 0.5 to B when its pros mention freedom. Ties go to A.
func Score(r models.DatasetRecord) string {
	scoreA := float64(len(r.ProsA) - len(r.ConsA))
	scoreB := float64(len(r.ProsB) - len(r.ConsB))
	if r.Mindset == models.MindsetPractical && strings.Contains(strings.ToLower(strings.Join(r.ProsA, " ")), "stability") {
		scoreA += 0.5
	}
	if r.Mindset == models.MindsetEmotional && strings.Contains(strings.ToLower(strings.Join(r.ProsB, " ")), "freedom") {
		scoreB += 0.5
	}
	if scoreA >= scoreB {
		return models.LabelA
	}
	return models.LabelB
}

func splitTopic(topic string) (string, string) {
	parts := strings.SplitN(topic, " vs ", 2)
	if len(parts) != 2 {
		return topic, ""
	}
	return parts[0], parts[1]
}

func sample(rng *rand.Rand, pool []string, n int) []string {
	idx := rng.Perm(len(pool))[:n]
	out := make([]string, n)
	for i, j := range idx {
		out[i] = pool[j]
	}
	return out
}

func decorate(rng *rand.Rand, items, suffixes []string) []string {
	for i := range items {
		items[i] += suffixes[rng.Intn(len(suffixes))]
	}
	return items
}

func drawMindset(rng *rand.Rand) models.Mindset {
	switch p := rng.Float64(); {
	case p < 0.3:
		return models.MindsetEmotional
	case p < 0.8:
		return models.MindsetPractical
	default:
		return models.MindsetMixed
	}
}
