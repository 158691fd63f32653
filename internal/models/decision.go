package models

import (
	"strings"
	"time"
)

// Mindset is the categorical attitude a user brings to a decision.
type Mindset string

const (
	MindsetEmotional Mindset = "emotional"
	MindsetPractical Mindset = "practical"
	MindsetMixed     Mindset = "mixed"
)

// Mindsets lists the known mindsets in code order.
var Mindsets = []Mindset{MindsetEmotional, MindsetPractical, MindsetMixed}

// Valid reports whether m is one of the known mindsets.
func (m Mindset) Valid() bool {
	switch m {
	case MindsetEmotional, MindsetPractical, MindsetMixed:
		return true
	}
	return false
}

// Winner labels
const (
	LabelA = "A"
	LabelB = "B"
)

// Sample is one training row: the joined pros/cons text, the mindset and the chosen option.
type Sample struct {
	Text    string  `json:"text"`
	Mindset Mindset `json:"mindset"`
	Label   string  `json:"label"`
}

// DatasetRecord is one entry of the dataset file.
type DatasetRecord struct {
	ID            string    `json:"id,omitempty"`
	Topic         string    `json:"topic,omitempty"`
	OptionA       string    `json:"option_a,omitempty"`
	OptionB       string    `json:"option_b,omitempty"`
	ProsA         []string  `json:"pros_a"`
	ConsA         []string  `json:"cons_a"`
	ProsB         []string  `json:"pros_b"`
	ConsB         []string  `json:"cons_b"`
	Mindset       Mindset   `json:"mindset"`
	FinalDecision string    `json:"final_decision"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// Sample converts the record into a training sample.
func (r DatasetRecord) Sample() Sample {
	return Sample{
		Text:    JoinItems(r.ProsA, r.ConsA, r.ProsB, r.ConsB),
		Mindset: r.Mindset,
		Label:   r.FinalDecision,
	}
}

// JoinItems concatenates pros_a, cons_a, pros_b and cons_b in that order, space separated.
// Training and inference must both build their text through this function.
func JoinItems(prosA, consA, prosB, consB []string) string {
	all := make([]string, 0, len(prosA)+len(consA)+len(prosB)+len(consB))
	all = append(all, prosA...)
	all = append(all, consA...)
	all = append(all, prosB...)
	all = append(all, consB...)
	return strings.Join(all, " ")
}

// DecisionResult is the classifier verdict for one comparison.
type DecisionResult struct {
	Winner     string             `json:"winner"`
	Confidence float64            `json:"confidence"`
	ClassProbs map[string]float64 `json:"class_probs"`
}

// ParsedSections holds the four item lists extracted from generated text.
type ParsedSections struct {
	ProsA []string `json:"pros_a"`
	ConsA []string `json:"cons_a"`
	ProsB []string `json:"pros_b"`
	ConsB []string `json:"cons_b"`
}

// EmptySections returns sections with four empty, non-nil lists.
func EmptySections() ParsedSections {
	return ParsedSections{
		ProsA: []string{},
		ConsA: []string{},
		ProsB: []string{},
		ConsB: []string{},
	}
}

// GenerateRequest asks the text generator for pros and cons of two options
type GenerateRequest struct {
	Topic   string  `json:"topic" binding:"required"`
	OptionA string  `json:"option_a" binding:"required"`
	OptionB string  `json:"option_b" binding:"required"`
	Mindset Mindset `json:"mindset"`
}

// GenerateResponse carries the parsed sections and the raw generated text.
type GenerateResponse struct {
	ProsA []string `json:"pros_a"`
	ConsA []string `json:"cons_a"`
	ProsB []string `json:"pros_b"`
	ConsB []string `json:"cons_b"`
	Raw   string   `json:"raw"`
}

// DecideRequest asks the classifier to pick a winner
type DecideRequest struct {
	ProsA   []string `json:"pros_a"`
	ConsA   []string `json:"cons_a"`
	ProsB   []string `json:"pros_b"`
	ConsB   []string `json:"cons_b"`
	Mindset Mindset  `json:"mindset"`
}

// FeedbackRequest records the option a user finally chose.
type FeedbackRequest struct {
	Topic         string   `json:"topic"`
	OptionA       string   `json:"option_a"`
	OptionB       string   `json:"option_b"`
	ProsA         []string `json:"pros_a"`
	ConsA         []string `json:"cons_a"`
	ProsB         []string `json:"pros_b"`
	ConsB         []string `json:"cons_b"`
	Mindset       Mindset  `json:"mindset"`
	FinalDecision string   `json:"final_decision" binding:"required,oneof=A B"`
}

// Record converts the request into a dataset record.
func (f FeedbackRequest) Record() DatasetRecord {
	return DatasetRecord{
		Topic:         f.Topic,
		OptionA:       f.OptionA,
		OptionB:       f.OptionB,
		ProsA:         f.ProsA,
		ConsA:         f.ConsA,
		ProsB:         f.ProsB,
		ConsB:         f.ConsB,
		Mindset:       f.Mindset,
		FinalDecision: f.FinalDecision,
	}
}
