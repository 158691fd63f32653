// Package features turns pros/cons text and a mindset into numeric feature vectors.
package features

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// DefaultMaxFeatures caps the vocabulary when no size is configured.
const DefaultMaxFeatures = 1500

var (
	// ErrEmptyCorpus is returned when fitting on zero documents.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrEmptyVocabulary is returned when the corpus contains no usable tokens.
	ErrEmptyVocabulary = errors.New("corpus produced an empty vocabulary")
)

// tokens are runs of two or more word characters
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Vectorizer is a fitted TF-IDF transform over word unigrams and bigrams.
// Fields are exported for gob encoding only; treat a fitted Vectorizer as read-only.
type Vectorizer struct {
	Vocabulary map[string]int
	IDF        []float64
}

// Fit builds the vocabulary from corpus, keeping the maxFeatures most frequent
// terms. Kept terms are indexed in alphabetical order.
func Fit(corpus []string, maxFeatures int) (*Vectorizer, error) {
	if len(corpus) == 0 {
		return nil, ErrEmptyCorpus
	}
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}

	termFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]bool)
		for _, term := range Terms(doc) {
			termFreq[term]++
			if !seen[term] {
				seen[term] = true
				docFreq[term]++
			}
		}
	}
	if len(termFreq) == 0 {
		return nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(termFreq))
	for term := range termFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if termFreq[terms[i]] != termFreq[terms[j]] {
			return termFreq[terms[i]] > termFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(corpus))
	v := &Vectorizer{
		Vocabulary: make(map[string]int, len(terms)),
		IDF:        make([]float64, len(terms)),
	}
	for i, term := range terms {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
	return v, nil
}

// Width is the number of text features produced by Transform.
func (v *Vectorizer) Width() int {
	return len(v.IDF)
}

// Transform returns the L2-normalised TF-IDF vector for text.
// Terms outside the vocabulary are ignored; empty text yields all zeros.
func (v *Vectorizer) Transform(text string) []float64 {
	out := make([]float64, len(v.IDF))
	for _, term := range Terms(text) {
		if idx, ok := v.Vocabulary[term]; ok {
			out[idx]++
		}
	}

	var norm float64
	for i, count := range out {
		if count == 0 {
			continue
		}
		out[i] = count * v.IDF[i]
		norm += out[i] * out[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range out {
			out[i] /= norm
		}
	}
	return out
}

// Validate checks that the vocabulary indices and IDF table agree.
func (v *Vectorizer) Validate() error {
	if v == nil || len(v.IDF) == 0 {
		return ErrEmptyVocabulary
	}
	if len(v.Vocabulary) != len(v.IDF) {
		return fmt.Errorf("vocabulary has %d terms but %d idf weights", len(v.Vocabulary), len(v.IDF))
	}
	for term, idx := range v.Vocabulary {
		if idx < 0 || idx >= len(v.IDF) {
			return fmt.Errorf("term %q has out of range index %d", term, idx)
		}
	}
	return nil
}

// Terms lower-cases text and returns its unigrams followed by its bigrams.
func Terms(text string) []string {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return nil
	}
	terms := make([]string, 0, 2*len(tokens)-1)
	terms = append(terms, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		terms = append(terms, tokens[i]+" "+tokens[i+1])
	}
	return terms
}
