package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinItems(t *testing.T) {
	assert.Equal(t, "a1 a2 c1 b1 d1",
		JoinItems([]string{"a1", "a2"}, []string{"c1"}, []string{"b1"}, []string{"d1"}))
	assert.Equal(t, "b1", JoinItems(nil, nil, []string{"b1"}, nil))
	assert.Equal(t, "", JoinItems(nil, nil, nil, nil))
}

func TestMindsetValid(t *testing.T) {
	for _, m := range Mindsets {
		assert.True(t, m.Valid(), m)
	}
	assert.False(t, Mindset("").Valid())
	assert.False(t, Mindset("Practical").Valid())
}

func TestFeedbackRequestRecord(t *testing.T) {
	rec := FeedbackRequest{
		Topic:         "Phone",
		ProsA:         []string{"camera"},
		ConsB:         []string{"price"},
		Mindset:       MindsetEmotional,
		FinalDecision: LabelB,
	}.Record()

	assert.Equal(t, Sample{Text: "camera price", Mindset: MindsetEmotional, Label: LabelB}, rec.Sample())
	assert.Equal(t, "Phone", rec.Topic)
}
