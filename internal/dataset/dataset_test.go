package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"decision-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dataset.json")
	content := `[
  {"pros_a": ["cheap"], "cons_a": ["slow"], "pros_b": ["fast"], "cons_b": [], "mindset": "practical", "final_decision": "A"},
  {"pros_a": [], "cons_a": ["far"], "pros_b": ["freedom"], "cons_b": ["costly"], "mindset": "emotional", "final_decision": "B"}
]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	records, err := LoadJSON(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	samples := Samples(records)
	assert.Equal(t, models.Sample{Text: "cheap slow fast", Mindset: models.MindsetPractical, Label: "A"}, samples[0])
	assert.Equal(t, models.Sample{Text: "far freedom costly", Mindset: models.MindsetEmotional, Label: "B"}, samples[1])
}

func TestLoadJSON_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadJSON(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	malformed := filepath.Join(dir, "malformed.json")
	require.NoError(t, os.WriteFile(malformed, []byte(`{"pros_a": [`), 0644))
	_, err = LoadJSON(malformed)
	assert.ErrorContains(t, err, malformed)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`[]`), 0644))
	_, err = LoadJSON(empty)
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestSaveJSON_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "dataset.json")
	records := Synthesize(SynthConfig{PerTopic: 3, Seed: 7})

	require.NoError(t, SaveJSON(path, records))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Equal(t, "dataset.json", info.Name())
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	loaded, err := LoadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, records, loaded)
}

func TestSynthesize(t *testing.T) {
	records := Synthesize(SynthConfig{PerTopic: 10, Seed: 42})
	require.Len(t, records, 10*len(DefaultTopics))

	for _, r := range records {
		assert.Len(t, r.ProsA, 3)
		assert.Len(t, r.ConsA, 2)
		assert.Len(t, r.ProsB, 3)
		assert.Len(t, r.ConsB, 2)
		assert.True(t, r.Mindset.Valid())
		assert.Equal(t, Score(r), r.FinalDecision)
		assert.NotEmpty(t, r.OptionA)
		assert.NotEmpty(t, r.OptionB)
	}

	assert.Equal(t, records, Synthesize(SynthConfig{PerTopic: 10, Seed: 42}))
	assert.NotEqual(t, records, Synthesize(SynthConfig{PerTopic: 10, Seed: 43}))
}

func TestSynthesize_CustomTopics(t *testing.T) {
	records := Synthesize(SynthConfig{PerTopic: 2, Seed: 1, Topics: []string{"Tea vs Coffee", "no separator"}})
	require.Len(t, records, 4)
	assert.Equal(t, "Tea", records[0].OptionA)
	assert.Equal(t, "Coffee", records[0].OptionB)
	assert.Equal(t, "no separator", records[2].OptionA)
	assert.Empty(t, records[2].OptionB)
}

func TestScore(t *testing.T) {
	three := []string{"a", "b", "c"}
	two := []string{"x", "y"}

	tests := []struct {
		name string
		rec  models.DatasetRecord
		want string
	}{
		{
			name: "tie goes to A",
			rec:  models.DatasetRecord{ProsA: three, ConsA: two, ProsB: three, ConsB: two, Mindset: models.MindsetMixed},
			want: "A",
		},
		{
			name: "emotional freedom bonus for B",
			rec: models.DatasetRecord{
				ProsA: three, ConsA: two,
				ProsB: []string{"More freedom and flexibility", "b", "c"}, ConsB: two,
				Mindset: models.MindsetEmotional,
			},
			want: "B",
		},
		{
			name: "freedom bonus needs emotional mindset",
			rec: models.DatasetRecord{
				ProsA: three, ConsA: two,
				ProsB: []string{"More freedom and flexibility", "b", "c"}, ConsB: two,
				Mindset: models.MindsetPractical,
			},
			want: "A",
		},
		{
			name: "stability bonus loses to a larger margin",
			rec: models.DatasetRecord{
				ProsA: []string{"Higher stability and structure"}, ConsA: nil,
				ProsB: []string{"x", "y"}, ConsB: nil,
				Mindset: models.MindsetPractical,
			},
			want: "B",
		},
		{
			name: "more pros wins",
			rec:  models.DatasetRecord{ProsA: two, ConsA: two, ProsB: three, ConsB: nil},
			want: "B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.rec))
		})
	}
}
