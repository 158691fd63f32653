package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(Config{}, zap.NewNop())
	assert.Error(t, err)
}

func TestCandidateText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("PROS_A: fast | "),
				genai.Blob{MIMEType: "image/png"},
				genai.Text("cheap"),
			}},
		}},
	}

	text, err := candidateText(resp)
	require.NoError(t, err)
	assert.Equal(t, "PROS_A: fast | cheap", text)
}

func TestCandidateText_Unusable(t *testing.T) {
	_, err := candidateText(&genai.GenerateContentResponse{})
	assert.Error(t, err)

	_, err = candidateText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Blob{}}}}},
	})
	assert.Error(t, err)
}
