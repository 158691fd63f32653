package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProvider struct {
	name   string
	err    error
	calls  int
	closed bool
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.name + ": " + prompt, nil
}

func (f *fakeProvider) Close() error {
	f.closed = true
	return nil
}

func (f *fakeProvider) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{"provider": f.name}
}

func newClient(maxFailures int, providers ...*fakeProvider) *MultiProviderClient {
	ps := make([]Provider, len(providers))
	for i, p := range providers {
		ps[i] = p
	}
	return NewMultiProviderClientFrom(ps, nil, maxFailures, zap.NewNop())
}

func TestGenerate_UsesCurrentProvider(t *testing.T) {
	first, second := &fakeProvider{name: "first"}, &fakeProvider{name: "second"}
	c := newClient(3, first, second)

	text, err := c.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "first: hi", text)
	assert.Equal(t, 0, second.calls)
}

func TestGenerate_SwitchesOnRateLimit(t *testing.T) {
	first := &fakeProvider{name: "first", err: errors.New("API error (status 429): too many requests")}
	second := &fakeProvider{name: "second"}
	c := newClient(3, first, second)

	text, err := c.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "second: hi", text)

	// The switch sticks for later requests
	_, err = c.Generate(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 2, second.calls)
	assert.Equal(t, 1, c.GetModelInfo()["provider_index"])
}

func TestGenerate_SwitchesAfterMaxFailures(t *testing.T) {
	first := &fakeProvider{name: "first", err: errors.New("connection reset")}
	second := &fakeProvider{name: "second"}
	c := newClient(1, first, second)

	text, err := c.Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "second: hi", text)
}

func TestGenerate_AllProvidersFailed(t *testing.T) {
	first := &fakeProvider{name: "first", err: errors.New("quota exceeded")}
	second := &fakeProvider{name: "second", err: errors.New("quota exceeded")}
	c := newClient(3, first, second)

	_, err := c.Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.ErrorContains(t, err, "quota exceeded")
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestGenerate_RetriesCurrentProviderBelowMaxFailures(t *testing.T) {
	first := &fakeProvider{name: "first", err: errors.New("bad gateway")}
	second := &fakeProvider{name: "second"}
	c := newClient(3, first, second)

	_, err := c.Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrAllProvidersFailed)
	assert.Equal(t, 2, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestGenerate_Cancelled(t *testing.T) {
	c := newClient(3, &fakeProvider{name: "first"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Generate(ctx, "hi")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClose(t *testing.T) {
	first, second := &fakeProvider{name: "first"}, &fakeProvider{name: "second"}
	c := newClient(3, first, second)

	require.NoError(t, c.Close())
	assert.True(t, first.closed)
	assert.True(t, second.closed)
}

func TestNewMultiProviderClient_Errors(t *testing.T) {
	_, err := NewMultiProviderClient(MultiProviderConfig{}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewMultiProviderClient(MultiProviderConfig{
		Providers: []ProviderConfig{{Type: "carrier-pigeon", APIKey: "k"}},
	}, zap.NewNop())
	assert.Error(t, err)
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, isRateLimitError(errors.New("status 429")))
	assert.True(t, isRateLimitError(errors.New("Quota exceeded for model")))
	assert.True(t, isRateLimitError(errors.New("Rate limit reached")))
	assert.False(t, isRateLimitError(errors.New("invalid api key")))
	assert.False(t, isRateLimitError(nil))
}
