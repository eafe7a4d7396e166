package rewrite

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/prompter/internal/config"
)

type fakeRewriter struct {
	calls  int
	output string
	err    error
	block  bool
	tones  []Tone
}

func (f *fakeRewriter) Rewrite(ctx context.Context, text string, tone Tone) (string, error) {
	f.calls++
	f.tones = append(f.tones, tone)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.output, f.err
}

func testRewriteConfig() *config.RewriteConfig {
	return &config.RewriteConfig{
		Model:            DefaultModel,
		Timeout:          time.Second,
		FailureThreshold: 2,
		ResetTimeout:     time.Hour,
	}
}

func TestParseTone(t *testing.T) {
	tests := []struct {
		input   string
		want    Tone
		wantErr bool
	}{
		{"engaging", ToneEngaging, false},
		{"  Professional ", ToneProfessional, false},
		{"FUNNY", ToneFunny, false},
		{"sarcastic", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTone(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTone)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("Hi chat!", ToneFunny)

	assert.Contains(t, prompt, "live stream scriptwriter")
	assert.Contains(t, prompt, "make it more funny")
	assert.Contains(t, prompt, "Do not add markdown")
	assert.True(t, strings.HasSuffix(prompt, "Script:\nHi chat!"))
}

func TestEnhance_Success(t *testing.T) {
	fake := &fakeRewriter{output: "  Hey everyone, welcome!  "}
	service := NewService(fake, testRewriteConfig())

	result, err := service.Enhance(context.Background(), "hello", "engaging")
	require.NoError(t, err)

	assert.Equal(t, "Hey everyone, welcome!", result.Text)
	assert.Equal(t, ToneEngaging, result.Tone)
	assert.False(t, result.Unchanged)
	assert.Equal(t, []Tone{ToneEngaging}, fake.tones)
}

func TestEnhance_EmptyResponseKeepsOriginal(t *testing.T) {
	fake := &fakeRewriter{output: "   "}
	service := NewService(fake, testRewriteConfig())

	result, err := service.Enhance(context.Background(), "original text", "professional")
	require.NoError(t, err)

	assert.Equal(t, "original text", result.Text)
	assert.True(t, result.Unchanged)
}

func TestEnhance_Validation(t *testing.T) {
	fake := &fakeRewriter{output: "x"}
	service := NewService(fake, testRewriteConfig())
	ctx := context.Background()

	_, err := service.Enhance(ctx, "  \n ", "engaging")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = service.Enhance(ctx, "text", "angry")
	assert.ErrorIs(t, err, ErrInvalidTone)

	assert.Equal(t, 0, fake.calls)
}

func TestEnhance_NotConfigured(t *testing.T) {
	service := NewServiceFromConfig(testRewriteConfig())
	assert.False(t, service.Configured())

	_, err := service.Enhance(context.Background(), "text", "funny")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.True(t, IsUnavailable(err))
}

func TestEnhance_ConfiguredWithKey(t *testing.T) {
	cfg := testRewriteConfig()
	cfg.APIKey = "test-key"
	service := NewServiceFromConfig(cfg)
	assert.True(t, service.Configured())
}

func TestEnhance_TimeoutCountsAsFailure(t *testing.T) {
	cfg := testRewriteConfig()
	cfg.Timeout = 10 * time.Millisecond
	fake := &fakeRewriter{block: true}
	service := NewService(fake, cfg)

	_, err := service.Enhance(context.Background(), "text", "engaging")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateClosed, service.BreakerState())

	_, err = service.Enhance(context.Background(), "text", "engaging")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateOpen, service.BreakerState())
}

func TestEnhance_CircuitOpensAfterFailures(t *testing.T) {
	fake := &fakeRewriter{err: errors.New("quota exceeded")}
	service := NewService(fake, testRewriteConfig())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := service.Enhance(ctx, "text", "engaging")
		require.Error(t, err)
	}
	assert.Equal(t, StateOpen, service.BreakerState())

	_, err := service.Enhance(ctx, "text", "engaging")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.True(t, IsUnavailable(err))
	assert.Equal(t, 2, fake.calls)
}

func TestGeminiRewriter_MissingKey(t *testing.T) {
	rewriter := NewGeminiRewriter("", "")
	assert.Equal(t, DefaultModel, rewriter.Model())

	_, err := rewriter.Rewrite(context.Background(), "text", ToneEngaging)
	assert.ErrorIs(t, err, ErrAPIKeyMissing)
}
