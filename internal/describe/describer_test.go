package describe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zmuhls/cloze-reader-sub000/internal/llm"
)

type fakeProvider struct {
	content string
	err     error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.content}, nil
}

func TestFallback(t *testing.T) {
	got := Fallback("Persuasion", "Jane Austen")
	want := "A passage from Jane Austen's 'Persuasion'"
	if got != want {
		t.Errorf("Fallback() = %q; want %q", got, want)
	}
}

func TestDescribePassage(t *testing.T) {
	tests := []struct {
		name     string
		provider llm.Provider
		want     string
	}{
		{
			name:     "oracle answer",
			provider: &fakeProvider{content: "\"Austen's last novel, midway through Anne's return to Bath.\"\nExtra line"},
			want:     "Austen's last novel, midway through Anne's return to Bath.",
		},
		{
			name:     "oracle error",
			provider: &fakeProvider{err: errors.New("timeout")},
			want:     "A passage from Jane Austen's 'Persuasion'",
		},
		{
			name:     "blank answer",
			provider: &fakeProvider{content: "   "},
			want:     "A passage from Jane Austen's 'Persuasion'",
		},
		{
			name:     "no provider",
			provider: nil,
			want:     "A passage from Jane Austen's 'Persuasion'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDescriber(tt.provider, nil)
			got := d.DescribePassage(context.Background(), "Persuasion", "Jane Austen", "Anne walked on.")
			if got != tt.want {
				t.Errorf("DescribePassage() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestClean_Truncates(t *testing.T) {
	got := clean(strings.Repeat("word ", 100))
	if len(got) > maxContextLen+3 {
		t.Errorf("len = %d; want <= %d", len(got), maxContextLen+3)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated text should end with ellipsis: %q", got)
	}
}
