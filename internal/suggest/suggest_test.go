package suggest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/zmuhls/cloze-reader-sub000/internal/domain"
	"github.com/zmuhls/cloze-reader-sub000/internal/llm"
)

const passage = "River flowed past the town where the old men sat and watched the bright water move under the stone bridge while lanterns glowed unquestionably."

type fakeProvider struct {
	content string
	err     error
	block   bool
	lastReq *llm.Request
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	f.lastReq = req
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.content}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   []string
		method string
	}{
		{"strict json", `["bright", "water"]`, []string{"bright", "water"}, "strict_json"},
		{"code fence", "```json\n[\"bridge\"]\n```", []string{"bridge"}, "strict_json"},
		{"embedded json", `Here are the words: ["bright","stone"] hope that helps`, []string{"bright", "stone"}, "embedded_json"},
		{"quoted", `I choose "water" and "bridge".`, []string{"water", "bridge"}, "quoted"},
		{"reasoning", "Let's see. I'll pick lanterns because they are concrete.", []string{"lanterns"}, "reasoning"},
		{"reasoning skips filler", "I would pick the word 'bridge' here.", []string{"bridge"}, "reasoning"},
		{"comma", "bright, water , stone", []string{"bright", "water", "stone"}, "comma"},
		{"single", "lanterns.", []string{"lanterns"}, "single"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, method, ok := Parse(tt.raw)
			if !ok {
				t.Fatalf("Parse(%q) ok = false", tt.raw)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %v; want %v", tt.raw, got, tt.want)
			}
			if method != tt.method {
				t.Errorf("method = %q; want %q", method, tt.method)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", `""`} {
		if got, _, ok := Parse(raw); ok {
			t.Errorf("Parse(%q) = %v; want failure", raw, got)
		}
	}
}

func TestNewWordMap(t *testing.T) {
	m := NewWordMap(strings.Fields(passage))

	for _, w := range []string{"bright", "water", "bridge", "lanterns", "unquestionably"} {
		if !m.Contains(w) {
			t.Errorf("word map missing %q", w)
		}
	}
	// "town" sits in the leading tokens, "river" only appears capitalized.
	for _, w := range []string{"town", "river", "flowed"} {
		if m.Contains(w) {
			t.Errorf("word map should not contain %q", w)
		}
	}
}

func TestValidate(t *testing.T) {
	m := NewWordMap(strings.Fields(passage))

	got, rejected := Validate([]string{"bright", "river"}, m, 2, 1)
	if !reflect.DeepEqual(got, []string{"bright"}) {
		t.Errorf("Validate = %v; want [bright]", got)
	}
	if len(rejected) != 1 || rejected[0].Reason != "not in passage" {
		t.Errorf("rejected = %+v; want river not in passage", rejected)
	}
}

func TestValidate_Reasons(t *testing.T) {
	m := NewWordMap(strings.Fields(passage))

	tests := []struct {
		token  string
		level  int
		reason string
	}{
		{"42", 1, "no letters"},
		{"and the", 1, "function compound"},
		{"town", 1, "not in passage"},
		{"unquestionably", 1, "length out of band"},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, rejected := Validate([]string{tt.token}, m, 1, tt.level)
			if len(got) != 0 {
				t.Fatalf("Validate(%q) = %v; want none", tt.token, got)
			}
			if len(rejected) != 1 || rejected[0].Reason != tt.reason {
				t.Errorf("rejected = %+v; want reason %q", rejected, tt.reason)
			}
		})
	}
}

func TestValidate_LevelWidensBand(t *testing.T) {
	m := NewWordMap(strings.Fields(passage))

	got, _ := Validate([]string{"unquestionably"}, m, 1, 5)
	if !reflect.DeepEqual(got, []string{"unquestionably"}) {
		t.Errorf("Validate at level 5 = %v; want [unquestionably]", got)
	}
}

func TestValidate_DedupesAndCaps(t *testing.T) {
	m := NewWordMap(strings.Fields(passage))

	got, _ := Validate([]string{"Bright", "BRIGHT", "water,", "stone", "bridge"}, m, 2, 1)
	if !reflect.DeepEqual(got, []string{"bright", "water"}) {
		t.Errorf("Validate = %v; want [bright water]", got)
	}
}

func TestValidate_KeepsPassageSpelling(t *testing.T) {
	words := strings.Fields("the old road wound through the hills past farms and orchards toward the well-known inn, where travellers didn't linger.")
	m := NewWordMap(words)

	tests := []struct {
		candidate string
		want      string
	}{
		{"well-known", "well-known"},
		{"wellknown", "well-known"},
		{"Didn't", "didn't"},
	}
	for _, tt := range tests {
		t.Run(tt.candidate, func(t *testing.T) {
			got, rejected := Validate([]string{tt.candidate}, m, 1, 1)
			if !reflect.DeepEqual(got, []string{tt.want}) {
				t.Errorf("Validate(%q) = %v (rejected %+v); want [%s]", tt.candidate, got, rejected, tt.want)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	r := Evaluate(`["bright","river"]`, passage, 2, 1)

	if r.Kind != KindOK {
		t.Fatalf("Kind = %q; want ok (reason %q)", r.Kind, r.Reason)
	}
	if !reflect.DeepEqual(r.Words, []string{"bright"}) {
		t.Errorf("Words = %v; want [bright]", r.Words)
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v; want nil", r.Err())
	}
}

func TestEvaluate_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind Kind
	}{
		{"nothing parsed", "   ", KindParseFailure},
		{"nothing valid", `["river","town"]`, KindValidationFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Evaluate(tt.raw, passage, 2, 1)
			if r.Kind != tt.kind {
				t.Errorf("Kind = %q; want %q", r.Kind, tt.kind)
			}
			if len(r.Words) != 0 {
				t.Errorf("Words = %v; want none", r.Words)
			}
			if !errors.Is(r.Err(), domain.ErrSuggestionOracleFailure) {
				t.Errorf("Err() = %v; want ErrSuggestionOracleFailure", r.Err())
			}
		})
	}
}

func TestAdapter_SelectSignificantWords(t *testing.T) {
	p := &fakeProvider{content: `["water", "bridge"]`}
	a := NewAdapter(p, WithLogger(quietLogger()))

	got, err := a.SelectSignificantWords(context.Background(), passage, 2, 1)
	if err != nil {
		t.Fatalf("SelectSignificantWords() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"water", "bridge"}) {
		t.Errorf("got %v; want [water bridge]", got)
	}
	if p.lastReq == nil || !strings.Contains(p.lastReq.Messages[0].Content, "Select 2 words") {
		t.Errorf("prompt did not ask for 2 words: %+v", p.lastReq)
	}
}

func TestAdapter_OracleError(t *testing.T) {
	cause := errors.New("connection refused")
	a := NewAdapter(&fakeProvider{err: cause}, WithLogger(quietLogger()))

	r := a.Suggest(context.Background(), passage, 1, 1)
	if r.Kind != KindOracleError {
		t.Errorf("Kind = %q; want oracle_error", r.Kind)
	}

	_, err := a.SelectSignificantWords(context.Background(), passage, 1, 1)
	if !errors.Is(err, domain.ErrSuggestionOracleFailure) {
		t.Errorf("error = %v; want ErrSuggestionOracleFailure", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("error = %v; want cause preserved", err)
	}
}

func TestAdapter_Timeout(t *testing.T) {
	a := NewAdapter(&fakeProvider{block: true}, WithTimeout(20*time.Millisecond), WithLogger(quietLogger()))

	start := time.Now()
	_, err := a.SelectSignificantWords(context.Background(), passage, 1, 1)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v; want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("call took %v; timeout not applied", elapsed)
	}
}

func TestAdapter_ZeroCount(t *testing.T) {
	p := &fakeProvider{content: `["water"]`}
	a := NewAdapter(p, WithLogger(quietLogger()))

	if _, err := a.SelectSignificantWords(context.Background(), passage, 0, 1); err == nil {
		t.Error("expected error for zero count")
	}
	if p.lastReq != nil {
		t.Error("oracle should not be called for zero count")
	}
}

func TestPrompter_SystemPrompt(t *testing.T) {
	p := NewPrompter()

	if !strings.Contains(p.SystemPrompt(1), "4 to 12 letters") {
		t.Error("level 1 prompt should state the 4-12 band")
	}
	if !strings.Contains(p.SystemPrompt(6), "4 to 14 letters") {
		t.Error("level 6 prompt should state the 4-14 band")
	}
}
