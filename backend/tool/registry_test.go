package tool

import (
	"context"
	"strings"
	"testing"
)

type echoInput struct {
	Message string `json:"message"`
}

func TestRegistryExecuteRoundTrip(t *testing.T) {
	r := NewRegistry()
	def := NewTool("echo", "echoes its input", func(ctx context.Context, in echoInput) (Result, error) {
		return TextResult("echo: " + in.Message), nil
	})
	if err := r.Register(def); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result := r.Execute(context.Background(), Call{ID: "1", Name: "echo", Input: []byte(`{"message":"hi"}`)})
	if result.IsError || result.Text != "echo: hi" {
		t.Fatalf("Execute() = %+v, want text %q", result, "echo: hi")
	}
}

func TestRegistryDuplicateRegistration(t *testing.T) {
	r := NewRegistry()
	def := NewTool("dup", "", func(ctx context.Context, in echoInput) (Result, error) { return TextResult(""), nil })
	if err := r.Register(def); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	err := r.Register(def)
	if _, ok := err.(*DuplicateToolError); !ok {
		t.Fatalf("Register() error = %v, want *DuplicateToolError", err)
	}
}

func TestRegistryExecuteUnknownToolBecomesErrorResult(t *testing.T) {
	r := NewRegistry()
	result := r.Execute(context.Background(), Call{ID: "1", Name: "missing"})
	if !result.IsError {
		t.Fatalf("Execute() on unknown tool should set IsError")
	}
}

func TestRegistryExecuteHandlerFailureNeverEscalates(t *testing.T) {
	r := NewRegistry()
	def := NewTool("boom", "", func(ctx context.Context, in echoInput) (Result, error) {
		return Result{}, errBoom
	})
	must(t, r.Register(def))

	result := r.Execute(context.Background(), Call{ID: "1", Name: "boom", Input: []byte(`{}`)})
	if !result.IsError || result.Message == "" {
		t.Fatalf("Execute() = %+v, want IsError=true with a message", result)
	}
}

func TestRegistryExecuteManyPreservesOrder(t *testing.T) {
	r := NewRegistry()
	def := NewTool("echo", "", func(ctx context.Context, in echoInput) (Result, error) {
		return TextResult(in.Message), nil
	})
	must(t, r.Register(def))

	calls := []Call{
		{ID: "a", Name: "echo", Input: []byte(`{"message":"1"}`)},
		{ID: "b", Name: "echo", Input: []byte(`{"message":"2"}`)},
		{ID: "c", Name: "echo", Input: []byte(`{"message":"3"}`)},
	}
	results := r.ExecuteMany(context.Background(), calls)
	if len(results) != 3 || results[0].Text != "1" || results[1].Text != "2" || results[2].Text != "3" {
		t.Fatalf("ExecuteMany() = %+v, want stable input order", results)
	}
}

func TestRegistryPaginatesLongResultsAndReadMoreServesNextPage(t *testing.T) {
	r := NewRegistry()
	long := strings.Repeat("x", DefaultMaxResultChars+10)
	def := NewTool("dump", "", func(ctx context.Context, in echoInput) (Result, error) {
		return TextResult(long), nil
	})
	must(t, r.Register(def))

	first := r.Execute(context.Background(), Call{ID: "1", Name: "dump", Input: []byte(`{}`)})
	if !strings.Contains(first.Text, "[Page 1/2]") {
		t.Fatalf("Execute() page 1 footer missing: %q", first.Text)
	}

	resultID := extractResultID(t, first.Text)
	second := r.Execute(context.Background(), Call{ID: "2", Name: "read_more",
		Input: []byte(`{"result_id":"` + resultID + `","page":2}`)})
	if !strings.Contains(second.Text, "[Page 2/2]") {
		t.Fatalf("read_more page 2 footer missing: %q", second.Text)
	}
}

func TestRegistryReadMoreUnknownResultID(t *testing.T) {
	r := NewRegistry()
	result := r.Execute(context.Background(), Call{ID: "1", Name: "read_more", Input: []byte(`{"result_id":"nope","page":1}`)})
	if !strings.Contains(result.Text, "result not found or expired") {
		t.Fatalf("read_more() = %q, want not-found message", result.Text)
	}
}

func extractResultID(t *testing.T, footer string) string {
	t.Helper()
	const marker = "result_id="
	idx := strings.Index(footer, marker)
	if idx == -1 {
		t.Fatalf("footer missing result_id: %q", footer)
	}
	rest := footer[idx+len(marker):]
	end := strings.IndexByte(rest, ',')
	if end == -1 {
		t.Fatalf("footer malformed: %q", footer)
	}
	return rest[:end]
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

var errBoom = errBoomType{}

type errBoomType struct{}

func (errBoomType) Error() string { return "boom" }
