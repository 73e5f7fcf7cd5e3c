package mcp_test

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/Strob0t/subete/internal/adapter/fswalk"
	subetemcp "github.com/Strob0t/subete/internal/adapter/mcp"
	"github.com/Strob0t/subete/internal/adapter/yamlmeta"
	"github.com/Strob0t/subete/internal/domain"
	"github.com/Strob0t/subete/internal/domain/repo"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newServer(t *testing.T) *subetemcp.Server {
	t.Helper()
	root := t.TempDir()
	archive := filepath.Join(root, "archive")
	docs := filepath.Join(root, "docs")

	write(t, filepath.Join(archive, "g", "go", "hello-world.go"), "package main\n")
	write(t, filepath.Join(archive, "p", "python", "hello_world.py"), "print('Hello, World!')\n")
	write(t, filepath.Join(archive, "p", "python", "fizz_buzz.py"), "a\nb\nc\n")
	write(t, filepath.Join(archive, "p", "python", "testinfo.yml"), "folder:\n  naming: underscore\n")
	for _, p := range []string{"hello-world", "fizz-buzz"} {
		write(t, filepath.Join(docs, "projects", p, "description.md"), p)
	}

	r, err := repo.Assemble(context.Background(), repo.Input{
		ArchiveRoot: archive,
		DocsRoot:    docs,
		Walker:      fswalk.New(),
		Loader:      yamlmeta.New(),
		URLs:        domain.DefaultURLs(),
	})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return subetemcp.NewServer(subetemcp.ServerConfig{Name: "test", Version: "0.1.0"}, r, rand.New(rand.NewPCG(1, 2)))
}

func call(t *testing.T, s *subetemcp.Server, name string, args map[string]any) *mcplib.CallToolResult {
	t.Helper()
	tool, ok := s.MCPServer().ListTools()[name]
	if !ok {
		t.Fatalf("%s tool not found", name)
	}
	result, err := tool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return result
}

func decode[T any](t *testing.T, result *mcplib.CallToolResult) T {
	t.Helper()
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}
	text, ok := result.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	var v T
	if err := json.Unmarshal([]byte(text.Text), &v); err != nil {
		t.Fatalf("unmarshal %q: %v", text.Text, err)
	}
	return v
}

func TestNewServer(t *testing.T) {
	s := newServer(t)
	if s.MCPServer() == nil {
		t.Fatal("MCPServer() returned nil")
	}
}

func TestToolRegistration(t *testing.T) {
	s := newServer(t)

	tools := s.MCPServer().ListTools()
	expectedTools := map[string]bool{
		"summary":        false,
		"list_languages": false,
		"get_language":   false,
		"get_program":    false,
		"list_projects":  false,
		"get_project":    false,
		"random_program": false,
	}
	if len(tools) != len(expectedTools) {
		t.Fatalf("expected %d tools, got %d", len(expectedTools), len(tools))
	}
	for name := range tools {
		if _, ok := expectedTools[name]; ok {
			expectedTools[name] = true
		} else {
			t.Errorf("unexpected tool: %s", name)
		}
	}
	for name, found := range expectedTools {
		if !found {
			t.Errorf("expected tool %q not registered", name)
		}
	}
}

func TestHandleSummary(t *testing.T) {
	s := newServer(t)
	sum := decode[repo.Summary](t, call(t, s, "summary", nil))
	if sum.Languages != 2 || sum.Programs != 3 || sum.Tested != 1 || sum.ApprovedProjects != 2 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestHandleListLanguages(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name string
		args map[string]any
		want []string
	}{
		{"all", nil, []string{"go", "python"}},
		{"by letter", map[string]any{"letter": "p"}, []string{"python"}},
		{"letter without languages", map[string]any{"letter": "z"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views := decode[[]repo.LanguageView](t, call(t, s, "list_languages", tt.args))
			if len(views) != len(tt.want) {
				t.Fatalf("got %d languages, want %d", len(views), len(tt.want))
			}
			for i, v := range views {
				if v.Key != tt.want[i] {
					t.Errorf("languages[%d] = %q, want %q", i, v.Key, tt.want[i])
				}
				if v.Programs != nil {
					t.Errorf("list view of %s should not carry programs", v.Key)
				}
			}
		})
	}
}

func TestHandleGetLanguage(t *testing.T) {
	s := newServer(t)
	v := decode[repo.LanguageView](t, call(t, s, "get_language", map[string]any{"language": "python"}))
	if v.TotalPrograms != 2 || len(v.Programs) != 2 {
		t.Errorf("python = %+v", v)
	}
	if len(v.MissingPrograms) != 0 {
		t.Errorf("missing = %v", v.MissingPrograms)
	}
}

func TestHandleGetProgram(t *testing.T) {
	s := newServer(t)
	result := call(t, s, "get_program", map[string]any{
		"language":     "python",
		"project":      "hello-world",
		"include_code": true,
	})
	type programWithCode struct {
		repo.ProgramView
		Code string `json:"code"`
	}
	got := decode[programWithCode](t, result)
	if got.FileName != "hello_world.py" || got.LineCount != 1 {
		t.Errorf("program = %+v", got.ProgramView)
	}
	if !strings.Contains(got.Code, "Hello, World!") {
		t.Errorf("code = %q", got.Code)
	}
}

func TestHandleGetProject(t *testing.T) {
	s := newServer(t)
	got := decode[struct {
		Key       string   `json:"key"`
		Languages []string `json:"languages"`
	}](t, call(t, s, "get_project", map[string]any{"project": "fizz-buzz"}))
	if got.Key != "fizz-buzz" || len(got.Languages) != 1 || got.Languages[0] != "python" {
		t.Errorf("project = %+v", got)
	}
}

func TestHandleRandomProgram(t *testing.T) {
	s := newServer(t)
	v := decode[repo.ProgramView](t, call(t, s, "random_program", nil))
	if v.Language != "go" && v.Language != "python" {
		t.Errorf("random program from unknown language %q", v.Language)
	}
}

func TestHandleErrors(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name string
		tool string
		args map[string]any
	}{
		{"empty letter", "list_languages", map[string]any{"letter": ""}},
		{"multi-character letter", "list_languages", map[string]any{"letter": "py"}},
		{"missing language", "get_language", nil},
		{"unknown language", "get_language", map[string]any{"language": "cobol"}},
		{"missing project arg", "get_program", map[string]any{"language": "python"}},
		{"unknown project", "get_program", map[string]any{"language": "python", "project": "mst"}},
		{"unimplemented program", "get_program", map[string]any{"language": "go", "project": "fizz-buzz"}},
		{"missing project", "get_project", nil},
		{"unknown project key", "get_project", map[string]any{"project": "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := call(t, s, tt.tool, tt.args); !result.IsError {
				t.Fatal("expected error result")
			}
		})
	}
}
