package fswalk

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func mkfile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "p", "python", "hello_world.py"))
	mkfile(t, filepath.Join(root, "p", "python", "README.md"))
	mkfile(t, filepath.Join(root, "g", "go", "hello-world.go"))
	mkfile(t, filepath.Join(root, ".git", "HEAD"))
	mkfile(t, filepath.Join(root, "p", "python", ".hidden"))

	visited := map[string][]string{}
	var order []string
	err := New().Walk(root, func(dir string, subdirs, files []string) error {
		rel, _ := filepath.Rel(root, dir)
		order = append(order, rel)
		visited[rel] = files
		return nil
	})
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}

	wantOrder := []string{".", "g", filepath.Join("g", "go"), "p", filepath.Join("p", "python")}
	if !reflect.DeepEqual(order, wantOrder) {
		t.Errorf("order = %v, want %v", order, wantOrder)
	}
	if got := visited[filepath.Join("p", "python")]; !reflect.DeepEqual(got, []string{"README.md", "hello_world.py"}) {
		t.Errorf("python files = %v", got)
	}
}

func TestListDirs(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"hello-world", "fizz-buzz", ".cache"} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	mkfile(t, filepath.Join(root, "index.md"))

	got, err := New().ListDirs(root)
	if err != nil {
		t.Fatalf("ListDirs: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"fizz-buzz", "hello-world"}) {
		t.Errorf("ListDirs = %v", got)
	}
}

func TestListDirsMissing(t *testing.T) {
	if _, err := New().ListDirs(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
