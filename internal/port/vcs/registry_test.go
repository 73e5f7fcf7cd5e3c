package vcs_test

import (
	"context"
	"slices"
	"testing"

	"github.com/Strob0t/subete/internal/domain/provenance"
	"github.com/Strob0t/subete/internal/port/vcs"
)

type testRepo struct{ root string }

func (r *testRepo) Root() string                               { return r.root }
func (r *testRepo) Revision(_ context.Context) (string, error) { return "abc123", nil }
func (r *testRepo) Close() error                               { return nil }
func (r *testRepo) Blame(_ context.Context, _ string) (provenance.Blame, error) {
	return provenance.Blame{}, nil
}

type testOpener struct{ name string }

func (o *testOpener) Name() string { return o.name }
func (o *testOpener) Open(_ context.Context, location string) (vcs.Repository, error) {
	return &testRepo{root: location}, nil
}

func TestRegisterAndNew(t *testing.T) {
	vcs.Register("test-vcs", func(_ map[string]string) (vcs.Opener, error) {
		return &testOpener{name: "test-vcs"}, nil
	})

	o, err := vcs.New("test-vcs", nil)
	if err != nil {
		t.Fatal(err)
	}
	if o.Name() != "test-vcs" {
		t.Fatalf("expected test-vcs, got %s", o.Name())
	}
	r, err := o.Open(context.Background(), "/tmp/x")
	if err != nil {
		t.Fatal(err)
	}
	if r.Root() != "/tmp/x" {
		t.Errorf("Root() = %q", r.Root())
	}
	if !slices.Contains(vcs.Available(), "test-vcs") {
		t.Errorf("Available() = %v, missing test-vcs", vcs.Available())
	}
}

func TestNewUnknown(t *testing.T) {
	if _, err := vcs.New("nonexistent-vcs", nil); err == nil {
		t.Fatal("expected error for unknown opener")
	}
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	vcs.Register("dup-vcs", func(_ map[string]string) (vcs.Opener, error) { return nil, nil })
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	vcs.Register("dup-vcs", func(_ map[string]string) (vcs.Opener, error) { return nil, nil })
}
