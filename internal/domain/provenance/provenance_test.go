package provenance

import (
	"testing"
	"time"
)

func TestAggregate(t *testing.T) {
	t.Parallel()

	jan := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC)

	got := Aggregate(
		[]string{"description.md", "requirements.md"},
		[]Blame{
			{Authors: []string{"Jeremy", "Ana"}, Timestamps: []time.Time{mar, jun}},
			{Authors: []string{"Ana", "Zed"}, Timestamps: []time.Time{jan}},
		},
	)

	wantAuthors := []string{"Ana", "Jeremy", "Zed"}
	if len(got.Authors) != len(wantAuthors) {
		t.Fatalf("authors = %v, want %v", got.Authors, wantAuthors)
	}
	for i := range wantAuthors {
		if got.Authors[i] != wantAuthors[i] {
			t.Errorf("authors[%d] = %q, want %q", i, got.Authors[i], wantAuthors[i])
		}
	}
	if !got.Created.Equal(jan) {
		t.Errorf("created = %v, want %v", got.Created, jan)
	}
	if !got.Modified.Equal(jun) {
		t.Errorf("modified = %v, want %v", got.Modified, jun)
	}
	if !got.Documented() || !got.HasTimestamps() {
		t.Error("expected documented provenance with timestamps")
	}
}

func TestAggregateNoFiles(t *testing.T) {
	t.Parallel()

	got := Aggregate(nil, nil)
	if got.Documented() {
		t.Error("expected undocumented provenance")
	}
	if got.HasTimestamps() {
		t.Error("expected no timestamps")
	}
	if got.Authors != nil {
		t.Errorf("authors = %v, want nil", got.Authors)
	}
}

func TestAggregateEmptyBlame(t *testing.T) {
	t.Parallel()

	// A documented file that is not yet committed has no blame data.
	got := Aggregate([]string{"description.md"}, []Blame{{}})
	if !got.Documented() {
		t.Error("expected documented provenance")
	}
	if got.HasTimestamps() {
		t.Error("expected no timestamps for empty blame")
	}
}
