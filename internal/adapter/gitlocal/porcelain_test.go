package gitlocal

import (
	"testing"
	"time"
)

const porcelainSample = `1111111111111111111111111111111111111111 1 1 2
author Jeremy Grifski
author-mail <jeremy@example.com>
author-time 1577836800
author-tz +0000
committer Jeremy Grifski
committer-time 1577836800
summary Added hello world
filename description.md
	Hello World is the simplest program.
1111111111111111111111111111111111111111 2 2
	It prints a greeting.
2222222222222222222222222222222222222222 3 3 1
author Stuart Irwin
author-mail <stuart@example.com>
author-time 1609459200
author-tz +0000
committer Stuart Irwin
committer-time 1609459200
summary Fixed typo
previous 1111111111111111111111111111111111111111 description.md
filename description.md
	Thanks for reading.
0000000000000000000000000000000000000000 4 4 1
author Not Committed Yet
author-mail <not.committed.yet>
author-time 1700000000
author-tz +0000
committer Not Committed Yet
committer-time 1700000000
summary Version of description.md from description.md
filename description.md
	local edit
`

func TestParsePorcelain(t *testing.T) {
	b, err := parsePorcelain(porcelainSample)
	if err != nil {
		t.Fatalf("parsePorcelain: %v", err)
	}
	if len(b.Authors) != 2 || b.Authors[0] != "Jeremy Grifski" || b.Authors[1] != "Stuart Irwin" {
		t.Errorf("Authors = %v", b.Authors)
	}
	if len(b.Timestamps) != 3 {
		t.Fatalf("Timestamps = %v, want 3 committed lines", b.Timestamps)
	}
	if !b.Timestamps[1].Equal(time.Unix(1577836800, 0)) {
		t.Errorf("second line timestamp = %v", b.Timestamps[1])
	}
	if !b.Timestamps[2].Equal(time.Unix(1609459200, 0)) {
		t.Errorf("third line timestamp = %v", b.Timestamps[2])
	}
}

func TestParsePorcelainEmpty(t *testing.T) {
	b, err := parsePorcelain("")
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Authors) != 0 || len(b.Timestamps) != 0 {
		t.Errorf("expected empty blame, got %+v", b)
	}
}

func TestParsePorcelainMalformed(t *testing.T) {
	if _, err := parsePorcelain("not a header\n\tline\n"); err == nil {
		t.Fatal("expected error for malformed header")
	}
}
