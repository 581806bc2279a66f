package idhash

import (
	"testing"

	"launch-radar/internal/domain"
)

func TestComputeSignalID_Deterministic(t *testing.T) {
	id1 := ComputeSignalID(domain.SourceTwitter, "1881234567890")
	id2 := ComputeSignalID(domain.SourceTwitter, "1881234567890")

	if id1 != id2 {
		t.Errorf("same input produced different ids: %s vs %s", id1, id2)
	}
	if len(id1) != 64 {
		t.Errorf("expected 64-char hex id, got %d chars", len(id1))
	}
}

func TestComputeSignalID_DistinguishesSources(t *testing.T) {
	twitter := ComputeSignalID(domain.SourceTwitter, "12345")
	discord := ComputeSignalID(domain.SourceDiscord, "12345")

	if twitter == discord {
		t.Error("different sources with same source id must produce different ids")
	}
}

func TestComputeSignalID_DistinguishesSourceIDs(t *testing.T) {
	a := ComputeSignalID(domain.SourceTwitter, "1")
	b := ComputeSignalID(domain.SourceTwitter, "2")

	if a == b {
		t.Error("different source ids must produce different ids")
	}
}
