package main

import "testing"

func TestBuildReport(t *testing.T) {
	r, err := build("fn box = (w, h) => {\n  return w * h\n}\nBad_Name = box(2, 3)\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Digest) != 32 {
		t.Errorf("digest = %q", r.Digest)
	}
	if len(r.Symbols) != 2 || len(r.Folds) != 1 || len(r.Findings) != 1 {
		t.Errorf("unexpected report: %d symbols, %d folds, %d findings", len(r.Symbols), len(r.Folds), len(r.Findings))
	}

	if _, err := build("x = (\n"); err == nil {
		t.Error("expected syntax error")
	}
}
