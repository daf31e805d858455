package fqn

import "testing"

func TestCompute(t *testing.T) {
	cases := []struct {
		relPath string
		scope   []string
		want    string
	}{
		{"parts/flange.kcl", []string{"thickness"}, "bracket.parts.flange.thickness"},
		{"main.kcl", []string{"box", "width"}, "bracket.main.box.width"},
		{"sub/main.kcl", []string{"x"}, "bracket.sub.x"},
		{"parts/main.kcl", []string{"box"}, "bracket.parts.box"},
		{"sub/main.kcl", nil, "bracket.sub"},
		{"a.kcl", []string{"", "y"}, "bracket.a.y"},
	}
	for _, c := range cases {
		if got := Compute("bracket", c.relPath, c.scope...); got != c.want {
			t.Errorf("Compute(%q, %v) = %q, want %q", c.relPath, c.scope, got, c.want)
		}
	}
}

func TestProjectName(t *testing.T) {
	if got := ProjectName("/home/me/my.parts/"); got != "my_parts" {
		t.Errorf("ProjectName = %q", got)
	}
	if got := ProjectName("/"); got != "workspace" {
		t.Errorf("ProjectName(/) = %q", got)
	}
}
