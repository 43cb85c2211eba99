package runner

import (
	"slices"
	"strings"
	"testing"
)

func envMap(env []string) map[string]string {
	m := make(map[string]string, len(env))
	for _, kv := range env {
		k, v, _ := strings.Cut(kv, "=")
		m[k] = v
	}
	return m
}

func TestMergeEnv_OverrideWins(t *testing.T) {
	base := []string{"HOME=/home/me", "PATH=/bin", "LANG=C"}
	got := MergeEnv(base, map[string]string{"PATH": "/opt/bin", "NEW": "1"})

	m := envMap(got)
	want := map[string]string{"HOME": "/home/me", "PATH": "/opt/bin", "LANG": "C", "NEW": "1"}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s = %q, want %q", k, m[k], v)
		}
	}
	if len(got) != len(want) {
		t.Errorf("len(env) = %d, want %d: %v", len(got), len(want), got)
	}
	// Replaced keys keep their position.
	if got[1] != "PATH=/opt/bin" {
		t.Errorf("env[1] = %q, want PATH=/opt/bin", got[1])
	}
}

func TestMergeEnv_NoOverrides(t *testing.T) {
	base := []string{"A=1", "B=2"}
	got := MergeEnv(base, nil)
	if !slices.Equal(got, base) {
		t.Errorf("MergeEnv(base, nil) = %v, want %v", got, base)
	}
	got[0] = "A=changed"
	if base[0] != "A=1" {
		t.Error("MergeEnv aliased the base slice")
	}
}

func TestMergeEnv_DuplicateInheritedKey(t *testing.T) {
	base := []string{"A=1", "A=2", "B=3"}
	got := MergeEnv(base, map[string]string{"A": "x"})
	n := 0
	for _, kv := range got {
		if strings.HasPrefix(kv, "A=") {
			n++
			if kv != "A=x" {
				t.Errorf("entry = %q, want A=x", kv)
			}
		}
	}
	if n != 1 {
		t.Errorf("A appears %d times, want 1: %v", n, got)
	}
}

func TestMergeEnv_AddedKeysSorted(t *testing.T) {
	got := MergeEnv([]string{"A=1"}, map[string]string{"Z": "z", "M": "m", "C": "c"})
	want := []string{"A=1", "C=c", "M=m", "Z=z"}
	if !slices.Equal(got, want) {
		t.Errorf("MergeEnv = %v, want %v", got, want)
	}
}

func TestMergeEnv_KeepsKeylessEntries(t *testing.T) {
	base := []string{"=C:=C:\\", "A=1", "junk"}
	got := MergeEnv(base, map[string]string{"A": "2"})
	want := []string{"=C:=C:\\", "A=2", "junk"}
	if !slices.Equal(got, want) {
		t.Errorf("MergeEnv = %v, want %v", got, want)
	}
}

func TestMergeEnv_Property(t *testing.T) {
	base := []string{"A=1", "B=2", "C=3"}
	overrides := []map[string]string{
		{},
		{"A": ""},
		{"B": "two", "D": "four"},
		{"A": "a", "B": "b", "C": "c"},
		{"E": "=", "F": "with spaces"},
	}
	for _, o := range overrides {
		m := envMap(MergeEnv(base, o))
		for k, v := range envMap(base) {
			if ov, ok := o[k]; ok {
				v = ov
			}
			if m[k] != v {
				t.Errorf("overrides %v: %s = %q, want %q", o, k, m[k], v)
			}
		}
		for k, v := range o {
			if m[k] != v {
				t.Errorf("overrides %v: %s = %q, want %q", o, k, m[k], v)
			}
		}
	}
}
