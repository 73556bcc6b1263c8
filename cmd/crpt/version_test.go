package main

import (
	"runtime"
	"strings"
	"testing"
)

func TestVersionCmd(t *testing.T) {
	origVersion := Version
	t.Cleanup(func() { Version = origVersion })
	Version = "0.1.0-test"

	out, err := execute(t, t.Context(), "version")
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"crpt 0.1.0-test", "Git Commit: unknown", runtime.Version(), runtime.GOOS + "/" + runtime.GOARCH} {
		if !strings.Contains(out, want) {
			t.Errorf("version output missing %q:\n%s", want, out)
		}
	}
}

func TestVersionCmd_RejectsArgs(t *testing.T) {
	if _, err := execute(t, t.Context(), "version", "extra"); err == nil {
		t.Error("expected error for unexpected argument")
	}
}
