package main

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/adamwoolhether/crpt/documents"
)

const doc = `{"doc_id":"a","doc_type":"LP_INTRODUCE_GOODS"}`

func TestSubmit(t *testing.T) {
	testCases := []struct {
		name         string
		files        map[string]string
		missing      []string
		wantPrinted  []string
		wantErr      []string
		wantReceived int
	}{
		{
			name:         "all accepted",
			files:        map[string]string{"a.json": doc, "b.json": doc, "c.json": doc},
			wantPrinted:  []string{"a.json", "b.json", "c.json"},
			wantReceived: 3,
		},
		{
			name:         "unreadable file does not stop the rest",
			files:        map[string]string{"a.json": doc},
			missing:      []string{"gone.json"},
			wantPrinted:  []string{"a.json"},
			wantErr:      []string{"gone.json"},
			wantReceived: 1,
		},
		{
			name:         "invalid json is not sent",
			files:        map[string]string{"bad.json": `{"doc_id":`, "a.json": doc},
			wantPrinted:  []string{"a.json"},
			wantErr:      []string{"bad.json", "not valid JSON"},
			wantReceived: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, cfg := registry(t, 10, time.Second, "sig")

			dir := t.TempDir()
			var args []string
			for name, content := range tc.files {
				args = append(args, writeFile(t, dir, name, content))
			}
			for _, name := range tc.missing {
				args = append(args, filepath.Join(dir, name))
			}

			out, err := execute(t, t.Context(), append([]string{"submit", "--config", cfg}, args...)...)

			switch {
			case len(tc.wantErr) == 0 && err != nil:
				t.Fatalf("unexpected error: %v", err)
			case len(tc.wantErr) > 0 && err == nil:
				t.Fatal("expected error")
			}
			for _, want := range tc.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("err = %v; want it to mention %q", err, want)
				}
			}

			lines := strings.Split(strings.TrimSpace(out), "\n")
			if out == "" {
				lines = nil
			}
			if len(lines) != len(tc.wantPrinted) {
				t.Fatalf("printed %d lines; want %d:\n%s", len(lines), len(tc.wantPrinted), out)
			}
			for _, line := range lines {
				path, body, ok := strings.Cut(line, "\t")
				if !ok {
					t.Fatalf("malformed line %q", line)
				}
				if !slices.Contains(tc.wantPrinted, filepath.Base(path)) {
					t.Errorf("unexpected file %s printed", path)
				}
				if !strings.HasPrefix(body, `{"value":"`) {
					t.Errorf("body = %s; want the registry response", body)
				}
			}

			if got := r.Audit().Received; got != tc.wantReceived {
				t.Errorf("registry received %d; want %d", got, tc.wantReceived)
			}
		})
	}
}

func TestSubmit_PrintsInArgumentOrder(t *testing.T) {
	_, cfg := registry(t, 10, time.Second, "sig")

	dir := t.TempDir()
	names := []string{"c.json", "a.json", "b.json"}
	args := []string{"submit", "--config", cfg, "--workers", "3"}
	for _, name := range names {
		args = append(args, writeFile(t, dir, name, doc))
	}

	out, err := execute(t, t.Context(), args...)
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i, line := range lines {
		if got := filepath.Base(strings.SplitN(line, "\t", 2)[0]); got != names[i] {
			t.Errorf("line %d is %s; want %s", i, got, names[i])
		}
	}
}

func TestSubmit_Throttled(t *testing.T) {
	const (
		limit  = 2
		period = 300 * time.Millisecond
		files  = 5
	)

	r, cfg := registry(t, limit, period, "sig")

	dir := t.TempDir()
	args := []string{"submit", "--config", cfg, "--workers", "5"}
	for i := range files {
		args = append(args, writeFile(t, dir, string(rune('a'+i))+".json", doc))
	}

	start := time.Now()
	if _, err := execute(t, t.Context(), args...); err != nil {
		t.Fatal(err)
	}

	// Five documents at two per period need two full periods of waiting.
	if elapsed := time.Since(start); elapsed < 2*period {
		t.Errorf("finished in %s; want at least %s", elapsed, 2*period)
	}

	a := r.Audit()
	if a.Received != files {
		t.Errorf("received = %d; want %d", a.Received, files)
	}
	if a.MaxInWindow > limit {
		t.Errorf("registry saw %d within %s; limit is %d", a.MaxInWindow, a.Period, limit)
	}
}

func TestSubmit_Rejected(t *testing.T) {
	testCases := []struct {
		name      string
		signature string
		args      []string
		wantIs    error
		wantErr   string
	}{
		{
			name:    "no signature",
			args:    []string{"doc.json"},
			wantIs:  documents.ErrMissingSignature,
			wantErr: "CRPT_API_SIGNATURE",
		},
		{
			name:      "no files",
			signature: "sig",
			wantErr:   "requires at least 1 arg",
		},
		{
			name:      "no workers",
			signature: "sig",
			args:      []string{"--workers", "0", "doc.json"},
			wantErr:   "--workers",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, cfg := registry(t, 5, time.Second, tc.signature)

			_, err := execute(t, t.Context(), append([]string{"submit", "--config", cfg}, tc.args...)...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.wantIs != nil && !errors.Is(err, tc.wantIs) {
				t.Errorf("err = %v; want %v", err, tc.wantIs)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("err = %v; want it to mention %q", err, tc.wantErr)
			}

			if got := r.Audit().Received; got != 0 {
				t.Errorf("registry received %d; want 0", got)
			}
		})
	}
}

func TestSubmit_SignatureFlag(t *testing.T) {
	r, cfg := registry(t, 5, time.Second, "")

	path := writeFile(t, t.TempDir(), "a.json", doc)
	if _, err := execute(t, t.Context(), "submit", "--config", cfg, "--signature", "flag-sig", path); err != nil {
		t.Fatal(err)
	}

	if got := r.Audit().Received; got != 1 {
		t.Errorf("registry received %d; want 1", got)
	}
}
