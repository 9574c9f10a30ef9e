package file

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSink_AppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	for _, payload := range []string{"a\n", "bb\n"} {
		d := &driver{}
		if err := d.Configure(Config{Path: path}); err != nil {
			t.Fatalf("Configure: %v", err)
		}
		if _, err := d.Write([]byte(payload)); err != nil {
			t.Fatalf("Write: %v", err)
		}
		if err := d.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "a\nbb\n" {
		t.Fatalf("unexpected file content %q", got)
	}
}

func TestFileSink_Truncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	if err := os.WriteFile(path, []byte("old\n"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	d := &driver{}
	if err := d.Configure(Config{Path: path, Truncate: true}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	_, _ = d.Write([]byte("new\n"))
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "new\n" {
		t.Fatalf("unexpected file content %q", got)
	}
}
