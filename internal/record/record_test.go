package record

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolvedSender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"domain preferred", Record{Sender: "bob@example.com", SenderDomain: "example.com"}, "example.com"},
		{"fallback to sender", Record{Sender: "bob@example.com"}, "bob@example.com"},
		{"blank domain falls back", Record{Sender: "bob", SenderDomain: "  "}, "bob"},
		{"neither", Record{URL: "http://x"}, ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.rec.ResolvedSender(); got != tt.want {
				t.Errorf("ResolvedSender() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEmpty(t *testing.T) {
	t.Parallel()
	if !(Record{}).Empty() {
		t.Error("zero Record should be empty")
	}
	if !(Record{Sender: " ", URL: "\t"}).Empty() {
		t.Error("whitespace-only Record should be empty")
	}
	if (Record{Domain: "d1"}).Empty() {
		t.Error("Record with a domain should not be empty")
	}
}

func TestRead(t *testing.T) {
	t.Parallel()

	t.Run("all columns", func(t *testing.T) {
		t.Parallel()
		in := "sender,sender_domain,url,domain,label\n" +
			"a@x.com,x.com,http://u1,d1,0\n" +
			",,http://u2,,1\n"
		got, err := Read(strings.NewReader(in), ReadOptions{})
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		want := []Record{
			{Sender: "a@x.com", SenderDomain: "x.com", URL: "http://u1", Domain: "d1"},
			{URL: "http://u2"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Read mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing columns are absent", func(t *testing.T) {
		t.Parallel()
		got, err := Read(strings.NewReader("url\nhttp://u1\n"), ReadOptions{})
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		want := []Record{{URL: "http://u1"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Read mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("case-insensitive and candidate headers", func(t *testing.T) {
		t.Parallel()
		got, err := Read(strings.NewReader("From,URL,Domain\nbob@y.org,http://u,y.org\n"), ReadOptions{})
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		want := []Record{{Sender: "bob@y.org", URL: "http://u", Domain: "y.org"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Read mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("short rows", func(t *testing.T) {
		t.Parallel()
		got, err := Read(strings.NewReader("sender,url,domain\na,u1\n"), ReadOptions{})
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		want := []Record{{Sender: "a", URL: "u1"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Read mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("max rows", func(t *testing.T) {
		t.Parallel()
		in := "url\nu1\nu2\nu3\n"
		got, err := Read(strings.NewReader(in), ReadOptions{MaxRows: 2})
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d records, want 2", len(got))
		}
		if got[1].URL != "u2" {
			t.Errorf("second record URL = %q, want u2", got[1].URL)
		}
	})

	t.Run("zero max rows is unlimited", func(t *testing.T) {
		t.Parallel()
		got, err := Read(strings.NewReader("url\nu1\nu2\nu3\n"), ReadOptions{MaxRows: 0})
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("got %d records, want 3", len(got))
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		got, err := Read(strings.NewReader(""), ReadOptions{})
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("got %d records, want 0", len(got))
		}
	})

	t.Run("derive domains", func(t *testing.T) {
		t.Parallel()
		in := "sender,url,domain\nbob@Mail.Example.com,https://login.evil.co.uk/x,\n"
		got, err := Read(strings.NewReader(in), ReadOptions{DeriveDomains: true})
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		want := []Record{{
			Sender:       "bob@Mail.Example.com",
			SenderDomain: "mail.example.com",
			URL:          "https://login.evil.co.uk/x",
			Domain:       "evil.co.uk",
		}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Read mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestReadFile_Missing(t *testing.T) {
	t.Parallel()
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"), ReadOptions{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("got %v, want os.ErrNotExist", err)
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "in.csv")
	if err := os.WriteFile(path, []byte("sender_domain,url\nx.com,u1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path, ReadOptions{})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 1 || got[0].ResolvedSender() != "x.com" {
		t.Errorf("ReadFile = %+v, want one record from x.com", got)
	}
}

func TestURLDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{"https://www.example.com/path?q=1", "example.com"},
		{"http://a.b.example.co.uk:8080/", "example.co.uk"},
		{"example.org/login", "example.org"},
		{"http://192.168.0.1/admin", "192.168.0.1"},
		{"http://localhost/", "localhost"},
		{"", ""},
		{"http://", ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			if got := URLDomain(tt.raw); got != tt.want {
				t.Errorf("URLDomain(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDerive_KeepsPresentFields(t *testing.T) {
	t.Parallel()
	in := Record{Sender: "a@b.com", SenderDomain: "given.com", URL: "http://x.org", Domain: "given.org"}
	if got := Derive(in); got != in {
		t.Errorf("Derive overwrote present fields: %+v", got)
	}
}
