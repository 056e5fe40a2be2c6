package urlrule

import "testing"

func TestIsValid(t *testing.T) {
	v := DefaultValidator()

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"allowed subdomain", "http://www.ics.uci.edu/", true},
		{"allowed subdomain https", "https://vision.ics.uci.edu/papers/index.html", true},
		{"wrong domain", "http://example.com/", false},
		{"ignore-list login", "http://www.ics.uci.edu/login/foo", false},
		{"ignore-list calendar word", "http://www.ics.uci.edu/events/week", false},
		{"binary extension pdf", "http://www.ics.uci.edu/file.pdf", false},
		{"binary extension PDF uppercase", "http://www.ics.uci.edu/FILE.PDF", false},
		{"css asset", "http://www.ics.uci.edu/static/site.css", false},
		{"ftp scheme rejected", "ftp://www.ics.uci.edu/", false},
		{"malformed url rejected", "http://[::1", false},
		{"stat subdomain", "https://www.stat.uci.edu/", true},
		{"query string format param", "http://www.ics.uci.edu/page?format=xml", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := v.IsValid(tc.url); got != tc.want {
				t.Errorf("IsValid(%q) = %v, want %v", tc.url, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	urls := []string{
		"HTTP://WWW.ICS.UCI.EDU/Path?Q=1#frag",
		"https://vision.ICS.uci.edu/a/b/c",
	}

	for _, u := range urls {
		once, err := Normalize(u)
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", u, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(%q) error: %v", once, err)
		}
		if once != twice {
			t.Errorf("Normalize not idempotent: %q != %q", once, twice)
		}
	}
}

func TestNormalizeLowercasesHostOnly(t *testing.T) {
	got, err := Normalize("HTTP://WWW.ICS.UCI.EDU/CaseSensitivePath#frag")
	if err != nil {
		t.Fatal(err)
	}
	want := "http://www.ics.uci.edu/CaseSensitivePath"
	if got != want {
		t.Errorf("Normalize() = %q, want %q", got, want)
	}
}

func TestDefrag(t *testing.T) {
	got := Defrag("http://www.ics.uci.edu/a?x=1#section-2")
	want := "http://www.ics.uci.edu/a?x=1"
	if got != want {
		t.Errorf("Defrag() = %q, want %q", got, want)
	}
}

func TestHashStable(t *testing.T) {
	u, _ := Normalize("http://www.ics.uci.edu/")
	h1 := Hash(u)
	h2 := Hash(u)
	if h1 != h2 {
		t.Errorf("Hash not stable: %q != %q", h1, h2)
	}
	if len(h1) != 40 {
		t.Errorf("expected 40-char hex sha1, got %d chars", len(h1))
	}
}
