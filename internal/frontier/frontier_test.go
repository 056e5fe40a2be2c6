package frontier

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ucicrawl/ucicrawl/internal/types"
	"github.com/ucicrawl/ucicrawl/internal/urlrule"
)

func testConfig(t *testing.T) types.Config {
	cfg := types.DefaultConfig()
	cfg.SaveFile = filepath.Join(t.TempDir(), "frontier.db")
	cfg.TimeDelay = 50 * time.Millisecond
	return cfg
}

func TestOpenSeedsWhenEmpty(t *testing.T) {
	cfg := testConfig(t)
	cfg.SeedURLs = []string{"http://www.ics.uci.edu/"}

	f, err := Open(cfg, urlrule.DefaultValidator(), false)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer f.Close()

	if f.Size() != 1 {
		t.Fatalf("expected 1 seeded url, got %d", f.Size())
	}
}

func TestAddURLIdempotent(t *testing.T) {
	cfg := testConfig(t)
	f, err := Open(cfg, urlrule.DefaultValidator(), true)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	added1, err := f.AddURL("http://www.ics.uci.edu/a")
	if err != nil || !added1 {
		t.Fatalf("expected first AddURL to succeed, got added=%v err=%v", added1, err)
	}

	added2, err := f.AddURL("http://www.ics.uci.edu/a")
	if err != nil || added2 {
		t.Fatalf("expected second AddURL to be a no-op, got added=%v err=%v", added2, err)
	}

	if f.Size() != 1 {
		t.Fatalf("expected queue size 1 after duplicate add, got %d", f.Size())
	}
}

func TestAddURLIdempotentAfterCompletion(t *testing.T) {
	cfg := testConfig(t)
	f, err := Open(cfg, urlrule.DefaultValidator(), true)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	f.AddURL("http://www.ics.uci.edu/a")
	url, ok := f.GetTBDURL()
	if !ok || url != "http://www.ics.uci.edu/a" {
		t.Fatalf("expected to dequeue seeded url, got %q ok=%v", url, ok)
	}
	if err := f.MarkURLComplete(url); err != nil {
		t.Fatal(err)
	}

	added, err := f.AddURL("http://www.ics.uci.edu/a")
	if err != nil || added {
		t.Fatalf("expected re-add of completed url to be a no-op, got added=%v err=%v", added, err)
	}
}

func TestMarkURLCompleteIdempotent(t *testing.T) {
	cfg := testConfig(t)
	f, err := Open(cfg, urlrule.DefaultValidator(), true)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	f.AddURL("http://www.ics.uci.edu/a")
	if err := f.MarkURLComplete("http://www.ics.uci.edu/a"); err != nil {
		t.Fatal(err)
	}
	if err := f.MarkURLComplete("http://www.ics.uci.edu/a"); err != nil {
		t.Fatal(err)
	}

	rec, exists, err := f.seen.get(urlrule.Hash(mustNormalize(t, "http://www.ics.uci.edu/a")))
	if err != nil || !exists {
		t.Fatalf("expected record to exist, exists=%v err=%v", exists, err)
	}
	if !rec.Completed {
		t.Error("expected record to be completed")
	}
}

func TestMarkURLCompleteMissingRecordLogsButUpserts(t *testing.T) {
	cfg := testConfig(t)
	f, err := Open(cfg, urlrule.DefaultValidator(), true)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := f.MarkURLComplete("http://www.ics.uci.edu/never-added"); err != nil {
		t.Fatal(err)
	}

	rec, exists, err := f.seen.get(urlrule.Hash(mustNormalize(t, "http://www.ics.uci.edu/never-added")))
	if err != nil || !exists || !rec.Completed {
		t.Fatalf("expected upserted completed record, exists=%v rec=%+v err=%v", exists, rec, err)
	}
}

func TestPolitenessDelay(t *testing.T) {
	cfg := testConfig(t)
	cfg.TimeDelay = 200 * time.Millisecond
	f, err := Open(cfg, urlrule.DefaultValidator(), true)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	f.AddURL("http://www.ics.uci.edu/a")
	f.AddURL("http://www.ics.uci.edu/b")

	start := time.Now()
	if _, ok := f.GetTBDURL(); !ok {
		t.Fatal("expected first url")
	}
	firstElapsed := time.Since(start)

	start = time.Now()
	if _, ok := f.GetTBDURL(); !ok {
		t.Fatal("expected second url")
	}
	secondElapsed := time.Since(start)

	if firstElapsed >= cfg.TimeDelay {
		t.Errorf("first fetch to a fresh domain should not wait, took %v", firstElapsed)
	}
	if secondElapsed >= cfg.TimeDelay-10*time.Millisecond {
		return // waited as expected
	}
	t.Errorf("second fetch to same domain should wait ~%v, took %v", cfg.TimeDelay, secondElapsed)
}

func TestGetTBDURLTimesOutOnEmptyQueue(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping 10s idle-timeout test in short mode")
	}
	cfg := testConfig(t)
	f, err := Open(cfg, urlrule.DefaultValidator(), true)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, ok := f.GetTBDURL(); ok {
		t.Fatal("expected timeout on empty queue")
	}
}

func TestRestartFalseLoadsOnlyPendingValidURLs(t *testing.T) {
	cfg := testConfig(t)

	f, err := Open(cfg, urlrule.DefaultValidator(), true)
	if err != nil {
		t.Fatal(err)
	}
	f.AddURL("http://www.ics.uci.edu/a")
	f.AddURL("http://www.ics.uci.edu/b")
	f.AddURL("http://www.ics.uci.edu/login/c") // invalid per validator
	urlA, _ := f.GetTBDURL()
	f.MarkURLComplete(urlA) // a -> completed
	f.Close()

	reopened, err := Open(cfg, urlrule.DefaultValidator(), false)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	if reopened.Size() != 1 {
		t.Fatalf("expected exactly 1 pending url after restart, got %d", reopened.Size())
	}
	pending, ok := reopened.GetTBDURL()
	if !ok || pending != "http://www.ics.uci.edu/b" {
		t.Fatalf("expected to reload pending url b, got %q", pending)
	}
}

func mustNormalize(t *testing.T, u string) string {
	t.Helper()
	n, err := urlrule.Normalize(u)
	if err != nil {
		t.Fatal(err)
	}
	return n
}
