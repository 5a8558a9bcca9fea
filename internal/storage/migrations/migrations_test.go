package migrations

import (
	"errors"
	"sort"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	for _, d := range []Dialect{Postgres, Clickhouse} {
		ms, err := Load(d)
		if err != nil {
			t.Fatalf("Load(%s): %v", d, err)
		}
		if len(ms) == 0 {
			t.Fatalf("Load(%s): no migrations", d)
		}
		names := make([]string, len(ms))
		for i, m := range ms {
			names[i] = m.Name
			if len(m.Checksum) != 64 {
				t.Errorf("%s: checksum %q is not hex sha256", m.Name, m.Checksum)
			}
			if strings.TrimSpace(m.SQL) == "" {
				t.Errorf("%s: empty SQL", m.Name)
			}
		}
		if !sort.StringsAreSorted(names) {
			t.Errorf("Load(%s) order = %v", d, names)
		}
	}

	if _, err := Load("sqlite"); err == nil {
		t.Error("expected error for unknown dialect")
	}
}

func TestPending(t *testing.T) {
	all := []Migration{
		{Name: "001_a.sql", Checksum: "aa"},
		{Name: "002_b.sql", Checksum: "bb"},
	}

	todo, err := pending(all, map[string]string{"001_a.sql": "aa"})
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(todo) != 1 || todo[0].Name != "002_b.sql" {
		t.Errorf("pending = %+v, want only 002_b.sql", todo)
	}

	_, err = pending(all, map[string]string{"001_a.sql": "changed"})
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("expected ErrChecksumMismatch, got %v", err)
	}
}

func TestStatements(t *testing.T) {
	script := `-- header; with a semicolon
CREATE TABLE a (x String DEFAULT 'a;b');
/* block; comment */
INSERT INTO a VALUES ('it''s; fine');

;
SELECT "weird;name" FROM a`

	got := Statements(script)
	want := []string{
		"CREATE TABLE a (x String DEFAULT 'a;b')",
		"INSERT INTO a VALUES ('it''s; fine')",
		`SELECT "weird;name" FROM a`,
	}
	if len(got) != len(want) {
		t.Fatalf("Statements = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("statement %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStatements_Migrations(t *testing.T) {
	ms, err := Load(Clickhouse)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range ms {
		stmts := Statements(m.SQL)
		if len(stmts) == 0 {
			t.Errorf("%s: no statements", m.Name)
		}
		for _, s := range stmts {
			if strings.Contains(s, "--") {
				t.Errorf("%s: comment left in %q", m.Name, s)
			}
		}
	}
}
