package db

import "testing"

func TestNormalizeMySQLDSN(t *testing.T) {
	cases := map[string]string{
		"mysql://keeper:pw@db:3306/keeperrl":           "keeper:pw@tcp(db:3306)/keeperrl?parseTime=true",
		"mysql://keeper@db:3306/keeperrl?charset=utf8": "keeper@tcp(db:3306)/keeperrl?charset=utf8&parseTime=true",
		"u:p@tcp(h:3306)/d?parseTime=true":             "u:p@tcp(h:3306)/d?parseTime=true",
		"u:p@tcp(h:3306)/d":                            "u:p@tcp(h:3306)/d?parseTime=true",
	}
	for in, want := range cases {
		if got := NormalizeMySQLDSN(in); got != want {
			t.Fatalf("NormalizeMySQLDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenSQLiteMemory(t *testing.T) {
	gdb, err := Open(Options{DataSource: ":memory:", MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	var one int
	if err := gdb.Raw("SELECT 1").Scan(&one).Error; err != nil || one != 1 {
		t.Fatalf("select 1: %v %d", err, one)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(Options{Driver: "oracle", DataSource: "x"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
