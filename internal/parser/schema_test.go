package parser

import (
	"errors"
	"testing"
)

func TestGameSaveSchemaDecodeLines(t *testing.T) {
	rec, err := GameSaveSchema.DecodeLines([]string{"Keeper's Dungeon", "3"})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Str("display_name") != "Keeper's Dungeon" || rec.Int("version") != 3 {
		t.Fatalf("unexpected record: %q %d", rec.Str("display_name"), rec.Int("version"))
	}
}

func TestDecodeLinesShortOutputIsFieldCountError(t *testing.T) {
	_, err := GameSaveSchema.DecodeLines([]string{"only a name"})
	if !errors.Is(err, ErrFieldCount) {
		t.Fatalf("want ErrFieldCount, got %v", err)
	}
	_, err = GameSaveSchema.DecodeLines(nil)
	if !errors.Is(err, ErrFieldCount) {
		t.Fatalf("want ErrFieldCount for empty output, got %v", err)
	}
}

func TestDecodeLinesExtraOutputIsFieldCountError(t *testing.T) {
	_, err := GameSaveSchema.DecodeLines([]string{"name", "3", "surprise"})
	if !errors.Is(err, ErrFieldCount) {
		t.Fatalf("want ErrFieldCount, got %v", err)
	}
}

func TestDecodeLinesBadVersionIsFieldTypeError(t *testing.T) {
	_, err := GameSaveSchema.DecodeLines([]string{"name", "three"})
	if !errors.Is(err, ErrFieldType) {
		t.Fatalf("want ErrFieldType, got %v", err)
	}
}

func TestSiteSaveSchemaRestFieldAndTrailingBlank(t *testing.T) {
	rec, err := SiteSaveSchema.DecodeLines([]string{"Fort", "12", "part one", "part two", ""})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Str("save_info") != "part one\npart two" {
		t.Fatalf("save_info = %q", rec.Str("save_info"))
	}
	if rec.Int("version") != 12 {
		t.Fatalf("version = %d", rec.Int("version"))
	}
}

func TestHighscoreSchemaDecodeDelimited(t *testing.T) {
	rec, err := HighscoreSchema.DecodeDelimited("g1,Bob,Mordor,killed by a goblin,0,120,4000,CAMPAIGN,KEEPER,31", ",")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Str("player_role") != "KEEPER" || rec.Int("points") != 120 || rec.Int("version") != 31 {
		t.Fatalf("unexpected record")
	}
	if _, err := HighscoreSchema.DecodeDelimited("g1,Bob", ","); !errors.Is(err, ErrFieldCount) {
		t.Fatalf("want ErrFieldCount, got %v", err)
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("a\r\nb  \n\nc\n")
	want := []string{"a", "b", "", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d: got %q want %q", i, got[i], want[i])
		}
	}
	if SplitLines("") != nil {
		t.Fatalf("empty output should yield no lines")
	}
}
