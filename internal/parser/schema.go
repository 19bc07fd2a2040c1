package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrFieldCount means the output had more or fewer fields than the mode promises.
	ErrFieldCount = errors.New("field count mismatch")
	// ErrFieldType means a field could not be converted to its declared type.
	ErrFieldType = errors.New("field type mismatch")
)

type FieldKind int

const (
	String FieldKind = iota
	Int
)

// Field describes one positional value.
type Field struct {
	Name string
	Kind FieldKind
	// Rest marks the last field as absorbing all remaining lines.
	Rest bool
}

// Schema is the ordered list of fields a producer emits.
type Schema struct {
	Name   string
	Fields []Field
}

var (
	GameSaveSchema = Schema{Name: "game save", Fields: []Field{
		{Name: "display_name"},
		{Name: "version", Kind: Int},
	}}
	SiteSaveSchema = Schema{Name: "site save", Fields: []Field{
		{Name: "display_name"},
		{Name: "version", Kind: Int},
		{Name: "save_info", Rest: true},
	}}
	// HighscoreSchema is one comma-separated line of --highscores output.
	HighscoreSchema = Schema{Name: "highscore", Fields: []Field{
		{Name: "game_id"},
		{Name: "player_name"},
		{Name: "world_name"},
		{Name: "game_result"},
		{Name: "game_won", Kind: Int},
		{Name: "points", Kind: Int},
		{Name: "turns", Kind: Int},
		{Name: "game_type"},
		{Name: "player_role"},
		{Name: "version", Kind: Int},
	}}
)

// SchemaFor returns the whole-output schema of a metadata mode.
func SchemaFor(m Mode) (Schema, bool) {
	switch m {
	case ModeGameSave:
		return GameSaveSchema, true
	case ModeSiteSave:
		return SiteSaveSchema, true
	}
	return Schema{}, false
}

// Record holds decoded values by field name.
type Record struct {
	strs map[string]string
	ints map[string]int
}

func (r Record) Str(name string) string { return r.strs[name] }
func (r Record) Int(name string) int    { return r.ints[name] }

// Decode maps values onto the schema positionally.
func (s Schema) Decode(values []string) (Record, error) {
	if len(values) != len(s.Fields) {
		return Record{}, fmt.Errorf("%s: want %d fields, got %d: %w", s.Name, len(s.Fields), len(values), ErrFieldCount)
	}
	rec := Record{strs: make(map[string]string, len(values)), ints: map[string]int{}}
	for i, f := range s.Fields {
		v := values[i]
		rec.strs[f.Name] = v
		if f.Kind == Int {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				return Record{}, fmt.Errorf("%s: field %s=%q is not an integer: %w", s.Name, f.Name, v, ErrFieldType)
			}
			rec.ints[f.Name] = n
		}
	}
	return rec, nil
}

// DecodeLines decodes one field per line. Trailing blank lines are ignored and
// a Rest field joins every remaining line.
func (s Schema) DecodeLines(lines []string) (Record, error) {
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	n := len(s.Fields)
	if n > 0 && s.Fields[n-1].Rest && len(lines) > n {
		joined := strings.Join(lines[n-1:], "\n")
		lines = append(append([]string{}, lines[:n-1]...), joined)
	}
	return s.Decode(lines)
}

// DecodeDelimited splits one line on sep and decodes it.
func (s Schema) DecodeDelimited(line, sep string) (Record, error) {
	return s.Decode(strings.Split(line, sep))
}
