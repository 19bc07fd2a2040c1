package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/cuihairu/keeperhub/internal/objstore"
	"github.com/cuihairu/keeperhub/internal/parser"
	scoresgorm "github.com/cuihairu/keeperhub/internal/repo/gorm/highscores"
	retiredgorm "github.com/cuihairu/keeperhub/internal/repo/gorm/retired"
)

type fixture struct {
	dir     string
	store   objstore.Store
	db      *gorm.DB
	retired *retiredgorm.Repo
	scores  *scoresgorm.Repo
	calls   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := retiredgorm.AutoMigrate(db); err != nil {
		t.Fatalf("migrate retired: %v", err)
	}
	if err := scoresgorm.AutoMigrate(db); err != nil {
		t.Fatalf("migrate scores: %v", err)
	}
	dir := t.TempDir()
	store, err := objstore.Open(context.Background(), objstore.Config{Driver: "file", BaseDir: dir})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return &fixture{dir: dir, store: store, db: db, retired: retiredgorm.NewRepo(db), scores: scoresgorm.NewRepo(db)}
}

// pipeline wires a parser that prints out and exits with code.
func (f *fixture) pipeline(t *testing.T, code int, out ...string) *Pipeline {
	t.Helper()
	return f.pipelineWith(t, parser.Func(func(ctx context.Context, mode parser.Mode, path string) (parser.Result, error) {
		f.calls++
		if _, err := os.Stat(path); err != nil {
			t.Errorf("parser got missing path %s: %v", path, err)
		}
		return parser.Result{Lines: out, ExitCode: code}, nil
	}), f.retired)
}

func (f *fixture) pipelineWith(t *testing.T, p parser.Parser, retired RetiredRepo) *Pipeline {
	t.Helper()
	return New(Options{
		Store:    f.store,
		Parser:   p,
		Retired:  retired,
		Scores:   f.scores,
		SpoolDir: t.TempDir(),
	})
}

func (f *fixture) stored(name string) bool {
	_, err := os.Stat(filepath.Join(f.dir, name))
	return err == nil
}

func upload(name, body string) File {
	return File{Name: name, Size: int64(len(body)), Body: strings.NewReader(body)}
}

func wantKind(t *testing.T, err error, k Kind) *Error {
	t.Helper()
	var ie *Error
	if !errors.As(err, &ie) {
		t.Fatalf("want %s, got %v", k, err)
	}
	if ie.Kind != k {
		t.Fatalf("want %s, got %s (%v)", k, ie.Kind, err)
	}
	return ie
}

func TestIngestGameSave(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t, 0, "Keeper's Dungeon", "3")
	row, err := p.IngestGameSave(context.Background(), upload("save1.ret", "binary save"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if row.Filename != "save1.ret" || row.DisplayName != "Keeper's Dungeon" || row.Version != 3 {
		t.Fatalf("unexpected row: %+v", row)
	}
	if !f.stored("save1.ret") {
		t.Fatalf("expected stored artifact")
	}
	got, err := os.ReadFile(filepath.Join(f.dir, "save1.ret"))
	if err != nil || string(got) != "binary save" {
		t.Fatalf("stored content %q %v", got, err)
	}
	games, _ := f.retired.ListGames(context.Background(), nil)
	if len(games) != 1 {
		t.Fatalf("want 1 row, got %d", len(games))
	}
}

func TestIngestGameSaveStripsClientDirectories(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t, 0, "Dungeon", "3")
	row, err := p.IngestGameSave(context.Background(), upload(`C:\saves\..\save1.ret`, "x"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if row.Filename != "save1.ret" || !f.stored("save1.ret") {
		t.Fatalf("expected basename key, got %q", row.Filename)
	}
}

func TestIngestGameSaveWrongExtension(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t, 0, "Dungeon", "3")
	_, err := p.IngestGameSave(context.Background(), upload("save2.txt", "x"))
	ie := wantKind(t, err, UnsupportedFileType)
	if ie.Message != MsgWrongGameType {
		t.Fatalf("message %q", ie.Message)
	}
	if f.calls != 0 || f.stored("save2.txt") {
		t.Fatalf("rejected upload must have no side effects")
	}
}

func TestIngestGameSaveDuplicateCheckedFirst(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t, 0, "Dungeon", "3")
	ctx := context.Background()
	if _, err := p.IngestGameSave(ctx, upload("save1.ret", "first")); err != nil {
		t.Fatalf("first: %v", err)
	}
	big := File{Name: "save1.ret", Size: 20000000, Body: strings.NewReader("second")}
	_, err := p.IngestGameSave(ctx, big)
	wantKind(t, err, DuplicateFile)
	got, _ := os.ReadFile(filepath.Join(f.dir, "save1.ret"))
	if string(got) != "first" {
		t.Fatalf("original artifact overwritten: %q", got)
	}
	games, _ := f.retired.ListGames(ctx, nil)
	if len(games) != 1 {
		t.Fatalf("want 1 row, got %d", len(games))
	}
}

func TestIngestSizeBeforeExtension(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t, 0, "Dungeon", "3")
	_, err := p.IngestSiteSave(context.Background(), File{Name: "big.txt", Size: 5000001, Body: strings.NewReader("")})
	wantKind(t, err, FileTooLarge)

	_, err = p.IngestSiteSave(context.Background(), File{Name: "ok.sit", Size: 5000000, Body: strings.NewReader("")})
	if err == nil {
		return
	}
	if KindOf(err) == FileTooLarge {
		t.Fatalf("size equal to the ceiling must be accepted")
	}
}

func TestIngestParseFailureRemovesArtifact(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t, 1)
	_, err := p.IngestGameSave(context.Background(), upload("save1.ret", "corrupt"))
	ie := wantKind(t, err, ParseFailed)
	if ie.Message != MsgParseSave {
		t.Fatalf("message %q", ie.Message)
	}
	if f.stored("save1.ret") {
		t.Fatalf("artifact must be removed after a parse failure")
	}
	games, _ := f.retired.ListGames(context.Background(), nil)
	if len(games) != 0 {
		t.Fatalf("want no rows, got %d", len(games))
	}
}

func TestIngestMalformedParserOutput(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t, 0, "Dungeon", "three")
	_, err := p.IngestGameSave(context.Background(), upload("save1.ret", "x"))
	wantKind(t, err, ParseFailed)
	if !errors.Is(err, parser.ErrFieldType) {
		t.Fatalf("want field type cause, got %v", err)
	}
	if f.stored("save1.ret") {
		t.Fatalf("artifact must be removed")
	}
}

func TestIngestParserTimeout(t *testing.T) {
	f := newFixture(t)
	p := f.pipelineWith(t, parser.Func(func(context.Context, parser.Mode, string) (parser.Result, error) {
		return parser.Result{ExitCode: -1}, parser.ErrTimeout
	}), f.retired)
	_, err := p.IngestSiteSave(context.Background(), upload("site.sit", "x"))
	wantKind(t, err, ParseFailed)
	if f.stored("site.sit") {
		t.Fatalf("artifact must be removed")
	}
}

type failingRetired struct{ err error }

func (r failingRetired) CreateGame(context.Context, *retiredgorm.RetiredGame) error { return r.err }
func (r failingRetired) CreateSite(context.Context, *retiredgorm.RetiredSite) error { return r.err }
func (failingRetired) GameExists(context.Context, string) (bool, error)             { return false, nil }
func (failingRetired) SiteExists(context.Context, string) (bool, error)             { return false, nil }

func TestIngestPersistFailureRemovesArtifact(t *testing.T) {
	f := newFixture(t)
	p := f.pipelineWith(t, parser.Func(func(context.Context, parser.Mode, string) (parser.Result, error) {
		return parser.Result{Lines: []string{"Dungeon", "3"}}, nil
	}), failingRetired{err: errors.New("connection refused")})
	_, err := p.IngestGameSave(context.Background(), upload("save1.ret", "x"))
	ie := wantKind(t, err, PersistFailed)
	if ie.Message != "Error: connection refused" {
		t.Fatalf("message %q", ie.Message)
	}
	if f.stored("save1.ret") {
		t.Fatalf("artifact must be removed after a persist failure")
	}
}

// racingRetired commits a row for the same filename just before each game
// insert, as a concurrent upload that passed validation at the same time would.
type racingRetired struct{ *retiredgorm.Repo }

func (r racingRetired) CreateGame(ctx context.Context, g *retiredgorm.RetiredGame) error {
	winner := &retiredgorm.RetiredGame{Filename: g.Filename, DisplayName: "winner", Version: g.Version}
	if err := r.Repo.CreateGame(ctx, winner); err != nil {
		return err
	}
	return r.Repo.CreateGame(ctx, g)
}

func TestIngestLosingInsertKeepsWinnerArtifact(t *testing.T) {
	f := newFixture(t)
	p := f.pipelineWith(t, parser.Func(func(context.Context, parser.Mode, string) (parser.Result, error) {
		return parser.Result{Lines: []string{"Dungeon", "3"}}, nil
	}), racingRetired{f.retired})
	_, err := p.IngestGameSave(context.Background(), upload("save1.ret", "x"))
	wantKind(t, err, DuplicateFile)
	if !f.stored("save1.ret") {
		t.Fatalf("artifact of the committed row must not be removed")
	}
	games, _ := f.retired.ListGames(context.Background(), nil)
	if len(games) != 1 || games[0].DisplayName != "winner" {
		t.Fatalf("unexpected rows: %+v", games)
	}
}

func TestIngestSiteSaveKeepsMultilineInfo(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t, 0, "Outpost", "4", "line one", "line two")
	row, err := p.IngestSiteSave(context.Background(), upload("outpost.sit", "x"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if row.SaveInfo != "line one\nline two" || row.Version != 4 {
		t.Fatalf("unexpected row: %+v", row)
	}
}

func TestIngestScoreFile(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t, 0)
	body := "g1,Alice,Ravenholm,won,1,120,300,0\r\n" +
		"\n" +
		"g2,Bob,Stonegate,lost,0,40,90,1\n" +
		"broken,row\n" +
		"g3,Cid,Mire,lost,zero,10,5,0\n" +
		"g4,Dee,Fen,won,1,200,410,0\n"
	res, err := p.IngestScoreFile(context.Background(), upload("scores.txt", body))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Lines != 5 || res.Inserted != 4 || res.Malformed != 1 || res.Failed != 0 {
		t.Fatalf("unexpected result: %s", res)
	}
	if f.calls != 0 {
		t.Fatalf("score files must not run the parser")
	}
	rows, _ := f.scores.List(context.Background(), nil)
	if len(rows) != 4 || rows[0].GameID != "g4" || rows[2].GameType != "1" {
		t.Fatalf("unexpected rows: %d", len(rows))
	}
	if rows[3].GameID != "g3" || rows[3].GameWon != 0 || rows[3].Points != 10 {
		t.Fatalf("non-numeric game_won: %+v", rows[3])
	}
}

func TestIngestScoreFileBlankNumbers(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t, 0)
	body := "g1,Alice,Ravenholm,won,1,120,300,0\n" +
		"g2,Bob,Stonegate,lost,,40,90,0\n" +
		"g3,Cid,Mire,lost,0, 15 ,7x,0\n"
	res, err := p.IngestScoreFile(context.Background(), upload("scores.txt", body))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Inserted != 3 || res.Malformed != 0 {
		t.Fatalf("unexpected result: %s", res)
	}
	rows, _ := f.scores.List(context.Background(), nil)
	if len(rows) != 3 {
		t.Fatalf("want 3 rows, got %d", len(rows))
	}
	if rows[1].GameID != "g2" || rows[1].GameWon != 0 || rows[1].Points != 40 {
		t.Fatalf("blank game_won: %+v", rows[1])
	}
	if rows[2].Points != 15 || rows[2].Turns != 7 {
		t.Fatalf("padded numbers: %+v", rows[2])
	}
}

func TestLooseInt(t *testing.T) {
	cases := map[string]int{"": 0, "  ": 0, "zero": 0, "12": 12, " 12 ": 12, "-3": -3, "+4": 4, "7x": 7, "-": 0}
	for in, want := range cases {
		if got := looseInt(in); got != want {
			t.Fatalf("looseInt(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestIngestScoreFileTooLarge(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t, 0)
	body := strings.Repeat("a", 100001)
	_, err := p.IngestScoreFile(context.Background(), upload("scores.txt", body))
	wantKind(t, err, FileTooLarge)

	// a short declared size does not let a long body through
	_, err = p.IngestScoreFile(context.Background(), File{Size: 10, Body: strings.NewReader(body)})
	wantKind(t, err, FileTooLarge)
	if n, _ := f.scores.Count(context.Background()); n != 0 {
		t.Fatalf("want no rows, got %d", n)
	}
}

func TestIngestHighscoreFile(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t, 0,
		"g1,Alice,Ravenholm,won,1,120,300,campaign,keeper,3",
		"not,enough",
		"g2,Bob,Stonegate,lost,0,40,90,single,adventurer,3",
	)
	res, err := p.IngestHighscoreFile(context.Background(), upload("scores.dat", "raw"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if res.Inserted != 2 || res.Malformed != 1 {
		t.Fatalf("unexpected result: %s", res)
	}
	rows, _ := f.scores.List(context.Background(), nil)
	if rows[0].PlayerRole != "keeper" || rows[0].Version != 3 {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
}

func TestIngestHighscoreFileParseFailureInsertsNothing(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(t, 2, "g1,Alice,Ravenholm,won,1,120,300,campaign,keeper,3")
	_, err := p.IngestHighscoreFile(context.Background(), upload("scores.dat", "raw"))
	ie := wantKind(t, err, ParseFailed)
	if ie.Message != MsgParseHighscoreFile {
		t.Fatalf("message %q", ie.Message)
	}
	if n, _ := f.scores.Count(context.Background()); n != 0 {
		t.Fatalf("want no rows, got %d", n)
	}
}
