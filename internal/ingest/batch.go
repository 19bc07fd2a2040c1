package ingest

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cuihairu/keeperhub/internal/parser"
	scoresgorm "github.com/cuihairu/keeperhub/internal/repo/gorm/highscores"
)

// ScoreRowSchema is one line of a pre-formatted score file. Only the field
// count is enforced; numeric columns are read with looseInt.
var ScoreRowSchema = parser.Schema{Name: "score row", Fields: []parser.Field{
	{Name: "game_id"},
	{Name: "player_name"},
	{Name: "world_name"},
	{Name: "game_result"},
	{Name: "game_won"},
	{Name: "points"},
	{Name: "turns"},
	{Name: "game_type"},
}}

// BatchResult counts what happened to each non-empty line of a batch.
type BatchResult struct {
	Lines     int
	Inserted  int
	Malformed int
	Failed    int
}

// IngestScoreFile inserts every row of a pre-formatted score file that has
// the right number of columns. Rows with any other count are skipped. If any insert fails the returned error is a
// PersistFailed carrying the first store error; rows inserted before and after
// it are kept.
func (p *Pipeline) IngestScoreFile(ctx context.Context, f File) (res BatchResult, err error) {
	ctx, span := p.tracer.Start(ctx, "ingest."+ScoreFile.String())
	defer func() { p.finishBatch(ctx, span, ScoreFile, res, err) }()

	if _, err := p.validate(ctx, ScoreFile, f); err != nil {
		return res, err
	}
	// The reader may be longer than the declared size; never read past the ceiling.
	limit := p.validator.Rule(ScoreFile).MaxBytes
	data, err := io.ReadAll(io.LimitReader(f.Body, limit+1))
	if err != nil {
		return res, newError(UploadMoveFailed, MsgUploadFailed, err)
	}
	if int64(len(data)) > limit {
		return res, newError(FileTooLarge, MsgFileTooLarge, nil)
	}
	return p.insertRows(ctx, ScoreFile, string(data), func(line string) (*scoresgorm.Highscore, error) {
		rec, err := ScoreRowSchema.DecodeDelimited(line, ",")
		if err != nil {
			return nil, err
		}
		return &scoresgorm.Highscore{
			GameID:     rec.Str("game_id"),
			PlayerName: rec.Str("player_name"),
			WorldName:  rec.Str("world_name"),
			GameResult: rec.Str("game_result"),
			GameWon:    looseInt(rec.Str("game_won")),
			Points:     looseInt(rec.Str("points")),
			Turns:      looseInt(rec.Str("turns")),
			GameType:   rec.Str("game_type"),
		}, nil
	})
}

// looseInt reads the leading signed integer of s after trimming spaces. Blank
// or non-numeric text is 0.
func looseInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// IngestHighscoreFile runs the parser over a raw file and inserts every
// highscore line it prints. A failed parser run inserts nothing.
func (p *Pipeline) IngestHighscoreFile(ctx context.Context, f File) (res BatchResult, err error) {
	ctx, span := p.tracer.Start(ctx, "ingest."+HighscoreFile.String())
	defer func() { p.finishBatch(ctx, span, HighscoreFile, res, err) }()

	if _, err := p.validate(ctx, HighscoreFile, f); err != nil {
		return res, err
	}
	spool, err := p.spool(f.Body, "")
	if err != nil {
		return res, newError(UploadMoveFailed, MsgUploadFailed, err)
	}
	defer removeSpool(spool)

	out, err := p.invoke(ctx, parser.ModeHighscores, spool.Name())
	if err != nil {
		return res, newError(ParseFailed, MsgParseHighscoreFile, err)
	}
	return p.insertRows(ctx, HighscoreFile, strings.Join(out.Lines, "\n"), func(line string) (*scoresgorm.Highscore, error) {
		rec, err := parser.HighscoreSchema.DecodeDelimited(line, ",")
		if err != nil {
			return nil, err
		}
		return &scoresgorm.Highscore{
			GameID:     rec.Str("game_id"),
			PlayerName: rec.Str("player_name"),
			WorldName:  rec.Str("world_name"),
			GameResult: rec.Str("game_result"),
			GameWon:    rec.Int("game_won"),
			Points:     rec.Int("points"),
			Turns:      rec.Int("turns"),
			GameType:   rec.Str("game_type"),
			PlayerRole: rec.Str("player_role"),
			Version:    rec.Int("version"),
		}, nil
	})
}

func (p *Pipeline) insertRows(ctx context.Context, a Artifact, text string, decode func(string) (*scoresgorm.Highscore, error)) (BatchResult, error) {
	ctx, span := p.tracer.Start(ctx, "persist")
	defer span.End()
	log := logx.WithContext(ctx)

	var res BatchResult
	var firstErr error
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		res.Lines++
		row, err := decode(line)
		if err != nil {
			res.Malformed++
			log.Infof("%s line %d skipped: %v", a, i+1, err)
			continue
		}
		if err := p.scores.Create(ctx, row); err != nil {
			res.Failed++
			if firstErr == nil {
				firstErr = err
			}
			log.Errorf("%s line %d insert: %v", a, i+1, err)
			continue
		}
		res.Inserted++
	}
	if firstErr != nil {
		return res, persistError(firstErr)
	}
	return res, nil
}

func (p *Pipeline) finishBatch(ctx context.Context, span trace.Span, a Artifact, res BatchResult, err error) {
	span.SetAttributes(
		attribute.Int("batch.lines", res.Lines),
		attribute.Int("batch.inserted", res.Inserted),
		attribute.Int("batch.malformed", res.Malformed),
	)
	if res.Malformed > 0 {
		logx.WithContext(ctx).Infof("%s: %d of %d rows malformed", a, res.Malformed, res.Lines)
	}
	p.finish(ctx, span, a, err)
}

// String is the one-line summary logged by callers.
func (r BatchResult) String() string {
	return fmt.Sprintf("lines=%d inserted=%d malformed=%d failed=%d", r.Lines, r.Inserted, r.Malformed, r.Failed)
}
