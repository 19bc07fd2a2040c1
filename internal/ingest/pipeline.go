package ingest

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cuihairu/keeperhub/internal/objstore"
	"github.com/cuihairu/keeperhub/internal/parser"
	scoresgorm "github.com/cuihairu/keeperhub/internal/repo/gorm/highscores"
	retiredgorm "github.com/cuihairu/keeperhub/internal/repo/gorm/retired"
)

// Storage is the subset of objstore.Store the pipeline writes through.
type Storage interface {
	Put(ctx context.Context, key string, r objstore.ReadSeeker, size int64, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

type RetiredRepo interface {
	CreateGame(ctx context.Context, g *retiredgorm.RetiredGame) error
	CreateSite(ctx context.Context, s *retiredgorm.RetiredSite) error
	GameExists(ctx context.Context, filename string) (bool, error)
	SiteExists(ctx context.Context, filename string) (bool, error)
}

type ScoreRepo interface {
	Create(ctx context.Context, h *scoresgorm.Highscore) error
}

// Metrics receives one outcome per attempt and every parser run.
type Metrics interface {
	Result(ctx context.Context, a Artifact, result string)
	ParserDuration(ctx context.Context, mode parser.Mode, d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) Result(context.Context, Artifact, string)                   {}
func (nopMetrics) ParserDuration(context.Context, parser.Mode, time.Duration) {}

// File is an upload as received from the client.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

type Options struct {
	Store   Storage
	Parser  parser.Parser
	Retired RetiredRepo
	Scores  ScoreRepo
	Limits  Limits
	// SpoolDir holds transient local copies handed to the parser. Empty means os.TempDir.
	SpoolDir string
	Metrics  Metrics
}

// Pipeline drives an upload through validate, store, parse and persist. A
// retained artifact either ends with its metadata row committed or with the
// stored file removed again.
type Pipeline struct {
	store     Storage
	parser    parser.Parser
	retired   RetiredRepo
	scores    ScoreRepo
	validator *Validator
	spoolDir  string
	metrics   Metrics
	tracer    trace.Tracer
}

func New(o Options) *Pipeline {
	m := o.Metrics
	if m == nil {
		m = nopMetrics{}
	}
	return &Pipeline{
		store:     o.Store,
		parser:    o.Parser,
		retired:   o.Retired,
		scores:    o.Scores,
		validator: NewValidator(o.Store, Rules(o.Limits)),
		spoolDir:  o.SpoolDir,
		metrics:   m,
		tracer:    otel.Tracer("keeperhub/ingest"),
	}
}

func (p *Pipeline) Validator() *Validator { return p.validator }

// IngestGameSave stores a retired game save and records its catalog row.
func (p *Pipeline) IngestGameSave(ctx context.Context, f File) (*retiredgorm.RetiredGame, error) {
	var row *retiredgorm.RetiredGame
	err := p.ingestSave(ctx, GameSave, parser.ModeGameSave, f, func(ctx context.Context, key string, rec parser.Record) error {
		row = &retiredgorm.RetiredGame{
			Filename:    key,
			DisplayName: rec.Str("display_name"),
			Version:     rec.Int("version"),
		}
		return p.retired.CreateGame(ctx, row)
	}, p.retired.GameExists)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// IngestSiteSave stores a retired site save and records its catalog row.
func (p *Pipeline) IngestSiteSave(ctx context.Context, f File) (*retiredgorm.RetiredSite, error) {
	var row *retiredgorm.RetiredSite
	err := p.ingestSave(ctx, SiteSave, parser.ModeSiteSave, f, func(ctx context.Context, key string, rec parser.Record) error {
		row = &retiredgorm.RetiredSite{
			Filename:    key,
			DisplayName: rec.Str("display_name"),
			Version:     rec.Int("version"),
			SaveInfo:    rec.Str("save_info"),
		}
		return p.retired.CreateSite(ctx, row)
	}, p.retired.SiteExists)
	if err != nil {
		return nil, err
	}
	return row, nil
}

type (
	persistFunc func(ctx context.Context, key string, rec parser.Record) error
	claimedFunc func(ctx context.Context, key string) (bool, error)
)

func (p *Pipeline) ingestSave(ctx context.Context, a Artifact, mode parser.Mode, f File, persist persistFunc, claimed claimedFunc) (err error) {
	ctx, span := p.tracer.Start(ctx, "ingest."+a.String(), trace.WithAttributes(attribute.String("file.name", f.Name)))
	defer func() { p.finish(ctx, span, a, err) }()
	log := logx.WithContext(ctx)

	key, err := p.validate(ctx, a, f)
	if err != nil {
		return err
	}

	spool, err := p.spool(f.Body, filepath.Ext(key))
	if err != nil {
		return newError(UploadMoveFailed, MsgUploadFailed, err)
	}
	defer removeSpool(spool)

	if err := p.put(ctx, key, spool, f.ContentType); err != nil {
		return newError(UploadMoveFailed, MsgUploadFailed, err)
	}

	rec, err := p.parseMetadata(ctx, mode, spool.Name())
	if err != nil {
		p.discard(ctx, key)
		return newError(ParseFailed, MsgParseSave, err)
	}

	pctx, pspan := p.tracer.Start(ctx, "persist")
	err = persist(pctx, key, rec)
	pspan.End()
	if err != nil {
		// A concurrent upload of the same name committed first. The stored
		// file now belongs to its row and must stay.
		if taken, cerr := claimed(ctx, key); cerr == nil && taken {
			log.Infof("%s %q already recorded by a concurrent upload: %v", a, key, err)
			return newError(DuplicateFile, MsgDuplicateFile, err)
		}
		p.discard(ctx, key)
		return persistError(err)
	}
	log.Infof("ingested %s %q", a, key)
	return nil
}

func (p *Pipeline) validate(ctx context.Context, a Artifact, f File) (string, error) {
	ctx, span := p.tracer.Start(ctx, "validate")
	defer span.End()
	return p.validator.Validate(ctx, a, Upload{Name: f.Name, Size: f.Size})
}

func (p *Pipeline) put(ctx context.Context, key string, spool *os.File, contentType string) error {
	ctx, span := p.tracer.Start(ctx, "store")
	defer span.End()
	st, err := spool.Stat()
	if err != nil {
		return err
	}
	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return p.store.Put(ctx, key, spool, st.Size(), contentType)
}

// parseMetadata runs the parser on path and decodes its output with the
// schema of mode.
func (p *Pipeline) parseMetadata(ctx context.Context, mode parser.Mode, path string) (parser.Record, error) {
	res, err := p.invoke(ctx, mode, path)
	if err != nil {
		return parser.Record{}, err
	}
	schema, _ := parser.SchemaFor(mode)
	return schema.DecodeLines(res.Lines)
}

var errParserExit = errors.New("parser exited with non-zero status")

func (p *Pipeline) invoke(ctx context.Context, mode parser.Mode, path string) (parser.Result, error) {
	ctx, span := p.tracer.Start(ctx, "parse", trace.WithAttributes(attribute.String("parser.mode", mode.String())))
	defer span.End()
	start := time.Now()
	res, err := p.parser.Invoke(ctx, mode, path)
	p.metrics.ParserDuration(ctx, mode, time.Since(start))
	if err != nil {
		return res, err
	}
	if !res.OK() {
		logx.WithContext(ctx).Infof("parser %s exit %d: %s", mode, res.ExitCode, res.Stderr)
		return res, errParserExit
	}
	return res, nil
}

// discard removes a stored artifact whose later stage failed. It outlives the
// request context so a disconnecting client cannot leave an orphan behind.
func (p *Pipeline) discard(ctx context.Context, key string) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if err := p.store.Delete(dctx, key); err != nil {
		logx.WithContext(ctx).Errorf("remove orphaned artifact %q: %v", key, err)
	}
}

func (p *Pipeline) spool(r io.Reader, ext string) (*os.File, error) {
	tmp, err := os.CreateTemp(p.spoolDir, "upload-*"+ext)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		removeSpool(tmp)
		return nil, err
	}
	if err := tmp.Sync(); err != nil {
		removeSpool(tmp)
		return nil, err
	}
	return tmp, nil
}

func removeSpool(f *os.File) {
	_ = f.Close()
	_ = os.Remove(f.Name())
}

func (p *Pipeline) finish(ctx context.Context, span trace.Span, a Artifact, err error) {
	result := "ok"
	if err != nil {
		if k := KindOf(err); k != 0 {
			result = k.String()
		} else {
			result = "error"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
	}
	span.SetAttributes(attribute.String("ingest.result", result))
	p.metrics.Result(ctx, a, result)
	span.End()
}
