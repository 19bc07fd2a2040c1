package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/cuihairu/keeperhub/internal/ingest"
	"github.com/cuihairu/keeperhub/services/hub/internal/logic"
	"github.com/cuihairu/keeperhub/services/hub/internal/svc"
)

func UploadHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return uploadHandler(svcCtx, ingest.GameSave, (*logic.UploadLogic).UploadGame)
}

func UploadSiteHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return uploadHandler(svcCtx, ingest.SiteSave, (*logic.UploadLogic).UploadSite)
}

func UploadScoresHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return uploadHandler(svcCtx, ingest.ScoreFile, (*logic.UploadLogic).UploadScores)
}

func UploadHighscoresHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return uploadHandler(svcCtx, ingest.HighscoreFile, (*logic.UploadLogic).UploadHighscores)
}

func uploadHandler(svcCtx *svc.ServiceContext, a ingest.Artifact, run func(*logic.UploadLogic, ingest.File) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, cleanup, err := uploadedFile(w, r, svcCtx.Pipeline.Validator(), a, svcCtx.Config.Parser.SpoolDir)
		if err != nil {
			writeError(r, w, err)
			return
		}
		defer cleanup()

		l := logic.NewUploadLogic(r.Context(), svcCtx)
		if err := run(l, f); err != nil {
			writeError(r, w, err)
			return
		}
		writeOK(w)
	}
}

// uploadedFile streams the multipart fileToUpload part into a temp file in
// dir. The target of a retained kind is checked as soon as the part header
// arrives, so a duplicate name is reported before any size cutoff. Bodies far
// beyond the kind's ceiling are cut off and reported as too large.
func uploadedFile(w http.ResponseWriter, r *http.Request, v *ingest.Validator, a ingest.Artifact, dir string) (ingest.File, func(), error) {
	limit := v.Rule(a).MaxBytes
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartSlack)
	}
	mr, err := r.MultipartReader()
	if err != nil {
		return ingest.File{}, nil, errMissingFile
	}
	for {
		part, err := mr.NextPart()
		if err != nil {
			return ingest.File{}, nil, partError(err)
		}
		if part.FormName() != uploadField || part.FileName() == "" {
			if _, err := io.Copy(io.Discard, part); err != nil {
				return ingest.File{}, nil, partError(err)
			}
			continue
		}
		if err := v.CheckTarget(r.Context(), a, part.FileName()); err != nil {
			return ingest.File{}, nil, err
		}
		return spoolPart(part, limit, dir)
	}
}

// spoolPart copies at most limit+1 bytes of part, enough for the validator
// to see an oversized file.
func spoolPart(part *multipart.Part, limit int64, dir string) (ingest.File, func(), error) {
	tmp, err := os.CreateTemp(dir, "form-*")
	if err != nil {
		return ingest.File{}, nil, &ingest.Error{Kind: ingest.UploadMoveFailed, Message: ingest.MsgUploadFailed, Err: err}
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}
	var src io.Reader = part
	if limit > 0 {
		src = io.LimitReader(part, limit+1)
	}
	n, err := io.Copy(tmp, src)
	if err == nil {
		_, err = tmp.Seek(0, io.SeekStart)
	}
	if err != nil {
		cleanup()
		return ingest.File{}, nil, partError(err)
	}
	return ingest.File{
		Name:        part.FileName(),
		Size:        n,
		ContentType: part.Header.Get("Content-Type"),
		Body:        tmp,
	}, cleanup, nil
}

func partError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return &ingest.Error{Kind: ingest.FileTooLarge, Message: ingest.MsgFileTooLarge, Err: err}
	}
	return errMissingFile
}
