package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/cuihairu/keeperhub/internal/gameevents"
	"github.com/cuihairu/keeperhub/internal/ingest"
	"github.com/cuihairu/keeperhub/internal/objstore"
	"github.com/cuihairu/keeperhub/services/hub/internal/logic"
)

const (
	uploadField = "fileToUpload"
	// multipart framing allowance on top of a file's size ceiling
	multipartSlack  = 1 << 20
	maxEventBytes   = 1 << 20
	msgFileNotFound = "Sorry, this file does not exist."
)

var errMissingFile = errors.New("missing " + uploadField)

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if body != "" {
		_, _ = io.WriteString(w, body)
	}
}

// writeOK acknowledges an upload or event. Game clients read any body as an
// error message, so success is empty.
func writeOK(w http.ResponseWriter) { writeText(w, http.StatusOK, "") }

func writeLines(w http.ResponseWriter, lines []string) {
	writeText(w, http.StatusOK, strings.Join(lines, ""))
}

func statusOf(k ingest.Kind) int {
	switch k {
	case ingest.DuplicateFile:
		return http.StatusConflict
	case ingest.FileTooLarge:
		return http.StatusRequestEntityTooLarge
	case ingest.UnsupportedFileType:
		return http.StatusUnsupportedMediaType
	case ingest.ParseFailed:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(r *http.Request, w http.ResponseWriter, err error) {
	var ie *ingest.Error
	var inv *gameevents.InvalidError
	switch {
	case errors.As(err, &ie):
		writeText(w, statusOf(ie.Kind), ie.Message)
	case errors.As(err, &inv):
		writeText(w, http.StatusBadRequest, "Error: "+inv.Error())
	case errors.Is(err, logic.ErrInvalidVersion), errors.Is(err, errMissingFile):
		writeText(w, http.StatusBadRequest, "Error: "+err.Error())
	case errors.Is(err, objstore.ErrNotFound):
		writeText(w, http.StatusNotFound, msgFileNotFound)
	default:
		logx.WithContext(r.Context()).Errorf("%s %s: %v", r.Method, r.URL.Path, err)
		writeText(w, http.StatusInternalServerError, "Error: "+err.Error())
	}
}

// badRequest answers a request whose parameters could not be parsed.
func badRequest(w http.ResponseWriter, err error) {
	writeText(w, http.StatusBadRequest, "Error: "+err.Error())
}
