package handler

import (
	"errors"
	"net/http"

	"github.com/cuihairu/keeperhub/services/hub/internal/logic"
	"github.com/cuihairu/keeperhub/services/hub/internal/svc"
)

func GameEventHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxEventBytes)
		if err := r.ParseMultipartForm(maxEventBytes); err != nil {
			if !errors.Is(err, http.ErrNotMultipart) {
				badRequest(w, err)
				return
			}
			if err := r.ParseForm(); err != nil {
				badRequest(w, err)
				return
			}
		}
		fields := make(map[string]string, len(r.PostForm))
		for k, vs := range r.PostForm {
			if len(vs) > 0 {
				fields[k] = vs[0]
			}
		}

		l := logic.NewGameEventLogic(r.Context(), svcCtx)
		if err := l.GameEvent(fields); err != nil {
			writeError(r, w, err)
			return
		}
		writeOK(w)
	}
}
