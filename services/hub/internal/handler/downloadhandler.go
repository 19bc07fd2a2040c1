package handler

import (
	"io"
	"mime"
	"net/http"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/cuihairu/keeperhub/services/hub/internal/logic"
	"github.com/cuihairu/keeperhub/services/hub/internal/svc"
	"github.com/cuihairu/keeperhub/services/hub/internal/types"
)

func DownloadHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.DownloadRequest
		if err := httpx.Parse(r, &req); err != nil {
			badRequest(w, err)
			return
		}

		l := logic.NewDownloadLogic(r.Context(), svcCtx)
		redirect, body, err := l.Download(&req)
		if err != nil {
			writeError(r, w, err)
			return
		}
		if redirect != "" {
			http.Redirect(w, r, redirect, http.StatusFound)
			return
		}
		defer body.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": req.Filename}))
		if _, err := io.Copy(w, body); err != nil {
			logx.WithContext(r.Context()).Errorf("download %q: %v", req.Filename, err)
		}
	}
}
