package handler

import (
	"net/http"
	"strconv"

	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/cuihairu/keeperhub/internal/textenc"
	"github.com/cuihairu/keeperhub/services/hub/internal/logic"
	"github.com/cuihairu/keeperhub/services/hub/internal/svc"
	"github.com/cuihairu/keeperhub/services/hub/internal/types"
)

// GetSitesHandler lists retired sites as
// filename,upload_unix_time,won_games,total_games,save_info,version.
func GetSitesHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.VersionQuery
		if err := httpx.Parse(r, &req); err != nil {
			badRequest(w, err)
			return
		}

		l := logic.NewCatalogLogic(r.Context(), svcCtx)
		sites, err := l.Sites(&req)
		if err != nil {
			writeError(r, w, err)
			return
		}
		lines := make([]string, 0, len(sites))
		for _, s := range sites {
			lines = append(lines, textenc.Line(
				textenc.Field(s.Filename),
				strconv.FormatInt(s.UploadTime, 10),
				strconv.FormatInt(s.WonGames, 10),
				strconv.FormatInt(s.TotalGames, 10),
				textenc.Field(s.SaveInfo),
				strconv.Itoa(s.Version),
			))
		}
		writeLines(w, lines)
	}
}
