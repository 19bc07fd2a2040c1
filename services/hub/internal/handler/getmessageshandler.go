package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/cuihairu/keeperhub/internal/textenc"
	"github.com/cuihairu/keeperhub/services/hub/internal/logic"
	"github.com/cuihairu/keeperhub/services/hub/internal/svc"
	"github.com/cuihairu/keeperhub/services/hub/internal/types"
)

func GetMessagesHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.BoardQuery
		if err := httpx.Parse(r, &req); err != nil {
			badRequest(w, err)
			return
		}

		l := logic.NewMessagesLogic(r.Context(), svcCtx)
		msgs, err := l.Messages(&req)
		if err != nil {
			writeError(r, w, err)
			return
		}
		lines := make([]string, 0, len(msgs))
		for _, m := range msgs {
			lines = append(lines, textenc.Line(textenc.Full(m.Author), textenc.Full(m.Text)))
		}
		writeLines(w, lines)
	}
}
