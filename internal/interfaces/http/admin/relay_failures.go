package admin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	adminapp "github.com/sngm3741/portfolio-services/api/internal/admin/application"
	admindomain "github.com/sngm3741/portfolio-services/api/internal/admin/domain"
	"github.com/sngm3741/portfolio-services/api/internal/interfaces/http/common"
)

func (h *Handler) relayFailureListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		queryValues := r.URL.Query()
		page, _ := common.ParsePositiveInt(queryValues.Get("page"), 1)
		limit, _ := common.ParsePositiveInt(queryValues.Get("limit"), 20)

		filter := adminapp.RelayFailureFilter{SourceKey: strings.TrimSpace(queryValues.Get("source"))}
		if raw := strings.TrimSpace(queryValues.Get("status")); raw != "" {
			status, err := admindomain.NewStatus(raw)
			if err != nil {
				common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
				return
			}
			filter.Status = status
		}

		paging := adminapp.Paging{Page: page, Limit: limit}
		failures, err := h.relayFailures.List(ctx, filter, paging)
		if err != nil {
			h.logger.Error("admin relay failure list failed", "error", err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "リレー失敗一覧の取得に失敗しました")
			return
		}

		items := make([]relayFailureResponse, 0, len(failures))
		for _, failure := range failures {
			items = append(items, relayFailureDomainToResponse(failure))
		}

		if limit > 100 {
			limit = 100
		}
		common.WriteJSON(h.logger, w, http.StatusOK, relayFailureListResponse{Items: items, Page: page, Limit: limit})
	}
}

func (h *Handler) relayFailureUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req relayFailureUpdateRequest
		body := http.MaxBytesReader(w, r.Body, common.MaxAdminRequestBody)
		decoder := json.NewDecoder(body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			h.writeBodyError(w, err)
			return
		}
		// 後続データも上限を超えていないか読み切って確認する。
		if _, err := io.Copy(io.Discard, body); err != nil {
			h.writeBodyError(w, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		id := strings.TrimSpace(chi.URLParam(r, "id"))
		failure, err := h.relayFailures.UpdateStatus(ctx, id, req.Status)
		switch {
		case errors.Is(err, adminapp.ErrInvalidArgument):
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, adminapp.ErrNotFound):
			common.WriteError(h.logger, w, http.StatusNotFound, "指定されたレコードが見つかりません")
			return
		case err != nil:
			h.logger.Error("admin relay failure update failed", "id", id, "error", err)
			common.WriteError(h.logger, w, http.StatusInternalServerError, "ステータスの更新に失敗しました")
			return
		}

		if user, ok := common.UserFromContext(r.Context()); ok {
			h.logger.Info("relay failure status updated", "id", id, "status", failure.Status, "by", user.ID)
		}
		common.WriteJSON(h.logger, w, http.StatusOK, relayFailureDomainToResponse(*failure))
	}
}

func (h *Handler) writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		common.WriteError(h.logger, w, http.StatusRequestEntityTooLarge, "リクエストボディが大きすぎます")
		return
	}
	common.WriteError(h.logger, w, http.StatusBadRequest, "リクエストの形式が不正です")
}
