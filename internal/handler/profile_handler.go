package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/psga/internal/model"
	"github.com/hitoshi/psga/internal/mutation"
	"github.com/hitoshi/psga/internal/profile"
)

// avatarFormField はアバター画像をアップロードするマルチパートのフィールド名。
const avatarFormField = "avatar"

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	Get(ctx context.Context, userID string) (*profile.View, error)
	ListMembers(ctx context.Context) ([]model.Member, error)
	Update(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[profile.View]
	UploadAvatar(ctx context.Context, caller *mutation.Caller, data []byte) mutation.Result[profile.AvatarRef]
	ImportAvatar(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[profile.AvatarRef]
	Avatar(ctx context.Context, userID string) (*model.Avatar, error)
}

// ProfileHandler はプロフィールのHTTPハンドラー。
type ProfileHandler struct {
	service       ProfileServiceInterface
	cache         ViewCache
	avatarMaxSize int64
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface, cache ViewCache, avatarMaxSize int64) *ProfileHandler {
	return &ProfileHandler{service: service, cache: cache, avatarMaxSize: avatarMaxSize}
}

// Get はログインユーザーのプロフィールを返す。
// GET /api/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller := callerOf(r)
	cachedView(w, r, h.cache, "/profile?user="+caller.UserID, func(ctx context.Context) (any, error) {
		return h.service.Get(ctx, caller.UserID)
	})
}

// ListMembers はメンバー選択用の一覧を返す。
// GET /api/profiles
func (h *ProfileHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	cachedView(w, r, h.cache, "/profiles", func(ctx context.Context) (any, error) {
		members, err := h.service.ListMembers(ctx)
		return nonNil(members), err
	})
}

// Update は氏名とSNSリンクを更新する。
// PUT /api/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	fields, err := formFields(r)
	if err != nil {
		writeBadForm(w, err)
		return
	}
	writeResult(w, h.service.Update(r.Context(), callerOf(r), fields), http.StatusOK)
}

// UploadAvatar はマルチパートで送られた画像をアバターにする。
// PUT /api/profile/avatar
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	if _, err := formFields(r); err != nil {
		writeBadForm(w, err)
		return
	}

	var data []byte
	file, _, err := r.FormFile(avatarFormField)
	switch {
	case err == nil:
		defer file.Close()
		// 上限を1バイト超えて読み、超過をサービス側で判定させる
		data, err = io.ReadAll(io.LimitReader(file, h.avatarMaxSize+1))
		if err != nil {
			writeBadForm(w, err)
			return
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// 空のまま渡し、必須エラーとして報告させる
	default:
		writeBadForm(w, err)
		return
	}

	writeResult(w, h.service.UploadAvatar(r.Context(), callerOf(r), data), http.StatusOK)
}

// ImportAvatar は外部URLの画像をアバターにする。
// POST /api/profile/avatar/import
func (h *ProfileHandler) ImportAvatar(w http.ResponseWriter, r *http.Request) {
	fields, err := formFields(r)
	if err != nil {
		writeBadForm(w, err)
		return
	}
	writeResult(w, h.service.ImportAvatar(r.Context(), callerOf(r), fields), http.StatusOK)
}

// Avatar はアバター画像を返す。URLにバージョンが含まれるため長めにキャッシュさせる。
// GET /api/profiles/{id}/avatar
func (h *ProfileHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	avatar, err := h.service.Avatar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if avatar == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", avatar.Mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(avatar.Data)))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(avatar.Data)
}
