// Package profile は利用者自身のプロフィールとアバター画像を扱う。
package profile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/hitoshi/psga/internal/model"
	"github.com/hitoshi/psga/internal/mutation"
	"github.com/hitoshi/psga/internal/repository"
	"github.com/hitoshi/psga/internal/security"
	"github.com/hitoshi/psga/internal/validate"
)

const resource = "profile"

// 受け付けるアバター画像の形式
var avatarMimes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// URLValidator は外部URLの静的検証を行う。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// Config はプロフィールサービスの設定。
type Config struct {
	BaseURL       string
	AvatarMaxSize int64
}

// UpdateInput はプロフィール更新フォームの入力。SNSリンクは省略できる。
type UpdateInput struct {
	FullName    string `form:"full_name" validate:"min=3"`
	LinkedinURL string `form:"linkedin_url" validate:"omitempty,url"`
	GithubURL   string `form:"github_url" validate:"omitempty,url"`
}

// FieldMessages はフィールドごとのエラーメッセージを返す。
func (UpdateInput) FieldMessages() validate.Messages {
	return validate.Messages{
		"full_name":    "Nama lengkap minimal 3 karakter.",
		"linkedin_url": "URL LinkedIn tidak valid.",
		"github_url":   "URL GitHub tidak valid.",
	}
}

type importInput struct {
	URL string `form:"url" validate:"required,url"`
}

func (importInput) FieldMessages() validate.Messages {
	return validate.Messages{"url": "URL gambar tidak valid."}
}

// AvatarRef はアバター更新後の公開URL。
type AvatarRef struct {
	AvatarURL string `json:"avatar_url"`
}

// View はプロフィール表示用の値。
type View struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	AvatarURL   string     `json:"avatar_url"`
	LinkedinURL string     `json:"linkedin_url"`
	GithubURL   string     `json:"github_url"`
	Role        model.Role `json:"role"`
}

// Service はプロフィールのサービス層。更新できるのは本人のプロフィールのみ。
type Service struct {
	repo      repository.ProfileRepository
	engine    *mutation.Engine
	validator *validate.Validator
	sanitizer *security.TextSanitizer
	guard     URLValidator
	client    *http.Client
	config    Config
}

// NewService はServiceの新しいインスタンスを生成する。
// clientはアバター取り込みに使うHTTPクライアントで、宛先制限付きのものを渡す。
func NewService(
	repo repository.ProfileRepository,
	engine *mutation.Engine,
	validator *validate.Validator,
	sanitizer *security.TextSanitizer,
	guard URLValidator,
	client *http.Client,
	config Config,
) *Service {
	return &Service{
		repo:      repo,
		engine:    engine,
		validator: validator,
		sanitizer: sanitizer,
		guard:     guard,
		client:    client,
		config:    config,
	}
}

// Get はプロフィールを返す。
func (s *Service) Get(ctx context.Context, userID string) (*View, error) {
	p, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewUserNotFoundError()
	}
	return &View{
		ID:          p.ID,
		Email:       p.Email,
		FullName:    p.FullName,
		AvatarURL:   p.AvatarURL,
		LinkedinURL: p.LinkedinURL,
		GithubURL:   p.GithubURL,
		Role:        p.Role,
	}, nil
}

// ListMembers はメンバー選択用のID・氏名一覧を氏名順で返す。
func (s *Service) ListMembers(ctx context.Context) ([]model.Member, error) {
	members, err := s.repo.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("メンバー一覧の取得に失敗しました: %w", err)
	}
	return members, nil
}

// Update は呼び出し元自身の氏名とSNSリンクを更新する。
// リンクは公開ホストを指すhttp(s) URLのみ受け付ける。
func (s *Service) Update(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[View] {
	fields = s.sanitizer.CleanFields(fields, "full_name", "linkedin_url", "github_url")

	spec := mutation.Spec[UpdateInput, View]{
		Resource: resource,
		Gate:     mutation.Authenticated(),
		Decode: func(fields map[string]string) (UpdateInput, *validate.FieldErrors) {
			return validate.Into[UpdateInput](s.validator, fields)
		},
		Check: func(_ context.Context, _ *mutation.Caller, in UpdateInput) (*mutation.Denial, error) {
			for _, link := range []struct{ url, msg string }{
				{in.LinkedinURL, "URL LinkedIn tidak valid."},
				{in.GithubURL, "URL GitHub tidak valid."},
			} {
				if link.url == "" {
					continue
				}
				if err := s.guard.ValidateURL(link.url); err != nil {
					return mutation.Deny(mutation.KindInvalid, link.msg), nil
				}
			}
			return nil, nil
		},
		Plan: func(caller *mutation.Caller, in UpdateInput) mutation.Plan[View] {
			p := &model.Profile{
				ID:          caller.UserID,
				FullName:    in.FullName,
				LinkedinURL: in.LinkedinURL,
				GithubURL:   in.GithubURL,
			}
			return mutation.Plan[View]{
				Operation:     "update",
				Success:       "Profil berhasil diperbarui.",
				FailurePrefix: "Gagal memperbarui profil",
				Dispatch: func(ctx context.Context) (*View, error) {
					if err := s.repo.Update(ctx, p); err != nil {
						return nil, err
					}
					return &View{
						ID:          p.ID,
						Email:       caller.Email,
						FullName:    p.FullName,
						LinkedinURL: p.LinkedinURL,
						GithubURL:   p.GithubURL,
						Role:        caller.Role,
					}, nil
				},
				Views: func(*View) []string { return ownViews(caller.UserID) },
			}
		},
	}
	return mutation.Run(ctx, s.engine, spec, caller, fields)
}

// UploadAvatar はアップロードされた画像を呼び出し元のアバターとして保存する。
// 形式は内容から判定し、申告されたContent-Typeは使わない。
func (s *Service) UploadAvatar(ctx context.Context, caller *mutation.Caller, data []byte) mutation.Result[AvatarRef] {
	spec := mutation.Spec[*model.Avatar, AvatarRef]{
		Resource: resource,
		Gate:     mutation.Authenticated(),
		Decode: func(map[string]string) (*model.Avatar, *validate.FieldErrors) {
			return s.checkImage(data)
		},
		Plan: func(caller *mutation.Caller, avatar *model.Avatar) mutation.Plan[AvatarRef] {
			return s.avatarPlan(caller, "upload_avatar", "Gagal mengunggah avatar",
				func(context.Context) (*model.Avatar, error) { return avatar, nil })
		},
	}
	return mutation.Run(ctx, s.engine, spec, caller, nil)
}

// ImportAvatar は外部URLの画像を取得して呼び出し元のアバターとして保存する。
func (s *Service) ImportAvatar(ctx context.Context, caller *mutation.Caller, fields map[string]string) mutation.Result[AvatarRef] {
	fields = s.sanitizer.CleanFields(fields, "url")

	spec := mutation.Spec[importInput, AvatarRef]{
		Resource: resource,
		Gate:     mutation.Authenticated(),
		Decode: func(fields map[string]string) (importInput, *validate.FieldErrors) {
			return validate.Into[importInput](s.validator, fields)
		},
		Check: func(_ context.Context, _ *mutation.Caller, in importInput) (*mutation.Denial, error) {
			if err := s.guard.ValidateURL(in.URL); err != nil {
				slog.Warn("avatar import blocked", slog.String("url", in.URL), slog.String("error", err.Error()))
				return mutation.Deny(mutation.KindInvalid, model.NewSSRFBlockedError().Message), nil
			}
			return nil, nil
		},
		Plan: func(caller *mutation.Caller, in importInput) mutation.Plan[AvatarRef] {
			return s.avatarPlan(caller, "import_avatar", "Gagal mengimpor avatar",
				func(ctx context.Context) (*model.Avatar, error) { return s.fetchImage(ctx, in.URL) })
		},
	}
	return mutation.Run(ctx, s.engine, spec, caller, fields)
}

// Avatar はアバター画像を返す。未設定の場合はnilを返す。
func (s *Service) Avatar(ctx context.Context, userID string) (*model.Avatar, error) {
	avatar, err := s.repo.FindAvatar(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("アバターの取得に失敗しました: %w", err)
	}
	return avatar, nil
}

// avatarPlan は画像の用意（load）と保存を1回の書き込みとして組み立てる。
func (s *Service) avatarPlan(
	caller *mutation.Caller,
	operation, prefix string,
	load func(ctx context.Context) (*model.Avatar, error),
) mutation.Plan[AvatarRef] {
	return mutation.Plan[AvatarRef]{
		Operation:     operation,
		Success:       "Avatar berhasil diperbarui.",
		FailurePrefix: prefix,
		Dispatch: func(ctx context.Context) (*AvatarRef, error) {
			avatar, err := load(ctx)
			if err != nil {
				return nil, err
			}
			avatar.UserID = caller.UserID
			avatar.UpdatedAt = time.Now()
			ref := &AvatarRef{AvatarURL: s.avatarURL(caller.UserID, avatar.UpdatedAt)}
			if err := s.repo.UpdateAvatar(ctx, avatar, ref.AvatarURL); err != nil {
				return nil, err
			}
			return ref, nil
		},
		Views: func(*AvatarRef) []string { return ownViews(caller.UserID) },
	}
}

// checkImage はサイズと画像形式を検証する。
func (s *Service) checkImage(data []byte) (*model.Avatar, *validate.FieldErrors) {
	errs := validate.NewFieldErrors()
	switch {
	case len(data) == 0:
		errs.Add("avatar", "File gambar wajib diunggah.")
	case int64(len(data)) > s.config.AvatarMaxSize:
		errs.Add("avatar", fmt.Sprintf("Ukuran gambar maksimal %d KB.", s.config.AvatarMaxSize/1024))
	default:
		mime := mimetype.Detect(data)
		if !mimetype.EqualsAny(mime.String(), avatarMimes...) {
			errs.Add("avatar", "File harus berupa gambar PNG, JPEG, GIF, atau WebP.")
			break
		}
		return &model.Avatar{Data: data, Mime: mime.String()}, nil
	}
	return nil, errs
}

// fetchImage は外部URLから画像を取得する。サイズ上限を超える分は読み込まない。
func (s *Service) fetchImage(ctx context.Context, rawURL string) (*model.Avatar, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, model.NewInvalidURLError(err.Error())
	}
	req.Header.Set("User-Agent", "PSGA/1.0 avatar-import")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, model.NewFetchFailedError(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, model.NewFetchFailedError(fmt.Sprintf("HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.config.AvatarMaxSize+1))
	if err != nil {
		return nil, model.NewFetchFailedError(err.Error())
	}

	avatar, errs := s.checkImage(body)
	if errs != nil {
		return nil, model.NewInvalidAvatarError(errs.First())
	}
	return avatar, nil
}

func (s *Service) avatarURL(userID string, at time.Time) string {
	return fmt.Sprintf("%s/api/profiles/%s/avatar?v=%d", s.config.BaseURL, userID, at.Unix())
}

// ownViews はプロフィール変更で古くなるビューを返す。
// グループ詳細と台帳はメンバー名を結合しているため配下ごと破棄する。
func ownViews(userID string) []string {
	return []string{
		"/profile?user=" + userID,
		"/profiles",
		"/dashboard?user=" + userID,
		"/groups",
		"/cashflow",
	}
}
