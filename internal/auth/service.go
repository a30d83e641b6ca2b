// Package auth はメールアドレスとパスワードによる認証、セッション管理、
// 書き込み操作に渡す呼び出し元（Caller）の解決を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/psga/internal/model"
	"github.com/hitoshi/psga/internal/mutation"
	"github.com/hitoshi/psga/internal/repository"
	"github.com/hitoshi/psga/internal/security"
	"github.com/hitoshi/psga/internal/validate"
)

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
	BcryptCost    int
}

// RegisterInput は新規登録フォームの入力。
type RegisterInput struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"min=6,maxbytes=72"`
	FullName string `form:"full_name" validate:"min=3"`
}

// FieldMessages はフィールドごとのエラーメッセージを返す。
func (RegisterInput) FieldMessages() validate.Messages {
	return validate.Messages{
		"email":             "Email tidak valid.",
		"password.min":      "Password minimal 6 karakter.",
		"password.maxbytes": "Password terlalu panjang (maksimal 72 byte).",
		"full_name":         "Nama lengkap minimal 3 karakter.",
	}
}

// LoginInput はログインフォームの入力。
type LoginInput struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// FieldMessages はフィールドごとのエラーメッセージを返す。
func (LoginInput) FieldMessages() validate.Messages {
	return validate.Messages{
		"email":    "Email tidak valid.",
		"password": "Password wajib diisi.",
	}
}

// CurrentUser はログイン中のユーザー情報。
type CurrentUser struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name"`
	Role      model.Role `json:"role"`
	AvatarURL string     `json:"avatar_url,omitempty"`
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	accountRepo repository.AccountRepository
	profileRepo repository.ProfileRepository
	sessionRepo repository.SessionRepository
	validator   *validate.Validator
	sanitizer   *security.TextSanitizer
	config      ServiceConfig

	// 存在しないメールアドレスでも照合時間を揃えるためのダミーハッシュ
	dummyHash []byte
}

// NewService はServiceを生成する。
func NewService(
	accountRepo repository.AccountRepository,
	profileRepo repository.ProfileRepository,
	sessionRepo repository.SessionRepository,
	validator *validate.Validator,
	sanitizer *security.TextSanitizer,
	config ServiceConfig,
) *Service {
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("psga-dummy-password"), config.BcryptCost)
	return &Service{
		accountRepo: accountRepo,
		profileRepo: profileRepo,
		sessionRepo: sessionRepo,
		validator:   validator,
		sanitizer:   sanitizer,
		config:      config,
		dummyHash:   dummy,
	}
}

// Register はアカウントとプロフィール（role=user）を作成し、セッションを発行する。
// 入力エラーは*validate.FieldErrors、メールアドレス重複はEMAIL_TAKENを返す。
func (s *Service) Register(ctx context.Context, fields map[string]string) (*model.Session, error) {
	fields = s.sanitizer.CleanFields(fields, "email", "full_name")
	in, errs := validate.Into[RegisterInput](s.validator, fields)
	if errs != nil {
		return nil, errs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	account := &model.Account{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(in.Email),
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	profile := &model.Profile{
		ID:        account.ID,
		FullName:  in.FullName,
		Role:      model.RoleUser,
		UpdatedAt: now,
	}

	if err := s.accountRepo.CreateWithProfile(ctx, account, profile); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("new account registered", slog.String("user_id", account.ID))

	session, err := s.createSession(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// Login はメールアドレスとパスワードを照合し、セッションを発行する。
func (s *Service) Login(ctx context.Context, fields map[string]string) (*model.Session, error) {
	fields = s.sanitizer.CleanFields(fields, "email")
	in, errs := validate.Into[LoginInput](s.validator, fields)
	if errs != nil {
		return nil, errs
	}

	account, err := s.accountRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(in.Password))
		return nil, model.NewInvalidCredentialsError()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(in.Password)); err != nil {
		slog.Warn("login failed", slog.String("user_id", account.ID))
		return nil, model.NewInvalidCredentialsError()
	}

	session, err := s.createSession(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	slog.Info("user logged in", slog.String("user_id", account.ID))
	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// CurrentUser はユーザーIDからログイン中のユーザー情報を返す。
func (s *Service) CurrentUser(ctx context.Context, userID string) (*CurrentUser, error) {
	if userID == "" {
		return nil, model.NewUnauthenticatedError()
	}

	p, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if p == nil {
		return nil, model.NewUserNotFoundError()
	}

	return &CurrentUser{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Role:      p.Role,
		AvatarURL: p.AvatarURL,
	}, nil
}

// ResolveCaller はユーザーIDとプロフィールのroleからCallerを組み立てる。
// 未ログインまたはプロフィールが存在しない場合はnilを返す。
func (s *Service) ResolveCaller(ctx context.Context, userID string) (*mutation.Caller, error) {
	if userID == "" {
		return nil, nil
	}

	p, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve caller: %w", err)
	}
	if p == nil {
		return nil, nil
	}
	return &mutation.Caller{UserID: p.ID, Email: p.Email, Role: p.Role}, nil
}

// ValidateSession はセッションIDから有効なセッションのユーザーIDを返す。
// 期限切れ・存在しない場合は空文字を返す。
func (s *Service) ValidateSession(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", nil
	}
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return "", nil
	}
	return session.UserID, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
