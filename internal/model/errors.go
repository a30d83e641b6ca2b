package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, resource, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated    = "UNAUTHENTICATED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeGroupNotFound      = "GROUP_NOT_FOUND"
	ErrCodeInvalidURL         = "INVALID_URL"
	ErrCodeSSRFBlocked        = "SSRF_BLOCKED"
	ErrCodeFetchFailed        = "FETCH_FAILED"
	ErrCodeInvalidAvatar      = "INVALID_AVATAR"
	ErrCodeValidation         = "VALIDATION_FAILED"
)

// NewUnauthenticatedError は未ログインエラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "Autentikasi diperlukan.",
		Category: "auth",
		Action:   "Silakan login terlebih dahulu.",
	}
}

// NewInvalidCredentialsError はメールアドレスまたはパスワード不一致エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Email atau password salah.",
		Category: "auth",
		Action:   "Periksa kembali email dan password Anda.",
	}
}

// NewEmailTakenError は登録済みメールアドレスでのサインアップエラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "Email sudah terdaftar.",
		Category: "auth",
		Action:   "Gunakan email lain atau login dengan akun yang ada.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "Pengguna tidak ditemukan.",
		Category: "auth",
		Action:   "Silakan login kembali.",
	}
}

// NewGroupNotFoundError はグループが見つからない場合のエラーを生成する。
func NewGroupNotFoundError(groupID int64) *APIError {
	return &APIError{
		Code:     ErrCodeGroupNotFound,
		Message:  fmt.Sprintf("Grup tidak ditemukan: %d", groupID),
		Category: "resource",
		Action:   "Periksa kembali ID grup.",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("URL tidak valid: %s", reason),
		Category: "validation",
		Action:   "Masukkan URL yang diawali http:// atau https://.",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "Akses ke URL tersebut diblokir oleh kebijakan keamanan.",
		Category: "validation",
		Action:   "Gunakan URL situs publik. Alamat jaringan lokal tidak diizinkan.",
	}
}

// NewFetchFailedError は外部URLの取得失敗エラーを生成する。
func NewFetchFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeFetchFailed,
		Message:  fmt.Sprintf("Gagal mengambil URL: %s", reason),
		Category: "resource",
		Action:   "Periksa URL lalu coba lagi beberapa saat kemudian.",
	}
}

// NewInvalidAvatarError はアバター画像の形式・サイズ不正エラーを生成する。
func NewInvalidAvatarError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAvatar,
		Message:  fmt.Sprintf("Avatar tidak valid: %s", reason),
		Category: "validation",
		Action:   "Unggah gambar PNG, JPEG, GIF, atau WebP dengan ukuran yang diizinkan.",
	}
}

// NewValidationError は入力検証エラーを生成する。messageには最初のフィールドエラーを渡す。
func NewValidationError(message string) *APIError {
	if message == "" {
		message = "Data input tidak valid."
	}
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "Periksa kembali isian formulir.",
	}
}
