package models

// Поля-указатели: required проверяет наличие ключа в JSON, а пустую
// строку оценивает уже сервис ("Invalid email format" / неверный код).
type VerificationRequest struct {
	Email *string `json:"email" validate:"required"`
}

type VerifyCodeRequest struct {
	Email *string `json:"email" validate:"required"`
	Code  *string `json:"code" validate:"required"`
}

type ResetPasswordRequest struct {
	ResetToken  string `json:"reset_token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// VerificationResult — итог запроса кода или его проверки.
// Code наружу не отдаётся никогда.
type VerificationResult struct {
	Code       string `json:"-"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	ResetToken string `json:"reset_token,omitempty"`
}
