// internal/domain/customer/dto.go
package customer

type RegisterRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,max=20"`
	Name        string `json:"name" binding:"required,max=255"`
	Email       string `json:"email" binding:"omitempty,email,max=255"`
}

type RegisterResponse struct {
	Customer
	Existed bool `json:"existed"`
}

type LoginRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	OTP         string `json:"otp" binding:"required"`
}
