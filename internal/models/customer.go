package models

import "strings"

type Customer struct {
	CustomerID   string `json:"customerId"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	MobileNumber string `json:"mobileNumber"`
	Address      string `json:"address,omitempty"`
	Gender       string `json:"gender,omitempty"`
}

// Complete проверяет, что профиля достаточно для онлайн-оплаты
func (c *Customer) Complete() bool {
	if c == nil {
		return false
	}
	return strings.TrimSpace(c.FullName) != "" &&
		strings.TrimSpace(c.Email) != "" &&
		strings.TrimSpace(c.MobileNumber) != ""
}

// DisplayName имя для чеков и сообщений
func (c *Customer) DisplayName() string {
	if c == nil || strings.TrimSpace(c.FullName) == "" {
		return "Guest"
	}
	return c.FullName
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string   `json:"token"`
	Customer Customer `json:"customer"`
}
