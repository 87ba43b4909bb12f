package httpapi

import (
	"time"

	"github.com/dmitrijs2005/accessportal/internal/server/models"
)

// userView is the canonical client-facing account shape.
type userView struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	AccessCode string    `json:"accessCode,omitempty"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

func userOf(a *models.Account, withCode bool) userView {
	v := userView{Name: a.Name, Email: a.Email, Phone: a.Phone, ExpiresAt: a.ExpiresAt}
	if withCode {
		v.AccessCode = a.Credential
	}
	return v
}

// adminAccountView is the admin listing shape. Codes are not listed.
type adminAccountView struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone,omitempty"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	LastPaymentAt time.Time  `json:"lastPaymentAt"`
	ExpiresAt     time.Time  `json:"expiresAt"`
	WarnedAt      *time.Time `json:"warnedAt,omitempty"`
}

func adminAccountOf(a *models.Account) adminAccountView {
	return adminAccountView{
		ID:            a.ID,
		Name:          a.Name,
		Email:         a.Email,
		Phone:         a.Phone,
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt,
		LastPaymentAt: a.LastPaymentAt,
		ExpiresAt:     a.ExpiresAt,
		WarnedAt:      a.WarnedAt,
	}
}

type sessionResponse struct {
	Success bool     `json:"success"`
	Token   string   `json:"token,omitempty"`
	User    userView `json:"user"`
	// IsNew is set on payment responses when a code was issued by the call.
	IsNew *bool `json:"isNew,omitempty"`
	// Superseded replays carry no token and no code.
	Superseded bool `json:"superseded,omitempty"`
}
