package db

import (
	"errors"

	"gorm.io/gorm"
)

// IdentityInput carries the contact fields of an email-capture beacon plus
// the bot-detection hints that accompany form submissions.
type IdentityInput struct {
	Email   string
	Name    string
	Company string
	Phone   string

	TimeSpentSeconds *int
	HoneypotFilled   bool
}

// CaptureIdentity scores the submission for bot likelihood, stores the
// captured contact fields on the session, and best-effort links the session
// to a dashboard user account with the same email. A missing account is not
// an error.
func CaptureIdentity(gdb *gorm.DB, s *Session, in IdentityInput) error {
	if _, err := UpdateBotScore(gdb, s, in.TimeSpentSeconds, in.HoneypotFilled); err != nil {
		return err
	}

	s.Email = in.Email
	if in.Name != "" {
		s.Name = in.Name
	}
	if in.Company != "" {
		s.Company = in.Company
	}
	if in.Phone != "" {
		s.Phone = in.Phone
	}
	if err := gdb.Model(s).Updates(map[string]any{
		"email":   s.Email,
		"name":    s.Name,
		"company": s.Company,
		"phone":   s.Phone,
	}).Error; err != nil {
		return err
	}

	var u User
	if err := gdb.Where("email = ?", in.Email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	s.UserID = &u.ID
	return gdb.Model(s).Update("user_id", u.ID).Error
}
