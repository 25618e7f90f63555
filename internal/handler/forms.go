package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"youareloved-web/internal/flow"
	"youareloved-web/internal/model"
)

func init() {
	// Report validation failures under the form field name.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

type accountBody struct {
	Email           string `form:"email" binding:"required,email"`
	FirstName       string `form:"first_name" binding:"required"`
	Password        string `form:"password" binding:"required,min=8"`
	ConfirmPassword string `form:"confirm_password" binding:"required,eqfield=Password"`
}

func (b accountBody) form() flow.AccountForm {
	return flow.AccountForm{
		Email:           b.Email,
		FirstName:       b.FirstName,
		Password:        b.Password,
		ConfirmPassword: b.ConfirmPassword,
	}
}

type partnerBody struct {
	Name     string `form:"partner_name" binding:"required"`
	Telegram string `form:"partner_telegram" binding:"required"`
	Email    string `form:"partner_email" binding:"omitempty,email"`
}

func (b partnerBody) form() flow.PartnerForm {
	return flow.PartnerForm{Name: b.Name, Telegram: b.Telegram, Email: b.Email}
}

// The email field is re-checked as it is typed, so only its shape is
// validated here.
type identityBody struct {
	Email     string `form:"email" binding:"omitempty,email"`
	FirstName string `form:"first_name"`
}

func (b identityBody) identity() model.Identity {
	return model.Identity{Email: b.Email, FirstName: b.FirstName}
}

type inlinePartnerBody struct {
	Email     string `form:"email" binding:"required,email"`
	FirstName string `form:"first_name"`
	Name      string `form:"partner_name" binding:"required"`
	Telegram  string `form:"partner_telegram" binding:"required"`
	Partner   string `form:"partner_email" binding:"omitempty,email"`
}

func (b inlinePartnerBody) identity() model.Identity {
	return model.Identity{Email: b.Email, FirstName: b.FirstName}
}

func (b inlinePartnerBody) form() flow.PartnerForm {
	return flow.PartnerForm{Name: b.Name, Telegram: b.Telegram, Email: b.Partner}
}

type enrollBody struct {
	Email     string `form:"email" binding:"required,email"`
	FirstName string `form:"first_name" binding:"required"`
}

func (b enrollBody) identity() model.Identity {
	return model.Identity{Email: b.Email, FirstName: b.FirstName}
}

// bind decodes the posted form into body. Validation failures come back as
// per-field message keys; any other error means the request was malformed.
func bind(c *gin.Context, body any) (flow.FieldErrors, error) {
	err := c.ShouldBindWith(body, binding.Form)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}
	errs := flow.FieldErrors{}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := errs[field]; seen {
			continue
		}
		errs[field] = messageFor(fe.Tag())
	}
	return errs, nil
}

func messageFor(tag string) string {
	switch tag {
	case "email":
		return flow.MsgInvalidEmail
	case "min":
		return flow.MsgPasswordShort
	case "eqfield":
		return flow.MsgPasswordMismatch
	default:
		return flow.MsgRequired
	}
}
