package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	// custom validation tags & texts
	requiredWhenEnabledTag  = "required_when_enabled"
	requiredWhenEnabledText = "{0} is required when enabled"

	emailListTag  = "email_list"
	emailListText = "{0} must only contain valid email addresses"

	ErrInvalidConfig = errors.New("invalid configuration")
)

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use config key names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterStructValidation(emailStructValidation, EmailConfig{})
	validate.RegisterStructValidation(pushStructValidation, PushbulletConfig{}, JoinConfig{}, PushoverConfig{})

	RegisterCustomTranslation(validate, translator, requiredWhenEnabledTag, requiredWhenEnabledText)
	RegisterCustomTranslation(validate, translator, emailListTag, emailListText)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Validate checks the configuration, returning a *ValidationError listing every invalid field.
func (c *Config) Validate(validate *validator.Validate, translator ut.Translator) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, "validating configuration")
	}
	flds := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:] // drop root struct name
		}
		flds = append(flds, FieldError{Field: ns, Error: fe.Translate(translator)})
	}
	return NewValidationError(ErrInvalidConfig, flds...)
}

// Custom Struct Validators

// emailStructValidation checks that an enabled email section can actually send.
func emailStructValidation(sl validator.StructLevel) {
	ec, ok := sl.Current().Interface().(EmailConfig)
	if !ok || !ec.Enabled {
		return
	}
	if len(ec.To) == 0 {
		sl.ReportError(ec.To, "to", "To", requiredWhenEnabledTag, "")
	} else if len(ParseAddresses(ec.To...)) != len(splitAll(ec.To)) {
		sl.ReportError(ec.To, "to", "To", emailListTag, "")
	}
	if len(ParseAddresses(ec.From)) != 1 {
		sl.ReportError(ec.From, "from", "From", emailListTag, "")
	}
	switch ec.Provider {
	case "smtp":
		if ec.SMTPHost == "" {
			sl.ReportError(ec.SMTPHost, "smtpHost", "SMTPHost", requiredWhenEnabledTag, "")
		}
	case "sendgrid":
		if ec.SendgridKey == "" {
			sl.ReportError(ec.SendgridKey, "sendgridKey", "SendgridKey", requiredWhenEnabledTag, "")
		}
	}
}

// pushStructValidation checks that enabled push services carry their credentials.
func pushStructValidation(sl validator.StructLevel) {
	switch pc := sl.Current().Interface().(type) {
	case PushbulletConfig:
		if pc.Enabled && pc.APIKey == "" {
			sl.ReportError(pc.APIKey, "apiKey", "APIKey", requiredWhenEnabledTag, "")
		}
	case JoinConfig:
		if pc.Enabled && pc.APIKey == "" {
			sl.ReportError(pc.APIKey, "apiKey", "APIKey", requiredWhenEnabledTag, "")
		}
	case PushoverConfig:
		if pc.Enabled && pc.APIToken == "" {
			sl.ReportError(pc.APIToken, "apiToken", "APIToken", requiredWhenEnabledTag, "")
		}
		if pc.Enabled && pc.UserKeys == "" {
			sl.ReportError(pc.UserKeys, "userKeys", "UserKeys", requiredWhenEnabledTag, "")
		}
	}
}

func splitAll(list []string) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, SplitList(item)...)
	}
	return out
}
