package middleware

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/mar-ia/crm/internal/domain/crm"
	"github.com/mar-ia/crm/internal/domain/identity"
	"github.com/mar-ia/crm/internal/interfaces/http/dto"
)

// SetupValidator reports fields by their JSON name and registers the CRM tags:
// slug for tenant identifiers and lead_status for pipeline stages.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return identity.ValidateSlug(identity.NormalizeSlug(fl.Field().String())) == nil
	})
	_ = v.RegisterValidation("lead_status", func(fl validator.FieldLevel) bool {
		return crm.LeadStatus(fl.Field().String()).IsValid()
	})
}

// ValidationDetails turns validator errors into per-field details. Other
// errors, such as malformed JSON, yield nil.
func ValidationDetails(err error) []dto.ValidationDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]dto.ValidationDetail, 0, len(verrs))
	for _, e := range verrs {
		details = append(details, dto.ValidationDetail{Field: e.Field(), Message: validationMessage(e)})
	}
	return details
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "Campo obligatorio"
	case "email":
		return "Email no válido"
	case "min":
		if e.Kind() == reflect.String {
			return "Debe tener al menos " + e.Param() + " caracteres"
		}
		return "Debe ser al menos " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Debe tener como máximo " + e.Param() + " caracteres"
		}
		return "Debe ser como máximo " + e.Param()
	case "uuid":
		return "UUID no válido"
	case "oneof":
		return "Debe ser uno de: " + e.Param()
	case "gte":
		return "Debe ser mayor o igual que " + e.Param()
	case "lte":
		return "Debe ser menor o igual que " + e.Param()
	case "url":
		return "URL no válida"
	case "slug":
		return "Identificador de tenant no válido"
	case "lead_status":
		return "Estado de lead desconocido"
	default:
		return "Valor no válido"
	}
}
