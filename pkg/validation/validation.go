package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

var v *validator.Validate

func init() {
	v = validator.New()

	// Use JSON tag as the field name in error output
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	// Enum tags. Empty values pass so omitempty stays in charge.
	_ = v.RegisterValidation("visatype", enum(func(s string) bool { return models.VisaType(s).Valid() }))
	_ = v.RegisterValidation("casestatus", enum(func(s string) bool { return models.CaseStatus(s).Valid() }))
	_ = v.RegisterValidation("priority", enum(func(s string) bool { return models.Priority(s).Valid() }))
	_ = v.RegisterValidation("doctype", enum(func(s string) bool { return models.DocumentType(s).Valid() }))
	_ = v.RegisterValidation("role", enum(func(s string) bool { return models.Role(s).Valid() }))
}

func enum(ok func(string) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		val := strings.TrimSpace(fl.Field().String())
		if val == "" {
			return true
		}
		return ok(val)
	}
}

// Validate returns map[field][]messages (Laravel-like)
func Validate(s any) (map[string][]string, error) {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil, err
		}
		out := make(map[string][]string)
		for _, e := range ve {
			field := e.Field() // already mapped from json tag

			switch e.Tag() {
			case "required":
				out[field] = append(out[field], "This field is required")

			case "email":
				out[field] = append(out[field], "Invalid email format")

			case "min":
				if e.Kind() == reflect.String {
					out[field] = append(out[field], fmt.Sprintf("Must be at least %s characters", e.Param()))
				} else {
					out[field] = append(out[field], fmt.Sprintf("Must be at least %s", e.Param()))
				}

			case "max":
				if e.Kind() == reflect.String {
					out[field] = append(out[field], fmt.Sprintf("Must be at most %s characters", e.Param()))
				} else {
					out[field] = append(out[field], fmt.Sprintf("Must be at most %s", e.Param()))
				}

			case "oneof":
				out[field] = append(out[field], "Value is not allowed")

			case "uuid", "uuid4":
				out[field] = append(out[field], "Invalid UUID format")

			case "visatype":
				out[field] = append(out[field], "Invalid visa type")

			case "casestatus":
				out[field] = append(out[field], "Invalid case status")

			case "priority":
				out[field] = append(out[field], "Invalid priority")

			case "doctype":
				out[field] = append(out[field], "Invalid document type")

			case "role":
				out[field] = append(out[field], "Invalid role")

			default:
				out[field] = append(out[field], e.Error())
			}
		}
		return out, nil
	}
	return nil, nil
}
