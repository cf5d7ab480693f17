package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/go-blog-api/internal/domain/entity"
)

var (
	usernameRe = regexp.MustCompile(`^[\w\d]{2,15}$`)
	idRe       = regexp.MustCompile(`^_[a-z0-9]{9}$`)
	apikeyRe   = regexp.MustCompile(`^[A-Za-z0-9_-]{43}$`)

	once sync.Once
)

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers the blog argument rules: username, blogid, apikey, permission.
func Init() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form", "uri"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
		_ = v.RegisterValidation("username", matches(usernameRe))
		_ = v.RegisterValidation("blogid", matches(idRe))
		_ = v.RegisterValidation("apikey", matches(apikeyRe))
		_ = v.RegisterValidation("permission", func(fl validator.FieldLevel) bool {
			return entity.Permission(fl.Field().String()).Valid()
		})
		v.RegisterAlias("pwd", "min=4,max=20")
		v.RegisterAlias("fullname", "min=1,max=64")
		v.RegisterAlias("title", "min=1,max=200")
	})
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// ValidUsername reports whether s satisfies the username rule.
func ValidUsername(s string) bool { return usernameRe.MatchString(s) }

// ValidID reports whether s has the public identifier shape.
func ValidID(s string) bool { return idRe.MatchString(s) }

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	tag := fe.Tag()
	param := fe.Param()

	switch tag {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "username":
		return "must be 2 to 15 letters, digits or underscores"
	case "blogid":
		return "must be an identifier like _abc123xyz"
	case "apikey":
		return "must be a 43 character apikey"
	case "permission":
		return "must be one of " + strings.Join(permissionNames(), ", ")
	case "pwd":
		return "must be 4 to 20 characters long"
	case "fullname":
		return "must be 1 to 64 characters long"
	case "title":
		return "must be 1 to 200 characters long"
	case "len":
		return fmt.Sprintf("must be exactly %s characters long", param)
	case "min":
		if isNumberKind(fe.Kind()) {
			return "must be at least " + param
		}
		return "must be at least " + param + " characters long"
	case "max":
		if isNumberKind(fe.Kind()) {
			return "must be at most " + param
		}
		return "must be at most " + param + " characters long"
	case "gte":
		return "must be greater than or equal to " + param
	case "lte":
		return "must be less than or equal to " + param
	case "oneof":
		return "must be one of " + strings.Join(strings.Fields(param), ", ")
	default:
		if param != "" {
			return fmt.Sprintf("validation failed for '%s' with parameter '%s'", tag, param)
		}
		return fmt.Sprintf("validation failed for '%s'", tag)
	}
}

func permissionNames() []string {
	out := make([]string, len(entity.Permissions))
	for i, p := range entity.Permissions {
		out[i] = string(p)
	}
	return out
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
