package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// FieldProblem names one rejected request field by its JSON name.
type FieldProblem struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// bindJSON decodes the body into dst. On failure it answers 400 with the
// offending fields and returns false.
func bindJSON[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		respondError(c, http.StatusBadRequest, "empty_body", "request body is required", nil)
		return false
	}
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var (
		invalid validator.ValidationErrors
		typeErr *json.UnmarshalTypeError
		syntax  *json.SyntaxError
	)
	switch {
	case errors.As(err, &invalid):
		problems := make([]FieldProblem, 0, len(invalid))
		for _, fe := range invalid {
			problems = append(problems, FieldProblem{Field: fe.Field(), Rule: fe.Tag()})
		}
		respondError(c, http.StatusBadRequest, "validation_error", "invalid payload", problems)
	case errors.As(err, &typeErr):
		respondError(c, http.StatusBadRequest, "validation_error", "invalid payload",
			[]FieldProblem{{Field: typeErr.Field, Rule: "type"}})
	case errors.As(err, &syntax), errors.Is(err, io.ErrUnexpectedEOF):
		respondError(c, http.StatusBadRequest, "invalid_json", "request body is not valid JSON", nil)
	default:
		respondError(c, http.StatusBadRequest, "invalid_payload", err.Error(), nil)
	}
	return false
}
