package shared

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"appraisal/internal/transport/http/api"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Check runs the struct's `validate` tags and adds one issue per failing
// field under its JSON name.
func (v *Validator) Check(payload any) {
	err := structValidator().Struct(payload)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.Add("", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		v.Add(fieldPath(fe), reason(fe))
	}
}

// fieldPath drops the top-level struct name from the namespace so nested
// fields read like "weights[0].weightage".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return "must have at least " + fe.Param() + " characters or items"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return "must have at most " + fe.Param() + " characters or items"
		}
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "dive":
		return "is invalid"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

// Decode reads a JSON body into dst and validates it. On failure it writes
// the 400 response and returns false.
func Decode(w http.ResponseWriter, r *http.Request, dst any, requestID string) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
		case errors.Is(err, io.EOF):
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "request body is empty", requestID)
		default:
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		}
		return false
	}
	v := NewValidator()
	v.Check(dst)
	return !v.Reject(w, requestID)
}

// DecodeOptional is Decode for endpoints whose body may be omitted. present
// reports whether any payload was sent; ok is false once an error response
// has been written. Chunked bodies without a Content-Length are read too.
func DecodeOptional(w http.ResponseWriter, r *http.Request, dst any, requestID string) (present, ok bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return false, true
	}
	buffered := bufio.NewReader(r.Body)
	for {
		b, err := buffered.ReadByte()
		if errors.Is(err, io.EOF) {
			return false, true
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
			} else {
				api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
			}
			return false, false
		}
		if b != ' ' && b != '\t' && b != '\r' && b != '\n' {
			_ = buffered.UnreadByte()
			break
		}
	}
	r.Body = struct {
		io.Reader
		io.Closer
	}{buffered, r.Body}
	return true, Decode(w, r, dst, requestID)
}
