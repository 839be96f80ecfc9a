package menu

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"menutree/internal/domain"
)

type CreateInput struct {
	Name     string  `json:"name" validate:"required,max=100"`
	ParentID *string `json:"parentId" validate:"omitnil,menuid"`
	Order    *int    `json:"order" validate:"omitnil,min=0"`
}

func (in CreateInput) normalized() CreateInput {
	in.Name = strings.TrimSpace(in.Name)
	in.ParentID = canonicalRef(in.ParentID)
	return in
}

// UpdateInput patches a node. ParentID distinguishes an omitted field from an
// explicit null, which promotes the node to a root.
type UpdateInput struct {
	Name     *string           `json:"name" validate:"omitnil,max=100"`
	ParentID domain.OptionalID `json:"parentId" validate:"-"`
	Order    *int              `json:"order" validate:"omitnil,min=0"`
}

func (in UpdateInput) normalized() UpdateInput {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	in.ParentID.ID = canonicalRef(in.ParentID.ID)
	return in
}

type MoveInput struct {
	NewParentID *string `json:"newParentId" validate:"omitnil,menuid"`
}

func (in MoveInput) normalized() MoveInput {
	in.NewParentID = canonicalRef(in.NewParentID)
	return in
}

type ReorderInput struct {
	Order *int `json:"order" validate:"required,min=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("menuid", func(fl validator.FieldLevel) bool {
		return isID(fl.Field().String())
	})
	return v
}

// The validate* functions expect normalized input: trimmed names and
// canonical ids.

func validateCreate(in CreateInput) error {
	return validationError(validate.Struct(in))
}

func validateUpdate(in UpdateInput) error {
	if in.Name != nil && *in.Name == "" {
		return domain.NewValidationError("name", "must not be empty")
	}
	if err := validationError(validate.Struct(in)); err != nil {
		return err
	}
	if in.ParentID.Set && in.ParentID.ID != nil && !isID(*in.ParentID.ID) {
		return domain.NewValidationError("parentId", "must be a valid UUID")
	}
	return nil
}

func validateMove(in MoveInput) error {
	return validationError(validate.Struct(in))
}

func validateReorder(in ReorderInput) error {
	return validationError(validate.Struct(in))
}

// isID reports whether id is a UUID in the canonical lowercase form that
// node ids are stored and compared in.
func isID(id string) bool {
	parsed, err := uuid.Parse(id)
	return err == nil && parsed.String() == id
}

// canonicalID converts any accepted UUID spelling, such as uppercase or
// braced, to the canonical form. ok is false for anything else.
func canonicalID(id string) (string, bool) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}

// canonicalRef canonicalizes a parent reference, leaving unparseable values
// untouched so validation reports them.
func canonicalRef(id *string) *string {
	if id == nil {
		return nil
	}
	if c, ok := canonicalID(*id); ok {
		return &c
	}
	return id
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &domain.ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, domain.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "menuid":
		return "must be a valid UUID"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	default:
		return "is invalid"
	}
}
