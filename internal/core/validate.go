package core

import (
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// validate is the shared validator instance for write-time data checks.
// Decimal fields are exposed to tag-based rules (gte, lte, ...) as float64;
// cross-field invariants live in struct-level validation functions.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(decimalValuer, decimal.Decimal{})
	v.RegisterStructValidation(discountRuleStructLevel, DiscountRuleInput{})
	v.RegisterStructValidation(approvalConfigStructLevel, ApprovalConfigInput{})
	return v
}

func decimalValuer(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func discountRuleStructLevel(sl validator.StructLevel) {
	in := sl.Current().Interface().(DiscountRuleInput)

	if in.MaxAmount != nil && !in.MaxAmount.GreaterThan(in.MinAmount) {
		sl.ReportError(in.MaxAmount, "MaxAmount", "max_amount", "gtminamount", "")
	}
	if in.ValidTo != nil {
		from, errFrom := time.Parse("2006-01-02", in.ValidFrom)
		to, errTo := time.Parse("2006-01-02", *in.ValidTo)
		if errFrom == nil && errTo == nil && from.After(to) {
			sl.ReportError(in.ValidTo, "ValidTo", "valid_to", "gtevalidfrom", "")
		}
	}
}

func approvalConfigStructLevel(sl validator.StructLevel) {
	in := sl.Current().Interface().(ApprovalConfigInput)

	if in.AutoApproveLimit.GreaterThanOrEqual(in.Level1ApproveLimit) {
		sl.ReportError(in.Level1ApproveLimit, "Level1ApproveLimit", "level1_approve_limit", "gtautolimit", "")
	}
}

// checkStruct runs the shared validator and converts failures into a
// ValidationError with a human-readable message.
func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return &ValidationError{Msg: describeFieldError(verrs[0])}
	}
	return &ValidationError{Msg: err.Error()}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "gte":
		return fe.Field() + " must be greater than or equal to " + fe.Param()
	case "min":
		return fe.Field() + " must have at least " + fe.Param() + " item(s)"
	case "lte":
		return fe.Field() + " must be less than or equal to " + fe.Param()
	case "datetime":
		return fe.Field() + " must be a date in YYYY-MM-DD format"
	case "gtminamount":
		return "maximum amount must be greater than minimum amount"
	case "gtevalidfrom":
		return "valid from date must be before valid to date"
	case "gtautolimit":
		return "auto approve limit must be less than Level 1 approval limit"
	default:
		return fe.Field() + " is invalid"
	}
}
