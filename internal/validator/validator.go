package validator

import "strings"

type Validator struct {
	Errors map[string]string
}

func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

func (v *Validator) IsValid() bool {
	return len(v.Errors) == 0
}

// AddError keeps the first message recorded for a key.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

func (v *Validator) CheckNotBlank(value, key, message string) {
	v.Check(strings.TrimSpace(value) != "", key, message)
}

func PermittedValue[T comparable](value T, permittedValues ...T) bool {
	for _, permitted := range permittedValues {
		if value == permitted {
			return true
		}
	}
	return false
}
