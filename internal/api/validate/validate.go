package validate

import (
	"strconv"
	"strings"
	"time"
)

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Errs []ErrField

func (e Errs) Error() string { // error interface
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

// Helpers
func Required(field, value string) *ErrField {
	if strings.TrimSpace(value) == "" {
		return &ErrField{Field: field, Msg: "required"}
	}
	return nil
}

func MinFloat(field string, v, min float64) *ErrField {
	if v < min {
		return &ErrField{Field: field, Msg: "must be >= " + strconv.FormatFloat(min, 'f', -1, 64)}
	}
	return nil
}

// Date parses a YYYY-MM-DD value.
func Date(field, value string) (time.Time, *ErrField) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, &ErrField{Field: field, Msg: "must be a date (YYYY-MM-DD)"}
	}
	return t, nil
}
