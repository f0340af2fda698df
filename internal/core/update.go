package core

import (
	"bytes"
	"encoding/json"
)

// Optional carries a value together with whether the caller supplied it.
// A JSON null or an absent key decodes to an unset Optional.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Get returns the value and whether it was set.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// ExpenseUpdate lists the fields a partial update may touch.
type ExpenseUpdate struct {
	Date        Optional[string]  `json:"date"`
	Amount      Optional[float64] `json:"amount"`
	Category    Optional[string]  `json:"category"`
	Subcategory Optional[string]  `json:"subcategory"`
	Note        Optional[string]  `json:"note"`
}

// UpdatePolicy decides which supplied string fields count as changes.
type UpdatePolicy int

const (
	// IgnoreEmptyStrings treats "" as not supplied for every string field.
	// Amount counts whenever it is set, zero included.
	IgnoreEmptyStrings UpdatePolicy = iota

	// ClearOptionalFields lets "" clear subcategory and note. Date and
	// category still ignore "".
	ClearOptionalFields
)

// Effective returns the update with the policy applied.
func (u ExpenseUpdate) Effective(p UpdatePolicy) ExpenseUpdate {
	u.Date = dropEmpty(u.Date)
	u.Category = dropEmpty(u.Category)
	if p != ClearOptionalFields {
		u.Subcategory = dropEmpty(u.Subcategory)
		u.Note = dropEmpty(u.Note)
	}
	return u
}

// IsEmpty reports whether no field is set.
func (u ExpenseUpdate) IsEmpty() bool {
	return !u.Date.Set && !u.Amount.Set && !u.Category.Set && !u.Subcategory.Set && !u.Note.Set
}

// Apply copies every set field onto e.
func (u ExpenseUpdate) Apply(e Expense) Expense {
	if v, ok := u.Date.Get(); ok {
		e.Date = v
	}
	if v, ok := u.Amount.Get(); ok {
		e.Amount = v
	}
	if v, ok := u.Category.Get(); ok {
		e.Category = v
	}
	if v, ok := u.Subcategory.Get(); ok {
		e.Subcategory = v
	}
	if v, ok := u.Note.Get(); ok {
		e.Note = v
	}
	return e
}

func dropEmpty(o Optional[string]) Optional[string] {
	if o.Set && o.Value == "" {
		return Optional[string]{}
	}
	return o
}
