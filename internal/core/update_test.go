package core

import (
	"encoding/json"
	"testing"
)

func TestOptionalUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantSet  bool
		wantDate string
		wantAmt  float64
		amtSet   bool
	}{
		{name: "absent keys", input: `{}`},
		{name: "null values", input: `{"date": null, "amount": null}`},
		{name: "empty string is still present", input: `{"date": ""}`, wantSet: true},
		{name: "values", input: `{"date": "2024-01-01", "amount": 3.5}`, wantSet: true, wantDate: "2024-01-01", wantAmt: 3.5, amtSet: true},
		{name: "zero amount is present", input: `{"amount": 0}`, amtSet: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u ExpenseUpdate
			if err := json.Unmarshal([]byte(tt.input), &u); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if u.Date.Set != tt.wantSet {
				t.Errorf("Date.Set = %v, want %v", u.Date.Set, tt.wantSet)
			}
			if u.Date.Value != tt.wantDate {
				t.Errorf("Date.Value = %q, want %q", u.Date.Value, tt.wantDate)
			}
			if u.Amount.Set != tt.amtSet || u.Amount.Value != tt.wantAmt {
				t.Errorf("Amount = %+v, want set=%v value=%v", u.Amount, tt.amtSet, tt.wantAmt)
			}
		})
	}
}

func TestOptionalUnmarshalJSONTypeMismatch(t *testing.T) {
	var u ExpenseUpdate
	if err := json.Unmarshal([]byte(`{"amount": "ten"}`), &u); err == nil {
		t.Fatal("expected error for string amount")
	}
}

func TestOptionalMarshalJSON(t *testing.T) {
	b, err := json.Marshal(ExpenseUpdate{Amount: Some(0.0), Note: Some("x")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"date":null,"amount":0,"category":null,"subcategory":null,"note":"x"}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}
}

func TestExpenseUpdateEffective(t *testing.T) {
	blank := ExpenseUpdate{
		Date:        Some(""),
		Category:    Some(""),
		Subcategory: Some(""),
		Note:        Some(""),
	}

	t.Run("ignore empty strings drops every blank field", func(t *testing.T) {
		u := blank.Effective(IgnoreEmptyStrings)
		if !u.IsEmpty() {
			t.Fatalf("expected empty update, got %+v", u)
		}
	})

	t.Run("zero amount survives", func(t *testing.T) {
		u := ExpenseUpdate{Amount: Some(0.0)}.Effective(IgnoreEmptyStrings)
		if v, ok := u.Amount.Get(); !ok || v != 0 {
			t.Fatalf("amount = %+v, want set zero", u.Amount)
		}
	})

	t.Run("clear optional fields keeps blank subcategory and note", func(t *testing.T) {
		u := blank.Effective(ClearOptionalFields)
		if u.Date.Set || u.Category.Set {
			t.Errorf("date/category must still ignore blanks: %+v", u)
		}
		if !u.Subcategory.Set || !u.Note.Set {
			t.Errorf("subcategory/note should be set: %+v", u)
		}
	})
}

func TestExpenseUpdateApply(t *testing.T) {
	e := Expense{ID: 7, Date: "2024-01-01", Amount: 5, Category: "food", Subcategory: "lunch", Note: "n"}
	got := ExpenseUpdate{Amount: Some(0.0), Note: Some("changed")}.Apply(e)
	want := Expense{ID: 7, Date: "2024-01-01", Amount: 0, Category: "food", Subcategory: "lunch", Note: "changed"}
	if got != want {
		t.Errorf("Apply = %+v, want %+v", got, want)
	}
}
