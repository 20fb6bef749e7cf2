package models

import (
	"testing"
	"time"
)

func TestFeeString(t *testing.T) {
	tests := []struct {
		name string
		fee  Fee
		want string
	}{
		{name: "amount", fee: Fee{Status: FeeAmount, Amount: "$ 500"}, want: "$ 500"},
		{name: "free", fee: Fee{Status: FeeFree}, want: "0"},
		{name: "unknown", fee: Fee{Status: FeeUnknown}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fee.String(); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	open := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	deadline := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	valid := Opportunity{Title: "Beca X", Type: TypeGrant, Scope: ScopeUnknown, Difficulty: 50}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}

	bad := []Opportunity{
		{Title: "", Type: TypeGrant, Scope: ScopeUnknown, Difficulty: 50},
		{Title: "x", Type: "lottery", Scope: ScopeUnknown, Difficulty: 50},
		{Title: "x", Type: TypeGrant, Scope: ScopeUnknown, Difficulty: 0},
		{Title: "x", Type: TypeGrant, Scope: ScopeUnknown, Difficulty: 101},
		{Title: "x", Type: TypeGrant, Scope: ScopeUnknown, Difficulty: 10, OpenAt: &open, Deadline: &deadline},
	}
	for i, o := range bad {
		if err := o.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}

func TestCompleteness(t *testing.T) {
	d := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	o := Opportunity{Deadline: &d, ApplyURL: "https://a", BasesURL: "https://b"}
	if got := o.Completeness(); got != 5 {
		t.Fatalf("expected 5, got %d", got)
	}
	if got := (Opportunity{}).Completeness(); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}
