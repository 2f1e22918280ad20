package frame

import (
	"encoding/json"
	"testing"
)

func TestCoerce_Boolean(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{true, true},
		{false, false},
		{"YES", true},
		{"yes", true},
		{"TRUE", true},
		{"1", true},
		{json.Number("1"), true},
		{json.Number("0"), false},
		{"no", false},
		{"No", false},
		{"false", false},
		{"0", false},
		{"maybe", nil},
		{"", nil},
		{json.Number("-3"), true},
		{nil, nil},
	}
	for _, tt := range tests {
		if got := coerce(tt.in, DTypeBool); got != tt.want {
			t.Errorf("coerce(%#v, bool) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestCoerce_Number(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{json.Number("3.25"), 3.25},
		{json.Number("5"), 5.0},
		{"  2.5 ", 2.5},
		{"-40", -40.0},
		{"abc", nil},
		{true, nil},
		{nil, nil},
	}
	for _, tt := range tests {
		if got := coerce(tt.in, DTypeNumber); got != tt.want {
			t.Errorf("coerce(%#v, number) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestCoerce_Integer(t *testing.T) {
	tests := []struct {
		in   any
		want any
	}{
		{json.Number("42"), int64(42)},
		{json.Number("7.5"), nil},
		{"42", int64(42)},
		{"4.2", nil},
		{float64(6), int64(6)},
		{6.5, nil},
		{"x", nil},
		{false, nil},
	}
	for _, tt := range tests {
		if got := coerce(tt.in, DTypeInt); got != tt.want {
			t.Errorf("coerce(%#v, integer) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestCoerce_StringLike(t *testing.T) {
	for _, dtype := range []DType{DTypeString, DTypeDate, DTypeDatetime} {
		tests := []struct {
			in   any
			want any
		}{
			{"2024-01-02", "2024-01-02"},
			{json.Number("7"), "7"},
			{true, "true"},
			{false, "false"},
			{nil, nil},
		}
		for _, tt := range tests {
			if got := coerce(tt.in, dtype); got != tt.want {
				t.Errorf("coerce(%#v, %v) = %#v, want %#v", tt.in, dtype, got, tt.want)
			}
		}
	}
}

func TestParseDType(t *testing.T) {
	tests := []struct {
		in   string
		want DType
	}{
		{"string", DTypeString},
		{"number", DTypeNumber},
		{"float", DTypeNumber},
		{"integer", DTypeInt},
		{"int", DTypeInt},
		{"boolean", DTypeBool},
		{"bool", DTypeBool},
		{"date", DTypeDate},
		{"datetime", DTypeDatetime},
		{"decimal", DTypeString},
		{"Number", DTypeString}, // dtype names are case-sensitive
		{"", DTypeString},
	}
	for _, tt := range tests {
		if got := ParseDType(tt.in); got != tt.want {
			t.Errorf("ParseDType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
