package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlexibleStringValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"string value", `"冷蔵庫レンタル"`, "冷蔵庫レンタル"},
		{"integer value", `42`, "42"},
		{"float value", `3.14`, "3.14"},
		{"boolean", `true`, "true"},
		{"null", `null`, ""},
		{"empty", ``, ""},
		{"object falls back to raw", `{"a":1}`, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlexibleStringValue(json.RawMessage(tt.input)))
		})
	}
}

func TestFlexibleStringList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"array", `["冷蔵庫", "単身"]`, []string{"冷蔵庫", "単身"}},
		{"array with scalars and blanks", `["冷蔵庫", 2026, " ", null]`, []string{"冷蔵庫", "2026"}},
		{"comma string", `"冷蔵庫, 単身,新生活"`, []string{"冷蔵庫", "単身", "新生活"}},
		{"japanese separators", `"冷蔵庫、単身／レンタル"`, []string{"冷蔵庫", "単身／レンタル"}},
		{"hashtags", `"#冷蔵庫 / #レンタル"`, []string{"冷蔵庫", "レンタル"}},
		{"single value", `"冷蔵庫"`, []string{"冷蔵庫"}},
		{"empty string", `""`, nil},
		{"null", `null`, nil},
		{"empty", ``, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FlexibleStringList(json.RawMessage(tt.input)))
		})
	}
}
