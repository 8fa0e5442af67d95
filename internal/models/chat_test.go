package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequest_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"字符串", `{"message":"敷金について"}`, "敷金について"},
		{"转义字符串", `{"message":"a\"bあ"}`, `a"bあ`},
		{"整数", `{"message":123}`, "123"},
		{"小数", `{"message":1.5}`, "1.5"},
		{"true", `{"message":true}`, "true"},
		{"false", `{"message":false}`, ""},
		{"零", `{"message":0}`, ""},
		{"null", `{"message":null}`, ""},
		{"缺少字段", `{}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req ChatRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.Message)
		})
	}
}

func TestChatRequest_UnmarshalJSONRejectsComposite(t *testing.T) {
	for _, body := range []string{`{"message":{"a":1}}`, `{"message":["a"]}`, `{"message":`} {
		var req ChatRequest
		assert.Error(t, json.Unmarshal([]byte(body), &req), body)
	}
}
