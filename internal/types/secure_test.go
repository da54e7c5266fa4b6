package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

const testToken = "admin-token-do-not-log"

func TestSecretString_FormattingNeverLeaks(t *testing.T) {
	s := SecretString(testToken)

	for _, verb := range []string{"%s", "%v", "%+v"} {
		got := fmt.Sprintf(verb, s)
		if strings.Contains(got, testToken) {
			t.Errorf("fmt.Sprintf(%q) leaked the raw token: %s", verb, got)
		}
		if got != redactedPlaceholder {
			t.Errorf("fmt.Sprintf(%q) = %q, want %q", verb, got, redactedPlaceholder)
		}
	}
}

func TestSecretString_MarshalJSON_InConfigStruct(t *testing.T) {
	cfg := struct {
		AdminToken SecretString `json:"adminToken"`
		Port       int          `json:"port"`
	}{AdminToken: SecretString(testToken), Port: 4000}

	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("json.Marshal returned error: %v", err)
	}
	want := `{"adminToken":"` + redactedPlaceholder + `","port":4000}`
	if string(data) != want {
		t.Errorf("json.Marshal = %s, want %s", data, want)
	}
}

func TestSecretString_SlogAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logger.Info("config loaded", "admin_token", SecretString(testToken))

	if strings.Contains(buf.String(), testToken) {
		t.Fatalf("slog output leaked the raw token: %s", buf.String())
	}
	if !strings.Contains(buf.String(), redactedPlaceholder) {
		t.Errorf("slog output missing placeholder: %s", buf.String())
	}
}

func TestSecretString_UnmaskAndIsSet(t *testing.T) {
	s := SecretString(testToken)
	if s.Unmask() != testToken {
		t.Errorf("Unmask() = %q, want %q", s.Unmask(), testToken)
	}
	if !s.IsSet() {
		t.Error("IsSet() = false for non-empty secret")
	}

	var empty SecretString
	if empty.IsSet() {
		t.Error("IsSet() = true for empty secret")
	}
	if empty.String() != redactedPlaceholder {
		t.Errorf("String() on empty secret = %q, want placeholder", empty.String())
	}
}
