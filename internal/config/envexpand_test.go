package config

import (
	"testing"
)

func TestExpandEnvSubstitutesBracedAndBareVariables(t *testing.T) {
	t.Setenv("GW_TEST_HOST", "db.internal")
	t.Setenv("GW_TEST_PORT", "5432")

	got := string(ExpandEnv([]byte("dsn: postgres://${GW_TEST_HOST}:$GW_TEST_PORT/gateway")))
	want := "dsn: postgres://db.internal:5432/gateway"
	if got != want {
		t.Errorf("ExpandEnv() = %q, want %q", got, want)
	}
}

func TestExpandEnvMissingVariableExpandsToEmpty(t *testing.T) {
	got := string(ExpandEnv([]byte("key: ${GW_TEST_DOES_NOT_EXIST}")))
	if got != "key: " {
		t.Errorf("ExpandEnv() = %q, want %q", got, "key: ")
	}
}
