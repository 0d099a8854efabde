package main

import "testing"

func TestIdentifierPatternRejectsUnsafeNames(t *testing.T) {
	valid := []string{"gateway", "gateway_db", "_private", "Gateway2"}
	invalid := []string{"2gateway", "gateway-db", "gateway;drop table", "", "gate way"}

	for _, name := range valid {
		if !identifierPattern.MatchString(name) {
			t.Errorf("expected %q to be a valid identifier", name)
		}
	}
	for _, name := range invalid {
		if identifierPattern.MatchString(name) {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}
