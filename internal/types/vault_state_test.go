// SPDX-License-Identifier: MIT

package types

import (
	"encoding/json"
	"testing"
)

func TestVaultState_String(t *testing.T) {
	tests := []struct {
		name  string
		state VaultState
		want  string
	}{
		{"active", VaultStateActive, "active"},
		{"warning", VaultStateWarning, "warning"},
		{"grace period", VaultStateGracePeriod, "grace_period"},
		{"distributing", VaultStateDistributing, "distributing"},
		{"completed", VaultStateCompleted, "completed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("VaultState.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVaultState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state VaultState
		want  bool
	}{
		{"active valid", VaultStateActive, true},
		{"warning valid", VaultStateWarning, true},
		{"grace period valid", VaultStateGracePeriod, true},
		{"distributing valid", VaultStateDistributing, true},
		{"completed valid", VaultStateCompleted, true},
		{"invalid empty", VaultState(""), false},
		{"invalid unknown", VaultState("dormant"), false},
		{"invalid case", VaultState("Active"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.want {
				t.Errorf("VaultState.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVaultState_IsTerminal(t *testing.T) {
	tests := []struct {
		name  string
		state VaultState
		want  bool
	}{
		{"active not terminal", VaultStateActive, false},
		{"warning not terminal", VaultStateWarning, false},
		{"grace period not terminal", VaultStateGracePeriod, false},
		{"distributing not terminal", VaultStateDistributing, false},
		{"completed terminal", VaultStateCompleted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.want {
				t.Errorf("VaultState.IsTerminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVaultState_AllowsCheckIn(t *testing.T) {
	tests := []struct {
		name  string
		state VaultState
		want  bool
	}{
		{"active allows", VaultStateActive, true},
		{"warning allows", VaultStateWarning, true},
		{"grace period allows", VaultStateGracePeriod, true},
		{"distributing rejects", VaultStateDistributing, false},
		{"completed rejects", VaultStateCompleted, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.AllowsCheckIn(); got != tt.want {
				t.Errorf("VaultState.AllowsCheckIn() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVaultState_JSON(t *testing.T) {
	for _, state := range AllVaultStates() {
		data, err := json.Marshal(state)
		if err != nil {
			t.Fatalf("Marshal(%v) error: %v", state, err)
		}

		var got VaultState
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal(%s) error: %v", data, err)
		}
		if got != state {
			t.Errorf("round trip = %v, want %v", got, state)
		}
	}

	var bad VaultState
	if err := json.Unmarshal([]byte(`"dormant"`), &bad); err == nil {
		t.Error("Unmarshal accepted invalid state")
	}
}

func TestParseVaultState(t *testing.T) {
	state, err := ParseVaultState("grace_period")
	if err != nil {
		t.Fatalf("ParseVaultState error: %v", err)
	}
	if state != VaultStateGracePeriod {
		t.Errorf("ParseVaultState = %v, want %v", state, VaultStateGracePeriod)
	}

	if _, err := ParseVaultState("bogus"); err == nil {
		t.Error("ParseVaultState accepted invalid input")
	}
}
