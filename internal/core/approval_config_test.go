package core_test

import (
	"testing"

	"orderflow/internal/core"
)

func TestLevelFor(t *testing.T) {
	cfg := core.ApprovalConfig{
		AutoApproveLimit:   dec("5000"),
		Level1ApproveLimit: dec("20000"),
	}

	tests := []struct {
		name   string
		amount string
		want   core.ApprovalLevel
	}{
		{"well under auto limit", "100", core.ApprovalAuto},
		{"exactly auto limit", "5000", core.ApprovalAuto},
		{"just over auto limit", "5000.01", core.ApprovalLevel1},
		{"mid level1 band", "15000", core.ApprovalLevel1},
		{"exactly level1 limit", "20000", core.ApprovalLevel1},
		{"just over level1 limit", "20000.01", core.ApprovalLevel2},
		{"far over level1 limit", "25000", core.ApprovalLevel2},
		{"zero total", "0", core.ApprovalAuto},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := core.LevelFor(dec(tc.amount), cfg); got != tc.want {
				t.Errorf("LevelFor(%s) = %s, want %s", tc.amount, got, tc.want)
			}
		})
	}
}
