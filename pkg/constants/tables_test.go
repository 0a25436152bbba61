package constants

import (
	"testing"
)

func TestIsSystemColumn(t *testing.T) {
	tests := []struct {
		column string
		want   bool
	}{
		{"id", true},
		{"tenant_id", true},
		{"created_at", true},
		{"updated_at", true},
		{"created_by", true},
		{"dept_id", true},
		{"amount", false},
		{"tenant", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			if got := IsSystemColumn(tt.column); got != tt.want {
				t.Errorf("IsSystemColumn(%q) = %v, want %v", tt.column, got, tt.want)
			}
		})
	}
}

func TestIsDataTable(t *testing.T) {
	tests := []struct {
		tableName string
		want      bool
	}{
		{"mf_data_t1_car", true},
		{"mf_data_acme_order_line", true},
		{"mf_schema", false},
		{"mf_field", false},
		{"users", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.tableName, func(t *testing.T) {
			if got := IsDataTable(tt.tableName); got != tt.want {
				t.Errorf("IsDataTable(%q) = %v, want %v", tt.tableName, got, tt.want)
			}
		})
	}
}

func TestSystemColumnsOrder(t *testing.T) {
	want := []string{"id", "tenant_id", "created_at", "updated_at", "created_by", "dept_id"}
	got := SystemColumns()
	if len(got) != len(want) {
		t.Fatalf("SystemColumns() returned %d columns, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SystemColumns()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
