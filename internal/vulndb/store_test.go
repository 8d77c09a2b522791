package vulndb

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dir := t.TempDir()
	writeCSV(t, dir, "vulnerabilities.csv",
		`cve_id,package_id,vulnerability_type_id,severity_id,cvss_score,affected_versions,fixed_version,description,published_date
CVE-2024-0001,p1,t1,s1,9.8,<1.2.0,1.2.0,Remote code execution in parser,2024-01-15
CVE-2024-0002,p2,t2,s2,6.5,<2.0.0,2.0.1,Cross-site scripting in renderer,2024-02-20
CVE-2024-0003,p1,t1,s1,9.1,<1.3.0,1.3.0,Second RCE in parser,2024-03-05
`)
	writeCSV(t, dir, "packages.csv",
		`package_id,name,ecosystem
p1,leftpad,npm
p2,webview,pip
`)
	writeCSV(t, dir, "severity_levels.csv",
		`severity_id,severity_name,min_cvss,max_cvss
s1,Critical,9.0,10.0
s2,Medium,4.0,6.9
`)
	writeCSV(t, dir, "vulnerability_types.csv",
		`type_id,type_name,description
t1,RCE,Remote code execution
t2,XSS,Cross-site scripting
`)

	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

func TestNewStore_MissingDirectory(t *testing.T) {
	_, err := NewStore("/nonexistent/path")
	if err == nil {
		t.Fatal("NewStore() with missing directory should return error")
	}
}

func TestNewStore_MissingCSV(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "vulnerabilities.csv", "cve_id,package_id,vulnerability_type_id,severity_id,cvss_score,affected_versions,fixed_version,description,published_date\n")

	_, err := NewStore(dir)
	if err == nil {
		t.Fatal("NewStore() with missing CSV files should return error")
	}
	if !strings.Contains(err.Error(), "packages.csv") {
		t.Errorf("error = %v, want mention of packages.csv", err)
	}
}

func TestCallTool_GetVulnerability(t *testing.T) {
	store := newTestStore(t)

	out, err := store.CallTool(context.Background(), "get_vulnerability", map[string]any{"cve_id": "CVE-2024-0001"})
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("CallTool() returned invalid JSON: %v", err)
	}
	if result["cve_id"] != "CVE-2024-0001" {
		t.Errorf("cve_id = %v, want CVE-2024-0001", result["cve_id"])
	}
	if result["package_name"] != "leftpad" {
		t.Errorf("package_name = %v, want leftpad", result["package_name"])
	}
	if result["severity_name"] != "Critical" {
		t.Errorf("severity_name = %v, want Critical", result["severity_name"])
	}
	if result["type_name"] != "RCE" {
		t.Errorf("type_name = %v, want RCE", result["type_name"])
	}
}

func TestCallTool_GetVulnerability_MissingID(t *testing.T) {
	store := newTestStore(t)

	out, err := store.CallTool(context.Background(), "get_vulnerability", map[string]any{})
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}
	if !strings.Contains(out, "cve_id is required") {
		t.Errorf("CallTool() = %q, want cve_id is required error in JSON", out)
	}
}

func TestCallTool_GetVulnerability_NotFound(t *testing.T) {
	store := newTestStore(t)

	out, err := store.CallTool(context.Background(), "get_vulnerability", map[string]any{"cve_id": "CVE-9999-0000"})
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}
	if !strings.Contains(out, "CVE not found: CVE-9999-0000") {
		t.Errorf("CallTool() = %q, want CVE not found error in JSON", out)
	}
}

func TestCallTool_SearchVulnerabilities(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name      string
		args      map[string]any
		wantCount float64
		wantFirst string
	}{
		{
			name:      "no filters returns all ordered by cvss desc",
			args:      map[string]any{},
			wantCount: 3,
			wantFirst: "CVE-2024-0001",
		},
		{
			name:      "filter by ecosystem",
			args:      map[string]any{"ecosystem": "pip"},
			wantCount: 1,
			wantFirst: "CVE-2024-0002",
		},
		{
			name:      "filter by severity",
			args:      map[string]any{"severity": "Critical"},
			wantCount: 2,
			wantFirst: "CVE-2024-0001",
		},
		{
			name:      "filter by cvss range",
			args:      map[string]any{"min_cvss": 9.0, "max_cvss": 9.5},
			wantCount: 1,
			wantFirst: "CVE-2024-0003",
		},
		{
			name:      "no matches",
			args:      map[string]any{"ecosystem": "maven"},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := store.CallTool(context.Background(), "search_vulnerabilities", tt.args)
			if err != nil {
				t.Fatalf("CallTool() error = %v", err)
			}

			var result struct {
				Count           float64          `json:"count"`
				Vulnerabilities []map[string]any `json:"vulnerabilities"`
			}
			if err := json.Unmarshal([]byte(out), &result); err != nil {
				t.Fatalf("CallTool() returned invalid JSON: %v", err)
			}
			if result.Count != tt.wantCount {
				t.Errorf("count = %v, want %v", result.Count, tt.wantCount)
			}
			if tt.wantFirst != "" && len(result.Vulnerabilities) > 0 {
				if result.Vulnerabilities[0]["cve_id"] != tt.wantFirst {
					t.Errorf("first cve_id = %v, want %v", result.Vulnerabilities[0]["cve_id"], tt.wantFirst)
				}
			}
		})
	}
}

func TestCallTool_ListPackages(t *testing.T) {
	store := newTestStore(t)

	out, err := store.CallTool(context.Background(), "list_packages", map[string]any{})
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}

	var result struct {
		Count    int              `json:"count"`
		Packages []map[string]any `json:"packages"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("CallTool() returned invalid JSON: %v", err)
	}
	if result.Count != 2 {
		t.Errorf("count = %d, want 2", result.Count)
	}
	// Ordered by ecosystem then name
	if result.Packages[0]["name"] != "leftpad" {
		t.Errorf("first package = %v, want leftpad", result.Packages[0]["name"])
	}

	out, err = store.CallTool(context.Background(), "list_packages", map[string]any{"ecosystem": "pip"})
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("CallTool() returned invalid JSON: %v", err)
	}
	if result.Count != 1 || result.Packages[0]["name"] != "webview" {
		t.Errorf("filtered packages = %+v, want only webview", result.Packages)
	}
}

func TestCallTool_GetStatistics(t *testing.T) {
	store := newTestStore(t)

	t.Run("overall", func(t *testing.T) {
		out, err := store.CallTool(context.Background(), "get_statistics", map[string]any{})
		if err != nil {
			t.Fatalf("CallTool() error = %v", err)
		}
		var result map[string]any
		if err := json.Unmarshal([]byte(out), &result); err != nil {
			t.Fatalf("CallTool() returned invalid JSON: %v", err)
		}
		if result["total_vulnerabilities"] != float64(3) {
			t.Errorf("total_vulnerabilities = %v, want 3", result["total_vulnerabilities"])
		}
		if result["max_cvss"] != 9.8 {
			t.Errorf("max_cvss = %v, want 9.8", result["max_cvss"])
		}
	})

	t.Run("group by severity", func(t *testing.T) {
		out, err := store.CallTool(context.Background(), "get_statistics", map[string]any{"group_by": "severity"})
		if err != nil {
			t.Fatalf("CallTool() error = %v", err)
		}
		var result struct {
			GroupBy    string           `json:"group_by"`
			Statistics []map[string]any `json:"statistics"`
		}
		if err := json.Unmarshal([]byte(out), &result); err != nil {
			t.Fatalf("CallTool() returned invalid JSON: %v", err)
		}
		if result.GroupBy != "severity" {
			t.Errorf("group_by = %q, want severity", result.GroupBy)
		}
		if len(result.Statistics) != 2 {
			t.Fatalf("statistics = %d groups, want 2", len(result.Statistics))
		}
		// Ordered by avg cvss desc, so Critical first
		if result.Statistics[0]["severity_name"] != "Critical" {
			t.Errorf("first group = %v, want Critical", result.Statistics[0]["severity_name"])
		}
		if result.Statistics[0]["count"] != float64(2) {
			t.Errorf("Critical count = %v, want 2", result.Statistics[0]["count"])
		}
	})
}

func TestCallTool_UnknownTool(t *testing.T) {
	store := newTestStore(t)

	_, err := store.CallTool(context.Background(), "drop_tables", map[string]any{})
	if err == nil {
		t.Fatal("CallTool() with unknown tool should return error")
	}
}
