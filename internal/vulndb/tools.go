package vulndb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ToolsDescription is a plain-text description of the available tools,
// suitable for inclusion in an LLM prompt.
const ToolsDescription = `1. get_vulnerability(cve_id: string)
   Get detailed information about a specific CVE vulnerability.
   Example: {"tool": "get_vulnerability", "arguments": {"cve_id": "CVE-2024-1234"}}

2. search_vulnerabilities(ecosystem?: string, severity?: string, type?: string, min_cvss?: number, max_cvss?: number)
   Search and filter vulnerabilities. All parameters are optional.
   - ecosystem: "npm", "pip", "maven", etc.
   - severity: "Critical", "High", "Medium", "Low"
   - type: "SQL Injection", "XSS", "RCE", etc.
   Example: {"tool": "search_vulnerabilities", "arguments": {"severity": "Critical", "ecosystem": "npm"}}

3. list_packages(ecosystem?: string)
   List all packages, optionally filtered by ecosystem.
   Example: {"tool": "list_packages", "arguments": {"ecosystem": "pip"}}

4. get_statistics(group_by?: "ecosystem" | "severity" | "type")
   Get aggregate statistics about vulnerabilities.
   Example: {"tool": "get_statistics", "arguments": {"group_by": "severity"}}`

// CallTool executes a tool call and returns the result as an indented JSON
// string. Data-level problems (missing cve_id, no matching CVE) are reported
// inside the JSON as an "error" field so the LLM can react to them; only
// unknown tool names and query failures return a Go error.
func (s *Store) CallTool(ctx context.Context, name string, arguments map[string]any) (string, error) {
	var result any
	var err error

	switch name {
	case "get_vulnerability":
		result, err = s.getVulnerability(ctx, arguments)
	case "search_vulnerabilities":
		result, err = s.searchVulnerabilities(ctx, arguments)
	case "list_packages":
		result, err = s.listPackages(ctx, arguments)
	case "get_statistics":
		result, err = s.getStatistics(ctx, arguments)
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	if err != nil {
		return "", err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return string(out), nil
}

func (s *Store) getVulnerability(ctx context.Context, args map[string]any) (any, error) {
	cveID, _ := args["cve_id"].(string)
	if cveID == "" {
		return map[string]any{"error": "cve_id is required"}, nil
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT
			v.cve_id,
			v.cvss_score,
			v.affected_versions,
			v.fixed_version,
			v.description,
			v.published_date,
			p.name AS package_name,
			p.ecosystem,
			s.severity_name,
			t.type_name
		FROM vulnerabilities v
		JOIN packages p ON v.package_id = p.package_id
		JOIN severity_levels s ON v.severity_id = s.severity_id
		JOIN vulnerability_types t ON v.vulnerability_type_id = t.type_id
		WHERE v.cve_id = ?`,
		cveID,
	)

	var vuln vulnerability
	err := row.Scan(
		&vuln.CVEID, &vuln.CVSSScore, &vuln.AffectedVersions, &vuln.FixedVersion,
		&vuln.Description, &vuln.PublishedDate, &vuln.PackageName, &vuln.Ecosystem,
		&vuln.SeverityName, &vuln.TypeName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]any{"error": fmt.Sprintf("CVE not found: %s", cveID)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query vulnerability: %w", err)
	}

	return vuln, nil
}

func (s *Store) searchVulnerabilities(ctx context.Context, args map[string]any) (any, error) {
	var conditions []string
	var params []any

	if ecosystem, ok := args["ecosystem"]; ok {
		conditions = append(conditions, "p.ecosystem = ?")
		params = append(params, ecosystem)
	}
	if severity, ok := args["severity"]; ok {
		conditions = append(conditions, "s.severity_name = ?")
		params = append(params, severity)
	}
	if vulnType, ok := args["type"]; ok {
		conditions = append(conditions, "t.type_name = ?")
		params = append(params, vulnType)
	}
	if minCVSS, ok := args["min_cvss"]; ok {
		conditions = append(conditions, "CAST(v.cvss_score AS REAL) >= ?")
		params = append(params, minCVSS)
	}
	if maxCVSS, ok := args["max_cvss"]; ok {
		conditions = append(conditions, "CAST(v.cvss_score AS REAL) <= ?")
		params = append(params, maxCVSS)
	}

	whereClause := "1=1"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT
			v.cve_id,
			v.cvss_score,
			v.affected_versions,
			v.fixed_version,
			v.description,
			p.name AS package_name,
			p.ecosystem,
			s.severity_name,
			t.type_name
		FROM vulnerabilities v
		JOIN packages p ON v.package_id = p.package_id
		JOIN severity_levels s ON v.severity_id = s.severity_id
		JOIN vulnerability_types t ON v.vulnerability_type_id = t.type_id
		WHERE %s
		ORDER BY CAST(v.cvss_score AS REAL) DESC`, whereClause),
		params...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search vulnerabilities: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	vulns := []vulnerability{}
	for rows.Next() {
		var vuln vulnerability
		err := rows.Scan(
			&vuln.CVEID, &vuln.CVSSScore, &vuln.AffectedVersions, &vuln.FixedVersion,
			&vuln.Description, &vuln.PackageName, &vuln.Ecosystem,
			&vuln.SeverityName, &vuln.TypeName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vulnerability: %w", err)
		}
		vulns = append(vulns, vuln)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return map[string]any{
		"count":           len(vulns),
		"vulnerabilities": vulns,
	}, nil
}

func (s *Store) listPackages(ctx context.Context, args map[string]any) (any, error) {
	var rows *sql.Rows
	var err error

	if ecosystem, ok := args["ecosystem"]; ok {
		rows, err = s.db.QueryContext(ctx,
			"SELECT package_id, name, ecosystem FROM packages WHERE ecosystem = ? ORDER BY name",
			ecosystem,
		)
	} else {
		rows, err = s.db.QueryContext(ctx,
			"SELECT package_id, name, ecosystem FROM packages ORDER BY ecosystem, name",
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	packages := []pkg{}
	for rows.Next() {
		var p pkg
		if err := rows.Scan(&p.PackageID, &p.Name, &p.Ecosystem); err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		packages = append(packages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return map[string]any{
		"count":    len(packages),
		"packages": packages,
	}, nil
}

func (s *Store) getStatistics(ctx context.Context, args map[string]any) (any, error) {
	groupBy, _ := args["group_by"].(string)

	var query string
	var label string
	switch groupBy {
	case "ecosystem":
		label = "ecosystem"
		query = `
			SELECT p.ecosystem, COUNT(*) as count, AVG(v.cvss_score) as avg_cvss
			FROM vulnerabilities v
			JOIN packages p ON v.package_id = p.package_id
			GROUP BY p.ecosystem
			ORDER BY count DESC`
	case "severity":
		label = "severity_name"
		query = `
			SELECT s.severity_name, COUNT(*) as count, AVG(v.cvss_score) as avg_cvss
			FROM vulnerabilities v
			JOIN severity_levels s ON v.severity_id = s.severity_id
			GROUP BY s.severity_name
			ORDER BY AVG(v.cvss_score) DESC`
	case "type":
		label = "type_name"
		query = `
			SELECT t.type_name, COUNT(*) as count, AVG(v.cvss_score) as avg_cvss
			FROM vulnerabilities v
			JOIN vulnerability_types t ON v.vulnerability_type_id = t.type_id
			GROUP BY t.type_name
			ORDER BY count DESC`
	default:
		// Overall statistics
		row := s.db.QueryRowContext(ctx, `
			SELECT
				COUNT(*) as total_vulnerabilities,
				AVG(cvss_score) as avg_cvss,
				MIN(cvss_score) as min_cvss,
				MAX(cvss_score) as max_cvss
			FROM vulnerabilities`,
		)
		var total int
		var avgCVSS, minCVSS, maxCVSS float64
		if err := row.Scan(&total, &avgCVSS, &minCVSS, &maxCVSS); err != nil {
			return nil, fmt.Errorf("failed to query statistics: %w", err)
		}
		return map[string]any{
			"total_vulnerabilities": total,
			"avg_cvss":              avgCVSS,
			"min_cvss":              minCVSS,
			"max_cvss":              maxCVSS,
		}, nil
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	stats := []map[string]any{}
	for rows.Next() {
		var name string
		var count int
		var avgCVSS float64
		if err := rows.Scan(&name, &count, &avgCVSS); err != nil {
			return nil, fmt.Errorf("failed to scan statistics: %w", err)
		}
		stats = append(stats, map[string]any{
			label:      name,
			"count":    count,
			"avg_cvss": avgCVSS,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return map[string]any{
		"group_by":   groupBy,
		"statistics": stats,
	}, nil
}

type vulnerability struct {
	CVEID            string `json:"cve_id"`
	CVSSScore        string `json:"cvss_score"`
	AffectedVersions string `json:"affected_versions"`
	FixedVersion     string `json:"fixed_version"`
	Description      string `json:"description"`
	PublishedDate    string `json:"published_date,omitempty"`
	PackageName      string `json:"package_name"`
	Ecosystem        string `json:"ecosystem"`
	SeverityName     string `json:"severity_name"`
	TypeName         string `json:"type_name"`
}

type pkg struct {
	PackageID string `json:"package_id"`
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}
