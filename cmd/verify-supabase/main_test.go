package main

import (
	"bytes"
	"testing"

	"github.com/deanmartian/livets-stemme/internal/supabase"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestPrintReport(t *testing.T) {
	color.NoColor = true

	report := supabase.Report{
		Checks: []supabase.Check{
			{Title: "Checking environment variables", Passed: true, Lines: []supabase.Line{{Level: supabase.LevelSuccess, Text: "All required environment variables found"}}},
			{Title: "Checking storage bucket", Lines: []supabase.Line{{Level: supabase.LevelError, Text: "audio-files bucket not found"}}},
		},
		Project: supabase.ProjectInfo{ProjectID: "abcdefgh", URL: "https://abcdefgh.supabase.co", Region: "Default"},
	}

	var buf bytes.Buffer
	printReport(&buf, report)
	out := buf.String()

	assert.Contains(t, out, "🔧 Checking environment variables...")
	assert.Contains(t, out, "✅ All required environment variables found")
	assert.Contains(t, out, "❌ audio-files bucket not found")
	assert.Contains(t, out, "ℹ️  Project ID: abcdefgh")
	assert.Contains(t, out, "⚠️  1/2 checks passed")
	assert.Contains(t, out, "💡 Need help?")
	assert.NotContains(t, out, "ready for production")
}

func TestPrintReportAllPassed(t *testing.T) {
	color.NoColor = true

	report := supabase.Report{
		Checks: []supabase.Check{{Title: "Testing Supabase connection", Passed: true}},
	}

	var buf bytes.Buffer
	printReport(&buf, report)

	assert.Contains(t, buf.String(), "✅ All checks passed! (1/1)")
	assert.NotContains(t, buf.String(), "Need help?")
}
