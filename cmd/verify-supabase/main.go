// Command verify-supabase checks that the Supabase project behind Livets
// Stemme has the environment, tables, storage bucket and auth settings the
// app expects. It exits non-zero when any check fails.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/deanmartian/livets-stemme/internal/config"
	"github.com/deanmartian/livets-stemme/internal/logger"
	"github.com/deanmartian/livets-stemme/internal/supabase"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

const _verifyTimeout = 30 * time.Second

var (
	boldPrinter   = color.New(color.Bold)
	greenPrinter  = color.New(color.FgGreen)
	redPrinter    = color.New(color.FgRed)
	yellowPrinter = color.New(color.FgYellow)
	bluePrinter   = color.New(color.FgBlue)
)

var _checkIcons = []string{"🔧", "🔌", "🗄️ ", "📁", "🔐"}

func main() {
	_ = godotenv.Load(".env.local")

	var secrets config.Secrets
	if err := env.Parse(&secrets); err != nil {
		redPrinter.Printf("❌ Verification script failed: %s\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancelTimeout := context.WithTimeout(ctx, _verifyTimeout)

	client := supabase.NewClient(secrets.SupabaseURL, secrets.SupabaseAnonKey, logger.NewNopLogger())
	report := supabase.NewVerifier(secrets, client).Run(ctx)
	_ = client.Close()
	cancelTimeout()
	cancel()

	printReport(color.Output, report)
	if !report.OK() {
		os.Exit(1)
	}
}

func printLine(w io.Writer, l supabase.Line) {
	switch l.Level {
	case supabase.LevelSuccess:
		greenPrinter.Fprintf(w, "✅ %s\n", l.Text)
	case supabase.LevelWarning:
		yellowPrinter.Fprintf(w, "⚠️  %s\n", l.Text)
	case supabase.LevelError:
		redPrinter.Fprintf(w, "❌ %s\n", l.Text)
	default:
		bluePrinter.Fprintf(w, "ℹ️  %s\n", l.Text)
	}
}

func info(text string) supabase.Line {
	return supabase.Line{Level: supabase.LevelInfo, Text: text}
}

func printReport(w io.Writer, report supabase.Report) {
	boldPrinter.Fprintln(w, "🎙️ Livets Stemme - Supabase Verification")
	fmt.Fprintln(w, "==================================================")

	for i, check := range report.Checks {
		icon := ""
		if i < len(_checkIcons) {
			icon = _checkIcons[i] + " "
		}
		boldPrinter.Fprintf(w, "\n%s%s...\n", icon, check.Title)
		for _, l := range check.Lines {
			printLine(w, l)
		}
	}

	boldPrinter.Fprintln(w, "\n📊 Project Information:")
	printLine(w, info("Project ID: "+report.Project.ProjectID))
	printLine(w, info("Project URL: "+report.Project.URL))
	printLine(w, info("Region: "+report.Project.Region))

	boldPrinter.Fprintln(w, "\n📋 Verification Summary:")
	fmt.Fprintln(w, "==============================")

	passed, total := report.Passed(), len(report.Checks)
	if report.OK() {
		printLine(w, supabase.Line{Level: supabase.LevelSuccess, Text: fmt.Sprintf("All checks passed! (%d/%d)", passed, total)})
		printLine(w, supabase.Line{Level: supabase.LevelSuccess, Text: "Supabase is ready for production! 🎉"})
		return
	}

	printLine(w, supabase.Line{Level: supabase.LevelWarning, Text: fmt.Sprintf("%d/%d checks passed", passed, total)})
	printLine(w, supabase.Line{Level: supabase.LevelError, Text: "Please fix the issues above before proceeding"})

	boldPrinter.Fprintln(w, "\n💡 Need help?")
	printLine(w, info("1. Check SUPABASE_SETUP.md for detailed instructions"))
	printLine(w, info("2. Verify your .env.local file has correct values"))
	printLine(w, info("3. Make sure you ran the SQL schema in Supabase"))
	printLine(w, info("4. Ensure the "+supabase.AudioBucket+" bucket exists in Storage"))
}
