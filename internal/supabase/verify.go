package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/deanmartian/livets-stemme/internal/config"
	"github.com/samber/lo"
)

const (
	AudioBucket = "audio-files"

	_probeEmail = "test@example.com"
)

var RequiredTables = []string{"user_profiles", "stories", "family_members"}

type Level int

const (
	LevelSuccess Level = iota
	LevelWarning
	LevelError
	LevelInfo
)

type Line struct {
	Level Level
	Text  string
}

type Check struct {
	Title  string
	Passed bool
	Lines  []Line
}

func (c *Check) success(format string, args ...any) {
	c.Lines = append(c.Lines, Line{LevelSuccess, fmt.Sprintf(format, args...)})
}

func (c *Check) warning(format string, args ...any) {
	c.Lines = append(c.Lines, Line{LevelWarning, fmt.Sprintf(format, args...)})
}

func (c *Check) fail(format string, args ...any) {
	c.Lines = append(c.Lines, Line{LevelError, fmt.Sprintf(format, args...)})
}

type ProjectInfo struct {
	ProjectID string
	URL       string
	Region    string
}

type Report struct {
	Checks  []Check
	Project ProjectInfo
}

func (r Report) Passed() int {
	return lo.CountBy(r.Checks, func(c Check) bool { return c.Passed })
}

func (r Report) OK() bool {
	return r.Passed() == len(r.Checks)
}

// Verifier runs the Supabase project checks in order. Every check runs even
// when an earlier one fails, so the report lists all problems at once.
type Verifier struct {
	secrets config.Secrets
	client  *Client
}

func NewVerifier(secrets config.Secrets, client *Client) *Verifier {
	return &Verifier{secrets: secrets, client: client}
}

func (v *Verifier) Run(ctx context.Context) Report {
	return Report{
		Checks: []Check{
			v.checkEnvironment(),
			v.checkConnection(ctx),
			v.checkSchema(ctx),
			v.checkStorage(ctx),
			v.checkAuth(ctx),
		},
		Project: projectInfo(v.secrets.SupabaseURL),
	}
}

func (v *Verifier) checkEnvironment() Check {
	c := Check{Title: "Checking environment variables"}

	vars := map[string]string{
		"NEXT_PUBLIC_SUPABASE_URL":      v.secrets.SupabaseURL,
		"NEXT_PUBLIC_SUPABASE_ANON_KEY": v.secrets.SupabaseAnonKey,
		"SUPABASE_SERVICE_ROLE_KEY":     v.secrets.SupabaseServiceRoleKey,
	}
	missing := lo.Filter([]string{
		"NEXT_PUBLIC_SUPABASE_URL",
		"NEXT_PUBLIC_SUPABASE_ANON_KEY",
		"SUPABASE_SERVICE_ROLE_KEY",
	}, func(name string, _ int) bool { return vars[name] == "" })

	if len(missing) > 0 {
		c.fail("Missing environment variables: %s", strings.Join(missing, ", "))
		c.fail("Please check your .env.local file")
		return c
	}
	c.success("All required environment variables found")
	c.Passed = true
	return c
}

func (v *Verifier) checkConnection(ctx context.Context) Check {
	c := Check{Title: "Testing Supabase connection"}

	if _, err := v.client.CountRows(ctx, RequiredTables[0]); err != nil {
		c.fail("Connection failed: %s", err)
		return c
	}
	c.success("Supabase connection successful")
	c.Passed = true
	return c
}

func (v *Verifier) checkSchema(ctx context.Context) Check {
	c := Check{Title: "Verifying database schema", Passed: true}

	for _, table := range RequiredTables {
		if err := v.client.SelectOne(ctx, table); err != nil {
			c.fail("Table '%s' not accessible: %s", table, err)
			c.Passed = false
			continue
		}
		c.success("Table '%s' exists and accessible", table)
	}
	return c
}

func (v *Verifier) checkStorage(ctx context.Context) Check {
	c := Check{Title: "Checking storage bucket"}

	buckets, err := v.client.ListBuckets(ctx)
	if err != nil {
		c.fail("Storage check failed: %s", err)
		return c
	}

	bucket, ok := lo.Find(buckets, func(b Bucket) bool { return b.Name == AudioBucket })
	if !ok {
		c.fail("%s bucket not found", AudioBucket)
		c.warning("Please create the %s bucket in Supabase Storage", AudioBucket)
		return c
	}
	c.success("%s bucket exists", AudioBucket)
	if bucket.Public {
		c.warning("%s bucket is public - consider making it private for security", AudioBucket)
	} else {
		c.success("%s bucket is private (secure)", AudioBucket)
	}
	c.Passed = true
	return c
}

// checkAuth expects the OTP sign-in of an unknown user to be rejected; only
// a transport failure fails the check.
func (v *Verifier) checkAuth(ctx context.Context) Check {
	c := Check{Title: "Checking authentication configuration", Passed: true}

	err := v.client.SignInWithOTP(ctx, _probeEmail)
	var apiErr *APIError
	isAPIErr := errors.As(err, &apiErr)
	switch {
	case err == nil:
		c.success("Auth configuration working")
	case !isAPIErr:
		c.fail("Auth verification failed: %s", err)
		c.Passed = false
	case strings.Contains(apiErr.Error(), "Unable to validate email address"):
		c.warning("Auth configured but email validation may need setup")
	case strings.Contains(apiErr.Error(), "Email not confirmed"):
		c.success("Auth configuration appears correct")
	default:
		c.warning("Auth test returned: %s", apiErr.Error())
	}
	return c
}

func projectInfo(rawURL string) ProjectInfo {
	info := ProjectInfo{URL: rawURL, Region: "Custom"}
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		info.ProjectID, _, _ = strings.Cut(u.Host, ".")
	}
	if strings.Contains(rawURL, "supabase.co") {
		info.Region = "Default"
	}
	return info
}
