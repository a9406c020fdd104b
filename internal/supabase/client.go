// Package supabase is a small REST client for the parts of a Supabase
// project that the setup check needs: PostgREST tables, Storage buckets and
// the Auth OTP endpoint.
package supabase

import (
	"cmp"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/deanmartian/livets-stemme/internal/codec"
	"github.com/deanmartian/livets-stemme/internal/logger"
	"resty.dev/v3"
)

const (
	_tableURL   = "/rest/v1/{table}"
	_bucketsURL = "/storage/v1/bucket"
	_otpURL     = "/auth/v1/otp"
)

type Bucket struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Public bool   `json:"public"`
}

// APIError carries the message of a failed Supabase call. PostgREST,
// Storage and GoTrue each name the field differently.
type APIError struct {
	Status int `json:"-"`

	Message          string `json:"message"`
	Msg              string `json:"msg"`
	ErrorText        string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *APIError) Error() string {
	msg := cmp.Or(e.Message, e.Msg, e.ErrorDescription, e.ErrorText)
	if msg == "" {
		return fmt.Sprintf("supabase request failed with status %d", e.Status)
	}
	return msg
}

type Client struct {
	c *resty.Client

	logger logger.Logger
}

func NewClient(baseURL, apiKey string, logger logger.Logger) *Client {
	client := codec.WithSonic(resty.New().
		SetLogger(logger).
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("apikey", apiKey).
		SetAuthToken(apiKey))

	return &Client{
		c:      client,
		logger: logger,
	}
}

func (c *Client) Close() error {
	return c.c.Close()
}

func (c *Client) check(resp *resty.Response) error {
	c.logger.Debugf("got response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())
	if !resp.IsError() {
		return nil
	}
	apiErr, ok := resp.Error().(*APIError)
	if !ok || apiErr == nil {
		apiErr = &APIError{}
	}
	apiErr.Status = resp.StatusCode()
	return apiErr
}

// CountRows returns the exact row count of a table as reported in the
// Content-Range header.
func (c *Client) CountRows(ctx context.Context, table string) (int64, error) {
	resp, err := c.c.R().
		SetContext(ctx).
		SetPathParam("table", table).
		SetQueryParam("select", "*").
		SetHeader("Prefer", "count=exact").
		SetHeader("Range", "0-0").
		SetError(&APIError{}).
		Get(_tableURL)
	if err != nil {
		return 0, fmt.Errorf("%w: can't send count request for %s", err, table)
	}
	defer resp.Body.Close()

	if err := c.check(resp); err != nil {
		return 0, err
	}
	return parseContentRangeTotal(resp.Header().Get("Content-Range"))
}

// parseContentRangeTotal reads the total from "0-0/42" or "*/0".
func parseContentRangeTotal(header string) (int64, error) {
	_, total, ok := strings.Cut(header, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("no total in content range %q", header)
	}
	n, err := strconv.ParseInt(total, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid content range %q", err, header)
	}
	return n, nil
}

// SelectOne checks that a table is reachable for the current key.
func (c *Client) SelectOne(ctx context.Context, table string) error {
	resp, err := c.c.R().
		SetContext(ctx).
		SetPathParam("table", table).
		SetQueryParams(map[string]string{
			"select": "*",
			"limit":  "1",
		}).
		SetError(&APIError{}).
		Get(_tableURL)
	if err != nil {
		return fmt.Errorf("%w: can't send select request for %s", err, table)
	}
	defer resp.Body.Close()

	return c.check(resp)
}

func (c *Client) ListBuckets(ctx context.Context) ([]Bucket, error) {
	var buckets []Bucket
	resp, err := c.c.R().
		SetContext(ctx).
		SetResult(&buckets).
		SetError(&APIError{}).
		Get(_bucketsURL)
	if err != nil {
		return nil, fmt.Errorf("%w: can't send list buckets request", err)
	}
	defer resp.Body.Close()

	if err := c.check(resp); err != nil {
		return nil, err
	}
	return buckets, nil
}

type otpRequest struct {
	Email      string `json:"email"`
	CreateUser bool   `json:"create_user"`
}

// SignInWithOTP asks GoTrue to mail a one-time password without creating
// the user.
func (c *Client) SignInWithOTP(ctx context.Context, email string) error {
	resp, err := c.c.R().
		SetContext(ctx).
		SetBody(otpRequest{Email: email}).
		SetError(&APIError{}).
		Post(_otpURL)
	if err != nil {
		return fmt.Errorf("%w: can't send otp request", err)
	}
	defer resp.Body.Close()

	return c.check(resp)
}
