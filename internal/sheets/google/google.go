package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"finanzas/internal/core"
	ports "finanzas/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Base sheet names; the year of the row is prefixed ("2024 Cuotas").
const (
	InstallmentsSheet = "Cuotas"
	FixedSheet        = "Fijos"
	SettlementsSheet  = "Cierres"
)

const timestampLayout = "2006-01-02 15:04:05"

type valuesAppender interface {
	append(ctx context.Context, spreadsheetID, rng string, row []any) (string, error)
}

type Client struct {
	values        valuesAppender
	spreadsheetID string
	names         SheetNames
}

// SheetNames holds the base sheet names without year.
type SheetNames struct {
	Installments string
	Fixed        string
	Settlements  string
}

// DefaultSheetNames returns the sheet names used when none are configured.
func DefaultSheetNames() SheetNames {
	return SheetNames{Installments: InstallmentsSheet, Fixed: FixedSheet, Settlements: SettlementsSheet}
}

var _ ports.LedgerMirror = (*Client)(nil)

// Credentials selects the service account used to reach the API. JSON wins
// over File; with neither set GOOGLE_APPLICATION_CREDENTIALS is tried.
type Credentials struct {
	JSON string
	File string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, spreadsheetID string, creds Credentials, names SheetNames) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		values:        &serviceAppender{svc: svc},
		spreadsheetID: spreadsheetID,
		names:         names.withDefaults(),
	}, nil
}

func (n SheetNames) withDefaults() SheetNames {
	d := DefaultSheetNames()
	if strings.TrimSpace(n.Installments) == "" {
		n.Installments = d.Installments
	}
	if strings.TrimSpace(n.Fixed) == "" {
		n.Fixed = d.Fixed
	}
	if strings.TrimSpace(n.Settlements) == "" {
		n.Settlements = d.Settlements
	}
	return n
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(creds.JSON)
	serviceAccountFile := strings.TrimSpace(creds.File)

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully")
	return service, nil
}

// newHTTPClientWithPooling creates an HTTP client for the Sheets API with
// connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// serviceAppender appends through the real Sheets API.
type serviceAppender struct {
	svc *gsheet.Service
}

func (a *serviceAppender) append(ctx context.Context, spreadsheetID, rng string, row []any) (string, error) {
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	resp, err := a.svc.Spreadsheets.Values.Append(spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

func (c *Client) AppendInstallment(ctx context.Context, e core.InstallmentExpense, at time.Time) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	sheet := yearPrefixedName(c.names.Installments, at.Year())
	return c.appendRow(ctx, sheet, "A:J", installmentRow(e, at))
}

func (c *Client) AppendFixed(ctx context.Context, f core.FixedExpense, at time.Time) (string, error) {
	if err := f.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	sheet := yearPrefixedName(c.names.Fixed, at.Year())
	return c.appendRow(ctx, sheet, "A:J", fixedRow(f, at))
}

func (c *Client) AppendSettlement(ctx context.Context, s ports.Settlement) (string, error) {
	if s.Month.IsZero() {
		return "", core.Invalid("month", core.ErrInvalidMonth)
	}
	sheet := yearPrefixedName(c.names.Settlements, s.Month.Year)
	return c.appendRow(ctx, sheet, "A:C", settlementRow(s))
}

func (c *Client) appendRow(ctx context.Context, sheet, cols string, row []any) (string, error) {
	if c.values == nil {
		return "", errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!%s", sheet, cols)
	ref, err := c.values.append(ctx, c.spreadsheetID, rng, row)
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}
	return ref, nil
}

// installmentRow: timestamp, id, date, description, category, amount,
// payer, payment method, paid, total.
func installmentRow(e core.InstallmentExpense, at time.Time) []any {
	return []any{
		at.Format(timestampLayout),
		e.ID,
		e.Date.String(),
		e.Description,
		e.Category,
		e.Amount.Format(),
		string(e.Payer),
		e.PaymentMethod,
		e.InstallmentsPaid,
		e.InstallmentsTotal,
	}
}

// fixedRow: timestamp, id, description, category, amount, payer, account,
// split, active, window.
func fixedRow(f core.FixedExpense, at time.Time) []any {
	split := ""
	if f.Payer == core.PayerBoth {
		r := f.Split.Normalized()
		split = fmt.Sprintf("%s/%s", formatPercent(r.A), formatPercent(r.B))
	}
	return []any{
		at.Format(timestampLayout),
		f.ID,
		f.Description,
		f.Category,
		f.Amount.Format(),
		string(f.Payer),
		f.Account,
		split,
		strconv.FormatBool(f.Active),
		window(f.StartDate, f.EndDate),
	}
}

func settlementRow(s ports.Settlement) []any {
	return []any{s.At.Format(timestampLayout), s.Month.String(), s.Records}
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func window(start, end core.Date) string {
	if start.IsEmpty() && end.IsEmpty() {
		return ""
	}
	return fmt.Sprintf("%s..%s", start.String(), end.String())
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
