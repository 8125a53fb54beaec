package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"finanzas/internal/core"
	"finanzas/internal/ledger"
)

const maxBodyBytes = 1 << 20

// errMalformed marks a body that is not valid JSON for the target DTO.
var errMalformed = errors.New("malformed JSON body")

type installmentRequest struct {
	Date              string     `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Description       string     `json:"description" validate:"required,notblank,max=200"`
	Category          string     `json:"category" validate:"max=100"`
	Amount            core.Money `json:"amount"`
	Payer             string     `json:"payer" validate:"required,payer"`
	PaymentMethod     string     `json:"payment_method" validate:"max=100"`
	InstallmentsTotal int        `json:"installments_total" validate:"required,min=1,max=360"`
}

func (req installmentRequest) toRecord(today time.Time) (core.InstallmentExpense, error) {
	date := core.Date{Time: dateOnly(today)}
	if req.Date != "" {
		d, err := core.ParseDate(req.Date)
		if err != nil {
			return core.InstallmentExpense{}, core.Invalid("date", core.ErrInvalidDay)
		}
		date = d
	}
	payer, err := core.ParsePayer(req.Payer)
	if err != nil {
		return core.InstallmentExpense{}, err
	}
	return core.InstallmentExpense{
		Date:              date,
		Description:       strings.TrimSpace(req.Description),
		Category:          strings.TrimSpace(req.Category),
		Amount:            req.Amount,
		Payer:             payer,
		PaymentMethod:     strings.TrimSpace(req.PaymentMethod),
		InstallmentsTotal: req.InstallmentsTotal,
	}, nil
}

type installmentPatchRequest struct {
	Date              *string     `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Description       *string     `json:"description" validate:"omitempty,notblank,max=200"`
	Category          *string     `json:"category" validate:"omitempty,max=100"`
	Amount            *core.Money `json:"amount"`
	Payer             *string     `json:"payer" validate:"omitempty,payer"`
	PaymentMethod     *string     `json:"payment_method" validate:"omitempty,max=100"`
	InstallmentsTotal *int        `json:"installments_total" validate:"omitempty,min=1,max=360"`
	InstallmentsPaid  *int        `json:"installments_paid" validate:"omitempty,min=0"`
}

func (req installmentPatchRequest) toPatch() (ledger.InstallmentPatch, error) {
	p := ledger.InstallmentPatch{
		Description:       trimmed(req.Description),
		Category:          trimmed(req.Category),
		Amount:            req.Amount,
		PaymentMethod:     trimmed(req.PaymentMethod),
		InstallmentsTotal: req.InstallmentsTotal,
		InstallmentsPaid:  req.InstallmentsPaid,
	}
	if req.Date != nil {
		d, err := core.ParseDate(*req.Date)
		if err != nil || d.IsEmpty() {
			return p, core.Invalid("date", core.ErrInvalidDay)
		}
		p.Date = &d
	}
	if req.Payer != nil {
		payer, err := core.ParsePayer(*req.Payer)
		if err != nil {
			return p, err
		}
		p.Payer = &payer
	}
	return p, nil
}

type fixedRequest struct {
	Description string           `json:"description" validate:"required,notblank,max=200"`
	Category    string           `json:"category" validate:"max=100"`
	Amount      core.Money       `json:"amount"`
	Payer       string           `json:"payer" validate:"required,payer"`
	Account     string           `json:"account" validate:"max=100"`
	StartDate   string           `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string           `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Active      *bool            `json:"active"`
	Split       *core.SplitRatio `json:"split"`
}

func (req fixedRequest) toRecord() (core.FixedExpense, error) {
	payer, err := core.ParsePayer(req.Payer)
	if err != nil {
		return core.FixedExpense{}, err
	}
	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		return core.FixedExpense{}, core.Invalid("start_date", core.ErrInvalidDay)
	}
	end, err := core.ParseDate(req.EndDate)
	if err != nil {
		return core.FixedExpense{}, core.Invalid("end_date", core.ErrInvalidDay)
	}
	f := core.FixedExpense{
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Amount:      req.Amount,
		Payer:       payer,
		Account:     strings.TrimSpace(req.Account),
		StartDate:   start,
		EndDate:     end,
		Active:      true,
	}
	if req.Active != nil {
		f.Active = *req.Active
	}
	if req.Split != nil {
		f.Split = *req.Split
	}
	return f, nil
}

type fixedPatchRequest struct {
	Description *string          `json:"description" validate:"omitempty,notblank,max=200"`
	Category    *string          `json:"category" validate:"omitempty,max=100"`
	Amount      *core.Money      `json:"amount"`
	Payer       *string          `json:"payer" validate:"omitempty,payer"`
	Account     *string          `json:"account" validate:"omitempty,max=100"`
	StartDate   *string          `json:"start_date"`
	EndDate     *string          `json:"end_date"`
	Active      *bool            `json:"active"`
	Split       *core.SplitRatio `json:"split"`
}

func (req fixedPatchRequest) toPatch() (ledger.FixedPatch, error) {
	p := ledger.FixedPatch{
		Description: trimmed(req.Description),
		Category:    trimmed(req.Category),
		Amount:      req.Amount,
		Account:     trimmed(req.Account),
		Active:      req.Active,
		Split:       req.Split,
	}
	if req.Payer != nil {
		payer, err := core.ParsePayer(*req.Payer)
		if err != nil {
			return p, err
		}
		p.Payer = &payer
	}
	// An empty string clears an optional window bound.
	if req.StartDate != nil {
		d, err := core.ParseDate(*req.StartDate)
		if err != nil {
			return p, core.Invalid("start_date", core.ErrInvalidDay)
		}
		p.StartDate = &d
	}
	if req.EndDate != nil {
		d, err := core.ParseDate(*req.EndDate)
		if err != nil {
			return p, core.Invalid("end_date", core.ErrInvalidDay)
		}
		p.EndDate = &d
	}
	return p, nil
}

type overrideRequest struct {
	Month  string     `json:"month" validate:"required,yearmonth"`
	Amount core.Money `json:"amount"`
}

type settlementRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// decodeJSON reads a single JSON object into dst and validates it. An empty
// body is accepted when allowEmpty is set, leaving dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		switch {
		case errors.Is(err, io.EOF) && allowEmpty:
		case core.IsValidation(err):
			return err
		default:
			return fmt.Errorf("%w: %v", errMalformed, err)
		}
	} else if dec.More() {
		return fmt.Errorf("%w: trailing data", errMalformed)
	}
	return validateStruct(dst)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errMalformed, r.PathValue("id"))
	}
	return id, nil
}

// queryInt returns def when the parameter is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.Invalid(name, fmt.Errorf("not an integer: %q", raw))
	}
	return v, nil
}
