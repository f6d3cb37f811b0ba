// Package http provides HTTP server and handler implementations.
//
// This file decodes bill, client and status payloads from JSON or
// form-encoded request bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"billbook/internal/core"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ErrBodyTooLarge is returned when a request body exceeds maxBodyBytes.
var ErrBodyTooLarge = errors.New("request body too large")

// RequestBodyParser reads a body once and decodes it as JSON or form data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	formData    url.Values
	isJSON      bool
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = ErrBodyTooLarge
	}
	return p
}

// Parse detects JSON by content type or a leading brace and otherwise parses form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if strings.HasPrefix(p.contentType, "application/json") || strings.HasPrefix(trimmed, "{") {
		p.isJSON = true
		if trimmed == "" {
			p.err = errors.New("empty JSON body")
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// DecodeJSON unmarshals the body into v.
func (p *RequestBodyParser) DecodeJSON(v any) error {
	if err := p.Parse(); err != nil {
		return err
	}
	if !p.isJSON {
		return errors.New("body is not JSON")
	}
	if err := json.Unmarshal(p.body, v); err != nil {
		return fmt.Errorf("decode JSON body: %w", err)
	}
	return nil
}

// Get returns a sanitized form value.
func (p *RequestBodyParser) Get(key string) string {
	if p.formData == nil {
		return ""
	}
	return sanitizeInput(p.formData.Get(key))
}

// Values returns all sanitized form values for key.
func (p *RequestBodyParser) Values(key string) []string {
	if p.formData == nil {
		return nil
	}
	raw := p.formData[key]
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = sanitizeInput(v)
	}
	return out
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.isJSON
}

// ParseBill decodes a bill draft. Numbers may arrive as JSON numbers or
// strings; missing values resolve to their defaults. An out-of-range
// discount or an unparsable date is kept visible to validation rather than
// silently defaulted.
func ParseBill(r *http.Request) (core.Bill, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return core.Bill{}, err
	}

	var raw core.RawBill
	if p.IsJSON() {
		if err := p.DecodeJSON(&raw); err != nil {
			return core.Bill{}, err
		}
	} else {
		raw = rawBillFromForm(p)
	}

	b := raw.Resolve()
	b.ID = ""
	if raw.Discount != nil {
		b.Discount = core.Number(raw.Discount)
	}
	if s, ok := raw.Date.(string); ok && strings.TrimSpace(s) != "" && b.Date.IsZero() {
		return core.Bill{}, &core.ValidationError{Fields: map[string]string{"date": "must be a date (yyyy-mm-dd)"}}
	}
	// unknown statuses stay visible to validation
	b.Status = ""
	if st := strings.TrimSpace(raw.Status); st != "" {
		if parsed, err := core.ParseStatus(st); err == nil {
			b.Status = parsed
		} else {
			b.Status = core.BillStatus(st)
		}
	}
	return b, nil
}

// rawBillFromForm reads bill fields and parallel item arrays
// (itemName, quantity, rate, cost) from a form body.
func rawBillFromForm(p *RequestBodyParser) core.RawBill {
	raw := core.RawBill{
		BillNumber:        p.Get("billNumber"),
		SellerName:        p.Get("sellerName"),
		SellerAddress:     p.Get("sellerAddress"),
		SellerShopNumber:  p.Get("sellerShopNumber"),
		SellerOwnerNumber: p.Get("sellerOwnerNumber"),
		ClientName:        p.Get("clientName"),
		ClientAddress:     p.Get("clientAddress"),
		ClientPhone:       p.Get("clientPhone"),
		ClientEmail:       p.Get("clientEmail"),
		Status:            p.Get("status"),
	}
	if v := p.Get("date"); v != "" {
		raw.Date = v
	}
	if v := p.Get("discount"); v != "" {
		raw.Discount = v
	}
	if v := p.Get("currency"); v != "" {
		raw.Currency = &v
	}

	names := p.Values("itemName")
	quantities := p.Values("quantity")
	rates := p.Values("rate")
	costs := p.Values("cost")
	at := func(vals []string, i int) any {
		if i < len(vals) && vals[i] != "" {
			return vals[i]
		}
		return nil
	}
	for i, name := range names {
		if name == "" && at(quantities, i) == nil && at(rates, i) == nil {
			continue // blank trailing row
		}
		raw.Items = append(raw.Items, core.RawLineItem{
			ItemName: name,
			Quantity: at(quantities, i),
			Rate:     at(rates, i),
			Cost:     at(costs, i),
		})
	}
	return raw
}

// ParseClient decodes a saved client from JSON or form data.
func ParseClient(r *http.Request) (core.Client, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return core.Client{}, err
	}
	var c core.Client
	if p.IsJSON() {
		if err := p.DecodeJSON(&c); err != nil {
			return core.Client{}, err
		}
		c.ID = ""
		return c, nil
	}
	return core.Client{
		Name:    p.Get("name"),
		Address: p.Get("address"),
		Phone:   p.Get("phone"),
		Email:   p.Get("email"),
	}, nil
}

// ParseStatus reads {"status": "..."} or a status form field.
func ParseStatus(r *http.Request) (string, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return "", err
	}
	if p.IsJSON() {
		var body struct {
			Status string `json:"status"`
		}
		if err := p.DecodeJSON(&body); err != nil {
			return "", err
		}
		return body.Status, nil
	}
	return p.Get("status"), nil
}

// ParseLimit reads the limit query parameter, clamped to [1, max].
// Missing or invalid values give def.
func ParseLimit(query url.Values, def, max int) int {
	v := strings.TrimSpace(query.Get("limit"))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
