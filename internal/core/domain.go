package core

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	StatusPaid    BillStatus = "paid"
	StatusUnpaid  BillStatus = "unpaid"
	StatusPending BillStatus = "pending"
)

// DefaultCurrency is used when a bill carries no currency symbol.
const DefaultCurrency = "₹"

type (
	BillStatus string

	Date struct {
		time.Time
	}

	LineItem struct {
		ID       string  `json:"id,omitempty"`
		ItemName string  `json:"itemName" validate:"notblank"`
		Quantity float64 `json:"quantity" validate:"gte=0.01"`
		Rate     float64 `json:"rate" validate:"gte=0"`
		Cost     float64 `json:"cost" validate:"gte=0"`
	}

	Bill struct {
		ID                string     `json:"id,omitempty"`
		UserID            string     `json:"-"`
		BillNumber        string     `json:"billNumber" validate:"notblank,max=64"`
		SellerName        string     `json:"sellerName" validate:"notblank,max=200"`
		SellerAddress     string     `json:"sellerAddress,omitempty" validate:"max=500"`
		SellerShopNumber  string     `json:"sellerShopNumber,omitempty" validate:"max=50"`
		SellerOwnerNumber string     `json:"sellerOwnerNumber,omitempty" validate:"max=50"`
		ClientName        string     `json:"clientName" validate:"notblank,max=200"`
		ClientAddress     string     `json:"clientAddress,omitempty" validate:"max=500"`
		ClientPhone       string     `json:"clientPhone,omitempty" validate:"max=50"`
		ClientEmail       string     `json:"clientEmail,omitempty" validate:"omitempty,email"`
		Date              Date       `json:"date"`
		Discount          float64    `json:"discount" validate:"gte=0,lte=100"`
		Currency          string     `json:"currency" validate:"notblank,max=8"`
		TotalAmount       float64    `json:"totalAmount"`
		Status            BillStatus `json:"status" validate:"oneof=paid unpaid pending"`
		Items             []LineItem `json:"items" validate:"min=1,dive"`
		CreatedAt         time.Time  `json:"createdAt"`
	}

	Client struct {
		ID        string    `json:"id,omitempty"`
		UserID    string    `json:"-"`
		Name      string    `json:"name" validate:"notblank,max=200"`
		Address   string    `json:"address" validate:"notblank,max=500"`
		Phone     string    `json:"phone,omitempty" validate:"max=50"`
		Email     string    `json:"email,omitempty" validate:"omitempty,email"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidStatus = errors.New("invalid bill status")
	ErrInvalidDate   = errors.New("invalid date")
	ErrNoItems       = errors.New("bill has no items")
)

// ValidationError maps field paths (json names, e.g. "items[0].rate") to messages.
type ValidationError struct {
	Fields map[string]string
	cause  error
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fieldPath(fe.Namespace())] = fieldMessage(fe)
	}
	return out
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return "is required"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "max":
		return "is too long (max " + fe.Param() + ")"
	case "min":
		return "must contain at least " + fe.Param() + " item(s)"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}

// ParseStatus accepts a status name case-insensitively.
func ParseStatus(s string) (BillStatus, error) {
	switch st := BillStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPaid, StatusUnpaid, StatusPending:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

func (s BillStatus) String() string {
	return string(s)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts yyyy-MM-dd or RFC3339.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return Date{Time: t}, nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ApplyDefaults trims free-text fields and fills in bill number, currency and status.
func (b *Bill) ApplyDefaults(now time.Time) {
	b.BillNumber = strings.TrimSpace(b.BillNumber)
	b.SellerName = strings.TrimSpace(b.SellerName)
	b.SellerAddress = strings.TrimSpace(b.SellerAddress)
	b.SellerShopNumber = strings.TrimSpace(b.SellerShopNumber)
	b.SellerOwnerNumber = strings.TrimSpace(b.SellerOwnerNumber)
	b.ClientName = strings.TrimSpace(b.ClientName)
	b.ClientAddress = strings.TrimSpace(b.ClientAddress)
	b.ClientPhone = strings.TrimSpace(b.ClientPhone)
	b.ClientEmail = strings.TrimSpace(b.ClientEmail)
	b.Currency = strings.TrimSpace(b.Currency)

	if b.BillNumber == "" {
		b.BillNumber = fmt.Sprintf("BILL-%d", now.UnixMilli())
	}
	if b.Currency == "" {
		b.Currency = DefaultCurrency
	}
	if b.Status == "" {
		b.Status = StatusUnpaid
	}
	if b.Date.IsZero() {
		b.Date = NewDate(now.Year(), int(now.Month()), now.Day())
	}
	for i := range b.Items {
		b.Items[i].ItemName = strings.TrimSpace(b.Items[i].ItemName)
	}
}

func (b Bill) Validate() error {
	if len(b.Items) == 0 {
		return &ValidationError{
			Fields: map[string]string{"items": "must contain at least 1 item(s)"},
			cause:  ErrNoItems,
		}
	}
	if err := validateStruct(b); err != nil {
		return err
	}
	if err := b.Date.Validate(); err != nil {
		return &ValidationError{Fields: map[string]string{"date": "is required"}, cause: ErrInvalidDate}
	}
	return nil
}

// Totals runs BillTotals over the bill's items and discount.
func (b Bill) Totals() Totals {
	return ComputeTotals(b.Items, b.Discount)
}

func (c *Client) ApplyDefaults() {
	c.Name = strings.TrimSpace(c.Name)
	c.Address = strings.TrimSpace(c.Address)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
}

func (c Client) Validate() error {
	return validateStruct(c)
}
