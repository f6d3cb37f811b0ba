package export

import (
	"fmt"
	"net/url"
	"strings"

	"billbook/internal/core"
)

// ShareLinks are the ways a saved bill can be sent to its client.
type ShareLinks struct {
	View     string `json:"view"`
	Mailto   string `json:"mailto"`
	WhatsApp string `json:"whatsapp"`
}

// Summary is the plain-text bill summary used in share messages.
func Summary(b core.Bill, t core.Totals, f *core.Formatter, viewURL string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Bill %s from %s\n", b.BillNumber, b.SellerName)
	fmt.Fprintf(&sb, "To: %s\n", b.ClientName)
	fmt.Fprintf(&sb, "Date: %s\n", b.Date.String())
	fmt.Fprintf(&sb, "Total: %s", f.Amount(b.Currency, t.Total))
	if t.DiscountAmount != 0 {
		fmt.Fprintf(&sb, " (after %s discount)", f.Percent(t.Discount))
	}
	sb.WriteString("\n")
	if viewURL != "" {
		fmt.Fprintf(&sb, "View: %s\n", viewURL)
	}
	return sb.String()
}

// NewShareLinks builds the view, mailto and wa.me links for a bill.
func NewShareLinks(b core.Bill, t core.Totals, f *core.Formatter, publicURL string) ShareLinks {
	view := ""
	if publicURL != "" && b.ID != "" {
		view = strings.TrimRight(publicURL, "/") + "/bills/" + url.PathEscape(b.ID)
	}
	text := Summary(b, t, f, view)
	subject := fmt.Sprintf("Bill %s from %s", b.BillNumber, b.SellerName)

	return ShareLinks{
		View:     view,
		Mailto:   "mailto:" + url.PathEscape(b.ClientEmail) + "?subject=" + escape(subject) + "&body=" + escape(text),
		WhatsApp: "https://wa.me/?text=" + escape(text),
	}
}

// escape percent-encodes a query value with %20 for spaces, which mail
// clients do not decode from "+".
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
