package sheets

import (
	"context"

	"billbook/internal/core"
)

// Ports for outbound adapters.
type (
	// BillLedger mirrors saved bills into a spreadsheet, one row per bill.
	BillLedger interface {
		// AppendBill writes the bill's row and returns a reference to it.
		AppendBill(ctx context.Context, b core.Bill, t core.Totals) (rowRef string, err error)
		// DeleteBill clears the row for (userID, billNumber). A missing row is not an error.
		DeleteBill(ctx context.Context, userID, billNumber string) error
	}
)
