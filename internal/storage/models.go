package storage

import "database/sql"

type Bill struct {
	ID                string
	UserID            string
	BillNumber        string
	SellerName        string
	SellerAddress     string
	SellerShopNumber  string
	SellerOwnerNumber string
	ClientName        string
	ClientAddress     string
	ClientPhone       string
	ClientEmail       string
	BillDate          string
	Discount          float64
	Currency          string
	TotalAmount       sql.NullFloat64
	Status            string
	SyncStatus        string
	SyncAttempts      int64
	SyncError         sql.NullString
	CreatedAt         string
	UpdatedAt         string
}

type BillItem struct {
	ID       string
	BillID   string
	Position int64
	ItemName string
	Quantity float64
	Rate     float64
	Cost     sql.NullFloat64
}

type Client struct {
	ID        string
	UserID    string
	Name      string
	Address   string
	Phone     string
	Email     string
	CreatedAt string
}
