package accounts

import "time"

// AccountType enumerates chart of accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// DebitNormal reports whether the account type increases on the debit side.
func (t AccountType) DebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// Account models a chart of accounts node. Code is unique per tenant and
// is the canonical ordering key for all reports.
type Account struct {
	ID          int64
	TenantID    int64
	Code        string
	Name        string
	Type        AccountType
	Subtype     string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SystemAccountKey names a control account role resolved from configuration.
type SystemAccountKey string

const (
	SystemAccountCash            SystemAccountKey = "cash"
	SystemAccountBank            SystemAccountKey = "bank"
	SystemAccountReceivable      SystemAccountKey = "accounts_receivable"
	SystemAccountPayable         SystemAccountKey = "accounts_payable"
	SystemAccountSalesRevenue    SystemAccountKey = "sales_revenue"
	SystemAccountInventory       SystemAccountKey = "inventory"
	SystemAccountPurchaseExpense SystemAccountKey = "purchase_expense"
)
