package ledger

// AccountType is the classification of a general-ledger account
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// NormalBalance is the side on which an account type increases
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "DEBIT"
	NormalBalanceCredit NormalBalance = "CREDIT"
)

// AccountTypeInfo describes an account type for listing and seeding
type AccountTypeInfo struct {
	Code          AccountType   `json:"code"`
	Name          string        `json:"name"`
	NormalBalance NormalBalance `json:"normal_balance"`
	SortOrder     int           `json:"sort_order"`
}

var accountTypes = []AccountTypeInfo{
	{Code: AccountTypeAsset, Name: "Asset", NormalBalance: NormalBalanceDebit, SortOrder: 1},
	{Code: AccountTypeLiability, Name: "Liability", NormalBalance: NormalBalanceCredit, SortOrder: 2},
	{Code: AccountTypeEquity, Name: "Equity", NormalBalance: NormalBalanceCredit, SortOrder: 3},
	{Code: AccountTypeRevenue, Name: "Revenue", NormalBalance: NormalBalanceCredit, SortOrder: 4},
	{Code: AccountTypeExpense, Name: "Expense", NormalBalance: NormalBalanceDebit, SortOrder: 5},
}

// AllAccountTypes returns the five account types in statement order
func AllAccountTypes() []AccountTypeInfo {
	out := make([]AccountTypeInfo, len(accountTypes))
	copy(out, accountTypes)
	return out
}

// IsValid reports whether the type is known
func (t AccountType) IsValid() bool {
	for _, info := range accountTypes {
		if info.Code == t {
			return true
		}
	}
	return false
}

// NormalBalance returns the side on which the type increases
func (t AccountType) NormalBalance() NormalBalance {
	for _, info := range accountTypes {
		if info.Code == t {
			return info.NormalBalance
		}
	}
	return NormalBalanceDebit
}

// IsBalanceSheet reports whether the type appears on the balance sheet
func (t AccountType) IsBalanceSheet() bool {
	return t == AccountTypeAsset || t == AccountTypeLiability || t == AccountTypeEquity
}

// String returns the string representation of AccountType
func (t AccountType) String() string {
	return string(t)
}
