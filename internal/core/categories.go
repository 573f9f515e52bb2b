package core

// Category and payment method sets offered by the entry form. "Other" and
// "Other Income" are the catch-alls.
var (
	IncomeCategories  = []string{"Salary", "Freelance", "Investment", "Business", "Other Income"}
	ExpenseCategories = []string{"Food", "Transport", "Shopping", "Bills", "Entertainment", "Health", "Education", "Other"}
	PaymentMethods    = []string{"Cash", "Bank Transfer", "E-Wallet", "Credit Card", "Debit Card"}
)

// CategoriesFor returns a copy of the category set for t, or nil for an unknown type.
func CategoriesFor(t TxType) []string {
	switch t {
	case Income:
		return append([]string(nil), IncomeCategories...)
	case Expense:
		return append([]string(nil), ExpenseCategories...)
	default:
		return nil
	}
}

func IsCategory(t TxType, category string) bool {
	return contains(CategoriesFor(t), category)
}

func IsPaymentMethod(method string) bool {
	return contains(PaymentMethods, method)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
