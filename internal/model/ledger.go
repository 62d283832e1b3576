package model

type Expense struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Note        string  `json:"note"`
	ExpenseDate string  `json:"expenseDate"`
	CreatedBy   string  `json:"createdBy"`
}

type PurchaseOrder struct {
	ID           int64               `json:"id"`
	OrderNo      string              `json:"orderNo"`
	SupplierName string              `json:"supplierName"`
	Status       string              `json:"status"`
	Total        float64             `json:"total"`
	OrderDate    string              `json:"orderDate"`
	Items        []PurchaseOrderItem `json:"items"`
}

type PurchaseOrderItem struct {
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitCost    float64 `json:"unitCost"`
}

// OrderItem is one sold line as the sale report lists it.
type OrderItem struct {
	ID          int64   `json:"id"`
	OrderNo     string  `json:"orderNo"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Total       float64 `json:"total"`
	Status      string  `json:"status"`
	CreatedDate string  `json:"createdDate"`
}
