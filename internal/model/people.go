package model

type Customer struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Active  bool   `json:"active"`
}

type Employee struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Active    bool   `json:"active"`
}

type Supplier struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Contact     string `json:"contact"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Active      bool   `json:"active"`
	CreatedDate string `json:"createdDate"`
}

type SupplierContact struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Position string `json:"position"`
	Active   bool   `json:"active"`
}

// SupplierWithContacts is the shape /supplier pages carry.
type SupplierWithContacts struct {
	Supplier        Supplier          `json:"supplier"`
	SupplierContact []SupplierContact `json:"supplierContact"`
}

// SupplierRow is a supplier flattened together with its contacts for listing.
type SupplierRow struct {
	Supplier
	SupplierContact []SupplierContact `json:"supplierContact"`
}
