package service

import (
	"errors"

	"adminconsole/internal/model"
	v1 "adminconsole/pkg/api/v1"
)

var (
	ErrReadOnly    = errors.New("resource is read-only")
	ErrInvalidBody = errors.New("invalid request body")
)

// Catalog holds every backend collection the console manages.
type Catalog struct {
	Products            *Resource[model.Product]
	Categories          *Resource[model.Category]
	Customers           *Resource[model.Customer]
	Employees           *Resource[model.Employee]
	Suppliers           *Resource[model.SupplierWithContacts]
	Policies            *Resource[model.Policy]
	Expenses            *Resource[model.Expense]
	Purchases           *Resource[model.PurchaseOrder]
	SaleReports         *Resource[model.OrderItem]
	QuantityAdjustments *Resource[model.QuantityAdjustment]
	AuditLogs           *Resource[model.AuditLog]
}

func NewCatalog(caller Caller) *Catalog {
	return &Catalog{
		Products:            NewResource[model.Product](caller, "/product"),
		Categories:          NewResource[model.Category](caller, "/category"),
		Customers:           NewResource[model.Customer](caller, "/customer"),
		Employees:           NewResource[model.Employee](caller, "/employee"),
		Suppliers:           NewResource[model.SupplierWithContacts](caller, "/supplier"),
		Policies:            NewResource[model.Policy](caller, "/policy"),
		Expenses:            NewResource[model.Expense](caller, "/expense"),
		Purchases:           NewResource[model.PurchaseOrder](caller, "/purchase/order"),
		SaleReports:         NewResource[model.OrderItem](caller, "/order"),
		QuantityAdjustments: NewResource[model.QuantityAdjustment](caller, "/quantityAdjustment"),
		AuditLogs:           NewResource[model.AuditLog](caller, "/admin/auditlog"),
	}
}

// Collections maps console routes to the collection served there.
func (c *Catalog) Collections() map[string]Collection {
	return map[string]Collection{
		"/products":             asCollection(c.Products, false),
		"/categories":           asCollection(c.Categories, false),
		"/customers":            asCollection(c.Customers, false),
		"/employees":            asCollection(c.Employees, false),
		"/suppliers":            &collection[model.SupplierWithContacts, model.SupplierRow]{res: c.Suppliers, view: FlattenSuppliers},
		"/policies":             asCollection(c.Policies, false),
		"/expenses":             asCollection(c.Expenses, false),
		"/purchases":            asCollection(c.Purchases, false),
		"/sale-reports":         asCollection(c.SaleReports, true),
		"/quantity-adjustments": asCollection(c.QuantityAdjustments, true),
		"/admin/audit-logs":     asCollection(c.AuditLogs, true),
	}
}

// FlattenSuppliers turns {supplier, supplierContact} pairs into table rows.
func FlattenSuppliers(p *v1.Page[model.SupplierWithContacts]) *v1.Page[model.SupplierRow] {
	rows := make([]model.SupplierRow, 0, len(p.Content))
	for _, item := range p.Content {
		rows = append(rows, model.SupplierRow{
			Supplier:        item.Supplier,
			SupplierContact: item.SupplierContact,
		})
	}
	return &v1.Page[model.SupplierRow]{
		Content:      rows,
		PageNumber:   p.PageNumber,
		PageSize:     p.PageSize,
		TotalRecords: p.TotalRecords,
		TotalPages:   p.TotalPages,
	}
}
