package model

type Product struct {
	ID       int64   `json:"id"`
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Cost     float64 `json:"cost"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Unit     string  `json:"unit"`
	Active   bool    `json:"active"`
}

type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Code   string `json:"code"`
	Active bool   `json:"active"`
}

type QuantityAdjustment struct {
	ProductName string `json:"productName"`
	UserID      string `json:"userId"`
	Method      string `json:"method"`
	Quantity    int    `json:"quantity"`
	Complete    bool   `json:"complete"`
	CreatedDate string `json:"createdDate"`
}
