package model

// RawOrder is the raw JSON of one order row as received from an export file or an
// uploaded API payload. Nothing about its shape is trusted.
type RawOrder []byte

// Label is a {name, key} pair used for status, order type and delivery pattern.
type Label struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

// Party identifies a buyer or a seller.
type Party struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type Receiver struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Province string `json:"province"`
	City     string `json:"city"`
	District string `json:"district"`
}

// Pricing carries the order amounts exactly as the source reported them.
type Pricing struct {
	OrderPrice         float64 `json:"orderPrice"`
	ExpressPrice       float64 `json:"expressPrice"`
	PaidPrice          float64 `json:"paidPrice"`
	OriginalPrice      float64 `json:"originalPrice"`
	AfterDiscountPrice float64 `json:"afterDiscountPrice"`
}

type SpecValue struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	Color      string `json:"color"`
	LabelColor string `json:"labelColor"`
}

type ProductRecord struct {
	ProductID   string      `json:"productId"`
	ProductName string      `json:"productName"`
	Description string      `json:"description"`
	ImageURL    string      `json:"imageUrl"`
	UnitPrice   float64     `json:"unitPrice"`
	TotalPrice  float64     `json:"totalPrice"`
	Amount      int64       `json:"amount"`
	SpecValues  []SpecValue `json:"specValues"`
}

type Action struct {
	Action     string `json:"action"`
	ActionName string `json:"actionName"`
}

// OrderRecord is the normalized display model. Every field is populated, with
// defaults standing in for whatever the source left out. Records are not modified
// after Normalize returns them.
type OrderRecord struct {
	OrderID          string          `json:"orderId"`
	Status           Label           `json:"status"`
	OrderType        Label           `json:"orderType"`
	CreatedAt        string          `json:"createdAt"`
	PaidAt           string          `json:"paidAt"`
	ExpiredAt        string          `json:"expiredAt"`
	DeliverPattern   Label           `json:"deliverPattern"`
	Buyer            Party           `json:"buyer"`
	Seller           Party           `json:"seller"`
	Receiver         Receiver        `json:"receiver"`
	Pricing          Pricing         `json:"pricing"`
	Products         []ProductRecord `json:"products"`
	AvailableActions []Action        `json:"availableActions"`
	ProductNum       string          `json:"productNum"`
	RelatedID        string          `json:"relatedId"`
	RelatedType      string          `json:"relatedType"`
	// PageGroup is the exporter's page tag; empty for uploaded payloads.
	PageGroup string `json:"pageGroup"`
}
