package export

import "orderview/internal/model"

// Entry is one order in an export file, the shape the viewer loads at start-up.
type Entry struct {
	Page       int       `json:"page"`
	ProductNum string    `json:"productNum,omitempty"`
	OrderInfo  OrderInfo `json:"orderInfo"`
	Products   []Product `json:"products"`
}

type OrderInfo struct {
	OrderID            string      `json:"orderId"`
	Status             model.Label `json:"status"`
	OrderType          model.Label `json:"orderType"`
	CreatedAt          string      `json:"createdAt"`
	PaidAt             string      `json:"paidAt,omitempty"`
	ExpiredAt          string      `json:"expiredAt,omitempty"`
	DeliverPattern     model.Label `json:"deliverPattern"`
	Buyer              model.Party `json:"buyer"`
	Seller             model.Party `json:"seller"`
	Receiver           string      `json:"receiver"`
	ReceiverPhone      string      `json:"receiverPhone,omitempty"`
	Address            string      `json:"address"`
	ReceiverProvince   string      `json:"receiverProvince,omitempty"`
	ReceiverCity       string      `json:"receiverCity,omitempty"`
	ReceiverDistrict   string      `json:"receiverDistrict,omitempty"`
	OrderPrice         float64     `json:"orderPrice"`
	PaidPrice          float64     `json:"paidPrice"`
	ExpressPrice       float64     `json:"expressPrice"`
	OrderOriginalPrice float64     `json:"orderOriginalPrice,omitempty"`
	AfterDiscountPrice float64     `json:"afterDiscountPrice,omitempty"`
	RelatedID          string      `json:"relatedId,omitempty"`
	RelatedType        string      `json:"relatedType,omitempty"`
}

type Product struct {
	ProductID   string            `json:"productId,omitempty"`
	ProductName string            `json:"productName"`
	Cover       string            `json:"cover"`
	UnitPrice   float64           `json:"unitPrice,omitempty"`
	Price       float64           `json:"price"`
	Amount      int64             `json:"amount"`
	Description string            `json:"description"`
	SpecValues  []model.SpecValue `json:"specValues"`
}

// NewEntry renders a normalized record as an export entry tagged with page.
func NewEntry(r model.OrderRecord, page int) Entry {
	products := make([]Product, 0, len(r.Products))
	for _, p := range r.Products {
		specs := p.SpecValues
		if specs == nil {
			specs = []model.SpecValue{}
		}
		products = append(products, Product{
			ProductID:   p.ProductID,
			ProductName: p.ProductName,
			Cover:       p.ImageURL,
			UnitPrice:   p.UnitPrice,
			Price:       p.TotalPrice,
			Amount:      p.Amount,
			Description: p.Description,
			SpecValues:  specs,
		})
	}
	return Entry{
		Page:       page,
		ProductNum: r.ProductNum,
		OrderInfo: OrderInfo{
			OrderID:            r.OrderID,
			Status:             r.Status,
			OrderType:          r.OrderType,
			CreatedAt:          r.CreatedAt,
			PaidAt:             r.PaidAt,
			ExpiredAt:          r.ExpiredAt,
			DeliverPattern:     r.DeliverPattern,
			Buyer:              r.Buyer,
			Seller:             r.Seller,
			Receiver:           r.Receiver.Name,
			ReceiverPhone:      r.Receiver.Phone,
			Address:            r.Receiver.Address,
			ReceiverProvince:   r.Receiver.Province,
			ReceiverCity:       r.Receiver.City,
			ReceiverDistrict:   r.Receiver.District,
			OrderPrice:         r.Pricing.OrderPrice,
			PaidPrice:          r.Pricing.PaidPrice,
			ExpressPrice:       r.Pricing.ExpressPrice,
			OrderOriginalPrice: r.Pricing.OriginalPrice,
			AfterDiscountPrice: r.Pricing.AfterDiscountPrice,
			RelatedID:          r.RelatedID,
			RelatedType:        r.RelatedType,
		},
		Products: products,
	}
}
