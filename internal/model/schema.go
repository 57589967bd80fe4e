package model

import "orderview/internal/paging"

// Schema is the field-path table for one source shape. Paths use gjson syntax and
// are resolved relative to a row (Order*) or to a product / action / spec entry.
// An empty path means the source never carries the field, so the default applies.
type Schema struct {
	Name string

	OrderID            string
	StatusName         string
	StatusKey          string
	OrderTypeName      string
	OrderTypeKey       string
	CreatedAt          string
	PaidAt             string
	ExpiredAt          string
	DeliverPatternName string
	DeliverPatternKey  string
	BuyerID            string
	BuyerName          string
	BuyerPhone         string
	SellerID           string
	SellerName         string
	SellerPhone        string
	ReceiverName       string
	ReceiverPhone      string
	ReceiverAddress    string
	ReceiverProvince   string
	ReceiverCity       string
	ReceiverDistrict   string
	OrderPrice         string
	ExpressPrice       string
	PaidPrice          string
	OriginalPrice      string
	AfterDiscountPrice string
	ProductNum         string
	RelatedID          string
	RelatedType        string
	PageGroup          string

	Products   string
	Actions    string
	SpecValues string

	ProductID          string
	ProductName        string
	ProductDescription string
	ProductCover       string
	ProductCoverAlt    string
	ProductUnitPrice   string
	ProductTotalPrice  string
	ProductAmount      string

	Defaults Defaults
	// Mode is how records from this source are paged by default.
	Mode paging.Mode
}

// Defaults holds the non-zero fallbacks; everything else falls back to its zero value.
type Defaults struct {
	ExpiredAt     string
	ProductNum    string
	ProductAmount int64
}

// APISchema reads rows of an uploaded order-list API response (data.rowList[*]).
var APISchema = &Schema{
	Name: "api",

	OrderID:            "orderInfo.orderId",
	StatusName:         "orderInfo.status.name",
	StatusKey:          "orderInfo.status.key",
	OrderTypeName:      "orderInfo.orderType.name",
	OrderTypeKey:       "orderInfo.orderType.key",
	CreatedAt:          "orderInfo.createdAt",
	PaidAt:             "orderInfo.paidAt",
	ExpiredAt:          "orderInfo.expiredAt",
	DeliverPatternName: "orderInfo.deliverPattern.name",
	DeliverPatternKey:  "orderInfo.deliverPattern.key",
	BuyerID:            "orderInfo.buyer.id",
	BuyerName:          "orderInfo.buyer.name",
	BuyerPhone:         "orderInfo.buyer.phone",
	SellerID:           "orderInfo.seller.id",
	SellerName:         "orderInfo.seller.name",
	SellerPhone:        "orderInfo.seller.phone",
	ReceiverName:       "orderInfo.receiver",
	ReceiverPhone:      "orderInfo.receiverPhone",
	ReceiverAddress:    "orderInfo.address",
	ReceiverProvince:   "orderInfo.receiverProvince",
	ReceiverCity:       "orderInfo.receiverCity",
	ReceiverDistrict:   "orderInfo.receiverDistrict",
	OrderPrice:         "orderInfo.orderPrice",
	ExpressPrice:       "orderInfo.expressPrice",
	PaidPrice:          "orderInfo.paidPrice",
	OriginalPrice:      "orderInfo.orderOriginalPrice",
	AfterDiscountPrice: "orderInfo.afterDiscountPrice",
	ProductNum:         "productNum",
	RelatedID:          "orderInfo.relatedId",
	RelatedType:        "orderInfo.relatedType",

	Products:   "products",
	Actions:    "activeActions",
	SpecValues: "specValues",

	ProductID:          "productId",
	ProductName:        "productName",
	ProductDescription: "description",
	ProductCover:       "cover",
	ProductCoverAlt:    "whiteBgPng",
	// upstream spells it this way
	ProductUnitPrice:  "uintPrice",
	ProductTotalPrice: "price",
	ProductAmount:     "amount",

	Defaults: Defaults{ExpiredAt: "0", ProductNum: "0", ProductAmount: 0},
	Mode:     paging.OnePerRecord,
}

// ExportSchema reads entries of a pre-generated export file ({page, orderInfo, products}).
var ExportSchema = &Schema{
	Name: "export",

	OrderID:            "orderInfo.orderId",
	StatusName:         "orderInfo.status.name",
	StatusKey:          "orderInfo.status.key",
	OrderTypeName:      "orderInfo.orderType.name",
	OrderTypeKey:       "orderInfo.orderType.key",
	CreatedAt:          "orderInfo.createdAt",
	PaidAt:             "orderInfo.paidAt",
	ExpiredAt:          "orderInfo.expiredAt",
	DeliverPatternName: "orderInfo.deliverPattern.name",
	DeliverPatternKey:  "orderInfo.deliverPattern.key",
	BuyerID:            "orderInfo.buyer.id",
	BuyerName:          "orderInfo.buyer.name",
	BuyerPhone:         "orderInfo.buyer.phone",
	SellerID:           "orderInfo.seller.id",
	SellerName:         "orderInfo.seller.name",
	SellerPhone:        "orderInfo.seller.phone",
	ReceiverName:       "orderInfo.receiver",
	ReceiverPhone:      "orderInfo.receiverPhone",
	ReceiverAddress:    "orderInfo.address",
	ReceiverProvince:   "orderInfo.receiverProvince",
	ReceiverCity:       "orderInfo.receiverCity",
	ReceiverDistrict:   "orderInfo.receiverDistrict",
	OrderPrice:         "orderInfo.orderPrice",
	ExpressPrice:       "orderInfo.expressPrice",
	PaidPrice:          "orderInfo.paidPrice",
	OriginalPrice:      "orderInfo.orderOriginalPrice",
	AfterDiscountPrice: "orderInfo.afterDiscountPrice",
	ProductNum:         "productNum",
	RelatedID:          "orderInfo.relatedId",
	RelatedType:        "orderInfo.relatedType",
	PageGroup:          "page",

	Products:   "products",
	Actions:    "",
	SpecValues: "specValues",

	ProductID:          "productId",
	ProductName:        "productName",
	ProductDescription: "description",
	ProductCover:       "cover",
	ProductCoverAlt:    "whiteBgPng",
	ProductUnitPrice:   "unitPrice",
	ProductTotalPrice:  "price",
	ProductAmount:      "amount",

	Defaults: Defaults{ExpiredAt: "0", ProductNum: "0", ProductAmount: 1},
	Mode:     paging.FixedSize,
}
