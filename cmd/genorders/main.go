package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"
)

type label struct {
	Name string `json:"name"`
	Key  string `json:"key"`
}

var statuses = []label{
	{"待发货", "WAIT_SELLER_SEND_GOODS"},
	{"已发货", "WAIT_BUYER_CONFIRM_GOODS"},
	{"交易成功", "TRADE_SUCCESS"},
	{"交易关闭", "TRADE_CLOSED"},
	{"退款中", "REFUND"},
}

func main() {
	var count, perPage int
	var outputFile, format string
	flag.IntVar(&count, "count", 100, "number of orders to generate")
	flag.IntVar(&perPage, "per-page", 20, "orders per captured page (pages format)")
	flag.StringVar(&format, "format", "payload", "output format: payload|pages")
	flag.StringVar(&outputFile, "output", "orders.json", "output file")
	flag.Parse()

	if err := generateOrders(count, perPage, format, outputFile); err != nil {
		log.Fatalf("generation failed: %v", err)
	}
}

func generateOrders(count, perPage int, format, outputFile string) error {
	if perPage <= 0 {
		return fmt.Errorf("per-page must be positive")
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	baseTime := time.Now().UTC().Unix()
	baseID := int64(3700000000000000000)

	rows := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		rows = append(rows, row(rng, baseID+int64(i), baseTime-int64(i*600)))
	}

	var doc any
	switch format {
	case "payload":
		doc = map[string]any{"code": 0, "message": "success", "data": map[string]any{"rowList": rows}}
	case "pages":
		var pages []map[string]any
		for p := 0; p*perPage < len(rows); p++ {
			end := min((p+1)*perPage, len(rows))
			pages = append(pages, map[string]any{
				"page": p + 1,
				"response": map[string]any{
					"code": 0,
					"data": map[string]any{"rowList": rows[p*perPage : end]},
				},
			})
		}
		doc = pages
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	file, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	log.Printf("generated %d orders (%s) to %s", count, format, outputFile)
	return nil
}

func row(rng *rand.Rand, id int64, created int64) map[string]any {
	st := statuses[rng.Intn(len(statuses))]
	amount := 1 + rng.Intn(3)
	unit := float64(1000+rng.Intn(9000)) / 100 // 10.00-99.99
	express := float64(rng.Intn(3)) * 5
	paid := unit*float64(amount) + express
	paidAt := strconv.FormatInt(created+60, 10)
	if st.Key == "TRADE_CLOSED" {
		paidAt = "0"
	}
	buyer := rng.Intn(50)
	return map[string]any{
		"orderInfo": map[string]any{
			"orderId":        strconv.FormatInt(id, 10),
			"status":         st,
			"orderType":      label{"普通订单", "NORMAL"},
			"createdAt":      strconv.FormatInt(created, 10),
			"paidAt":         paidAt,
			"deliverPattern": label{"快递", "EXPRESS"},
			"buyer":          map[string]any{"id": fmt.Sprintf("b%d", buyer), "name": fmt.Sprintf("买家%d", buyer), "phone": fmt.Sprintf("138%08d", buyer)},
			"seller":         map[string]any{"id": "s1", "name": "示例店铺"},
			"receiver":       fmt.Sprintf("收件人%d", buyer),
			"receiverPhone":  fmt.Sprintf("138%08d", buyer),
			"address":        "上海市浦东新区示例路1号",
			"orderPrice":     paid,
			"expressPrice":   express,
			"paidPrice":      paid,
		},
		"products": []map[string]any{{
			"productId":   fmt.Sprintf("p%d", 1+rng.Intn(5)),
			"productName": "示例商品",
			"cover":       "https://example.com/cover.png",
			"uintPrice":   unit,
			"price":       unit * float64(amount),
			"amount":      amount,
			"specValues":  []map[string]any{{"name": "颜色", "value": "红色"}},
		}},
		"activeActions": []map[string]any{{"action": "deliver", "actionName": "发货"}},
		"productNum":    strconv.Itoa(amount),
	}
}
