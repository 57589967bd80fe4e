package server

import (
	"orderview/internal/locale"
	"orderview/internal/model"
	"orderview/internal/stats"
	"orderview/internal/store"
)

const defaultStatusClass = "status-wait"

var statusClasses = map[string]string{
	"WAIT_SELLER_SEND_GOODS":   "status-wait",
	"WAIT_BUYER_CONFIRM_GOODS": "status-shipped",
	"TRADE_SUCCESS":            "status-delivered",
	"TRADE_CLOSED":             "status-cancelled",
	"REFUND":                   "status-refund",
}

// StatusClass maps a status key to its style class.
func StatusClass(key string) string {
	if c, ok := statusClasses[key]; ok {
		return c
	}
	return defaultStatusClass
}

type recordView struct {
	model.OrderRecord
	StatusClass   string `json:"statusClass"`
	CreatedAtText string `json:"createdAtText"`
	PaidAtText    string `json:"paidAtText"`
}

// viewResponse is a store.View plus display strings. Its Records field shadows
// the embedded one.
type viewResponse struct {
	store.View
	Records       []recordView        `json:"records"`
	TotalPaidText string              `json:"totalPaidText"`
	StatusRanking []stats.StatusCount `json:"statusRanking"`
}

func present(v store.View, f *locale.Formatter) viewResponse {
	records := make([]recordView, 0, len(v.Records))
	for _, r := range v.Records {
		created, _ := f.Timestamp(r.CreatedAt)
		paid, _ := f.Timestamp(r.PaidAt)
		records = append(records, recordView{
			OrderRecord:   r,
			StatusClass:   StatusClass(r.Status.Key),
			CreatedAtText: created,
			PaidAtText:    paid,
		})
	}
	return viewResponse{
		View:          v,
		Records:       records,
		TotalPaidText: f.Amount(v.Stats.TotalPaid),
		StatusRanking: v.Stats.StatusRanking(),
	}
}
