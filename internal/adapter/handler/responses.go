package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fridgeflow/grocery/internal/core/domain"
	"github.com/fridgeflow/grocery/internal/core/service"
)

type userStoreRequest struct {
	StoreID          string   `json:"store_id"`
	Priority         int      `json:"priority"`
	MaxDeliveryFee   *float64 `json:"max_delivery_fee"`
	MaxDistanceMiles float64  `json:"max_distance_miles"`
	Notes            string   `json:"notes"`
	Active           *bool    `json:"active"`
}

func (r userStoreRequest) preferences() service.StorePreferences {
	prefs := service.StorePreferences{
		MaxDistanceMiles: r.MaxDistanceMiles,
		Notes:            r.Notes,
		Active:           true,
	}
	if r.Active != nil {
		prefs.Active = *r.Active
	}
	if r.MaxDeliveryFee != nil {
		prefs.MaxDeliveryFee = decimal.NewNullDecimal(decimal.NewFromFloat(*r.MaxDeliveryFee))
	}
	return prefs
}

type userStoreResponse struct {
	StoreID          string    `json:"store_id"`
	Priority         int       `json:"priority"`
	IsPrimary        bool      `json:"is_primary"`
	Active           bool      `json:"active"`
	MaxDeliveryFee   *string   `json:"max_delivery_fee,omitempty"`
	MaxDistanceMiles float64   `json:"max_distance_miles,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	AddedAt          time.Time `json:"added_at"`
}

func toUserStoreResponse(entry domain.UserStore) userStoreResponse {
	resp := userStoreResponse{
		StoreID:          entry.StoreID,
		Priority:         entry.Priority,
		IsPrimary:        entry.IsPrimary(),
		Active:           entry.Active,
		MaxDistanceMiles: entry.MaxDistanceMiles,
		Notes:            entry.Notes,
		AddedAt:          entry.AddedAt,
	}
	if entry.MaxDeliveryFee.Valid {
		fee := entry.MaxDeliveryFee.Decimal.StringFixed(2)
		resp.MaxDeliveryFee = &fee
	}
	return resp
}

func toUserStoreResponses(ledger domain.Ledger) []userStoreResponse {
	out := make([]userStoreResponse, len(ledger))
	for i, entry := range ledger {
		out[i] = toUserStoreResponse(entry)
	}
	return out
}

type inventoryItemResponse struct {
	ID        string  `json:"id"`
	DeviceID  string  `json:"device_id"`
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Unit      string  `json:"unit"`
	Quantity  float64 `json:"quantity"`
	Threshold float64 `json:"threshold"`
	Status    string  `json:"status"`
}

func toInventoryResponse(item domain.InventoryItem) inventoryItemResponse {
	return inventoryItemResponse{
		ID:        item.ID,
		DeviceID:  item.DeviceID,
		SKU:       item.SKU,
		Name:      item.Name,
		Unit:      item.Unit,
		Quantity:  item.Quantity,
		Threshold: item.Threshold,
		Status:    string(item.Status),
	}
}

func toInventoryResponses(items []domain.InventoryItem) []inventoryItemResponse {
	out := make([]inventoryItemResponse, len(items))
	for i, item := range items {
		out[i] = toInventoryResponse(item)
	}
	return out
}

type inventorySnapshotResponse struct {
	DeviceID   string                  `json:"device_id"`
	Items      []inventoryItemResponse `json:"items"`
	TotalItems int                     `json:"total_items"`
	LowStock   int                     `json:"low_stock_items"`
	OutOfStock int                     `json:"out_of_stock_items"`
}

type orderItemResponse struct {
	ID               string  `json:"id"`
	SKU              string  `json:"sku"`
	Name             string  `json:"name"`
	Unit             string  `json:"unit,omitempty"`
	Quantity         float64 `json:"quantity"`
	Price            string  `json:"price"`
	Subtotal         string  `json:"subtotal"`
	PriceAtCreation  string  `json:"price_at_creation"`
	CurrentPrice     string  `json:"current_price"`
	PriceChanged     bool    `json:"price_changed"`
	OriginalQuantity float64 `json:"original_quantity"`
	QuantityModified bool    `json:"quantity_modified"`
	UserRemoved      bool    `json:"user_removed"`
	SystemRemoved    bool    `json:"system_removed"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	Number          string              `json:"order_number"`
	UserID          string              `json:"user_id"`
	StoreID         string              `json:"store_id"`
	Status          string              `json:"status"`
	Items           []orderItemResponse `json:"items"`
	Subtotal        string              `json:"subtotal"`
	DeliveryFee     string              `json:"delivery_fee"`
	Tax             string              `json:"tax"`
	TotalAmount     string              `json:"total_amount"`
	EstimatedTotal  *string             `json:"estimated_total,omitempty"`
	FinalTotal      *string             `json:"final_total,omitempty"`
	ExternalOrderID string              `json:"external_order_id,omitempty"`
	CancelReason    string              `json:"cancel_reason,omitempty"`
	SubmittedAt     *time.Time          `json:"submitted_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

func toOrderResponse(order domain.Order) orderResponse {
	resp := orderResponse{
		ID:              order.ID,
		Number:          order.Number,
		UserID:          order.UserID,
		StoreID:         order.StoreID,
		Status:          string(order.Status),
		Items:           make([]orderItemResponse, len(order.Items)),
		Subtotal:        order.Subtotal.StringFixed(2),
		DeliveryFee:     order.DeliveryFee.StringFixed(2),
		Tax:             order.Tax.StringFixed(2),
		TotalAmount:     order.TotalAmount.StringFixed(2),
		ExternalOrderID: order.ExternalOrderID,
		CancelReason:    order.CancelReason,
		CreatedAt:       order.CreatedAt,
	}
	for i, it := range order.Items {
		resp.Items[i] = orderItemResponse{
			ID:               it.ID,
			SKU:              it.SKU,
			Name:             it.Name,
			Unit:             it.Unit,
			Quantity:         it.Quantity,
			Price:            it.Price.StringFixed(2),
			Subtotal:         it.Subtotal.StringFixed(2),
			PriceAtCreation:  it.PriceAtCreation.StringFixed(2),
			CurrentPrice:     it.CurrentPrice.StringFixed(2),
			PriceChanged:     it.PriceChanged,
			OriginalQuantity: it.OriginalQuantity,
			QuantityModified: it.QuantityModified,
			UserRemoved:      it.UserRemoved,
			SystemRemoved:    it.SystemRemoved,
		}
	}
	if order.EstimatedTotal.Valid {
		v := order.EstimatedTotal.Decimal.StringFixed(2)
		resp.EstimatedTotal = &v
	}
	if order.FinalTotal.Valid {
		v := order.FinalTotal.Decimal.StringFixed(2)
		resp.FinalTotal = &v
	}
	if !order.SubmittedAt.IsZero() {
		t := order.SubmittedAt
		resp.SubmittedAt = &t
	}
	return resp
}

func toOrderResponses(orders []domain.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i, order := range orders {
		out[i] = toOrderResponse(order)
	}
	return out
}
