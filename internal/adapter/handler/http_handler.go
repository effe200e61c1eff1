package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fridgeflow/grocery/internal/core/domain"
	"github.com/fridgeflow/grocery/internal/core/service"
)

type HTTPHandler struct {
	ledger    *service.LedgerService
	orders    *service.OrderService
	inventory *service.InventoryService
}

func NewHTTPHandler(ledger *service.LedgerService, orders *service.OrderService, inventory *service.InventoryService) *HTTPHandler {
	return &HTTPHandler{ledger: ledger, orders: orders, inventory: inventory}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("GET /api/users/{userID}/stores", h.ListStores)
	mux.HandleFunc("POST /api/users/{userID}/stores", h.AddStore)
	mux.HandleFunc("PUT /api/users/{userID}/stores/reorder", h.ReorderStores)
	mux.HandleFunc("PUT /api/users/{userID}/stores/{storeID}", h.UpdateStore)
	mux.HandleFunc("DELETE /api/users/{userID}/stores/{storeID}", h.RemoveStore)
	mux.HandleFunc("POST /api/users/{userID}/stores/{storeID}/primary", h.SetPrimaryStore)

	mux.HandleFunc("GET /api/users/{userID}/inventory/alerts", h.InventoryAlerts)
	mux.HandleFunc("GET /api/devices/{deviceID}/inventory", h.DeviceInventory)
	mux.HandleFunc("POST /api/devices/{deviceID}/inventory/sync", h.SyncInventory)
	mux.HandleFunc("PUT /api/inventory/{itemID}/threshold", h.UpdateThreshold)

	mux.HandleFunc("POST /api/users/{userID}/orders/draft", h.CreateDraft)
	mux.HandleFunc("GET /api/users/{userID}/orders/drafts", h.ListDrafts)
	mux.HandleFunc("GET /api/users/{userID}/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/{orderID}", h.GetOrder)
	mux.HandleFunc("POST /api/orders/{orderID}/items", h.AddOrderItem)
	mux.HandleFunc("DELETE /api/orders/{orderID}/items", h.RemoveOrderItems)
	mux.HandleFunc("PUT /api/orders/{orderID}/items/{itemID}", h.UpdateItemQuantity)
	mux.HandleFunc("POST /api/orders/{orderID}/refresh", h.RefreshPrices)
	mux.HandleFunc("POST /api/orders/{orderID}/submit", h.SubmitOrder)
	mux.HandleFunc("POST /api/orders/{orderID}/cancel", h.CancelOrder)
	mux.HandleFunc("POST /api/orders/{orderID}/status/sync", h.SyncOrderStatus)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) ListStores(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.ledger.ListStores(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserStoreResponses(ledger))
}

func (h *HTTPHandler) AddStore(w http.ResponseWriter, r *http.Request) {
	var req userStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.StoreID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "store_id is required"})
		return
	}
	entry, err := h.ledger.AddStore(r.Context(), r.PathValue("userID"), req.StoreID, req.Priority, req.preferences())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserStoreResponse(entry))
}

func (h *HTTPHandler) UpdateStore(w http.ResponseWriter, r *http.Request) {
	var req userStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	entry, err := h.ledger.UpdatePreferences(r.Context(), r.PathValue("userID"), r.PathValue("storeID"), req.preferences())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserStoreResponse(entry))
}

func (h *HTTPHandler) RemoveStore(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.RemoveStore(r.Context(), r.PathValue("userID"), r.PathValue("storeID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) SetPrimaryStore(w http.ResponseWriter, r *http.Request) {
	entry, err := h.ledger.SetPrimary(r.Context(), r.PathValue("userID"), r.PathValue("storeID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserStoreResponse(entry))
}

func (h *HTTPHandler) ReorderStores(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StoreIDs []string `json:"store_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	ledger, err := h.ledger.Reorder(r.Context(), r.PathValue("userID"), req.StoreIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserStoreResponses(ledger))
}

func (h *HTTPHandler) InventoryAlerts(w http.ResponseWriter, r *http.Request) {
	items, err := h.inventory.Alerts(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryResponses(items))
}

func (h *HTTPHandler) DeviceInventory(w http.ResponseWriter, r *http.Request) {
	snap, err := h.inventory.Snapshot(r.Context(), r.PathValue("deviceID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inventorySnapshotResponse{
		DeviceID:   snap.DeviceID,
		Items:      toInventoryResponses(snap.Items),
		TotalItems: snap.TotalItems,
		LowStock:   snap.LowStock,
		OutOfStock: snap.OutOfStock,
	})
}

func (h *HTTPHandler) SyncInventory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Readings map[string]float64 `json:"readings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := h.inventory.SyncReadings(r.Context(), r.PathValue("deviceID"), req.Readings); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) UpdateThreshold(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Threshold float64 `json:"threshold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	item, err := h.inventory.UpdateThreshold(r.Context(), r.PathValue("itemID"), req.Threshold)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInventoryResponse(*item))
}

// CreateDraft builds a draft order from the user's current inventory alerts.
func (h *HTTPHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	alerts, err := h.inventory.Alerts(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	order, err := h.orders.CreateDraft(r.Context(), userID, alerts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(*order))
}

func (h *HTTPHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListDrafts(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var statuses []domain.OrderStatus
	if s := r.URL.Query().Get("status"); s != "" {
		statuses = append(statuses, domain.OrderStatus(s))
	}
	orders, err := h.orders.ListHistory(r.Context(), r.PathValue("userID"), statuses...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), r.PathValue("orderID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h *HTTPHandler) AddOrderItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SKU      string  `json:"sku"`
		Name     string  `json:"name"`
		Unit     string  `json:"unit"`
		Quantity float64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if req.SKU == "" || req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "sku and a positive quantity are required"})
		return
	}
	order, err := h.orders.AddItem(r.Context(), r.PathValue("orderID"), req.SKU, req.Name, req.Unit, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h *HTTPHandler) RemoveOrderItems(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemIDs []string `json:"item_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	order, err := h.orders.RemoveItems(r.Context(), r.PathValue("orderID"), req.ItemIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h *HTTPHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity float64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	order, err := h.orders.UpdateItemQuantity(r.Context(), r.PathValue("orderID"), r.PathValue("itemID"), req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h *HTTPHandler) RefreshPrices(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.RefreshPrices(r.Context(), r.PathValue("orderID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h *HTTPHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Submit(r.Context(), r.PathValue("orderID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	order, err := h.orders.Cancel(r.Context(), r.PathValue("orderID"), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h *HTTPHandler) SyncOrderStatus(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.SyncStatus(r.Context(), r.PathValue("orderID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
