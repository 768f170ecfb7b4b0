package models

import (
	"time"
)

type OrderStatus string

type PaymentMethod string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"

	PaymentMethodPix        PaymentMethod = "pix"
	PaymentMethodCreditCard PaymentMethod = "credit-card"
	PaymentMethodBoleto     PaymentMethod = "boleto"
)

const PickupOptionID = "pickup"

type ShippingOption struct {
	ID           string  `json:"id"`
	Label        string  `json:"label"`
	Price        float64 `json:"price"`
	DeliveryTime string  `json:"deliveryTime"`
	DeadlineDays int     `json:"deadlineDays"`
}

type Order struct {
	ID                string         `json:"id"`
	UserID            string         `json:"userId"`
	Items             []CartLine     `json:"items"`
	Subtotal          float64        `json:"subtotal"`
	ShippingCost      float64        `json:"shippingCost"`
	Total             float64        `json:"total"`
	Status            OrderStatus    `json:"status"`
	PaymentMethod     PaymentMethod  `json:"paymentMethod"`
	PaymentIntentID   string         `json:"paymentIntentId,omitempty"`
	Card              *SavedCard     `json:"card,omitempty"`
	Shipping          ShippingOption `json:"shipping"`
	ShippingAddress   Address        `json:"shippingAddress"`
	CreatedAt         time.Time      `json:"createdAt"`
	EstimatedDelivery time.Time      `json:"estimatedDelivery"`
	TrackingCode      string         `json:"trackingCode,omitempty"`
}

type PlaceOrderRequest struct {
	PaymentMethod    PaymentMethod `json:"paymentMethod" validate:"required,oneof=pix credit-card boleto"`
	ShippingOptionID string        `json:"shippingOptionId" validate:"required"`
	Address          Address       `json:"address" validate:"required"`
	SavedCardID      string        `json:"savedCardId,omitempty"` // credit-card only
}
