package handlers

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/storefront/order-service/internal/domain"
	"github.com/storefront/order-service/internal/service"
	"github.com/storefront/order-service/pkg/events"
	sharedHTTP "github.com/storefront/order-service/pkg/http"
	"github.com/storefront/order-service/pkg/messaging"
)

const fulfillmentQueue = "order-service-queue"

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	var request domain.CreateOrderRequest
	if ok, err := parseBody(c, &request); !ok {
		return err
	}

	order, err := h.orderService.CreateOrder(c.UserContext(), identityFrom(c), request)
	if err != nil {
		return respondError(c, err)
	}

	return sharedHTTP.CreatedResponse(c, "Order created successfully", mapOrder(order))
}

func (h *OrderHandler) CreateOrderFromCart(c *fiber.Ctx) error {
	var request domain.CreateOrderFromCartRequest
	if ok, err := parseBody(c, &request); !ok {
		return err
	}

	order, err := h.orderService.CreateOrderFromCart(c.UserContext(), identityFrom(c), request)
	if err != nil {
		return respondError(c, err)
	}

	return sharedHTTP.CreatedResponse(c, "Order created successfully", mapOrder(order))
}

func (h *OrderHandler) GetOrderByID(c *fiber.Ctx) error {
	orderID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	order, err := h.orderService.GetOrderByID(c.UserContext(), identityFrom(c), orderID)
	if err != nil {
		return respondError(c, err)
	}

	return sharedHTTP.SuccessResponse(c, "Order retrieved successfully", mapOrder(order))
}

func (h *OrderHandler) GetOrderTimeline(c *fiber.Ctx) error {
	orderID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	timeline, err := h.orderService.GetOrderTimeline(c.UserContext(), identityFrom(c), orderID)
	if err != nil {
		return respondError(c, err)
	}

	return sharedHTTP.SuccessResponse(c, "Order timeline retrieved successfully", mapTimeline(timeline))
}

func (h *OrderHandler) GetUserOrders(c *fiber.Ctx) error {
	page, err := pageRequest(c)
	if err != nil {
		return respondError(c, err)
	}

	orders, err := h.orderService.GetUserOrders(c.UserContext(), identityFrom(c), page)
	if err != nil {
		return respondError(c, err)
	}

	return sharedHTTP.SuccessResponse(c, "Orders retrieved successfully", domain.MapPage(orders, mapOrder))
}

func (h *OrderHandler) GetOrdersByStatus(c *fiber.Ctx) error {
	page, err := pageRequest(c)
	if err != nil {
		return respondError(c, err)
	}

	orders, err := h.orderService.GetOrdersByStatus(c.UserContext(), identityFrom(c), c.Params("status"), page)
	if err != nil {
		return respondError(c, err)
	}

	return sharedHTTP.SuccessResponse(c, "Orders retrieved successfully", domain.MapPage(orders, mapOrder))
}

func (h *OrderHandler) GetOrdersByUserAndStatus(c *fiber.Ctx) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return respondError(c, err)
	}

	page, err := pageRequest(c)
	if err != nil {
		return respondError(c, err)
	}

	orders, err := h.orderService.GetOrdersByUserAndStatus(c.UserContext(), identityFrom(c), userID, c.Params("status"), page)
	if err != nil {
		return respondError(c, err)
	}

	return sharedHTTP.SuccessResponse(c, "Orders retrieved successfully", domain.MapPage(orders, mapOrder))
}

func (h *OrderHandler) GetAllOrders(c *fiber.Ctx) error {
	page, err := pageRequest(c)
	if err != nil {
		return respondError(c, err)
	}

	orders, err := h.orderService.GetAllOrders(c.UserContext(), identityFrom(c), page)
	if err != nil {
		return respondError(c, err)
	}

	return sharedHTTP.SuccessResponse(c, "Orders retrieved successfully", domain.MapPage(orders, mapOrder))
}

func (h *OrderHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	orderID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	var request domain.UpdateOrderStatusRequest
	if ok, err := parseBody(c, &request); !ok {
		return err
	}

	order, err := h.orderService.UpdateOrderStatus(c.UserContext(), identityFrom(c), orderID, request.Status, request.Note)
	if err != nil {
		return respondError(c, err)
	}

	return sharedHTTP.SuccessResponse(c, "Order status updated successfully", mapOrder(order))
}

func (h *OrderHandler) CancelOrder(c *fiber.Ctx) error {
	orderID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}

	order, err := h.orderService.CancelOrder(c.UserContext(), identityFrom(c), orderID)
	if err != nil {
		return respondError(c, err)
	}

	return sharedHTTP.SuccessResponse(c, "Order cancelled successfully", mapOrder(order))
}

// StartConsuming subscribes to fulfillment progress events.
func (h *OrderHandler) StartConsuming(consumer *messaging.Consumer) error {
	routingKeys := []string{
		messaging.RoutingKey("*", string(events.FulfillmentConfirmed)),
		messaging.RoutingKey("*", string(events.FulfillmentShipped)),
		messaging.RoutingKey("*", string(events.FulfillmentDelivered)),
	}

	return consumer.ConsumeEvents(routingKeys, h.HandleFulfillmentEvent)
}

func (h *OrderHandler) HandleFulfillmentEvent(event events.Event) error {
	log.Printf("Order service fulfillment event received: %s for order %d", event.EventType, event.OrderID)
	return h.orderService.ProcessFulfillmentEvent(context.Background(), event)
}
