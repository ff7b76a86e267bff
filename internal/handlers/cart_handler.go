package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/storefront/order-service/internal/domain"
	"github.com/storefront/order-service/internal/service"
	sharedHTTP "github.com/storefront/order-service/pkg/http"
)

type CartHandler struct {
	cartService *service.CartService
}

func NewCartHandler(cartService *service.CartService) *CartHandler {
	return &CartHandler{cartService: cartService}
}

func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	cart, err := h.cartService.GetCart(c.UserContext(), identityFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Cart retrieved successfully", mapCart(cart))
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var request domain.CartItemRequest
	if ok, err := parseBody(c, &request); !ok {
		return err
	}

	cart, err := h.cartService.AddItem(c.UserContext(), identityFrom(c), request.ProductID, request.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Item added to cart", mapCart(cart))
}

func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	productID, err := paramID(c, "productId")
	if err != nil {
		return respondError(c, err)
	}

	var request domain.CartQuantityRequest
	if ok, err := parseBody(c, &request); !ok {
		return err
	}

	cart, err := h.cartService.UpdateItem(c.UserContext(), identityFrom(c), productID, request.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Cart item updated", mapCart(cart))
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	productID, err := paramID(c, "productId")
	if err != nil {
		return respondError(c, err)
	}

	cart, err := h.cartService.RemoveItem(c.UserContext(), identityFrom(c), productID)
	if err != nil {
		return respondError(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Item removed from cart", mapCart(cart))
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	cart, err := h.cartService.Clear(c.UserContext(), identityFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Cart cleared", mapCart(cart))
}
