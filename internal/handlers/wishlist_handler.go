package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/storefront/order-service/internal/domain"
	"github.com/storefront/order-service/internal/service"
	sharedHTTP "github.com/storefront/order-service/pkg/http"
)

type WishlistHandler struct {
	wishlistService *service.WishlistService
}

func NewWishlistHandler(wishlistService *service.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlistService: wishlistService}
}

func (h *WishlistHandler) GetWishlist(c *fiber.Ctx) error {
	page, err := pageRequest(c)
	if err != nil {
		return respondError(c, err)
	}

	view, err := h.wishlistService.GetWishlist(c.UserContext(), identityFrom(c), page)
	if err != nil {
		return respondError(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Wishlist retrieved successfully", mapWishlist(view))
}

func (h *WishlistHandler) AddItem(c *fiber.Ctx) error {
	var request domain.WishlistItemRequest
	if ok, err := parseBody(c, &request); !ok {
		return err
	}

	item, err := h.wishlistService.AddItem(c.UserContext(), identityFrom(c), request.ProductID)
	if err != nil {
		return respondError(c, err)
	}
	return sharedHTTP.CreatedResponse(c, "Item added to wishlist", item)
}

func (h *WishlistHandler) RemoveItem(c *fiber.Ctx) error {
	productID, err := paramID(c, "productId")
	if err != nil {
		return respondError(c, err)
	}

	if err := h.wishlistService.RemoveItem(c.UserContext(), identityFrom(c), productID); err != nil {
		return respondError(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Item removed from wishlist", nil)
}

func (h *WishlistHandler) Clear(c *fiber.Ctx) error {
	if err := h.wishlistService.Clear(c.UserContext(), identityFrom(c)); err != nil {
		return respondError(c, err)
	}
	return sharedHTTP.SuccessResponse(c, "Wishlist cleared", nil)
}
