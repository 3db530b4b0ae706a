package handlers

import (
	"net/http"

	"github.com/Dosada05/wishly/middleware"
	"github.com/Dosada05/wishly/services"
)

type WishlistHandler struct {
	wishlistService services.WishlistService
}

func NewWishlistHandler(ws services.WishlistService) *WishlistHandler {
	return &WishlistHandler{
		wishlistService: ws,
	}
}

// AddItem godoc
// @Summary      Add an item to my wishlist for an occasion
// @Description  Amazon links get the associate tag; the name is derived from the URL when omitted.
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        occasionID path string true "occasion id"
// @Param        input body services.ItemInput true "item"
// @Success      201 {object} map[string]interface{}
// @Router       /occasions/{occasionID}/items [post]
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	occasionID, err := getIDFromURL(r, "occasionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.ItemInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	item, err := h.wishlistService.AddItem(r.Context(), occasionID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"item": item}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMyItems godoc
// @Summary  My items for an occasion
// @Tags     items
// @Produce  json
// @Security BearerAuth
// @Param    occasionID path string true "occasion id"
// @Success  200 {object} map[string]interface{}
// @Router   /occasions/{occasionID}/items/mine [get]
func (h *WishlistHandler) ListMyItems(w http.ResponseWriter, r *http.Request) {
	occasionID, err := getIDFromURL(r, "occasionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	items, err := h.wishlistService.ListMyItems(r.Context(), occasionID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"items": items}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListAllMyItems godoc
// @Summary  All my items across occasions
// @Tags     items
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} map[string]interface{}
// @Router   /items/mine [get]
func (h *WishlistHandler) ListAllMyItems(w http.ResponseWriter, r *http.Request) {
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	items, err := h.wishlistService.ListAllMyItems(r.Context(), currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"items": items}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMemberItems godoc
// @Summary  A member's wishlist for an occasion
// @Tags     items
// @Produce  json
// @Security BearerAuth
// @Param    occasionID path string true "occasion id"
// @Param    userID path string true "member id"
// @Success  200 {object} map[string]interface{}
// @Router   /occasions/{occasionID}/members/{userID}/items [get]
func (h *WishlistHandler) ListMemberItems(w http.ResponseWriter, r *http.Request) {
	occasionID, err := getIDFromURL(r, "occasionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	ownerID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	items, err := h.wishlistService.ListMemberItems(r.Context(), occasionID, ownerID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"items": items}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateItem godoc
// @Summary  Update my item
// @Tags     items
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    itemID path string true "item id"
// @Param    input body services.ItemInput true "item"
// @Success  200 {object} map[string]interface{}
// @Router   /items/{itemID} [put]
func (h *WishlistHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := getIDFromURL(r, "itemID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	var input services.ItemInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	item, err := h.wishlistService.UpdateItem(r.Context(), itemID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"item": item}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeleteItem godoc
// @Summary  Delete my item
// @Tags     items
// @Security BearerAuth
// @Param    itemID path string true "item id"
// @Success  204
// @Router   /items/{itemID} [delete]
func (h *WishlistHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := getIDFromURL(r, "itemID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if err := h.wishlistService.DeleteItem(r.Context(), itemID, currentUserID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadItemImage godoc
// @Summary  Upload a picture for my item
// @Tags     items
// @Accept   multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param    itemID path string true "item id"
// @Param    file formData file true "image"
// @Success  200 {object} map[string]interface{}
// @Router   /items/{itemID}/image [post]
func (h *WishlistHandler) UploadItemImage(w http.ResponseWriter, r *http.Request) {
	itemID, err := getIDFromURL(r, "itemID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	file, contentType, err := readUpload(w, r, "file")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	item, err := h.wishlistService.UploadItemImage(r.Context(), itemID, currentUserID, file, contentType)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"item": item}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// MarkPurchased godoc
// @Summary  Mark someone else's item as bought
// @Tags     items
// @Produce  json
// @Security BearerAuth
// @Param    itemID path string true "item id"
// @Success  200 {object} map[string]interface{}
// @Failure  409 {object} map[string]string
// @Router   /items/{itemID}/purchase [post]
func (h *WishlistHandler) MarkPurchased(w http.ResponseWriter, r *http.Request) {
	itemID, err := getIDFromURL(r, "itemID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	item, err := h.wishlistService.MarkPurchased(r.Context(), itemID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"item": item}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UnmarkPurchased godoc
// @Summary  Undo my purchase mark
// @Tags     items
// @Produce  json
// @Security BearerAuth
// @Param    itemID path string true "item id"
// @Success  200 {object} map[string]interface{}
// @Router   /items/{itemID}/purchase [delete]
func (h *WishlistHandler) UnmarkPurchased(w http.ResponseWriter, r *http.Request) {
	itemID, err := getIDFromURL(r, "itemID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	item, err := h.wishlistService.UnmarkPurchased(r.Context(), itemID, currentUserID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"item": item}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
