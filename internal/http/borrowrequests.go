package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/database/borrowrequests"
	"github.com/openshelf/openshelf/internal/entities"
)

// BorrowRequestsController serves the user's own borrow list: checkout,
// listing, editing while pending and cancelling.
type BorrowRequestsController struct {
	requests *borrowrequests.Repository
}

func NewBorrowRequestsController(repo *borrowrequests.Repository) *BorrowRequestsController {
	return &BorrowRequestsController{requests: repo}
}

type checkoutRequest struct {
	StartDate string                     `json:"start_date" binding:"required"`
	EndDate   string                     `json:"end_date" binding:"required"`
	Items     []borrowrequests.ItemInput `json:"items" binding:"required,dive"`
}

type replaceItemsRequest struct {
	Items []borrowrequests.ItemInput `json:"items" binding:"required,dive"`
}

// Checkout creates a new pending borrow request from the submitted items.
func (ctrl *BorrowRequestsController) Checkout(c *gin.Context) {
	var payload checkoutRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if len(payload.Items) == 0 {
		respondBadRequest(c, "at least one item is required")
		return
	}

	startDate, err := time.Parse("2006-01-02", payload.StartDate)
	if err != nil {
		respondBadRequest(c, "start_date must be formatted as YYYY-MM-DD")
		return
	}
	endDate, err := time.Parse("2006-01-02", payload.EndDate)
	if err != nil {
		respondBadRequest(c, "end_date must be formatted as YYYY-MM-DD")
		return
	}

	request, err := ctrl.requests.Create(auth.GetUserID(c), startDate, endDate, payload.Items)
	if err != nil {
		var validation *entities.ValidationError
		if errors.As(err, &validation) {
			respondUnprocessable(c, "validation failed", validation.Fields)
			return
		}
		respondInternalError(c, err, "create borrow request")
		return
	}
	respondCreated(c, request)
}

// List returns the caller's own requests, newest first.
func (ctrl *BorrowRequestsController) List(c *gin.Context) {
	limit, offset := parsePagination(c)
	filters := borrowrequests.ListFilters{
		UserID: auth.GetUserID(c),
		Limit:  limit,
		Offset: offset,
	}
	if name := c.Query("status"); name != "" {
		status, err := entities.ParseStatus(name)
		if err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		filters.Status = &status
	}

	requests, total, err := ctrl.requests.List(filters)
	if err != nil {
		respondInternalError(c, err, "list borrow requests")
		return
	}
	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    requests,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(requests)) < total,
	})
}

// Get returns one of the caller's requests with its items.
func (ctrl *BorrowRequestsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	request, err := ctrl.requests.GetForUser(id, auth.GetUserID(c))
	if errors.Is(err, borrowrequests.ErrNotFound) {
		respondNotFound(c, "borrow request")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get borrow request")
		return
	}
	c.JSON(http.StatusOK, request)
}

// ReplaceItems swaps the line items of a pending or need_update request.
// The request goes back to pending for a fresh review.
func (ctrl *BorrowRequestsController) ReplaceItems(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload replaceItemsRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if len(payload.Items) == 0 {
		respondBadRequest(c, "at least one item is required")
		return
	}

	request, err := ctrl.requests.ReplaceItems(id, auth.GetUserID(c), payload.Items)
	switch {
	case errors.Is(err, borrowrequests.ErrNotFound):
		respondNotFound(c, "borrow request")
	case errors.Is(err, borrowrequests.ErrNotPending):
		respondConflict(c, "borrow request can no longer be edited")
	case err != nil:
		respondInternalError(c, err, "replace borrow request items")
	default:
		c.JSON(http.StatusOK, request)
	}
}

// Cancel withdraws a pending request.
func (ctrl *BorrowRequestsController) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := ctrl.requests.Cancel(id, auth.GetUserID(c))
	switch {
	case errors.Is(err, borrowrequests.ErrNotFound):
		respondNotFound(c, "borrow request")
	case errors.Is(err, borrowrequests.ErrNotPending):
		respondConflict(c, "only pending requests can be cancelled")
	case err != nil:
		respondInternalError(c, err, "cancel borrow request")
	default:
		respondSuccess(c, "borrow request cancelled")
	}
}
