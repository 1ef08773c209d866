package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/auth"
	"github.com/openshelf/openshelf/internal/database/borrowrequests"
	"github.com/openshelf/openshelf/internal/entities"
	"github.com/openshelf/openshelf/internal/lending"
)

// AdminController serves the librarian's side of the workflow: reviewing
// requests across all users and driving status transitions.
type AdminController struct {
	requests *borrowrequests.Repository
	engine   *lending.Engine
}

func NewAdminController(repo *borrowrequests.Repository, engine *lending.Engine) *AdminController {
	return &AdminController{requests: repo, engine: engine}
}

// List returns requests across all users with admin filters: status, user,
// request date range.
func (ctrl *AdminController) List(c *gin.Context) {
	limit, offset := parsePagination(c)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 32)
	filters := borrowrequests.ListFilters{
		UserID: uint(userID),
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
	var ok bool
	if filters.RequestDateFrom, ok = parseDateQuery(c, "from"); !ok {
		return
	}
	if filters.RequestDateTo, ok = parseDateQuery(c, "to"); !ok {
		return
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

// Get returns any user's request with items and owner.
func (ctrl *AdminController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	request, err := ctrl.requests.GetByID(id)
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

type changeStatusRequest struct {
	Status           string     `json:"status" binding:"required"`
	ApprovedDate     *time.Time `json:"approved_date"`
	ActualBorrowDate *time.Time `json:"actual_borrow_date"`
	ActualReturnDate *time.Time `json:"actual_return_date"`
	AdminNote        string     `json:"admin_note"`
}

// changeStatusResponse reports the transition outcome. FinalStatus differs
// from the requested status when an approval got redirected to need_update.
type changeStatusResponse struct {
	Request         *entities.BorrowRequest `json:"request"`
	RequestedStatus entities.Status         `json:"requested_status"`
	FinalStatus     entities.Status         `json:"final_status"`
	NeedsUpdate     bool                    `json:"needs_update"`
}

// ChangeStatus drives a status transition on behalf of the calling admin.
func (ctrl *AdminController) ChangeStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var payload changeStatusRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	target, err := entities.ParseStatus(payload.Status)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	result, err := ctrl.engine.Transition(c.Request.Context(), id, target, auth.GetUserID(c), lending.Context{
		ApprovedDate:     payload.ApprovedDate,
		ActualBorrowDate: payload.ActualBorrowDate,
		ActualReturnDate: payload.ActualReturnDate,
		AdminNote:        payload.AdminNote,
	})
	if err != nil {
		var validation *entities.ValidationError
		switch {
		case errors.Is(err, lending.ErrNotFound):
			respondNotFound(c, "borrow request")
		case errors.Is(err, lending.ErrInvalidStatus):
			respondBadRequest(c, "invalid target status")
		case errors.Is(err, lending.ErrNoChange):
			respondUnprocessable(c, "no status change", nil)
		case errors.As(err, &validation):
			respondUnprocessable(c, "validation failed", validation.Fields)
		default:
			respondInternalError(c, err, "change borrow request status")
		}
		return
	}

	c.JSON(http.StatusOK, changeStatusResponse{
		Request:         result.Request,
		RequestedStatus: result.RequestedStatus,
		FinalStatus:     result.FinalStatus,
		NeedsUpdate:     result.NeedsUpdate,
	})
}

// Transitions returns the append-only status history of a request.
func (ctrl *AdminController) Transitions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := ctrl.requests.GetByID(id); err != nil {
		if errors.Is(err, borrowrequests.ErrNotFound) {
			respondNotFound(c, "borrow request")
			return
		}
		respondInternalError(c, err, "get borrow request")
		return
	}

	rows, err := ctrl.requests.Transitions(id)
	if err != nil {
		respondInternalError(c, err, "list transitions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"transitions": rows, "count": len(rows)})
}
