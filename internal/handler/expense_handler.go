package handler

import (
	"net/http"
	"strconv"
	"time"

	"fleetops/internal/middleware"
	"fleetops/internal/model"
	"fleetops/internal/service"
	"fleetops/pkg/pagination"
	"fleetops/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ExpenseHandler struct {
	expenseService service.ExpenseService
}

func NewExpenseHandler(expenseService service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

func (h *ExpenseHandler) RegisterRoutes(router *gin.RouterGroup) {
	expenses := router.Group("/api/expenses")
	expenses.Use(middleware.RequireRole(model.RoleAdmin, model.RoleSupervisor, model.RoleStaff))
	{
		expenses.GET("", h.GetExpenses)
		expenses.GET("/:id", h.GetExpense)
		expenses.POST("", h.CreateExpense)
		expenses.PUT("/:id", h.UpdateExpense)
	}

	// Deleting expenses is restricted to supervisors and above
	manage := router.Group("/api/expenses")
	manage.Use(middleware.RequireRole(model.RoleAdmin, model.RoleSupervisor))
	{
		manage.DELETE("/:id", h.DeleteExpense)
	}
}

// GetExpenses handles GET /api/expenses with optional filters
// @Summary      List expenses
// @Description  Returns the organization's expenses, newest first, with optional date/category/flag filters
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        page         query     int     false  "Page number"
// @Param        limit        query     int     false  "Page size"
// @Param        from         query     string  false  "Start date (YYYY-MM-DD)"
// @Param        to           query     string  false  "End date (YYYY-MM-DD)"
// @Param        category_id  query     string  false  "Filter by category"
// @Param        is_business  query     bool    false  "Filter by business flag"
// @Param        is_paid      query     bool    false  "Filter by paid flag"
// @Success      200          {object}  response.Response{data=response.Page}
// @Failure      400          {object}  response.Response
// @Router       /api/expenses [get]
func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
	params := pagination.Parse(c)

	query, err := parseExpenseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	expenses, total, err := h.expenseService.GetExpenses(c.Request.Context(), actorFrom(c), query, params.Page, params.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, expenses, total, params.Page, params.Limit))
}

// GetExpense handles GET /api/expenses/:id
// @Summary      Get expense by ID
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Expense ID"
// @Success      200  {object}  response.Response{data=service.ExpenseResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	expense, err := h.expenseService.GetExpense(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, expense))
}

// CreateExpense handles POST /api/expenses
// @Summary      Create expense
// @Description  Records an expense atomically with its associations, supplier balance and audit entry
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateExpenseRequest  true  "Create Expense Payload"
// @Success      201      {object}  response.Response{data=service.ExpenseResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req service.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, expense))
}

// UpdateExpense handles PUT /api/expenses/:id
// @Summary      Update expense
// @Description  Partially updates an expense; omitted fields keep their current value
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Expense ID"
// @Param        payload  body      service.UpdateExpenseRequest  true  "Update Expense Payload"
// @Success      200      {object}  response.Response{data=service.ExpenseResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	var req service.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, expense))
}

// DeleteExpense handles DELETE /api/expenses/:id
// @Summary      Delete expense
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Expense ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	if err := h.expenseService.DeleteExpense(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "expense deleted"}))
}

func parseExpenseQuery(c *gin.Context) (service.ExpenseListQuery, error) {
	var query service.ExpenseListQuery

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(pagination.DateLayout, raw)
		if err != nil {
			return query, err
		}
		query.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(pagination.DateLayout, raw)
		if err != nil {
			return query, err
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
		query.To = &to
	}
	if raw := c.Query("category_id"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			return query, err
		}
		query.CategoryID = &categoryID
	}
	if raw := c.Query("is_business"); raw != "" {
		isBusiness, err := strconv.ParseBool(raw)
		if err != nil {
			return query, err
		}
		query.IsBusiness = &isBusiness
	}
	if raw := c.Query("is_paid"); raw != "" {
		isPaid, err := strconv.ParseBool(raw)
		if err != nil {
			return query, err
		}
		query.IsPaid = &isPaid
	}

	return query, nil
}
