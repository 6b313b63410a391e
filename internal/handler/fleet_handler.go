package handler

import (
	"net/http"

	"fleetops/internal/middleware"
	"fleetops/internal/model"
	"fleetops/internal/service"
	"fleetops/pkg/pagination"
	"fleetops/pkg/response"

	"github.com/gin-gonic/gin"
)

// FleetHandler serves trucks, drivers and trips under one surface since
// their CRUD shapes are identical.
type FleetHandler struct {
	fleetService service.FleetService
}

func NewFleetHandler(fleetService service.FleetService) *FleetHandler {
	return &FleetHandler{fleetService: fleetService}
}

func (h *FleetHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := router.Group("/api")
	read.Use(middleware.RequireRole(model.RoleAdmin, model.RoleSupervisor, model.RoleStaff))
	{
		read.GET("/trucks", h.GetTrucks)
		read.GET("/drivers", h.GetDrivers)
		read.GET("/trips", h.GetTrips)
	}

	manage := router.Group("/api")
	manage.Use(middleware.RequireRole(model.RoleAdmin, model.RoleSupervisor))
	{
		manage.POST("/trucks", h.CreateTruck)
		manage.PUT("/trucks/:id", h.UpdateTruck)
		manage.DELETE("/trucks/:id", h.DeleteTruck)

		manage.POST("/drivers", h.CreateDriver)
		manage.PUT("/drivers/:id", h.UpdateDriver)
		manage.DELETE("/drivers/:id", h.DeleteDriver)

		manage.POST("/trips", h.CreateTrip)
		manage.PUT("/trips/:id", h.UpdateTrip)
		manage.DELETE("/trips/:id", h.DeleteTrip)
	}
}

// --- Trucks ---

// GetTrucks handles GET /api/trucks
// @Summary      List trucks
// @Tags         fleet
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=response.Page}
// @Router       /api/trucks [get]
func (h *FleetHandler) GetTrucks(c *gin.Context) {
	params := pagination.Parse(c)

	trucks, total, err := h.fleetService.GetTrucks(c.Request.Context(), actorFrom(c), params.Page, params.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, trucks, total, params.Page, params.Limit))
}

// CreateTruck handles POST /api/trucks
// @Summary      Create truck
// @Tags         fleet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.TruckPayload  true  "Truck Payload"
// @Success      201      {object}  response.Response{data=service.TruckResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/trucks [post]
func (h *FleetHandler) CreateTruck(c *gin.Context) {
	var req service.TruckPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	truck, err := h.fleetService.CreateTruck(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, truck))
}

// UpdateTruck handles PUT /api/trucks/:id
// @Summary      Update truck
// @Tags         fleet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                true  "Truck ID"
// @Param        payload  body      service.TruckPayload  true  "Truck Payload"
// @Success      200      {object}  response.Response{data=service.TruckResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/trucks/{id} [put]
func (h *FleetHandler) UpdateTruck(c *gin.Context) {
	var req service.TruckPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	truck, err := h.fleetService.UpdateTruck(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, truck))
}

// DeleteTruck handles DELETE /api/trucks/:id
// @Summary      Delete truck
// @Description  Deletes a truck; fails with 409 while any expense still references it
// @Tags         fleet
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Truck ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/trucks/{id} [delete]
func (h *FleetHandler) DeleteTruck(c *gin.Context) {
	if err := h.fleetService.DeleteTruck(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "truck deleted"}))
}

// --- Drivers ---

// GetDrivers handles GET /api/drivers
// @Summary      List drivers
// @Tags         fleet
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=response.Page}
// @Router       /api/drivers [get]
func (h *FleetHandler) GetDrivers(c *gin.Context) {
	params := pagination.Parse(c)

	drivers, total, err := h.fleetService.GetDrivers(c.Request.Context(), actorFrom(c), params.Page, params.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, drivers, total, params.Page, params.Limit))
}

// CreateDriver handles POST /api/drivers
// @Summary      Create driver
// @Tags         fleet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.DriverPayload  true  "Driver Payload"
// @Success      201      {object}  response.Response{data=service.DriverResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/drivers [post]
func (h *FleetHandler) CreateDriver(c *gin.Context) {
	var req service.DriverPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	driver, err := h.fleetService.CreateDriver(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, driver))
}

// UpdateDriver handles PUT /api/drivers/:id
// @Summary      Update driver
// @Tags         fleet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Driver ID"
// @Param        payload  body      service.DriverPayload  true  "Driver Payload"
// @Success      200      {object}  response.Response{data=service.DriverResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/drivers/{id} [put]
func (h *FleetHandler) UpdateDriver(c *gin.Context) {
	var req service.DriverPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	driver, err := h.fleetService.UpdateDriver(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, driver))
}

// DeleteDriver handles DELETE /api/drivers/:id
// @Summary      Delete driver
// @Description  Deletes a driver; fails with 409 while any expense still references them
// @Tags         fleet
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Driver ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/drivers/{id} [delete]
func (h *FleetHandler) DeleteDriver(c *gin.Context) {
	if err := h.fleetService.DeleteDriver(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "driver deleted"}))
}

// --- Trips ---

// GetTrips handles GET /api/trips
// @Summary      List trips
// @Tags         fleet
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=response.Page}
// @Router       /api/trips [get]
func (h *FleetHandler) GetTrips(c *gin.Context) {
	params := pagination.Parse(c)

	trips, total, err := h.fleetService.GetTrips(c.Request.Context(), actorFrom(c), params.Page, params.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, trips, total, params.Page, params.Limit))
}

// CreateTrip handles POST /api/trips
// @Summary      Create trip
// @Tags         fleet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.TripPayload  true  "Trip Payload"
// @Success      201      {object}  response.Response{data=service.TripResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/trips [post]
func (h *FleetHandler) CreateTrip(c *gin.Context) {
	var req service.TripPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	trip, err := h.fleetService.CreateTrip(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, trip))
}

// UpdateTrip handles PUT /api/trips/:id
// @Summary      Update trip
// @Tags         fleet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string               true  "Trip ID"
// @Param        payload  body      service.TripPayload  true  "Trip Payload"
// @Success      200      {object}  response.Response{data=service.TripResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/trips/{id} [put]
func (h *FleetHandler) UpdateTrip(c *gin.Context) {
	var req service.TripPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	trip, err := h.fleetService.UpdateTrip(c.Request.Context(), actorFrom(c), c.Param("id"), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, trip))
}

// DeleteTrip handles DELETE /api/trips/:id
// @Summary      Delete trip
// @Description  Deletes a trip; fails with 409 while any expense still references it
// @Tags         fleet
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Trip ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/trips/{id} [delete]
func (h *FleetHandler) DeleteTrip(c *gin.Context) {
	if err := h.fleetService.DeleteTrip(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "trip deleted"}))
}
