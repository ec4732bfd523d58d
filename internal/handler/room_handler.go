package handler

import (
	"net/http"
	"strconv"

	"landlords/internal/middleware"
	"landlords/internal/repository"
	"landlords/internal/service"

	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	svc *service.RoomService
}

func NewRoomHandler(svc *service.RoomService) *RoomHandler {
	return &RoomHandler{svc: svc}
}

type RoomRequest struct {
	RoomNumber string `json:"room_number" binding:"required,max=32"`
	Capacity   int    `json:"capacity" binding:"required,gte=1"`
	Gender     string `json:"gender" binding:"omitempty,oneof=male female mixed"`
}

type PropertyRequest struct {
	Name     string        `json:"name" binding:"required,max=255"`
	Price    float64       `json:"price" binding:"gte=0"`
	Location string        `json:"location" binding:"max=255"`
	Rooms    []RoomRequest `json:"rooms" binding:"dive"`
}

// UpdateRoomRequest is the body of /owner/update_room_status.php. Field checks
// live in the service so the legacy endpoint reports them all together.
type UpdateRoomRequest struct {
	RoomID     uint   `json:"room_id"`
	PropertyID uint   `json:"property_id"`
	RoomNumber string `json:"room_number"`
	Capacity   int    `json:"capacity"`
	Gender     string `json:"gender"`
	Status     string `json:"status"`
}

func (h *RoomHandler) CreateProperty(c *gin.Context) {
	var req PropertyRequest
	if !bindJSON(c, &req) {
		return
	}
	in := service.PropertyInput{Name: req.Name, PriceCents: toCents(req.Price), Location: req.Location}
	for _, r := range req.Rooms {
		in.Rooms = append(in.Rooms, service.RoomInput{RoomNumber: r.RoomNumber, Capacity: r.Capacity, Gender: r.Gender})
	}
	p, err := h.svc.CreateProperty(c.Request.Context(), middleware.GetUserID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "property": p})
}

func (h *RoomHandler) ListProperties(c *gin.Context) {
	list, err := h.svc.ListOwnerProperties(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "properties": list})
}

func (h *RoomHandler) DeleteProperty(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.SoftDeleteProperty(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "property deleted"})
}

func (h *RoomHandler) AddRoom(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req RoomRequest
	if !bindJSON(c, &req) {
		return
	}
	room, err := h.svc.AddRoom(c.Request.Context(), middleware.GetUserID(c), id, service.RoomInput{
		RoomNumber: req.RoomNumber, Capacity: req.Capacity, Gender: req.Gender,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "room": room})
}

// UpdateStatus handles POST /owner/rooms/status and the legacy /owner/update_room_status.php.
func (h *RoomHandler) UpdateStatus(c *gin.Context) {
	var req UpdateRoomRequest
	if !bindJSON(c, &req) {
		return
	}
	room, err := h.svc.UpdateRoomStatus(c.Request.Context(), middleware.GetUserID(c), service.UpdateRoomInput{
		RoomID:     req.RoomID,
		PropertyID: req.PropertyID,
		RoomNumber: req.RoomNumber,
		Capacity:   req.Capacity,
		Gender:     req.Gender,
		Status:     req.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Room updated successfully", "room": room})
}

// ListBookable handles GET /rooms/bookable.
func (h *RoomHandler) ListBookable(c *gin.Context) {
	page, limit := parsePagination(c)
	f := repository.BookableFilter{
		Gender: c.Query("gender"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if v := c.Query("property_id"); v != "" {
		id, _ := strconv.ParseUint(v, 10, 64)
		f.PropertyID = uint(id)
	}
	rooms, err := h.svc.ListBookable(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "rooms": rooms, "page": page, "limit": limit})
}
