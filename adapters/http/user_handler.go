package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mlazarev/accounts-api/internal/application/usecase/users"
	"github.com/mlazarev/accounts-api/pkg/logger"
	"github.com/mlazarev/accounts-api/pkg/pgrepo"
)

type UserHandler struct {
	usersService *users.Service
	batchSize    int
	logger       logger.Logger
}

func NewUserHandler(usersService *users.Service, batchSize int, log logger.Logger) *UserHandler {
	return &UserHandler{
		usersService: usersService,
		batchSize:    batchSize,
		logger:       log,
	}
}

// Me returns the profile of the user the access token belongs to.
func (h *UserHandler) Me(c *gin.Context) {
	claims, ok := GetAccessClaims(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot get claims from context"})
		return
	}

	u, err := h.usersService.GetByField(c.Request.Context(), "uuid", claims.UUID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, ToUserDTO(u))
}

// filterParams are the query parameters accepted as equality filters.
var filterParams = []string{"email", "username", "phone", "gender"}

// List returns a filtered, ordered page of users together with the total
// count under the same filter.
func (h *UserHandler) List(c *gin.Context) {
	limit := h.batchSize
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	offset := 0
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
			return
		}
		offset = parsed
	}

	var orderBy []string
	if raw := c.Query("order_by"); raw != "" {
		orderBy = strings.Split(raw, ",")
	}

	filter := pgrepo.Filter{}
	for _, param := range filterParams {
		if value := c.Query(param); value != "" {
			filter[param] = value
		}
	}
	if raw := c.Query("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_active must be a boolean"})
			return
		}
		filter["is_active"] = active
	}

	list, total, err := h.usersService.GetUsers(c.Request.Context(), filter, orderBy, limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	results := make([]UserDTO, 0, len(list))
	for _, u := range list {
		results = append(results, ToUserDTO(u))
	}

	resp := PageResponse{Count: total, Results: results}
	if offset > 0 {
		resp.Prev = pageLink(c, limit, max(offset-limit, 0))
	}
	if int64(offset+limit) < total {
		resp.Next = pageLink(c, limit, offset+limit)
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateOrCreate upserts a user keyed by email, merging meta on update.
func (h *UserHandler) UpdateOrCreate(c *gin.Context) {
	var req UpsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	data := pgrepo.Data{"email": req.Email}
	if req.Meta != nil {
		data["meta"] = req.Meta
	}
	if req.Username != nil {
		data["username"] = req.Username
	}
	if req.Phone != nil {
		data["phone"] = req.Phone
	}
	if req.Gender != nil {
		data["gender"] = req.Gender
	}
	if req.Birthday != nil {
		data["birthday"] = req.Birthday
	}
	if req.FirstName != nil {
		data["first_name"] = req.FirstName
	}
	if req.MiddleName != nil {
		data["middle_name"] = req.MiddleName
	}
	if req.LastName != nil {
		data["last_name"] = req.LastName
	}

	u, err := h.usersService.UpdateOrCreateUser(c.Request.Context(), data)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, ToUserDTO(u))
}

func pageLink(c *gin.Context, limit, offset int) *string {
	link := *c.Request.URL
	query := link.Query()
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	link.RawQuery = query.Encode()
	s := link.String()
	return &s
}
