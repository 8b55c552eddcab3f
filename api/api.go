package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gin-gonic/gin"
	"github.com/gridledger/electric/lib/electric"
)

// Handler serves the client modules over HTTP.
type Handler struct {
	Users *electric.UserModule
	Usage *electric.UsageModule
}

// NewRouter registers every route of h on a new gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestMetrics())

	r.GET("/users", h.GetAllUsers)
	r.POST("/users", h.CreateUser)
	r.GET("/users/:id", h.GetUser)
	r.GET("/users/:id/usage", h.GetUsageForUser)
	r.GET("/usage", h.GetAllUsage)
	r.POST("/usage", h.CreateUsage)
	r.GET("/registered", h.CheckUserRegistered)
	r.GET("/metrics", gin.WrapF(func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	}))

	return r
}

// requestMetrics counts requests per route and status.
func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.GetOrCreateCounter(`electric_api_requests_total{route="` + route + `",status="` + strconv.Itoa(c.Writer.Status()) + `"}`).Inc()
	}
}

// fail writes the {code: 0, message} body with a status derived from err.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case electric.IsValidation(err):
		status = http.StatusBadRequest
	case electric.IsNotFound(err):
		status = http.StatusNotFound
	case electric.IsConnectivity(err):
		status = http.StatusServiceUnavailable
	}

	var e *electric.Error
	if !errors.As(err, &e) {
		e = &electric.Error{Code: 0, Message: err.Error()}
	}
	c.JSON(status, gin.H{"code": e.Code, "message": e.Error()})
}

func (h *Handler) CheckUserRegistered(c *gin.Context) {
	res, err := h.Users.CheckUserRegistered(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetAllUsers(c *gin.Context) {
	res, err := h.Users.GetAllUsers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetUser(c *gin.Context) {
	res, err := h.Users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) CreateUser(c *gin.Context) {
	var in electric.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 0, "message": err.Error()})
		return
	}
	res, err := h.Users.CreateUser(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetAllUsage(c *gin.Context) {
	res, err := h.Usage.GetAllUsage(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetUsageForUser returns all usage of a user, or the records of [from, to)
// if both query parameters are given as unix milliseconds.
func (h *Handler) GetUsageForUser(c *gin.Context) {
	id := c.Param("id")
	from, to := c.Query("from"), c.Query("to")

	var (
		res *electric.UsageListResult
		err error
	)
	if from == "" && to == "" {
		res, err = h.Usage.GetUsageForUser(c.Request.Context(), id)
	} else {
		var f, t int64
		f, err = strconv.ParseInt(from, 10, 64)
		if err == nil {
			t, err = strconv.ParseInt(to, 10, 64)
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 0, "message": "from and to must both be unix milliseconds"})
			return
		}
		res, err = h.Usage.GetUsageWindow(c.Request.Context(), id, f, t)
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) CreateUsage(c *gin.Context) {
	var in electric.UsageInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 0, "message": err.Error()})
		return
	}
	res, err := h.Usage.CreateUsage(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
