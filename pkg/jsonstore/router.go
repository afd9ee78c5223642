package jsonstore

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	errUnknownCollection = errors.New("collection not found")
	errNoRecord          = errors.New("record not found")
	errDuplicateID       = errors.New("duplicate id")
)

// Router exposes the store over HTTP. middleware runs after recovery and
// before every route.
func (s *Store) Router(middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware...)

	r.GET("/manage/health", healthCheck)
	r.GET("/:collection", s.listRecords)
	r.POST("/:collection", s.createRecord)
	r.GET("/:collection/:id", s.getRecord)
	r.PUT("/:collection/:id", s.replaceRecord)
	r.DELETE("/:collection/:id", s.deleteRecord)
	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

func (s *Store) listRecords(c *gin.Context) {
	filters := make(map[string]string)
	limit := 0
	for key, values := range c.Request.URL.Query() {
		if len(values) == 0 {
			continue
		}
		if key == "_limit" {
			n, err := strconv.Atoi(values[0])
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid _limit"})
				return
			}
			limit = n
			continue
		}
		if strings.HasPrefix(key, "_") {
			continue
		}
		filters[key] = values[0]
	}

	records, ok := s.list(c.Param("collection"), filters, limit)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errUnknownCollection.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Store) getRecord(c *gin.Context) {
	rec, err := s.get(c.Param("collection"), c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Store) createRecord(c *gin.Context) {
	rec, ok := readObject(c)
	if !ok {
		return
	}
	created, err := s.create(c.Param("collection"), rec)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Store) replaceRecord(c *gin.Context) {
	rec, ok := readObject(c)
	if !ok {
		return
	}
	updated, err := s.replace(c.Param("collection"), c.Param("id"), rec)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (s *Store) deleteRecord(c *gin.Context) {
	if err := s.remove(c.Param("collection"), c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func readObject(c *gin.Context) (map[string]any, bool) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	var rec map[string]any
	if err := json.Unmarshal(data, &rec); err != nil || rec == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON object"})
		return nil, false
	}
	return rec, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errUnknownCollection), errors.Is(err, errNoRecord):
		return http.StatusNotFound
	case errors.Is(err, errDuplicateID):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
