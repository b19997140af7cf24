package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"ridehail/internal/services"
)

// pageRequest reads ?page=&page_size=. Malformed numbers count as absent.
func pageRequest(c *gin.Context) services.PageRequest {
	return services.PageRequest{
		Page:     cast.ToInt(c.Query("page")),
		PageSize: cast.ToInt(c.Query("page_size")),
	}
}

// idsBody is the JSON body of the bulk admin actions.
type idsBody struct {
	IDs []string `json:"ids" binding:"required"`
}
