package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mkraev/crudkit/internal/query"
)

// RegisterDocs mounts a small self-describing endpoint at /docs listing the
// reserved query parameters every search endpoint understands. It spares
// clients a trip to the README and keeps the parameter table next to the
// code that implements it.
func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"reserved_parameters": gin.H{
				query.ParamOrder:    "explicit sort spec, e.g. `title ASC, artist DESC`",
				query.ParamSort:     "single sort column, combined with " + query.ParamDir,
				query.ParamDir:      "ASC or DESC, case-insensitive",
				query.ParamPage:     "1-based page number, default 1",
				query.ParamPageSize: "rows per page, hard ceiling " + strconv.Itoa(query.MaxPageSize),
				query.ParamOffset:   "explicit row offset, overrides the page-derived one",
				query.ParamNoPage:   "truthy value disables paging entirely",
				"_http_method":      "POST tunnel for PUT/DELETE",
				"_delete":           "on a save endpoint, routes to delete handling",
			},
			"filter_markers": gin.H{
				"*": "wildcard inside a field value, e.g. title=jo*n",
				"!": "negation prefix, e.g. genre=!jazz",
			},
		})
	})
}
