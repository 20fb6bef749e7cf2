package api

import (
	"github.com/david/artify/internal/ingest"
	"github.com/labstack/echo/v4"
)

// parseSearchRequest reads the query parameters shared by the search and export routes.
func parseSearchRequest(c echo.Context) (ingest.SearchRequest, error) {
	return ingest.SearchParams{
		Query:          c.QueryParam("q"),
		Types:          c.QueryParam("type"),
		Scopes:         c.QueryParam("scope"),
		From:           c.QueryParam("from"),
		To:             c.QueryParam("to"),
		FreeOnly:       c.QueryParam("free_only"),
		ExcludeUndated: c.QueryParam("exclude_undated"),
		OpenOnly:       c.QueryParam("open_only"),
		Sort:           c.QueryParam("sort"),
		Sources:        c.QueryParam("sources"),
	}.Request()
}
