// Package api
package api

import (
	"math"
	"strconv"

	"github.com/labstack/echo"

	"github.com/kardiachain/governance-tracker/types"
	"github.com/kardiachain/governance-tracker/utils"
)

func getPagingOption(c echo.Context) (*types.Pagination, int, int) {
	pageParams := c.QueryParam("page")
	limitParams := c.QueryParam("limit")
	page, err := strconv.Atoi(pageParams)
	if err != nil || page < 1 {
		page = 1
	}
	page = page - 1
	limit, err := strconv.Atoi(limitParams)
	if err != nil {
		limit = 25
	}
	pagination := &types.Pagination{
		Limit: limit,
	}
	pagination.Sanitize()
	// keep page*limit inside int range
	if maxPage := math.MaxInt32 / pagination.Limit; page > maxPage {
		page = maxPage
	}
	pagination.Skip = page * pagination.Limit
	return pagination, page + 1, pagination.Limit
}

func proposalID(c echo.Context) (uint32, error) {
	id, err := utils.StrToUint32(c.Param("id"))
	if err != nil {
		return 0, types.NewFault(types.ErrInvalidArgument, "invalid proposal id "+c.Param("id"))
	}
	return id, nil
}
