/*
 *  Copyright 2018 KardiaChain
 *  This file is part of the go-kardia library.
 *
 *  The go-kardia library is free software: you can redistribute it and/or modify
 *  it under the terms of the GNU Lesser General Public License as published by
 *  the Free Software Foundation, either version 3 of the License, or
 *  (at your option) any later version.
 *
 *  The go-kardia library is distributed in the hope that it will be useful,
 *  but WITHOUT ANY WARRANTY; without even the implied warranty of
 *  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 *  GNU Lesser General Public License for more details.
 *
 *  You should have received a copy of the GNU Lesser General Public License
 *  along with the go-kardia library. If not, see <http://www.gnu.org/licenses/>.
 */

package api

import (
	"net/http"

	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
)

type restDefinition struct {
	method      string
	path        string
	fn          func(c echo.Context) error
	middlewares []echo.MiddlewareFunc
}

// EchoServer define all API expose
type EchoServer interface {
	// General
	Ping(c echo.Context) error
	ContractInfo(c echo.Context) error

	// Proposal
	Proposals(c echo.Context) error
	Proposal(c echo.Context) error
	Permissions(c echo.Context) error

	// Governance actions
	SubmitProposal(c echo.Context) error
	Vote(c echo.Context) error
	CloseVote(c echo.Context) error
	CancelProposal(c echo.Context) error

	// Admin sector
	Refresh(c echo.Context) error
}

func bind(gr *echo.Group, srv EchoServer) {
	apis := []restDefinition{
		{
			method:      echo.GET,
			path:        "/ping",
			fn:          srv.Ping,
			middlewares: nil,
		},
		{
			method:      echo.GET,
			path:        "/info",
			fn:          srv.ContractInfo,
			middlewares: nil,
		},
		{
			method: echo.GET,
			// Query params: ?page=1&limit=10
			path:        "/proposals",
			fn:          srv.Proposals,
			middlewares: nil,
		},
		{
			method:      echo.GET,
			path:        "/proposals/:id",
			fn:          srv.Proposal,
			middlewares: nil,
		},
		{
			method: echo.GET,
			// Query params: ?account=5Grw...
			path:        "/proposals/:id/permissions",
			fn:          srv.Permissions,
			middlewares: nil,
		},
	}
	bindActionAPIs(gr, srv)
	for _, api := range apis {
		gr.Add(api.method, api.path, api.fn, api.middlewares...)
	}
}

func bindActionAPIs(gr *echo.Group, srv EchoServer) {
	apis := []restDefinition{
		{
			method:      echo.POST,
			path:        "/proposals",
			fn:          srv.SubmitProposal,
			middlewares: nil,
		},
		{
			method:      echo.POST,
			path:        "/proposals/:id/vote",
			fn:          srv.Vote,
			middlewares: nil,
		},
		{
			method:      echo.POST,
			path:        "/proposals/:id/close",
			fn:          srv.CloseVote,
			middlewares: nil,
		},
		{
			method:      echo.POST,
			path:        "/proposals/:id/cancel",
			fn:          srv.CancelProposal,
			middlewares: nil,
		},
		{
			method:      echo.POST,
			path:        "/refresh",
			fn:          srv.Refresh,
			middlewares: nil,
		},
	}
	for _, api := range apis {
		gr.Add(api.method, api.path, api.fn, api.middlewares...)
	}
}

// NewEcho builds the REST server. metrics may be nil.
func NewEcho(srv EchoServer, metrics http.Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.Gzip())

	v1Gr := e.Group("/api/v1")
	bind(v1Gr, srv)
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
	return e
}
