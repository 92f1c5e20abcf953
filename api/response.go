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
// Package api
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo"

	"github.com/kardiachain/governance-tracker/types"
)

var (
	OK             = EchoResponse{StatusCode: http.StatusOK, Code: 1000, Msg: "Success"}
	InternalServer = EchoResponse{StatusCode: http.StatusInternalServerError, Code: 1100, Msg: "Server busy..."}
	Invalid        = EchoResponse{StatusCode: http.StatusBadRequest, Code: 1101, Msg: "Bad request"}
	NotFound       = EchoResponse{StatusCode: http.StatusNotFound, Code: 1102, Msg: "Not found"}
	Forbidden      = EchoResponse{StatusCode: http.StatusForbidden, Code: 1103, Msg: "Action not permitted"}
	Rejected       = EchoResponse{StatusCode: http.StatusUnprocessableEntity, Code: 1104, Msg: "Rejected by chain"}
	Pending        = EchoResponse{StatusCode: http.StatusAccepted, Code: 1105, Msg: "Outcome indeterminate"}
	Unavailable    = EchoResponse{StatusCode: http.StatusServiceUnavailable, Code: 1106, Msg: "Chain unavailable"}
	Unauthorized   = EchoResponse{StatusCode: http.StatusUnauthorized, Code: 401, Msg: "Unauthorized"}
)

type PagingResponse struct {
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
	Total uint64      `json:"total"`
	Data  interface{} `json:"data"`
}

type EchoResponse struct {
	StatusCode int         `json:"-"`
	Code       int         `json:"code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data,omitempty"`
}

func (r EchoResponse) SetData(data interface{}) *EchoResponse {
	r.Data = data
	return &r
}

func (r *EchoResponse) Build(c echo.Context) error {
	return c.JSON(r.StatusCode, r)
}

// Fault picks the envelope for err and carries its reason as the message.
func Fault(err error) *EchoResponse {
	var r EchoResponse
	switch {
	case errors.Is(err, types.ErrInvalidArgument):
		r = Invalid
	case errors.Is(err, types.ErrProposalNotFound):
		r = NotFound
	case errors.Is(err, types.ErrNotPermitted):
		r = Forbidden
	case errors.Is(err, types.ErrSigningUnavailable):
		r = Unauthorized
	case errors.Is(err, types.ErrGasEstimationFailed), errors.Is(err, types.ErrOperationFailed):
		r = Rejected
	case errors.Is(err, types.ErrIndeterminate):
		r = Pending
	case errors.Is(err, types.ErrTransport):
		r = Unavailable
	default:
		r = InternalServer
	}
	if err != nil {
		r.Msg = err.Error()
	}
	if reason, ok := types.ReasonOf(err); ok {
		r.Data = map[string]string{"reason": reason.String()}
	}
	return &r
}
