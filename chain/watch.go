/*
 *  Copyright 2020 KardiaChain
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

// Package chain
package chain

import (
	"context"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/kardiachain/governance-tracker/types"
)

const (
	methodSubmitAndWatch  = "author_submitAndWatchExtrinsic"
	methodExtrinsicUpdate = "author_extrinsicUpdate"
)

// EventDecoder resolves the ordered events emitted by one extrinsic in a
// finalized block.
type EventDecoder interface {
	ExtrinsicEvents(ctx context.Context, blockHash, extrinsicHash string) ([]types.ChainEvent, error)
}

type jsonrpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// ExtrinsicHash is the blake2b-256 hash of an encoded extrinsic.
func ExtrinsicHash(extrinsic []byte) string {
	sum := blake2b.Sum256(extrinsic)
	return encodeHex(sum[:])
}

// SubmitAndWatch broadcasts a signed extrinsic and streams its status. The
// channel is closed after the terminal event, or without one when ctx ends.
func (n *node) SubmitAndWatch(ctx context.Context, extrinsic []byte) (<-chan types.LifecycleEvent, error) {
	lgr := n.lgr.With(zap.String("method", "SubmitAndWatch"))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL(n.url), nil)
	if err != nil {
		return nil, types.WrapFault(types.ErrTransport, err)
	}
	req := jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  methodSubmitAndWatch,
		Params:  []interface{}{encodeHex(extrinsic)},
	}
	if err := conn.WriteJSON(req); err != nil {
		_ = conn.Close()
		return nil, types.WrapFault(types.ErrTransport, err)
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		_ = conn.Close()
		return nil, types.WrapFault(types.ErrTransport, err)
	}
	resp := gjson.ParseBytes(msg)
	if rpcErr := resp.Get("error"); rpcErr.Exists() {
		_ = conn.Close()
		return nil, types.NewFault(types.ErrTransport, rpcErr.Get("message").String())
	}
	subID := resp.Get("result").String()
	extHash := ExtrinsicHash(extrinsic)
	lgr.Info("extrinsic submitted", zap.String("hash", extHash), zap.String("subscription", subID))

	out := make(chan types.LifecycleEvent, 4)
	go n.watch(ctx, conn, subID, extHash, out)
	return out, nil
}

func (n *node) watch(ctx context.Context, conn *websocket.Conn, subID, extHash string, out chan<- types.LifecycleEvent) {
	lgr := n.lgr.With(zap.String("method", "watch"), zap.String("hash", extHash))
	defer close(out)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			lgr.Warn("watch stream broken", zap.Error(err))
			emit(ctx, out, types.TransportErrorEvent(err.Error()))
			return
		}
		update := gjson.ParseBytes(msg)
		if update.Get("method").String() != methodExtrinsicUpdate ||
			update.Get("params.subscription").String() != subID {
			continue
		}
		ev, terminal := n.statusEvent(ctx, update.Get("params.result"), extHash)
		if ev != nil && !emit(ctx, out, *ev) {
			return
		}
		if terminal {
			return
		}
	}
}

// statusEvent maps a TransactionStatus to a lifecycle event. Intermediate
// statuses (future, ready, broadcast, retracted) produce no event.
func (n *node) statusEvent(ctx context.Context, status gjson.Result, extHash string) (*types.LifecycleEvent, bool) {
	if status.Type == gjson.String {
		switch s := status.String(); s {
		case "dropped", "invalid":
			ev := types.TransportErrorEvent("extrinsic " + s)
			return &ev, true
		}
		return nil, false
	}
	if hash := status.Get("inBlock"); hash.Exists() {
		ev := types.InBlockEvent(hash.String())
		return &ev, false
	}
	if hash := status.Get("finalized"); hash.Exists() {
		ev := types.FinalizedEvent(hash.String(), n.events(ctx, hash.String(), extHash))
		return &ev, true
	}
	for _, key := range []string{"finalityTimeout", "usurped", "dropped", "invalid"} {
		if status.Get(key).Exists() {
			ev := types.TransportErrorEvent("extrinsic " + key)
			return &ev, true
		}
	}
	return nil, false
}

// events returns nil when decoding fails so the outcome degrades to
// indeterminate instead of a guessed success.
func (n *node) events(ctx context.Context, blockHash, extHash string) []types.ChainEvent {
	if n.decoder == nil {
		return nil
	}
	evs, err := n.decoder.ExtrinsicEvents(ctx, blockHash, extHash)
	if err != nil {
		n.lgr.Warn("cannot decode extrinsic events", zap.String("block", blockHash), zap.String("hash", extHash), zap.Error(err))
		return nil
	}
	return evs
}

func emit(ctx context.Context, out chan<- types.LifecycleEvent, ev types.LifecycleEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func wsURL(url string) string {
	switch {
	case strings.HasPrefix(url, "https://"):
		return "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		return "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url
}
