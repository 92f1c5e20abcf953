package external

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/kardiachain/governance-tracker/chain"
	"github.com/kardiachain/governance-tracker/types"
)

// Sidecar resolves extrinsic events through a substrate-api-sidecar
// instance.
type Sidecar struct {
	url    string
	client *http.Client

	// palletErrors caches error names per pallet index.
	mtx          sync.Mutex
	palletErrors map[uint8]palletErrorTable
}

type palletErrorTable struct {
	pallet string
	names  map[uint8]string
}

func NewSidecar(url string) *Sidecar {
	var netTransport = &http.Transport{
		Dial: (&net.Dialer{
			Timeout: 5 * time.Second,
		}).Dial,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &Sidecar{
		url: strings.TrimRight(url, "/"),
		client: &http.Client{
			Timeout:   time.Second * 10,
			Transport: netTransport,
		},
		palletErrors: make(map[uint8]palletErrorTable),
	}
}

// ExtrinsicEvents returns the events of extrinsicHash in blockHash. Module
// dispatch errors get their pallet and error names resolved when the sidecar
// can serve them; otherwise they keep only the raw index and error bytes.
func (s *Sidecar) ExtrinsicEvents(ctx context.Context, blockHash, extrinsicHash string) ([]types.ChainEvent, error) {
	body, err := s.get(ctx, fmt.Sprintf("/blocks/%s?eventDocs=false&extrinsicDocs=false", blockHash))
	if err != nil {
		return nil, fmt.Errorf("block %s: %w", blockHash, err)
	}
	events, err := parseBlockEvents(body, extrinsicHash)
	if err != nil {
		return nil, err
	}
	for i := range events {
		if d := events[i].DispatchError; d != nil && d.Module != nil {
			s.resolveModule(ctx, blockHash, d.Module)
		}
	}
	return events, nil
}

func (s *Sidecar) resolveModule(ctx context.Context, blockHash string, m *types.DispatchModule) {
	if m.Name != "" || len(m.Error) == 0 {
		return
	}
	table, err := s.errorTable(ctx, blockHash, m.Index)
	if err != nil {
		return
	}
	if name, ok := table.names[m.Error[0]]; ok {
		m.Pallet, m.Name = table.pallet, name
	}
}

// errorTable returns the error names of the pallet at index. Failed lookups
// are not cached.
func (s *Sidecar) errorTable(ctx context.Context, blockHash string, index uint8) (palletErrorTable, error) {
	s.mtx.Lock()
	table, ok := s.palletErrors[index]
	s.mtx.Unlock()
	if ok {
		return table, nil
	}
	body, err := s.get(ctx, fmt.Sprintf("/pallets/%d/errors?at=%s", index, blockHash))
	if err != nil {
		return palletErrorTable{}, err
	}
	table, err = parsePalletErrors(body)
	if err != nil {
		return palletErrorTable{}, err
	}
	s.mtx.Lock()
	s.palletErrors[index] = table
	s.mtx.Unlock()
	return table, nil
}

func (s *Sidecar) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url+path, nil)
	if err != nil {
		return nil, err
	}
	response, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sidecar returned %d", response.StatusCode)
	}
	return body, nil
}

func parsePalletErrors(body []byte) (palletErrorTable, error) {
	if !gjson.ValidBytes(body) {
		return palletErrorTable{}, fmt.Errorf("malformed sidecar pallet errors response")
	}
	doc := gjson.ParseBytes(body)
	table := palletErrorTable{
		pallet: palletName(doc.Get("pallet").String()),
		names:  make(map[uint8]string),
	}
	if table.pallet == "" {
		return palletErrorTable{}, fmt.Errorf("pallet errors response has no pallet name")
	}
	doc.Get("items").ForEach(func(_, item gjson.Result) bool {
		idx, err := strconv.ParseUint(item.Get("index").String(), 10, 8)
		name := item.Get("name").String()
		if err == nil && name != "" {
			table.names[uint8(idx)] = name
		}
		return true
	})
	return table, nil
}

func parseBlockEvents(body []byte, extrinsicHash string) ([]types.ChainEvent, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("malformed sidecar block response")
	}
	var extrinsic gjson.Result
	gjson.GetBytes(body, "extrinsics").ForEach(func(_, ext gjson.Result) bool {
		if strings.EqualFold(ext.Get("hash").String(), extrinsicHash) {
			extrinsic = ext
			return false
		}
		return true
	})
	if !extrinsic.Exists() {
		return nil, fmt.Errorf("extrinsic %s not found in block", extrinsicHash)
	}

	var events []types.ChainEvent
	extrinsic.Get("events").ForEach(func(_, ev gjson.Result) bool {
		e := types.ChainEvent{
			Pallet: palletName(ev.Get("method.pallet").String()),
			Method: ev.Get("method.method").String(),
		}
		data := ev.Get("data").Array()
		switch {
		case e.Is(types.PalletSystem, types.EventExtrinsicFailed) && len(data) > 0:
			e.DispatchError = chain.ParseDispatchError(data[0])
		case e.Is(types.PalletContracts, types.EventContractEmitted) && len(data) > 0:
			e.Contract = data[0].String()
		}
		events = append(events, e)
		return true
	})
	return events, nil
}

// palletName turns sidecar's lower camel case pallet names into runtime names.
func palletName(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
