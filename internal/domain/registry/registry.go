// Package registry implements the Device Registry (spec.md §4.A): a view
// over the host environment's node records, not authoritative storage. It
// is recomputed on every discovery/control pass so the emulator stays
// correct under hot redeploy of devices.
package registry

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"echo-hue-bridge/internal/domain/model"
	"echo-hue-bridge/internal/ports"
)

// Entry is one listed device with its derived Hue-facade identifiers.
type Entry struct {
	DeviceID string
	Name     string
	Index    int
	UniqueID string
}

// ListDevices enumerates every node bound to hub, preserving host-provided
// iteration order, and attaches a 1-based index and a synthetic uniqueid.
func ListDevices(ctx context.Context, host ports.HostEnvironment, hub *model.Hub) ([]Entry, error) {
	var records []ports.NodeRecord
	err := host.IterateNodes(ctx, hub.ID, func(r ports.NodeRecord) {
		records = append(records, r)
	})
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(records))
	for i, r := range records {
		index := i + 1
		entries = append(entries, Entry{
			DeviceID: r.ID,
			Name:     r.Name,
			Index:    index,
			UniqueID: UniqueID(hub.ID, index),
		})
	}
	return entries, nil
}

// UniqueID builds the synthetic identifier H0:H1:H2:H3:H4:H5:H6:II-01 where
// Hn are 4-character slices of hubID and II is index as two lowercase hex
// digits. Short hubIDs are zero-padded rather than panicking; the format is
// a display convention, not a real MAC-derived value.
func UniqueID(hubID string, index int) string {
	parts := make([]string, 0, 8)
	for i := 0; i < 7; i++ {
		start := i * 4
		end := start + 4
		switch {
		case start >= len(hubID):
			parts = append(parts, "0000")
		case end <= len(hubID):
			parts = append(parts, hubID[start:end])
		default:
			slice := hubID[start:]
			parts = append(parts, slice+"0000"[:4-len(slice)])
		}
	}
	parts = append(parts, fmt.Sprintf("%02x-01", index&0xff))
	return strings.Join(parts, ":")
}

// Resolve accepts a raw deviceId, a synthetic uniqueid, or a numeric index
// string and returns the matching deviceId. If token matches both a raw id
// and an index string, the raw id wins.
func Resolve(entries []Entry, token string) (string, bool) {
	for _, e := range entries {
		if e.DeviceID == token || e.UniqueID == token {
			return e.DeviceID, true
		}
	}
	for _, e := range entries {
		if strconv.Itoa(e.Index) == token {
			return e.DeviceID, true
		}
	}
	return "", false
}
