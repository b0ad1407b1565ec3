package camera

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// KindVideoInput is the only device kind focuscam lists.
const KindVideoInput = "videoinput"

// Device describes an attached camera.
type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

// DeviceType is the lens role inferred from a device label.
type DeviceType string

const (
	DeviceMacro     DeviceType = "macro"
	DeviceUltrawide DeviceType = "ultrawide"
	DeviceTelephoto DeviceType = "telephoto"
	DeviceBack      DeviceType = "back"
	DeviceOther     DeviceType = "other"
)

// RankedDevice is a device with its label-priority score.
// Lower scores sort first.
type RankedDevice struct {
	Device Device     `json:"device"`
	Type   DeviceType `json:"type"`
	Score  int        `json:"score"`
}

// UnrankedScore is the score of a device whose label matched no keyword.
const UnrankedScore = 999

// labelPriority is checked in order; the first matching entry wins.
// Keywords include the Chinese labels some Android builds report.
var labelPriority = []struct {
	Type     DeviceType
	Keywords []string
}{
	{DeviceMacro, []string{"macro", "微距", "近拍"}},
	{DeviceUltrawide, []string{"ultrawide", "超廣角", "wide"}},
	{DeviceTelephoto, []string{"telephoto", "長焦", "tele"}},
	{DeviceBack, []string{"back", "後置", "rear"}},
}

// ClassifyLabel returns the lens type and priority score for a label.
func ClassifyLabel(label string) (DeviceType, int) {
	l := strings.ToLower(label)
	for i, p := range labelPriority {
		for _, kw := range p.Keywords {
			if strings.Contains(l, kw) {
				return p.Type, i
			}
		}
	}
	return DeviceOther, UnrankedScore
}

// RankDevices keeps video inputs and orders them by label priority.
// Devices with equal scores keep their enumeration order.
func RankDevices(devices []Device) []RankedDevice {
	ranked := make([]RankedDevice, 0, len(devices))
	for _, d := range devices {
		if d.Kind != KindVideoInput {
			continue
		}
		typ, score := ClassifyLabel(d.Label)
		ranked = append(ranked, RankedDevice{Device: d, Type: typ, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score < ranked[j].Score
	})
	return ranked
}

// DefaultV4L2Root is where Linux exposes video4linux device names.
const DefaultV4L2Root = "/sys/class/video4linux"

// EnumerateV4L2 lists /dev/videoN devices using their sysfs names as labels.
// A missing root yields an empty list rather than an error.
func EnumerateV4L2(root string) ([]Device, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", root, err)
	}

	type indexed struct {
		n   int
		dev Device
	}
	var found []indexed
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "video") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(name, "video"))
		if err != nil {
			continue
		}

		label := name
		if data, err := os.ReadFile(filepath.Join(root, name, "name")); err == nil {
			if s := strings.TrimSpace(string(data)); s != "" {
				label = s
			}
		}

		found = append(found, indexed{n: n, dev: Device{
			ID:    strconv.Itoa(n),
			Label: label,
			Kind:  KindVideoInput,
		}})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	devices := make([]Device, len(found))
	for i, f := range found {
		devices[i] = f.dev
	}
	return devices, nil
}
