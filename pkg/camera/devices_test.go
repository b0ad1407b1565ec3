package camera

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClassifyLabel(t *testing.T) {
	tests := []struct {
		label     string
		wantType  DeviceType
		wantScore int
	}{
		{"Back Macro Camera", DeviceMacro, 0},
		{"camera2 0, facing back 微距", DeviceMacro, 0},
		{"Ultrawide Camera", DeviceUltrawide, 1},
		{"Rear Telephoto Camera", DeviceTelephoto, 2},
		{"後置鏡頭", DeviceBack, 3},
		{"FaceTime HD Camera", DeviceOther, UnrankedScore},
		{"", DeviceOther, UnrankedScore},
	}

	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			typ, score := ClassifyLabel(tc.label)
			if typ != tc.wantType || score != tc.wantScore {
				t.Errorf("ClassifyLabel(%q) = (%s, %d), want (%s, %d)",
					tc.label, typ, score, tc.wantType, tc.wantScore)
			}
		})
	}
}

func TestRankDevices(t *testing.T) {
	devices := []Device{
		{ID: "0", Label: "Front Camera", Kind: KindVideoInput},
		{ID: "1", Label: "Back Camera", Kind: KindVideoInput},
		{ID: "mic", Label: "Back Microphone", Kind: "audioinput"},
		{ID: "2", Label: "Back Macro Camera", Kind: KindVideoInput},
		{ID: "3", Label: "USB Webcam", Kind: KindVideoInput},
	}

	ranked := RankDevices(devices)
	if len(ranked) != 4 {
		t.Fatalf("got %d ranked devices, want 4 (audio filtered)", len(ranked))
	}

	wantOrder := []string{"2", "1", "0", "3"}
	for i, id := range wantOrder {
		if ranked[i].Device.ID != id {
			t.Errorf("position %d: got device %s, want %s", i, ranked[i].Device.ID, id)
		}
	}
	if ranked[0].Type != DeviceMacro {
		t.Errorf("first device type = %s, want macro", ranked[0].Type)
	}
}

func TestEnumerateV4L2(t *testing.T) {
	root := t.TempDir()
	for name, label := range map[string]string{
		"video2": "Back Macro\n",
		"video0": "Integrated Camera\n",
		"vbi0":   "ignored\n",
	} {
		dir := filepath.Join(root, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "name"), []byte(label), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(root, "video1"), 0o755); err != nil {
		t.Fatal(err)
	}

	devices, err := EnumerateV4L2(root)
	if err != nil {
		t.Fatalf("EnumerateV4L2 failed: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("got %d devices, want 3", len(devices))
	}

	want := []Device{
		{ID: "0", Label: "Integrated Camera", Kind: KindVideoInput},
		{ID: "1", Label: "video1", Kind: KindVideoInput},
		{ID: "2", Label: "Back Macro", Kind: KindVideoInput},
	}
	for i := range want {
		if devices[i] != want[i] {
			t.Errorf("device %d = %+v, want %+v", i, devices[i], want[i])
		}
	}
}

func TestEnumerateV4L2_MissingRoot(t *testing.T) {
	devices, err := EnumerateV4L2(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(devices) != 0 {
		t.Errorf("expected no devices, got %d", len(devices))
	}
}
