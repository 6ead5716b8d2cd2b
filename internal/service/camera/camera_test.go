package camera

import "testing"

func TestDeviceIndex(t *testing.T) {
	tests := []struct {
		path  string
		index int
		ok    bool
	}{
		{"/dev/video0", 0, true},
		{"/dev/video12", 12, true},
		{"3", 3, true},
		{"/dev/v4l/by-id/usb-Microsoft_LifeCam-video-index0", 0, false},
		{"/dev/video-1", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		index, ok := deviceIndex(tt.path)
		if index != tt.index || ok != tt.ok {
			t.Errorf("deviceIndex(%q) = %d, %v; expected %d, %v", tt.path, index, ok, tt.index, tt.ok)
		}
	}
}
