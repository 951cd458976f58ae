package metrics

import (
	"errors"
	"testing"
)

func TestObserveDeviceWrite(t *testing.T) {
	before := Get()

	ObserveDeviceWrite(WriteEffect, nil)
	ObserveDeviceWrite(WriteApply, nil)
	ObserveDeviceWrite(WriteSet, errors.New("EIO"))

	after := Get()
	if got := after.DeviceWrites - before.DeviceWrites; got != 2 {
		t.Errorf("DeviceWrites delta = %d, want 2", got)
	}
	if got := after.DeviceWriteFailures - before.DeviceWriteFailures; got != 1 {
		t.Errorf("DeviceWriteFailures delta = %d, want 1", got)
	}
}

func TestObserveConfigWrite(t *testing.T) {
	before := Get()

	ObserveConfigWrite(nil)
	ObserveConfigWrite(errors.New("read-only file system"))

	after := Get()
	if got := after.ConfigWrites - before.ConfigWrites; got != 1 {
		t.Errorf("ConfigWrites delta = %d, want 1", got)
	}
	if got := after.ConfigWriteFailures - before.ConfigWriteFailures; got != 1 {
		t.Errorf("ConfigWriteFailures delta = %d, want 1", got)
	}
}

func TestWatchSkipAndBrightness(t *testing.T) {
	before := Get()

	IncWatchSkip()
	SetBrightness(3)

	after := Get()
	if got := after.WatchSkips - before.WatchSkips; got != 1 {
		t.Errorf("WatchSkips delta = %d, want 1", got)
	}
	if after.Brightness != 3 {
		t.Errorf("Brightness = %d, want 3", after.Brightness)
	}
}
