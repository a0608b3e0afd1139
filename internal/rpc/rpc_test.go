package rpc

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"aprsinjector/internal/beacon"
	"aprsinjector/internal/store"
)

type fakeSender struct {
	mu      sync.Mutex
	indices []int
	err     error
}

func (f *fakeSender) SendNow(ctx context.Context, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indices = append(f.indices, index)
	return f.err
}

func (f *fakeSender) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSender) sent() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.indices...)
}

func startTestServer(t *testing.T, sender Sender) *Client {
	t.Helper()
	dir := t.TempDir()

	db, err := store.New(filepath.Join(dir, "test.db"), beacon.TransmitConfig{Callsign: "NOCALL", Server: "euro.aprs2.net", Port: 14580}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	socket := filepath.Join(dir, "admin.sock")
	if err := StartServer(ctx, socket, db, sender, zerolog.Nop()); err != nil {
		t.Fatalf("start server: %v", err)
	}

	client, err := NewClient(socket)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRPC_BeaconLifecycle(t *testing.T) {
	client := startTestServer(t, &fakeSender{})

	for _, name := range []string{"Home", "Digi"} {
		if _, err := client.AddBeacon(beacon.Beacon{Name: name, Lat: 51, Lon: 7, Active: true}); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}

	active, err := client.ToggleBeacon(1)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if active {
		t.Error("expected Digi to be inactive after toggle")
	}

	if err := client.UpdateBeacon(0, beacon.Beacon{Name: "Home QTH", Type: beacon.TypeObject, Active: true}); err != nil {
		t.Fatalf("update: %v", err)
	}

	beacons, err := client.ListBeacons()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(beacons) != 2 {
		t.Fatalf("expected 2 beacons, got %d", len(beacons))
	}
	if beacons[0].Name != "Home QTH" || beacons[0].Type != beacon.TypeObject {
		t.Errorf("beacon 0: got %+v", beacons[0])
	}
	if beacons[1].Active {
		t.Error("beacon 1 should be inactive")
	}

	if err := client.DeleteBeacon(0); err != nil {
		t.Fatalf("delete: %v", err)
	}
	beacons, _ = client.ListBeacons()
	if len(beacons) != 1 || beacons[0].Name != "Digi" {
		t.Errorf("after delete: got %+v", beacons)
	}
}

func TestRPC_ReplaceBeacons(t *testing.T) {
	client := startTestServer(t, &fakeSender{})

	client.AddBeacon(beacon.Beacon{Name: "old"})
	if err := client.ReplaceBeacons([]beacon.Beacon{{Name: "a"}, {Name: "b"}}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	beacons, err := client.ListBeacons()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(beacons) != 2 || beacons[0].Name != "a" || beacons[1].Name != "b" {
		t.Errorf("beacons: got %+v", beacons)
	}
}

func TestRPC_Station(t *testing.T) {
	client := startTestServer(t, &fakeSender{})

	cfg, err := client.GetStation()
	if err != nil {
		t.Fatalf("get station: %v", err)
	}
	if cfg.Callsign != "NOCALL" || cfg.Port != 14580 {
		t.Errorf("default station: got %+v", cfg)
	}

	want := beacon.TransmitConfig{Callsign: "DL1ABC", Passcode: "12345", Server: "rotate.aprs2.net", Port: 14580}
	if err := client.SetStation(want); err != nil {
		t.Fatalf("set station: %v", err)
	}
	got, _ := client.GetStation()
	if got != want {
		t.Errorf("station: got %+v, want %+v", got, want)
	}
}

func TestRPC_SendNow(t *testing.T) {
	sender := &fakeSender{}
	client := startTestServer(t, sender)

	if err := client.SendNow(3); err != nil {
		t.Fatalf("send now: %v", err)
	}
	if got := sender.sent(); len(got) != 1 || got[0] != 3 {
		t.Errorf("indices: got %v, want [3]", got)
	}

	sender.fail(errors.New("aprs-is open euro.aprs2.net:14580 as NOCALL: login unverified"))
	err := client.SendNow(0)
	if err == nil || !strings.Contains(err.Error(), "login unverified") {
		t.Errorf("expected send error to reach the client, got %v", err)
	}
}

func TestRPC_IndexErrorsReachClient(t *testing.T) {
	client := startTestServer(t, &fakeSender{})

	err := client.DeleteBeacon(0)
	if err == nil || !strings.Contains(err.Error(), beacon.ErrNoSuchBeacon.Error()) {
		t.Errorf("expected no such beacon error, got %v", err)
	}
}
