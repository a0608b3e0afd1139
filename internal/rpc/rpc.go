// Package rpc provides Unix socket IPC between the aprsinjector daemon and
// its admin subcommands.
package rpc

import (
	"context"
	"fmt"
	"net"
	netrpc "net/rpc"
	"os"
	"time"

	"github.com/rs/zerolog"

	"aprsinjector/internal/beacon"
	"aprsinjector/internal/store"
)

// sendTimeout bounds an on-demand send triggered over RPC.
const sendTimeout = 30 * time.Second

// Sender dispatches a stored beacon immediately.
type Sender interface {
	SendNow(ctx context.Context, index int) error
}

// Service is the RPC service exposed by the daemon.
type Service struct {
	store  *store.Store
	sender Sender
	log    zerolog.Logger
}

// Empty is used where a call carries no arguments or reply.
type Empty struct{}

// IndexArgs addresses one beacon by position.
type IndexArgs struct {
	Index int
}

// BeaconsReply carries the beacon list.
type BeaconsReply struct {
	Beacons []beacon.Beacon
}

// AddBeaconArgs is the request for AddBeacon.
type AddBeaconArgs struct {
	Beacon beacon.Beacon
}

// AddBeaconReply is the response for AddBeacon.
type AddBeaconReply struct {
	Index int
}

// UpdateBeaconArgs is the request for UpdateBeacon.
type UpdateBeaconArgs struct {
	Index  int
	Beacon beacon.Beacon
}

// ToggleBeaconReply is the response for ToggleBeacon.
type ToggleBeaconReply struct {
	Active bool
}

// ReplaceBeaconsArgs is the request for ReplaceBeacons.
type ReplaceBeaconsArgs struct {
	Beacons []beacon.Beacon
}

// StationArgs and StationReply carry the station config.
type StationArgs struct {
	Station beacon.TransmitConfig
}

type StationReply struct {
	Station beacon.TransmitConfig
}

// ListBeacons returns all beacons in order.
func (s *Service) ListBeacons(args *Empty, reply *BeaconsReply) error {
	beacons, err := s.store.LoadBeacons()
	if err != nil {
		return fmt.Errorf("listing beacons: %w", err)
	}
	reply.Beacons = beacons
	return nil
}

// AddBeacon appends a beacon.
func (s *Service) AddBeacon(args *AddBeaconArgs, reply *AddBeaconReply) error {
	index, err := s.store.AddBeacon(args.Beacon)
	if err != nil {
		return err
	}
	reply.Index = index
	return nil
}

// UpdateBeacon replaces the beacon at args.Index.
func (s *Service) UpdateBeacon(args *UpdateBeaconArgs, reply *Empty) error {
	return s.store.UpdateBeacon(args.Index, args.Beacon)
}

// ToggleBeacon flips the active flag of the beacon at args.Index.
func (s *Service) ToggleBeacon(args *IndexArgs, reply *ToggleBeaconReply) error {
	active, err := s.store.ToggleBeacon(args.Index)
	if err != nil {
		return err
	}
	reply.Active = active
	return nil
}

// DeleteBeacon removes the beacon at args.Index.
func (s *Service) DeleteBeacon(args *IndexArgs, reply *Empty) error {
	return s.store.DeleteBeacon(args.Index)
}

// ReplaceBeacons overwrites the whole beacon list.
func (s *Service) ReplaceBeacons(args *ReplaceBeaconsArgs, reply *Empty) error {
	return s.store.SaveBeacons(args.Beacons)
}

// SendNow transmits the beacon at args.Index once, outside the schedule.
func (s *Service) SendNow(args *IndexArgs, reply *Empty) error {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	s.log.Info().Int("index", args.Index).Msg("On-demand send requested")
	return s.sender.SendNow(ctx, args.Index)
}

// GetStation returns the station config in effect.
func (s *Service) GetStation(args *Empty, reply *StationReply) error {
	cfg, err := s.store.LoadConfig()
	if err != nil {
		return err
	}
	reply.Station = cfg
	return nil
}

// SetStation saves the station config.
func (s *Service) SetStation(args *StationArgs, reply *Empty) error {
	return s.store.SaveConfig(args.Station)
}

// StartServer starts the Unix socket RPC server. It stops accepting when
// ctx is cancelled.
func StartServer(ctx context.Context, socketPath string, db *store.Store, sender Sender, log zerolog.Logger) error {
	service := &Service{store: db, sender: sender, log: log}

	server := netrpc.NewServer()
	if err := server.Register(service); err != nil {
		return fmt.Errorf("registering RPC service: %w", err)
	}

	// Remove existing socket file if present
	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", socketPath, err)
	}

	// Set socket permissions
	if err := os.Chmod(socketPath, 0660); err != nil {
		log.Warn().Err(err).Msg("Failed to set socket permissions")
	}

	log.Info().Str("socket", socketPath).Msg("RPC server started")

	context.AfterFunc(ctx, func() {
		listener.Close()
	})

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Error().Err(err).Msg("RPC accept error")
				continue
			}
			go server.ServeConn(conn)
		}
	}()

	return nil
}

// Client is a client for the aprsinjector RPC service.
type Client struct {
	client *netrpc.Client
}

// NewClient dials the Unix socket and returns an RPC client.
func NewClient(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to RPC socket %s: %w", socketPath, err)
	}
	return &Client{client: netrpc.NewClient(conn)}, nil
}

// Close closes the RPC client connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// ListBeacons fetches all beacons from the daemon.
func (c *Client) ListBeacons() ([]beacon.Beacon, error) {
	reply := &BeaconsReply{}
	if err := c.client.Call("Service.ListBeacons", &Empty{}, reply); err != nil {
		return nil, err
	}
	return reply.Beacons, nil
}

// AddBeacon appends b and returns its index.
func (c *Client) AddBeacon(b beacon.Beacon) (int, error) {
	reply := &AddBeaconReply{}
	if err := c.client.Call("Service.AddBeacon", &AddBeaconArgs{Beacon: b}, reply); err != nil {
		return 0, err
	}
	return reply.Index, nil
}

// UpdateBeacon replaces the beacon at index.
func (c *Client) UpdateBeacon(index int, b beacon.Beacon) error {
	return c.client.Call("Service.UpdateBeacon", &UpdateBeaconArgs{Index: index, Beacon: b}, &Empty{})
}

// ToggleBeacon flips the beacon at index and returns its new state.
func (c *Client) ToggleBeacon(index int) (bool, error) {
	reply := &ToggleBeaconReply{}
	if err := c.client.Call("Service.ToggleBeacon", &IndexArgs{Index: index}, reply); err != nil {
		return false, err
	}
	return reply.Active, nil
}

// DeleteBeacon removes the beacon at index.
func (c *Client) DeleteBeacon(index int) error {
	return c.client.Call("Service.DeleteBeacon", &IndexArgs{Index: index}, &Empty{})
}

// ReplaceBeacons overwrites the beacon list.
func (c *Client) ReplaceBeacons(beacons []beacon.Beacon) error {
	return c.client.Call("Service.ReplaceBeacons", &ReplaceBeaconsArgs{Beacons: beacons}, &Empty{})
}

// SendNow asks the daemon to transmit the beacon at index immediately.
func (c *Client) SendNow(index int) error {
	return c.client.Call("Service.SendNow", &IndexArgs{Index: index}, &Empty{})
}

// GetStation fetches the station config.
func (c *Client) GetStation() (beacon.TransmitConfig, error) {
	reply := &StationReply{}
	if err := c.client.Call("Service.GetStation", &Empty{}, reply); err != nil {
		return beacon.TransmitConfig{}, err
	}
	return reply.Station, nil
}

// SetStation saves the station config.
func (c *Client) SetStation(cfg beacon.TransmitConfig) error {
	return c.client.Call("Service.SetStation", &StationArgs{Station: cfg}, &Empty{})
}
