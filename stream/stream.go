// Package stream broadcasts freshly generated invaders to websocket clients
// and serves rendered pictures over HTTP.
package stream

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tmpim/invader"
)

// Subscription is a set of packet kinds a client wants to receive.
type Subscription uint32

// Possible subscription flags.
const (
	SubscriptionImage = Subscription(1 << iota)
	SubscriptionSprite
	SubscriptionMetadata
	SubscriptionAll = Subscription(0)
)

// Possible packet types, sent as the first byte of every binary message.
const (
	PacketImage = iota + 1
	PacketSprite
	PacketMetadata
	PacketPause
	PacketStop
)

// Possible producer states.
const (
	StateStopped = iota + 1
	StatePaused
	StatePlaying
)

// DefaultInterval is the time between two invaders.
const DefaultInterval = 2 * time.Second

// WebsocketControl is the message clients send to (re)subscribe.
type WebsocketControl struct {
	ID           string `json:"id"`
	Subscription uint32 `json:"subscription"`
}

// IsSubscribedTo returns whether or not the client subscription is subscribed
// to the given subscription.
func (s Subscription) IsSubscribedTo(sub Subscription) bool {
	return (s & sub) == sub
}

// Client is a websocket connected client.
type Client struct {
	mutex         *sync.Mutex
	id            string
	conn          *websocket.Conn
	subscriptions Subscription
}

func (c *Client) send(data []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, data)
}

// State is the producer state reported to clients.
type State struct {
	State    int
	Produced uint64
	Seed     int64
	Interval time.Duration
}

func (s State) MarshalJSON() ([]byte, error) {
	type stateJSON struct {
		State    int    `json:"state"`
		Produced uint64 `json:"produced"`
		Seed     int64  `json:"seed"`
		Interval int64  `json:"intervalMs"`
	}

	return json.Marshal(stateJSON{
		State:    s.State,
		Produced: s.Produced,
		Seed:     s.Seed,
		Interval: s.Interval.Milliseconds(),
	})
}

// Manager produces invaders at a fixed interval and broadcasts them to the
// connected clients.
type Manager struct {
	clientsMutex *sync.Mutex
	clients      []*Client

	stateMutex *sync.Mutex
	state      State
	cancel     func()

	opts   invader.Options
	logger *log.Logger
}

// NewManager returns a stopped manager rendering with opts. opts.Seed is the
// seed of the first invader, each following one adds one.
func NewManager(opts invader.Options, interval time.Duration, logger *log.Logger) *Manager {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}

	return &Manager{
		clientsMutex: new(sync.Mutex),
		stateMutex:   new(sync.Mutex),
		state: State{
			State:    StateStopped,
			Seed:     opts.Seed,
			Interval: interval,
		},
		opts:   opts,
		logger: logger,
	}
}

// Options returns the render options the manager was created with.
func (s *Manager) Options() invader.Options {
	return s.opts
}

// State returns a copy of the current state.
func (s *Manager) State() State {
	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()
	return s.state
}

// Clients returns the number of connected clients.
func (s *Manager) Clients() int {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()
	return len(s.clients)
}

// Broadcast sends data to every client subscribed to sub.
func (s *Manager) Broadcast(sub Subscription, data ...[]byte) {
	s.clientsMutex.Lock()
	clientCopy := make([]*Client, len(s.clients))
	copy(clientCopy, s.clients)
	s.clientsMutex.Unlock()

	for _, client := range clientCopy {
		client.mutex.Lock()
		subscribed := client.subscriptions.IsSubscribedTo(sub)
		client.mutex.Unlock()
		if !subscribed {
			continue
		}

		for _, d := range data {
			if err := client.send(d); err != nil {
				s.logger.Println("invader stream: broadcast to", client.id, "failed:", err)
				break
			}
		}
	}
}

func (s *Manager) metadataPacket() []byte {
	d, err := s.State().MarshalJSON()
	if err != nil {
		s.logger.Println("invader stream: error encoding state JSON:", err)
		return nil
	}
	return append([]byte{PacketMetadata}, d...)
}

// HandleConn serves a websocket client until it disconnects.
func (s *Manager) HandleConn(conn *websocket.Conn) {
	s.clientsMutex.Lock()
	client := &Client{
		mutex:         new(sync.Mutex),
		conn:          conn,
		subscriptions: 0,
	}
	s.clients = append(s.clients, client)
	s.clientsMutex.Unlock()

	defer func() {
		s.clientsMutex.Lock()
		defer s.clientsMutex.Unlock()

		for i, c := range s.clients {
			if c == client {
				s.clients = append(s.clients[:i], s.clients[i+1:]...)
				return
			}
		}
	}()

	for {
		msgType, data, err := client.conn.ReadMessage()
		if err != nil {
			s.logger.Println("invader stream: client disconnected:", err)
			return
		}

		if msgType != websocket.BinaryMessage && msgType != websocket.TextMessage {
			continue
		}

		var controlMsg WebsocketControl
		err = json.Unmarshal(data, &controlMsg)
		if err != nil {
			s.logger.Println("invader stream: failed to unmarshal control message:", err)
			continue
		}

		client.mutex.Lock()
		client.id = controlMsg.ID
		client.subscriptions = Subscription(controlMsg.Subscription)
		client.mutex.Unlock()

		if client.subscriptions.IsSubscribedTo(SubscriptionMetadata) {
			if packet := s.metadataPacket(); packet != nil {
				client.send(packet)
			}
		}
	}
}

// UpdateState moves to state if the current state is one of requiredStates
// and tells every client about it.
func (s *Manager) UpdateState(state int, requiredStates []int) bool {
	return s.transition(state, requiredStates, nil)
}

// transition is UpdateState that also swaps the producer's cancel func in
// the same critical section as the state: cancel is installed when given,
// and the previous one is called when moving to StateStopped.
func (s *Manager) transition(state int, requiredStates []int, cancel func()) bool {
	s.stateMutex.Lock()

	matched := false
	for _, required := range requiredStates {
		if s.state.State == required {
			matched = true
		}
	}

	if !matched {
		s.stateMutex.Unlock()
		return false
	}

	prevState := s.state.State
	s.state.State = state

	var stop func()
	if state == StateStopped {
		stop, s.cancel = s.cancel, nil
	}
	if cancel != nil {
		s.cancel = cancel
	}
	s.stateMutex.Unlock()

	if stop != nil {
		stop()
	}

	s.logger.Println("invader stream: state updated from", prevState, "to", state)

	if packet := s.metadataPacket(); packet != nil {
		s.Broadcast(SubscriptionAll, packet)
	}

	if state == StatePaused && prevState == StatePlaying {
		s.Broadcast(SubscriptionAll, []byte{PacketPause})
	} else if state == StateStopped {
		s.Broadcast(SubscriptionAll, []byte{PacketStop})
	}

	return true
}

// Close stops the producer, if any.
func (s *Manager) Close() {
	s.Stop()
}

// baseContext returns the base context of the renders.
func (s *Manager) baseContext() context.Context {
	if s.opts.Context == nil {
		return context.Background()
	}
	return s.opts.Context
}
