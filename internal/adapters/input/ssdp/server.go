// Package ssdp implements the SSDP Responder (spec.md §4.B): periodic
// NOTIFY ssdp:alive beacons and unicast M-SEARCH replies on UDP/1900,
// grounded on the teacher's minimal multicast listener and expanded to the
// full advertise/reply/byebye contract.
package ssdp

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"echo-hue-bridge/internal/domain/model"
)

const (
	multicastAddr  = "239.255.255.250:1900"
	defaultAdWait  = 30 * time.Second
	maxReplyDelay  = 3 * time.Second
	readBufferSize = 2048
)

type line struct {
	nt  string
	usn string
}

// Server owns the UDP multicast socket for one hub.
type Server struct {
	hub        *model.Hub
	port       int
	adInterval time.Duration
	logger     zerolog.Logger

	mu   sync.Mutex
	conn *net.UDPConn

	wg   sync.WaitGroup
	done chan struct{}
}

func NewServer(hub *model.Hub, port int, adInterval time.Duration, logger zerolog.Logger) *Server {
	if adInterval <= 0 {
		adInterval = defaultAdWait
	}
	return &Server{
		hub:        hub,
		port:       port,
		adInterval: adInterval,
		logger:     logger,
	}
}

// Start binds the multicast socket and launches the advertise and receive
// loops. Per spec.md §4.B, a bind failure is surfaced to the caller but is
// not fatal to the hub: the HTTP side still starts.
func (s *Server) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp4", multicastAddr)
	if err != nil {
		return fmt.Errorf("ssdp: resolve multicast addr: %w", err)
	}
	conn, err := net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		return fmt.Errorf("ssdp: bind multicast socket: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.done = make(chan struct{})

	s.wg.Add(2)
	go s.advertiseLoop(ctx)
	go s.receiveLoop(ctx)
	return nil
}

// Shutdown sends ssdp:byebye for every line, then releases the socket.
// Callers should bound ctx to spec.md §5's 5 s shutdown grace period.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return nil
	}

	s.sendByebye()
	close(s.done)
	_ = conn.Close()

	waited := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-ctx.Done():
	}
	return nil
}

func (s *Server) lines() []line {
	uuid := s.hub.BridgeUUID()
	return []line{
		{nt: "upnp:rootdevice", usn: "uuid:" + uuid + "::upnp:rootdevice"},
		{nt: "urn:schemas-upnp-org:device:basic:1", usn: "uuid:" + uuid + "::urn:schemas-upnp-org:device:basic:1"},
		{nt: "urn:schemas-upnp-org:device:PhilipsHueBridge:1", usn: "uuid:" + uuid + "::urn:schemas-upnp-org:device:PhilipsHueBridge:1"},
		{nt: "uuid:" + uuid, usn: "uuid:" + uuid},
	}
}

func (s *Server) advertiseLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.adInterval)
	defer ticker.Stop()

	s.sendAlive()
	for {
		select {
		case <-ticker.C:
			s.sendAlive()
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) sendAlive() {
	for _, l := range s.lines() {
		s.sendMulticast(s.notifyMessage(l, "ssdp:alive"))
	}
}

func (s *Server) sendByebye() {
	for _, l := range s.lines() {
		s.sendMulticast(s.notifyMessage(l, "ssdp:byebye"))
	}
}

func (s *Server) notifyMessage(l line, nts string) string {
	return "NOTIFY * HTTP/1.1\r\n" +
		"HOST: " + multicastAddr + "\r\n" +
		"CACHE-CONTROL: max-age=100\r\n" +
		"LOCATION: " + s.location() + "\r\n" +
		"SERVER: Linux/3.14.0 UPnP/1.0 PhilipsHue/1.0\r\n" +
		"hue-bridgeid: " + s.hub.HueBridgeID() + "\r\n" +
		"BRIDGEID: " + s.hub.HueBridgeID() + "\r\n" +
		"NTS: " + nts + "\r\n" +
		"NT: " + l.nt + "\r\n" +
		"USN: " + l.usn + "\r\n\r\n"
}

func (s *Server) location() string {
	return fmt.Sprintf("http://%s:%d/description.xml", s.hub.IP, s.port)
}

func (s *Server) sendMulticast(msg string) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return
	}
	addr, err := net.ResolveUDPAddr("udp4", multicastAddr)
	if err != nil {
		return
	}
	if _, err := conn.WriteToUDP([]byte(msg), addr); err != nil {
		s.logger.Warn().Err(err).Msg("ssdp: failed to send multicast advertisement")
	}
}

func (s *Server) receiveLoop(ctx context.Context) {
	defer s.wg.Done()
	buf := make([]byte, readBufferSize)
	for {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return
		}
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.done:
				return
			case <-ctx.Done():
				return
			default:
				continue
			}
		}
		receivedAt := time.Now()
		data := make([]byte, n)
		copy(data, buf[:n])
		go s.handleDatagram(data, src, receivedAt)
	}
}

func (s *Server) handleDatagram(data []byte, src *net.UDPAddr, receivedAt time.Time) {
	st, mx, ok := parseMSearch(data)
	if !ok {
		return
	}
	matches := s.matchingLines(st)
	if len(matches) == 0 {
		return
	}

	delayMax := mx
	if delayMax > int(maxReplyDelay/time.Second) {
		delayMax = int(maxReplyDelay / time.Second)
	}
	if delayMax > 0 {
		delay := time.Duration(rand.Float64() * float64(delayMax) * float64(time.Second))
		time.Sleep(delay)
	}

	// SSDP M-SEARCH replies that exceed their MX window are dropped
	// rather than sent late (spec.md §5).
	if time.Since(receivedAt) > time.Duration(mx)*time.Second {
		return
	}

	for _, m := range matches {
		s.sendSearchReply(src, m)
	}
}

func (s *Server) matchingLines(st string) []line {
	uuid := s.hub.BridgeUUID()
	all := s.lines()

	switch st {
	case "ssdp:all":
		return all
	case "upnp:rootdevice":
		return all[0:1]
	case "urn:schemas-upnp-org:device:basic:1":
		return all[1:2]
	case "urn:schemas-upnp-org:device:PhilipsHueBridge:1", "urn:philips-hue:device:bridge:1":
		return []line{{nt: st, usn: "uuid:" + uuid + "::" + st}}
	case "uuid:" + uuid:
		return all[3:4]
	default:
		return nil
	}
}

func (s *Server) sendSearchReply(dest *net.UDPAddr, l line) {
	conn, err := net.DialUDP("udp4", nil, dest)
	if err != nil {
		s.logger.Warn().Err(err).Msg("ssdp: failed to dial unicast reply")
		return
	}
	defer conn.Close()

	resp := "HTTP/1.1 200 OK\r\n" +
		"CACHE-CONTROL: max-age=100\r\n" +
		"EXT:\r\n" +
		"LOCATION: " + s.location() + "\r\n" +
		"SERVER: Linux/3.14.0 UPnP/1.0 PhilipsHue/1.0\r\n" +
		"hue-bridgeid: " + s.hub.HueBridgeID() + "\r\n" +
		"BRIDGEID: " + s.hub.HueBridgeID() + "\r\n" +
		"ST: " + l.nt + "\r\n" +
		"USN: " + l.usn + "\r\n\r\n"

	if _, err := conn.Write([]byte(resp)); err != nil {
		s.logger.Warn().Err(err).Msg("ssdp: failed to write unicast reply")
	}
}

// parseMSearch extracts ST and MX from an inbound M-SEARCH datagram. MX
// defaults to 3 when absent, matching the [0, min(MX,3)] reply-delay rule.
func parseMSearch(data []byte) (st string, mx int, ok bool) {
	lines := strings.Split(string(data), "\r\n")
	if len(lines) == 0 || !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(lines[0])), "M-SEARCH") {
		return "", 0, false
	}
	mx = 3
	for _, l := range lines[1:] {
		parts := strings.SplitN(l, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(parts[0]))
		val := strings.TrimSpace(parts[1])
		switch key {
		case "ST":
			st = val
		case "MX":
			if n, err := strconv.Atoi(val); err == nil {
				mx = n
			}
		}
	}
	if st == "" {
		return "", 0, false
	}
	return st, mx, true
}
