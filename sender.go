package videocast

import (
	"fmt"
	"net"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Sender writes datagrams to a fixed destination.
type Sender interface {
	Send(datagram []byte) error
	Close() error
}

// UDPSender sends datagrams to one UDP endpoint over a connected socket.
type UDPSender struct {
	conn *net.UDPConn
	addr *net.UDPAddr
}

// ResolveEndpoint resolves an IPv4 host literal and port into a UDP address.
func ResolveEndpoint(host string, port int) (*net.UDPAddr, error) {
	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("%w: host %q is not an IPv4 literal", ErrInvalidConfig, host)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, port)
	}
	return &net.UDPAddr{IP: ip.To4(), Port: port}, nil
}

// NewUDPSender opens a socket towards host:port.
func NewUDPSender(host string, port int) (*UDPSender, error) {
	addr, err := ResolveEndpoint(host, port)
	if err != nil {
		return nil, err
	}

	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewUDPSender",
			"address":  net.JoinHostPort(host, strconv.Itoa(port)),
			"error":    err.Error(),
		}).Error("Failed to open UDP socket")
		return nil, fmt.Errorf("open udp socket: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "NewUDPSender",
		"local_addr":  conn.LocalAddr().String(),
		"remote_addr": addr.String(),
	}).Debug("UDP socket opened")

	return &UDPSender{conn: conn, addr: addr}, nil
}

// Send writes one datagram. Errors are returned to the caller, which
// decides whether to count or ignore them; nothing is retried.
func (s *UDPSender) Send(datagram []byte) error {
	_, err := s.conn.Write(datagram)
	return err
}

// RemoteAddr returns the destination endpoint.
func (s *UDPSender) RemoteAddr() *net.UDPAddr {
	return s.addr
}

// Close closes the socket.
func (s *UDPSender) Close() error {
	return s.conn.Close()
}
