package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const ticketIssuer = "tcgp-draft"

// TicketClaims binds a seat ticket to one player name in one room.
type TicketClaims struct {
	RoomID string `json:"room"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Tickets issues and validates HS256 seat tickets.
type Tickets struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTickets creates a ticket issuer. secret must not be empty.
func NewTickets(secret []byte, ttl time.Duration) (*Tickets, error) {
	if len(secret) == 0 {
		return nil, errors.New("ticket secret is empty")
	}
	return &Tickets{secret: secret, ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed ticket for name in roomID.
func (t *Tickets) Issue(roomID, name string) (string, error) {
	now := t.now()
	claims := TicketClaims{
		RoomID: roomID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ticketIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}
	return signed, nil
}

// Parse validates a ticket and returns its claims.
func (t *Tickets) Parse(ticket string) (*TicketClaims, error) {
	claims := &TicketClaims{}
	token, err := jwt.ParseWithClaims(ticket, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithIssuer(ticketIssuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
		jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid ticket")
	}
	return claims, nil
}

// Verify checks that ticket was issued for name in roomID.
func (t *Tickets) Verify(ticket, roomID, name string) error {
	claims, err := t.Parse(ticket)
	if err != nil {
		return err
	}
	if claims.RoomID != roomID || claims.Name != name {
		return fmt.Errorf("ticket issued for %s in %s", claims.Name, claims.RoomID)
	}
	return nil
}
