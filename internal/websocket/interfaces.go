package websocket

import (
	"context"
	"time"

	"gdpwaterfall/pkg/contracts/domain"
)

// Connection is the part of *websocket.Conn the client pumps use
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	RemoteAddr() string
}

// ChartProvider answers the selections clients make
type ChartProvider interface {
	Countries(ctx context.Context) (domain.CountryList, error)
	Waterfall(ctx context.Context, country string) (*domain.WaterfallChart, error)
}
