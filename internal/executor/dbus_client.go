package executor

import (
	"context"

	"github.com/godbus/dbus/v5"
)

const (
	fileManagerName      = "org.freedesktop.FileManager1"
	fileManagerPath      = "/org/freedesktop/FileManager1"
	fileManagerShowItems = fileManagerName + ".ShowItems"
)

// DBusClient defines the D-Bus calls the executor makes.
// This abstraction allows us to mock D-Bus interactions in tests.
//
//go:generate mockgen -destination=mocks/dbus_client_mock.go -package=mocks github.com/genricoloni/wallcycle/internal/executor DBusClient
type DBusClient interface {
	// ShowItems asks the desktop file manager to select the given file URIs
	ShowItems(ctx context.Context, uris []string) error

	// Close closes the D-Bus connection
	Close() error
}

// StdDBusClient is the real implementation using godbus
type StdDBusClient struct {
	conn *dbus.Conn
}

// NewStdDBusClient creates a real D-Bus client connected to the session bus
func NewStdDBusClient() (*StdDBusClient, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	return &StdDBusClient{conn: conn}, nil
}

// ShowItems calls org.freedesktop.FileManager1.ShowItems
func (c *StdDBusClient) ShowItems(ctx context.Context, uris []string) error {
	obj := c.conn.Object(fileManagerName, dbus.ObjectPath(fileManagerPath))
	return obj.CallWithContext(ctx, fileManagerShowItems, 0, uris, "").Err
}

// Close closes the D-Bus connection
func (c *StdDBusClient) Close() error {
	return c.conn.Close()
}
