// Package discovery enumerates serial ports that may have a device attached.
package discovery

import (
	"errors"
	"strings"

	"go.bug.st/serial/enumerator"
)

// Port is one candidate serial device. Purely informational; picking one is
// up to the caller.
type Port struct {
	Name        string
	Description string
	USB         bool
}

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]Port, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	ports := make([]Port, 0, len(details))
	for _, d := range details {
		desc := d.Product
		if desc == "" {
			desc = d.Name
		}
		ports = append(ports, Port{Name: d.Name, Description: desc, USB: d.IsUSB})
	}
	return ports, nil
}

// FindDevice guesses which port the analyzer is on: the first USB serial
// device, or failing that the first port at all.
func FindDevice() (string, error) {
	ports, err := ListPorts()
	if err != nil {
		return "", err
	}
	for _, p := range ports {
		if p.USB || strings.Contains(p.Description, "USB") {
			return p.Name, nil
		}
	}
	if len(ports) > 0 {
		return ports[0].Name, nil
	}
	return "", errors.New("discovery: no serial ports found")
}
