package audio

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

var ErrPickerCancelled = errors.New("device selection cancelled")

// FindDevice returns the first capture device whose name contains name
// (case-insensitive). An empty name selects the system default (nil).
func FindDevice(ctx Context, name string) (*DeviceInfo, error) {
	if name == "" {
		return nil, nil
	}
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	want := strings.ToLower(name)
	for i := range devices {
		if strings.Contains(strings.ToLower(devices[i].Name), want) {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("no capture device matching %q", name)
}

// SelectDevice runs an arrow-key picker on the terminal. The first row is
// the system default, which returns a nil device.
func SelectDevice(ctx Context) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no capture devices found")
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	rows := len(devices) + 1
	cursor := 0
	render := func() {
		fmt.Print("\r\x1b[J")
		fmt.Print("Select microphone (↑/↓ or j/k, Enter to confirm, q to cancel):\r\n\r\n")
		for i := 0; i < rows; i++ {
			label := "System default"
			if i > 0 {
				label = devices[i-1].Name
				if IsBluetooth(label) {
					label += " \x1b[33m[bluetooth: lower recognition quality]\x1b[0m"
				}
			}
			if i == cursor {
				fmt.Printf("  \x1b[1;36m▶ %s\x1b[0m\r\n", label)
			} else {
				fmt.Printf("    %s\r\n", label)
			}
		}
	}
	render()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}

		switch {
		case n == 1 && buf[0] == '\r':
			fmt.Print("\r\n")
			if cursor == 0 {
				return nil, nil
			}
			return &devices[cursor-1], nil
		case n == 1 && (buf[0] == 3 || buf[0] == 'q'):
			fmt.Print("\r\n")
			return nil, ErrPickerCancelled
		case n == 1 && buf[0] == 'j', n == 3 && string(buf[:3]) == "\x1b[B":
			cursor = min(cursor+1, rows-1)
		case n == 1 && buf[0] == 'k', n == 3 && string(buf[:3]) == "\x1b[A":
			cursor = max(cursor-1, 0)
		}

		fmt.Printf("\x1b[%dA", rows+2)
		render()
	}
}
