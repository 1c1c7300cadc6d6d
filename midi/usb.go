package midi

import (
	"fmt"
	"sort"

	"github.com/karalabe/usb"
)

// USBDevice describes an attached USB device. It is informational: FlexFX
// boards enumerate as USB audio/MIDI class devices and are opened through
// their raw MIDI node, not through libusb.
type USBDevice struct {
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
	Serial       string
	Path         string
}

// String renders the device for listing.
func (d USBDevice) String() string {
	return fmt.Sprintf("%04x:%04x %s %s", d.VendorID, d.ProductID, d.Manufacturer, d.Product)
}

// ListUSB enumerates attached USB devices, sorted by vendor and product ID.
func ListUSB() ([]USBDevice, error) {
	if !usb.Supported() {
		return nil, ErrUSBUnsupported
	}

	infos, err := usb.EnumerateRaw(0, 0)
	if err != nil {
		return nil, fmt.Errorf("usb enumerate: %w", err)
	}

	out := make([]USBDevice, 0, len(infos))
	for _, info := range infos {
		out = append(out, USBDevice{
			VendorID:     info.VendorID,
			ProductID:    info.ProductID,
			Manufacturer: info.Manufacturer,
			Product:      info.Product,
			Serial:       info.Serial,
			Path:         info.Path,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].VendorID != out[j].VendorID {
			return out[i].VendorID < out[j].VendorID
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}
